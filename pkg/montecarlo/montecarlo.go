// Package montecarlo runs many independent YACC/C-PACK recovery attacks in
// parallel and aggregates their cost counters. It is the out-of-scope
// collaborator the core attack doesn't depend on: nothing in pkg/attacker,
// pkg/victim, or pkg/yacc imports this package.
package montecarlo

import (
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/attacker"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/tracelog"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/victim"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/yacc"
)

// Config parameterizes a Monte-Carlo run.
type Config struct {
	// Iterations is the number of independent attacks to run.
	Iterations int
	// Workers is the number of goroutines draining the task queue. Zero
	// means runtime.NumCPU().
	Workers int
	// SecretSize selects Attack4Byte (4) or Attack8Byte (8).
	SecretSize int
	// Seed deterministically derives one RNG stream per trial. Zero means
	// seed from the current time.
	Seed    uint64
	Verbose bool
}

// Aggregate summarizes the counters of every trial in a run.
type Aggregate struct {
	Trials                    int
	Successes                 int
	TotalGuessesNeeded        int64
	TotalBytesWrittenToVictim int64
	TotalBytesReadFromVictim  int64
	TotalCacheLinesLoaded     int64
	TotalSetEvictions         int64
}

// SuccessRate returns the fraction of trials that recovered the secret.
func (a Aggregate) SuccessRate() float64 {
	if a.Trials == 0 {
		return 0
	}
	return float64(a.Successes) / float64(a.Trials)
}

// Run executes cfg.Iterations independent attacks across cfg.Workers
// goroutines, grounded on oisee-z80-optimizer's search.WorkerPool: a
// buffered task channel, a WaitGroup of drain loops, atomic counters for
// live progress, and a periodic ticker goroutine for throughput reporting.
// Each worker constructs its own victim.Program and carries one attack to
// completion before taking the next task; no state crosses goroutine
// boundaries except the resulting attacker.Stats.
func Run(cfg Config) Aggregate {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	tasks := make(chan uint64, cfg.Iterations)
	for i := 0; i < cfg.Iterations; i++ {
		tasks <- seed ^ uint64(i)*0x9E3779B97F4A7C15
	}
	close(tasks)

	var (
		completed atomic.Int64
		successes atomic.Int64
		guesses   atomic.Int64
		written   atomic.Int64
		read      atomic.Int64
		loaded    atomic.Int64
		evictions atomic.Int64
	)

	done := make(chan struct{})
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				tracelog.MonteCarlo("%d/%d trials (%d succeeded) after %s",
					completed.Load(), cfg.Iterations, successes.Load(), time.Since(startTime).Round(time.Second))
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for taskSeed := range tasks {
				stats := runOne(taskSeed, cfg.SecretSize, cfg.Verbose)
				completed.Add(1)
				if stats.Success {
					successes.Add(1)
				}
				guesses.Add(int64(stats.GuessesNeeded))
				written.Add(int64(stats.BytesWrittenToVictim))
				read.Add(int64(stats.BytesReadFromVictim))
				loaded.Add(int64(stats.AttackerCacheLinesLoaded))
				evictions.Add(int64(stats.SetEvictions))
			}
		}()
	}
	wg.Wait()
	close(done)

	return Aggregate{
		Trials:                    cfg.Iterations,
		Successes:                 int(successes.Load()),
		TotalGuessesNeeded:        guesses.Load(),
		TotalBytesWrittenToVictim: written.Load(),
		TotalBytesReadFromVictim:  read.Load(),
		TotalCacheLinesLoaded:     loaded.Load(),
		TotalSetEvictions:         evictions.Load(),
	}
}

func runOne(seed uint64, secretSize int, verbose bool) attacker.Stats {
	rng := rand.New(rand.NewPCG(seed, seed^0xD1B54A32D192ED03))
	v := victim.New(rng, secretSize, yacc.CPACK, verbose)
	switch secretSize {
	case 4:
		return attacker.Attack4Byte(v, verbose)
	case 8:
		return attacker.Attack8Byte(v, verbose)
	default:
		tracelog.Fatalf("montecarlo: unsupported secret size %d", secretSize)
		return attacker.Stats{}
	}
}
