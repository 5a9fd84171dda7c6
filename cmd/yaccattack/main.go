// Command yaccattack drives the YACC/C-PACK cache-attack simulator: it
// runs many independent recovery attempts and reports aggregated cost
// counters, the Go realization of the original simulator's bare main().
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/attacker"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/montecarlo"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/victim"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/yacc"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "yaccattack",
		Short: "YACC/C-PACK compressed-cache side-channel attack simulator",
	}

	var iterations int
	var workers int
	var secretSize int
	var seed int64
	var verbose bool

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run many independent recovery attacks and report aggregated counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secretSize != 4 && secretSize != 8 {
				return fmt.Errorf("--secret-size must be 4 or 8, got %d", secretSize)
			}
			fmt.Printf("YACC/C-PACK cache attack simulator\n")
			fmt.Printf("  secret size: %d bytes\n", secretSize)
			fmt.Printf("  iterations:  %d\n", iterations)
			fmt.Printf("  workers:     %d\n", workers)
			fmt.Println()

			agg := montecarlo.Run(montecarlo.Config{
				Iterations: iterations,
				Workers:    workers,
				SecretSize: secretSize,
				Seed:       uint64(seed),
				Verbose:    verbose,
			})

			fmt.Printf("trials:                   %d\n", agg.Trials)
			fmt.Printf("successes:                %d (%.2f%%)\n", agg.Successes, agg.SuccessRate()*100)
			fmt.Printf("total guesses needed:     %d\n", agg.TotalGuessesNeeded)
			fmt.Printf("bytes written to victim:  %d\n", agg.TotalBytesWrittenToVictim)
			fmt.Printf("bytes read from victim:   %d\n", agg.TotalBytesReadFromVictim)
			fmt.Printf("attacker lines loaded:    %d\n", agg.TotalCacheLinesLoaded)
			fmt.Printf("attacker set evictions:   %d\n", agg.TotalSetEvictions)
			return nil
		},
	}
	runCmd.Flags().IntVar(&iterations, "iterations", 10_000, "number of independent attacks to run")
	runCmd.Flags().IntVar(&workers, "workers", 0, "number of worker goroutines (0 = NumCPU)")
	runCmd.Flags().IntVar(&secretSize, "secret-size", 4, "victim secret length in bytes (4 or 8)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (0 = derive from current time)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log cache events and recovery phases to stderr")

	var demoSecretHex string
	demoCmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a single attack against one chosen secret and print the recovered bytes",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := parseSecretHex(demoSecretHex)
			if err != nil {
				return err
			}
			s := uint64(seed)
			if s == 0 {
				s = uint64(time.Now().UnixNano())
			}
			rng := rand.New(rand.NewPCG(s, s^1))
			v := victim.NewWithCustomSecret(rng, secret, yacc.CPACK, verbose)

			var stats attacker.Stats
			switch len(secret) {
			case 4:
				stats = attacker.Attack4Byte(v, verbose)
			case 8:
				stats = attacker.Attack8Byte(v, verbose)
			default:
				return fmt.Errorf("--secret must be 4 or 8 bytes, got %d", len(secret))
			}

			fmt.Printf("secret:    %X\n", secret)
			fmt.Printf("recovered: %X\n", stats.Secret)
			fmt.Printf("success:   %v (guesses needed: %d)\n", stats.Success, stats.GuessesNeeded)
			if !stats.Success {
				os.Exit(1)
			}
			return nil
		},
	}
	demoCmd.Flags().StringVar(&demoSecretHex, "secret", "11223344", "hex-encoded 4- or 8-byte secret")
	demoCmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed for the buffer base (0 = derive from current time)")
	demoCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log cache events and recovery phases to stderr")

	// tracelog output is gated by glog's verbosity, which cobra never parses;
	// --verbose raises it to the victim level and sends it to stderr.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		if err := flag.Set("v", "2"); err != nil {
			return err
		}
		return flag.Set("logtostderr", "true")
	}
	// With no subcommand, the root command runs the default sweep.
	rootCmd.RunE = runCmd.RunE

	rootCmd.AddCommand(runCmd, demoCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseSecretHex(s string) ([]byte, error) {
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex secret %q: %w", s, err)
	}
	return out, nil
}
