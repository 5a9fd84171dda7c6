// Package tracelog provides the simulator's subsystem-gated tracing,
// backed by glog verbosity levels instead of a hand-rolled set of
// per-subsystem boolean toggles.
package tracelog

import "github.com/golang/glog"

// Verbosity levels used throughout the simulator. Setting glog's own v
// flag to N (yaccattack's --verbose sets it to 2) enables a level and
// everything below it, the same way glog.V is used everywhere else it
// appears in this codebase's lineage.
const (
	// LevelCache traces YACC set admission, upgrade, and eviction decisions.
	LevelCache glog.Level = 1
	// LevelAttacker traces recovery-driver phase transitions.
	LevelAttacker glog.Level = 1
	// LevelVictim traces victim debug printers (secret line, compressibility).
	LevelVictim glog.Level = 2
	// LevelMonteCarlo traces the overall progress of the parallel trial runner.
	LevelMonteCarlo glog.Level = 1
)

// Cache logs a YACC set state-machine event at LevelCache.
func Cache(format string, args ...interface{}) {
	if glog.V(LevelCache) {
		glog.Infof("yacc: "+format, args...)
	}
}

// Attacker logs an oracle/recovery-driver event at LevelAttacker.
func Attacker(format string, args ...interface{}) {
	if glog.V(LevelAttacker) {
		glog.Infof("attacker: "+format, args...)
	}
}

// Victim logs a victim debug-printer event at LevelVictim.
func Victim(format string, args ...interface{}) {
	if glog.V(LevelVictim) {
		glog.Infof("victim: "+format, args...)
	}
}

// MonteCarlo logs parallel trial-runner progress at LevelMonteCarlo.
func MonteCarlo(format string, args ...interface{}) {
	if glog.V(LevelMonteCarlo) {
		glog.Infof("montecarlo: "+format, args...)
	}
}

// Fatalf reports a programmer-error precondition violation (malformed
// builder input, corrupted entry state) and aborts the process. These
// are bugs, not runtime conditions, so they are never recovered from.
func Fatalf(format string, args ...interface{}) {
	glog.Fatalf(format, args...)
}

// Flush flushes any buffered log entries. Call before process exit.
func Flush() {
	glog.Flush()
}
