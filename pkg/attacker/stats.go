package attacker

// Stats accounts the cost of a recovery attempt. These counters are
// reported for analysis only; nothing in the attack logic depends on
// their values.
type Stats struct {
	Success                  bool
	Secret                   []byte
	GuessesNeeded            int
	BytesWrittenToVictim     int
	BytesReadFromVictim      int
	AttackerCacheLinesLoaded int
	SetEvictions             int
}
