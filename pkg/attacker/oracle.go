package attacker

import (
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/tracelog"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/victim"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/yacc"
)

// Probe primes the victim's secret line with attackString, evicts the
// victim's cache entries, re-admits them in a load-bearing order, and
// reports whether the secret line ended up compressed to 32 bytes or
// fewer. bufferState tracks the bytes currently written to the victim's
// buffer so only the bytes that actually change are rewritten.
func Probe(v *victim.Program, attackString []byte, bufferState []byte, stats *Stats) bool {
	// Step 1: prime the secret line, changing only the bytes that differ
	// from what's already there.
	for i, b := range attackString {
		if bufferState[i] != b {
			if ok := v.WriteByte(192+uint64(i), b); !ok {
				tracelog.Fatalf("attacker: out-of-bounds write to victim buffer at index %d", 192+i)
			}
			bufferState[i] = b
			stats.BytesWrittenToVictim++
		}
	}

	// Step 2: flush every line the victim might hold, by reading one line
	// from each of ASSOCIATIVITY distinct attacker-owned superblocks.
	for i := 0; i < yacc.Associativity; i++ {
		v.Cache().ReadByte(uint64(i) * 256)
		stats.AttackerCacheLinesLoaded++
	}
	stats.SetEvictions++

	// Step 3: re-admit the victim's superblock. The secret line must be
	// read before the zero line: if compression happened, the zero-line
	// read upgrades the secret line's slot (SINGLE->DOUBLE) instead of
	// evicting a second attacker line.
	v.ReadByte(192)
	v.ReadByte(0)
	stats.BytesReadFromVictim += 2

	// Step 4: the replacement policy is LRU, so only the second-least
	// recently used attacker line needs checking: the least recently
	// used one was certainly evicted by the secret-line read in step 3,
	// but the second-least
	// recently used one survives only if step 3 upgraded rather than
	// evicted.
	_, speed := v.Cache().ReadByte(256)
	stats.AttackerCacheLinesLoaded++

	return speed == yacc.Hit
}
