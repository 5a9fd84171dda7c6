package attacker

// allShorts returns every nonzero 16-bit value, ordered so that popping
// from the tail (as the elimination loop does) tests 0xFFFF first, same
// as the reference implementation's descending collection order.
func allShorts() []uint16 {
	shorts := make([]uint16, 0, 0xFFFF)
	for v := uint32(1); v <= 0xFFFF; v++ {
		shorts = append(shorts, uint16(v))
	}
	return shorts
}

// allBytes returns every nonzero byte value, ordered so that popping from
// the tail tests 0xFF first.
func allBytes() []byte {
	bytes := make([]byte, 0, 255)
	for v := 1; v <= 0xFF; v++ {
		bytes = append(bytes, byte(v))
	}
	return bytes
}

// takeLastShorts removes the last n elements of candidates (the next
// batch to test) and returns (batch, remainder). batch preserves the
// popped elements' original relative order.
func takeLastShorts(candidates []uint16, n int) (batch, rest []uint16) {
	split := len(candidates) - n
	batch = append([]uint16{}, candidates[split:]...)
	rest = append([]uint16{}, candidates[:split]...)
	return batch, rest
}

func takeLastBytes(candidates []byte, n int) (batch, rest []byte) {
	split := len(candidates) - n
	batch = append([]byte{}, candidates[split:]...)
	rest = append([]byte{}, candidates[:split]...)
	return batch, rest
}

func toShortSet(values []uint16) map[uint16]struct{} {
	set := make(map[uint16]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func toByteSet(values []byte) map[byte]struct{} {
	set := make(map[byte]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
