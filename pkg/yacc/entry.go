package yacc

// entryKind tags the five shapes a YACC set slot can hold. A slot is a
// discriminated union, not a product of optionals: which fields are
// meaningful depends entirely on kind, and the fixed-size blocks array is
// reused (and reinterpreted) across DOUBLE and TRIO.
type entryKind int

const (
	kindInvalid entryKind = iota
	kindSingle
	kindDouble
	kindTrio
	kindQuad
)

// entry is one slot of a YACC set.
type entry struct {
	kind entryKind

	// lineAddr is meaningful only when kind == kindSingle.
	lineAddr uint64

	// sbAddr is meaningful for kindDouble, kindTrio, and kindQuad.
	sbAddr uint64

	// blocks holds the block numbers (0..3) resident in this slot.
	// kindDouble uses blocks[0:2], kindTrio uses blocks[0:3]; kindQuad
	// holds all four blocks of its superblock implicitly and ignores
	// this field entirely.
	blocks [3]uint64
}

func invalidEntry() entry {
	return entry{kind: kindInvalid}
}

func singleEntry(lineAddr uint64) entry {
	return entry{kind: kindSingle, lineAddr: lineAddr}
}

func doubleEntry(sbAddr, block0, block1 uint64) entry {
	return entry{kind: kindDouble, sbAddr: sbAddr, blocks: [3]uint64{block0, block1, 0}}
}

func trioEntry(sbAddr, block0, block1, block2 uint64) entry {
	return entry{kind: kindTrio, sbAddr: sbAddr, blocks: [3]uint64{block0, block1, block2}}
}

func quadEntry(sbAddr uint64) entry {
	return entry{kind: kindQuad, sbAddr: sbAddr}
}

// matches reports whether this slot already holds the given line address.
func (e entry) matches(lineAddr uint64) bool {
	sb := lineAddr >> 2
	block := lineAddr & 0b11
	switch e.kind {
	case kindSingle:
		return e.lineAddr == lineAddr
	case kindDouble:
		return e.sbAddr == sb && (block == e.blocks[0] || block == e.blocks[1])
	case kindTrio:
		return e.sbAddr == sb && (block == e.blocks[0] || block == e.blocks[1] || block == e.blocks[2])
	case kindQuad:
		return e.sbAddr == sb
	default:
		return false
	}
}
