// Package memmap models a sparse, line-addressed byte store backing the
// YACC cache: lines are allocated lazily and a missing line reads as all
// zeros.
package memmap

import "github.com/matthewm101/yacc-cpack-cache-attack/pkg/cpack"

// zeroLine is returned for addresses that have never been written.
// It must never be mutated; callers that need to write materialize a
// fresh line first via ensure.
var zeroLine [cpack.LineSize]byte

// Map is a sparse line-addressed memory.
type Map struct {
	lines map[uint64]*[cpack.LineSize]byte
}

// New returns an empty memory map.
func New() *Map {
	return &Map{lines: make(map[uint64]*[cpack.LineSize]byte)}
}

// Line returns a read-only view of the line at addr. Absent lines return
// the shared zero line.
func (m *Map) Line(addr uint64) *[cpack.LineSize]byte {
	if l, ok := m.lines[addr]; ok {
		return l
	}
	return &zeroLine
}

// Write sets the byte at offset within the line at addr, allocating a
// fresh zero-filled line first if addr has never been written.
func (m *Map) Write(addr uint64, offset int, b byte) {
	m.ensure(addr)[offset] = b
}

// ensure returns a mutable line at addr, materializing a zeroed one if
// absent so the shared zeroLine is never aliased by a writer.
func (m *Map) ensure(addr uint64) *[cpack.LineSize]byte {
	if l, ok := m.lines[addr]; ok {
		return l
	}
	l := new([cpack.LineSize]byte)
	m.lines[addr] = l
	return l
}
