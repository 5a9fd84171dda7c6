// Package yacc implements a YACC (Yet Another Compressed Cache) set: an
// associative set of slots, each of which may hold one uncompressed line
// (SINGLE) or up to four co-resident lines of the same superblock
// (DOUBLE/TRIO/QUAD) once they compress small enough to share a slot.
package yacc

import (
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/cpack"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/memmap"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/tracelog"
)

// Associativity is the number of slots in a YACC set.
const Associativity = 8

// Speed is the outcome of a cache access.
type Speed int

const (
	Miss Speed = iota
	Hit
)

func (s Speed) String() string {
	if s == Hit {
		return "HIT"
	}
	return "MISS"
}

// Compressor selects the line compressor a Set scores entries with. Only
// CPACK is defined; the type stays an explicit enum (rather than an
// interface) to leave room, named but unbuilt, for other compressors the
// spec's Non-goals exclude from this implementation.
type Compressor int

const (
	CPACK Compressor = iota
)

func (c Compressor) bytes(line *[cpack.LineSize]byte) int {
	switch c {
	case CPACK:
		return cpack.ByteCost(line)
	default:
		tracelog.Fatalf("yacc: unknown compressor %d", c)
		return 0
	}
}

func (c Compressor) bits(line *[cpack.LineSize]byte) int {
	switch c {
	case CPACK:
		return cpack.BitCost(line)
	default:
		tracelog.Fatalf("yacc: unknown compressor %d", c)
		return 0
	}
}

// Cache is the contract both the victim and the attacker drive a YACC
// set through.
type Cache interface {
	// ReadByte returns the byte at byte_addr and whether the access hit.
	ReadByte(byteAddr uint64) (byte, Speed)
	// WriteByte writes data at byte_addr. Write-allocate: the line is
	// brought into the cache, but no hit/miss is observable by the caller.
	WriteByte(byteAddr uint64, data byte)
}

// Set is one associative set of a YACC cache.
type Set struct {
	entries    [Associativity]entry
	lru        []int
	mem        *memmap.Map
	compressor Compressor
}

// New returns an empty YACC set backed by a fresh memory map.
func New(c Compressor) *Set {
	var entries [Associativity]entry
	for i := range entries {
		entries[i] = invalidEntry()
	}
	return &Set{
		entries:    entries,
		mem:        memmap.New(),
		compressor: c,
	}
}

// lookup returns the slot index currently holding lineAddr, if any.
func (s *Set) lookup(lineAddr uint64) (int, bool) {
	for i := range s.entries {
		if s.entries[i].matches(lineAddr) {
			return i, true
		}
	}
	return -1, false
}

// CompressBytes returns the compressed size, in bytes, of the line at
// lineAddr as it currently sits in main memory.
func (s *Set) CompressBytes(lineAddr uint64) int {
	return s.compressor.bytes(s.mem.Line(lineAddr))
}

// CompressBits returns the compressed size, in bits, of the line at
// lineAddr. Exposed for debug printers; not used by the attack itself.
func (s *Set) CompressBits(lineAddr uint64) int {
	return s.compressor.bits(s.mem.Line(lineAddr))
}

// PeekLine returns the line at lineAddr directly from memory, bypassing
// the cache. Debug only.
func (s *Set) PeekLine(lineAddr uint64) *[cpack.LineSize]byte {
	return s.mem.Line(lineAddr)
}

// access brings lineAddr into the set, returning whether it was already
// resident, and updates the LRU order.
func (s *Set) access(lineAddr uint64) Speed {
	sbAddr := lineAddr >> 2
	block := lineAddr & 0b11

	if idx, ok := s.lookup(lineAddr); ok {
		s.updateLRU(idx)
		return Hit
	}

	compressedSize := s.CompressBytes(lineAddr)

	emptyFound, singleFound, doubleFound, trioFound := -1, -1, -1, -1
scan:
	for i := range s.entries {
		e := s.entries[i]
		switch e.kind {
		case kindInvalid:
			if emptyFound == -1 {
				emptyFound = i
			}
		case kindSingle:
			if singleFound == -1 && e.lineAddr>>2 == sbAddr &&
				compressedSize <= 32 && s.CompressBytes(e.lineAddr) <= 32 {
				singleFound = i
			}
		case kindDouble:
			if doubleFound == -1 && e.sbAddr == sbAddr && compressedSize <= 16 &&
				s.CompressBytes(e.sbAddr<<2|e.blocks[0]) <= 16 &&
				s.CompressBytes(e.sbAddr<<2|e.blocks[1]) <= 16 {
				doubleFound = i
			}
		case kindTrio:
			// No recheck of the existing blocks' compressibility here — a
			// deliberate quirk of the original cache model, load-bearing
			// for the attack's bit budgets. This is the best possible
			// upgrade, so stop scanning as soon as it's found.
			if e.sbAddr == sbAddr && compressedSize <= 16 {
				trioFound = i
				break scan
			}
		case kindQuad:
			// A QUAD already holds every block of its superblock; never compatible.
		}
	}

	switch {
	case trioFound != -1:
		s.entries[trioFound] = quadEntry(sbAddr)
		tracelog.Cache("upgrade TRIO->QUAD slot=%d sb=%#x", trioFound, sbAddr)
		s.updateLRU(trioFound)
		return Miss
	case doubleFound != -1:
		e := s.entries[doubleFound]
		s.entries[doubleFound] = trioEntry(sbAddr, e.blocks[0], e.blocks[1], block)
		tracelog.Cache("upgrade DOUBLE->TRIO slot=%d sb=%#x block=%d", doubleFound, sbAddr, block)
		s.updateLRU(doubleFound)
		return Miss
	case singleFound != -1:
		existingBlock := s.entries[singleFound].lineAddr & 0b11
		s.entries[singleFound] = doubleEntry(sbAddr, existingBlock, block)
		tracelog.Cache("upgrade SINGLE->DOUBLE slot=%d sb=%#x block=%d", singleFound, sbAddr, block)
		s.updateLRU(singleFound)
		return Miss
	case emptyFound != -1:
		s.entries[emptyFound] = singleEntry(lineAddr)
		tracelog.Cache("fill slot=%d line=%#x", emptyFound, lineAddr)
		s.updateLRU(emptyFound)
		return Miss
	default:
		freed := s.lru[0]
		tracelog.Cache("evict slot=%d for line=%#x", freed, lineAddr)
		s.entries[freed] = singleEntry(lineAddr)
		s.updateLRU(freed)
		return Miss
	}
}

// removeLine pulls lineAddr out of whichever slot holds it, downgrading
// that slot to the variant matching its remaining lines, without
// recomputing any compressibility. It does not touch the LRU order.
func (s *Set) removeLine(lineAddr uint64) {
	modifiedSb := lineAddr >> 2
	modifiedBlock := lineAddr & 0b11

	for i := range s.entries {
		e := s.entries[i]
		var replacement *entry

		switch e.kind {
		case kindSingle:
			if e.lineAddr == lineAddr {
				r := invalidEntry()
				replacement = &r
			}
		case kindDouble:
			if e.sbAddr == modifiedSb {
				switch modifiedBlock {
				case e.blocks[0]:
					r := singleEntry(e.sbAddr<<2 | e.blocks[1])
					replacement = &r
				case e.blocks[1]:
					r := singleEntry(e.sbAddr<<2 | e.blocks[0])
					replacement = &r
				}
			}
		case kindTrio:
			if e.sbAddr == modifiedSb {
				switch modifiedBlock {
				case e.blocks[0]:
					r := doubleEntry(e.sbAddr, e.blocks[2], e.blocks[1])
					replacement = &r
				case e.blocks[1]:
					r := doubleEntry(e.sbAddr, e.blocks[0], e.blocks[2])
					replacement = &r
				case e.blocks[2]:
					r := doubleEntry(e.sbAddr, e.blocks[0], e.blocks[1])
					replacement = &r
				}
			}
		case kindQuad:
			if e.sbAddr == modifiedSb {
				remnants := make([]uint64, 0, 3)
				for b := uint64(0); b <= 3; b++ {
					if b != modifiedBlock {
						remnants = append(remnants, b)
					}
				}
				r := trioEntry(e.sbAddr, remnants[0], remnants[1], remnants[2])
				replacement = &r
			}
		}

		if replacement != nil {
			s.entries[i] = *replacement
			return
		}
	}
}

// updateLRU bumps idx to the tail of the LRU order (most recently used),
// appending it if this is the first time idx has ever been touched.
func (s *Set) updateLRU(idx int) {
	filtered := s.lru[:0:0]
	for _, x := range s.lru {
		if x != idx {
			filtered = append(filtered, x)
		}
	}
	s.lru = append(filtered, idx)
}

// ReadByte implements Cache.
func (s *Set) ReadByte(byteAddr uint64) (byte, Speed) {
	lineAddr := byteAddr >> 6
	offset := byteAddr & 0b111111
	speed := s.access(lineAddr)
	return s.mem.Line(lineAddr)[offset], speed
}

// WriteByte implements Cache with write-allocate semantics: the line is
// freshly scored and brought back into the set, but the hit/miss of that
// re-admission is not observable to the caller.
func (s *Set) WriteByte(byteAddr uint64, data byte) {
	lineAddr := byteAddr >> 6
	offset := byteAddr & 0b111111
	s.mem.Write(lineAddr, int(offset), data)
	s.removeLine(lineAddr)
	s.access(lineAddr)
}

var _ Cache = (*Set)(nil)
