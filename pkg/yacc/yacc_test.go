package yacc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadByte_ReadsYourWrites(t *testing.T) {
	s := New(CPACK)
	s.WriteByte(100, 0x42)

	got, _ := s.ReadByte(100)
	if got != 0x42 {
		t.Fatalf("got %#x, want 0x42", got)
	}
}

func TestReadByte_MissThenHit(t *testing.T) {
	s := New(CPACK)

	_, speed := s.ReadByte(64)
	if speed != Miss {
		t.Fatalf("first access = %v, want Miss", speed)
	}

	_, speed = s.ReadByte(65)
	if speed != Hit {
		t.Fatalf("second access to same line = %v, want Hit", speed)
	}
}

func TestReadByte_EvictsLeastRecentlyUsed(t *testing.T) {
	s := New(CPACK)

	// Fill all Associativity slots with distinct incompressible lines so
	// none can share a slot via DOUBLE/TRIO/QUAD upgrade.
	for i := 0; i < Associativity; i++ {
		lineAddr := uint64(i)
		fillIncompressible(s, lineAddr)
		s.ReadByte(lineAddr << 6)
	}

	// Touch slot 0's line again so it's most recently used; slot 1's line
	// becomes the least recently used.
	s.ReadByte(0 << 6)

	// Bring in one more distinct line: it must evict line 1, not line 0.
	newLine := uint64(Associativity)
	fillIncompressible(s, newLine)
	s.ReadByte(newLine << 6)

	if _, ok := s.lookup(0); !ok {
		t.Fatalf("line 0 was evicted, want it retained (recently used)")
	}
	if _, ok := s.lookup(1); ok {
		t.Fatalf("line 1 still resident, want it evicted (least recently used)")
	}
}

func TestReadByte_Upgrades_SingleDoubleTrioQuad(t *testing.T) {
	s := New(CPACK)
	sb := uint64(5)

	line0 := sb<<2 | 0
	line1 := sb<<2 | 1
	line2 := sb<<2 | 2
	line3 := sb<<2 | 3

	// All-zero lines compress to 32 bits = 4 bytes, comfortably under
	// every upgrade threshold.
	s.ReadByte(line0 << 6)
	idx, ok := s.lookup(line0)
	if !ok || s.entries[idx].kind != kindSingle {
		t.Fatalf("after 1 block: want SINGLE, got %+v", s.entries[idx])
	}

	s.ReadByte(line1 << 6)
	idx, ok = s.lookup(line1)
	if !ok || s.entries[idx].kind != kindDouble {
		t.Fatalf("after 2 blocks: want DOUBLE, got %+v", s.entries[idx])
	}

	s.ReadByte(line2 << 6)
	idx, ok = s.lookup(line2)
	if !ok || s.entries[idx].kind != kindTrio {
		t.Fatalf("after 3 blocks: want TRIO, got %+v", s.entries[idx])
	}

	s.ReadByte(line3 << 6)
	idx, ok = s.lookup(line3)
	if !ok || s.entries[idx].kind != kindQuad {
		t.Fatalf("after 4 blocks: want QUAD, got %+v", s.entries[idx])
	}

	// Every block of the superblock should still read as a hit.
	for _, l := range []uint64{line0, line1, line2, line3} {
		if _, ok := s.lookup(l); !ok {
			t.Fatalf("line %#x not resident in QUAD slot", l)
		}
	}
}

func TestRemoveLine_DowngradesDoubleToSingle(t *testing.T) {
	s := New(CPACK)
	sb := uint64(9)
	line0 := sb<<2 | 0
	line1 := sb<<2 | 1

	s.ReadByte(line0 << 6)
	s.ReadByte(line1 << 6)

	idx, ok := s.lookup(line0)
	if !ok || s.entries[idx].kind != kindDouble {
		t.Fatalf("setup: want DOUBLE, got %+v", s.entries[idx])
	}

	s.removeLine(line0)

	idx, ok = s.lookup(line1)
	if !ok || s.entries[idx].kind != kindSingle || s.entries[idx].lineAddr != line1 {
		t.Fatalf("after removing line0: want SINGLE(line1), got %+v", s.entries[idx])
	}
	if _, ok := s.lookup(line0); ok {
		t.Fatalf("line0 still resident after removal")
	}
}

func TestRemoveLine_TrioReorderingIsAsymmetric(t *testing.T) {
	// block1 removed from a TRIO holding blocks {0,1,2}: remaining blocks
	// must become {0,2} in that order, not {2,0} or any other permutation.
	s := New(CPACK)
	sb := uint64(3)
	s.entries[0] = trioEntry(sb, 0, 1, 2)
	s.lru = []int{0}

	s.removeLine(sb<<2 | 1)

	got := s.entries[0]
	if got.kind != kindDouble {
		t.Fatalf("kind = %v, want kindDouble", got.kind)
	}
	if got.blocks[0] != 0 || got.blocks[1] != 2 {
		t.Fatalf("blocks = %v, want [0 2]", got.blocks[:2])
	}
}

func TestUpdateLRU_BumpsToTailWithoutDuplication(t *testing.T) {
	s := New(CPACK)
	s.lru = []int{2, 0, 1}

	s.updateLRU(0)

	want := []int{2, 1, 0}
	if diff := cmp.Diff(want, s.lru); diff != "" {
		t.Fatalf("lru mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateLRU_SequenceOfDistinctCallsIsExactOrder(t *testing.T) {
	s := New(CPACK)
	for _, idx := range []int{3, 1, 4, 1, 5, 3} {
		s.updateLRU(idx)
	}
	// Filter-then-append: each distinct index ends up exactly once, ordered
	// by the call that most recently touched it.
	want := []int{4, 1, 5, 3}
	if diff := cmp.Diff(want, s.lru); diff != "" {
		t.Fatalf("lru mismatch (-want +got):\n%s", diff)
	}
}

// fillIncompressible writes a line that C-PACK cannot compress under 32
// bytes, so it can never be upgraded into a shared DOUBLE/TRIO/QUAD slot.
func fillIncompressible(s *Set, lineAddr uint64) {
	for i := 0; i < 64; i++ {
		v := byte(0x13 + i*7 + int(lineAddr)*101)
		if v == 0 {
			v = 1
		}
		s.mem.Write(lineAddr, i, v)
	}
}
