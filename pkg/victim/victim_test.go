package victim

import (
	"math/rand/v2"
	"testing"

	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/yacc"
)

func newTestRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 1))
}

func TestNewWithCustomSecret_WritesSecretToBufferTail(t *testing.T) {
	rng := newTestRNG()
	secret := []byte{0x11, 0x22, 0x33, 0x44}
	p := NewWithCustomSecret(rng, secret, yacc.CPACK, false)

	if p.SecretLen() != 4 {
		t.Fatalf("SecretLen() = %d, want 4", p.SecretLen())
	}

	line := p.Cache().PeekLine(p.SecretLineAddr())
	// The secret occupies the last 4 bytes of the 256-byte buffer, which
	// is the last 4 bytes of the buffer's fourth (index-3) line.
	got := line[len(line)-4:]
	for i, b := range secret {
		if got[i] != b {
			t.Fatalf("secret line tail = %X, want %X", got, secret)
		}
	}
}

func TestWriteByte_RejectsIndexOnTopOfSecret(t *testing.T) {
	rng := newTestRNG()
	p := NewWithCustomSecret(rng, []byte{0xAA, 0xBB, 0xCC, 0xDD}, yacc.CPACK, false)

	if ok := p.WriteByte(BufferSize-4, 0x99); ok {
		t.Fatalf("write at secret boundary succeeded, want rejection")
	}
	if ok := p.WriteByte(BufferSize-1, 0x99); ok {
		t.Fatalf("write at last secret byte succeeded, want rejection")
	}
	if ok := p.WriteByte(BufferSize-5, 0x99); !ok {
		t.Fatalf("write just before secret rejected, want success")
	}
}

func TestReadByte_RejectsIndexOnTopOfSecret(t *testing.T) {
	rng := newTestRNG()
	p := NewWithCustomSecret(rng, []byte{0x01, 0x02, 0x03, 0x04}, yacc.CPACK, false)

	if _, ok := p.ReadByte(BufferSize - 1); ok {
		t.Fatalf("read of secret byte succeeded, want rejection")
	}
	if _, ok := p.ReadByte(0); !ok {
		t.Fatalf("read of non-secret byte rejected, want success")
	}
}

func TestValidateSecret(t *testing.T) {
	rng := newTestRNG()
	secret := []byte{0x10, 0x20, 0x30, 0x40}
	p := NewWithCustomSecret(rng, secret, yacc.CPACK, false)

	if !p.ValidateSecret([]byte{0x10, 0x20, 0x30, 0x40}) {
		t.Fatalf("ValidateSecret with correct guess = false, want true")
	}
	if p.ValidateSecret([]byte{0x10, 0x20, 0x30, 0x41}) {
		t.Fatalf("ValidateSecret with wrong last byte = true, want false")
	}
	if p.ValidateSecret([]byte{0x10, 0x20, 0x30}) {
		t.Fatalf("ValidateSecret with short guess = true, want false")
	}
}

func TestRandomBufferBase_IsSuperblockAligned(t *testing.T) {
	rng := newTestRNG()
	for i := 0; i < 100; i++ {
		base := randomBufferBase(rng)
		if base&0xFF != 0 {
			t.Fatalf("buffer_base %#x not 256-byte aligned", base)
		}
	}
}

func TestRandomSecret_IsDistinctAndNonzero(t *testing.T) {
	rng := newTestRNG()
	for trial := 0; trial < 50; trial++ {
		secret := randomSecret(rng, 8)
		seen := make(map[byte]struct{}, 8)
		for _, b := range secret {
			if b == 0 {
				t.Fatalf("secret contains zero byte: %X", secret)
			}
			if _, dup := seen[b]; dup {
				t.Fatalf("secret contains duplicate byte: %X", secret)
			}
			seen[b] = struct{}{}
		}
	}
}
