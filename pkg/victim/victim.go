// Package victim models the attacked program: a YACC-backed buffer whose
// last few bytes hold a secret the program never exposes directly.
package victim

import (
	"math/rand/v2"

	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/tracelog"
	"github.com/matthewm101/yacc-cpack-cache-attack/pkg/yacc"
)

// BufferSize is the size, in bytes, of the victim's buffer. It occupies
// exactly four consecutive lines (one superblock).
const BufferSize = 256

// Program is a victim: a cache-backed buffer with a secret at its tail.
type Program struct {
	cache      *yacc.Set
	secret     []byte
	bufferBase uint64
	verbose    bool
}

// New constructs a victim whose secret is secretLen (4 or 8) random,
// pairwise-distinct, nonzero bytes.
func New(rng *rand.Rand, secretLen int, compressor yacc.Compressor, verbose bool) *Program {
	secret := randomSecret(rng, secretLen)
	return newWithSecret(rng, secret, compressor, verbose)
}

// NewWithCustomSecret constructs a victim with an experimenter-chosen
// secret, useful for deterministic tests.
func NewWithCustomSecret(rng *rand.Rand, secret []byte, compressor yacc.Compressor, verbose bool) *Program {
	cp := make([]byte, len(secret))
	copy(cp, secret)
	return newWithSecret(rng, cp, compressor, verbose)
}

func newWithSecret(rng *rand.Rand, secret []byte, compressor yacc.Compressor, verbose bool) *Program {
	p := &Program{
		cache:      yacc.New(compressor),
		secret:     secret,
		bufferBase: randomBufferBase(rng),
		verbose:    verbose,
	}
	for i, b := range secret {
		index := uint64(BufferSize - len(secret) + i)
		p.cache.WriteByte(p.bufferBase+index, b)
	}
	if p.verbose {
		tracelog.Victim("secret chosen: %X", p.secret)
	}
	return p
}

// randomBufferBase picks a buffer_base whose low 8 bits are zero, so the
// 256-byte buffer is 256-byte aligned and its four lines form exactly one
// superblock. The spec's reference source masks to 64 KB alignment, far
// coarser than required; this tightens the mask to the superblock size
// it actually needs, per the spec's explicit permission to do so.
func randomBufferBase(rng *rand.Rand) uint64 {
	return rng.Uint64() &^ 0xFF
}

func randomSecret(rng *rand.Rand, secretLen int) []byte {
	used := make(map[byte]struct{}, secretLen)
	secret := make([]byte, 0, secretLen)
	for len(secret) < secretLen {
		b := byte(rng.UintN(256))
		if b == 0 {
			continue
		}
		if _, seen := used[b]; seen {
			continue
		}
		used[b] = struct{}{}
		secret = append(secret, b)
	}
	return secret
}

// WriteByte writes byte at index into the victim's buffer. It refuses to
// write on top of the secret and reports whether the write happened.
func (p *Program) WriteByte(index uint64, data byte) bool {
	if index >= BufferSize-uint64(len(p.secret)) {
		return false
	}
	p.cache.WriteByte(p.bufferBase+index, data)
	return true
}

// ReadByte reads the byte at index from the victim's buffer. The second
// return value is false if index lands out of bounds or on the secret.
func (p *Program) ReadByte(index uint64) (byte, bool) {
	if index >= BufferSize-uint64(len(p.secret)) {
		return 0, false
	}
	b, _ := p.cache.ReadByte(p.bufferBase + index)
	return b, true
}

// Cache exposes the underlying cache so the attacker can issue reads
// against its own address space to evict the victim's lines. The
// attacker has no other way to observe the victim's entries.
func (p *Program) Cache() *yacc.Set {
	return p.cache
}

// SecretLen returns the length of the victim's secret.
func (p *Program) SecretLen() int {
	return len(p.secret)
}

// SecretLineAddr returns the line address of the buffer's last line,
// where the secret resides.
func (p *Program) SecretLineAddr() uint64 {
	return (p.bufferBase >> 6) + 3
}

// PrintCompressibility logs the compressed size of the secret line.
// Debug only; never consulted by the attack itself.
func (p *Program) PrintCompressibility() {
	bits := p.cache.CompressBits(p.SecretLineAddr())
	tracelog.Victim("secret line compressibility: %d bits or %d bytes", bits, (bits+7)/8)
}

// PrintSecretLine logs the raw contents of the secret line. Debug only;
// never consulted by the attack itself.
func (p *Program) PrintSecretLine() {
	tracelog.Victim("secret line: %X", *p.cache.PeekLine(p.SecretLineAddr()))
}

// ValidateSecret reports whether guess matches the victim's secret. Only
// meaningful once the attacker claims to know the secret.
func (p *Program) ValidateSecret(guess []byte) bool {
	if len(guess) < len(p.secret) {
		return false
	}
	for i, b := range p.secret {
		if guess[i] != b {
			return false
		}
	}
	return true
}
