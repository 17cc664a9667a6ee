package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
)

// Rand is the random source used for impostor, word and first-speaker
// selection. Intn returns a value in [0, n).
type Rand interface {
	Intn(n int) int
}

type lockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// NewRand returns a goroutine-safe source seeded with seed.
func NewRand(seed int64) Rand {
	return &lockedRand{src: rand.New(rand.NewSource(seed))}
}

// NewSeededRand returns a goroutine-safe source seeded from crypto/rand.
func NewSeededRand() Rand {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return NewRand(rand.Int63())
	}
	return NewRand(int64(binary.LittleEndian.Uint64(b[:])))
}
