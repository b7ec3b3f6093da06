package journal

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator produces record identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() (string, error)

// NewID implements IDGenerator.
func (f IDFunc) NewID() (string, error) { return f() }

// ULIDGenerator issues ULIDs: a millisecond timestamp followed by random
// entropy. IDs issued within one millisecond stay lexicographically increasing.
type ULIDGenerator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewULIDGenerator returns a generator seeded from crypto/rand.
func NewULIDGenerator() *ULIDGenerator {
	var seed int64
	_ = binary.Read(cryptorand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ULIDGenerator{
		now:     time.Now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// NewID implements IDGenerator.
func (g *ULIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		return "", WrapError(ErrCodeInternal, "generate id", err)
	}
	return id.String(), nil
}
