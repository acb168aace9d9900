package agency

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Id prefixes keep client, booking and transaction ids visually distinct.
const (
	PrefixClient      = "C"
	PrefixBooking     = "B"
	PrefixTransaction = "T"
)

// Clock returns the current time. Stores take one so tests can pin dates.
type Clock func() time.Time

// IDGenerator issues prefixed ULIDs. Monotonic entropy makes ids generated in
// the same millisecond unique and ordered.
type IDGenerator struct {
	mu      sync.Mutex
	clock   Clock
	entropy io.Reader
}

// NewIDGenerator returns a generator stamping ids with clock (time.Now when nil).
func NewIDGenerator(clock Clock) *IDGenerator {
	if clock == nil {
		clock = time.Now
	}
	return &IDGenerator{
		clock:   clock,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// New returns prefix followed by a fresh 26-character ULID.
func (g *IDGenerator) New(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return prefix + ulid.MustNew(ulid.Timestamp(g.clock()), g.entropy).String()
}
