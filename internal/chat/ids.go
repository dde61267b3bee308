package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator mints client-side message ids. Millisecond stamps never repeat
// within one generator, so two sends in the same millisecond get distinct ids.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator creates a generator using clock (time.Now when nil).
func NewIDGenerator(clock func() time.Time) *IDGenerator {
	if clock == nil {
		clock = time.Now
	}
	return &IDGenerator{now: clock}
}

func (g *IDGenerator) nextMillis() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return ms
}

// Text returns msg_<ms>.
func (g *IDGenerator) Text() string {
	return fmt.Sprintf("msg_%d", g.nextMillis())
}

// File returns file_<ms>_<random>.
func (g *IDGenerator) File() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("file_%d_%s", g.nextMillis(), suffix)
}

// System returns sys_<ms>.
func (g *IDGenerator) System() string {
	return fmt.Sprintf("sys_%d", g.nextMillis())
}

// Support returns support_<ms>.
func (g *IDGenerator) Support() string {
	return fmt.Sprintf("support_%d", g.nextMillis())
}
