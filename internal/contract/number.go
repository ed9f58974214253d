package contract

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NumberGenerator produces contract numbers shaped C-{unixMillis}-{8 lowercase hex}.
// Numbers from one generator never repeat; across processes the unique index on
// contract_number is the final guard.
type NumberGenerator struct {
	mu         sync.Mutex
	lastMillis int64
	used       map[string]struct{}
}

func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{used: map[string]struct{}{}}
}

func (g *NumberGenerator) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	millis := now.UnixMilli()
	if millis != g.lastMillis {
		g.lastMillis = millis
		g.used = map[string]struct{}{}
	}
	for {
		suffix := randomSuffix()
		if _, taken := g.used[suffix]; taken {
			continue
		}
		g.used[suffix] = struct{}{}
		return fmt.Sprintf("C-%d-%s", millis, suffix)
	}
}

func randomSuffix() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}
