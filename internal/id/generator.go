// Package id generates prefixed, sortable identifiers.
package id

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// Strategy identifies the identifier generation algorithm to use.
type Strategy int

const (
	// StrategyKSUID generates lexicographically sortable identifiers using KSUID.
	StrategyKSUID Strategy = iota
	// StrategyUUIDv7 generates time-ordered identifiers using UUID version 7.
	StrategyUUIDv7
)

// Prefixes for identifiers handed to clients.
const (
	PrefixNotification = "ntf"
	PrefixRequest      = "req"
)

var defaultGenerator = &Generator{strategy: StrategyKSUID}

// Generator produces prefixed identifiers.
type Generator struct {
	mu       sync.RWMutex
	strategy Strategy
}

// SetStrategy configures the generation strategy for the default generator.
func SetStrategy(strategy Strategy) {
	defaultGenerator.mu.Lock()
	defaultGenerator.strategy = strategy
	defaultGenerator.mu.Unlock()
}

// ParseStrategy maps a config value onto a Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "ksuid":
		return StrategyKSUID, nil
	case "uuidv7", "uuid":
		return StrategyUUIDv7, nil
	default:
		return StrategyKSUID, fmt.Errorf("unknown id strategy %q", value)
	}
}

// NewNotificationID returns an identifier for a persisted scheduled notification.
func NewNotificationID() string {
	return defaultGenerator.New(PrefixNotification)
}

// NewRequestID returns an identifier for an inbound API request.
func NewRequestID() string {
	return defaultGenerator.New(PrefixRequest)
}

// New returns "<prefix>-<body>" using the generator's strategy.
func (g *Generator) New(prefix string) string {
	g.mu.RLock()
	strategy := g.strategy
	g.mu.RUnlock()

	var body string
	switch strategy {
	case StrategyUUIDv7:
		if v7, err := uuid.NewV7(); err == nil {
			body = v7.String()
			break
		}
		body = ksuid.New().String()
	default:
		body = ksuid.New().String()
	}
	return prefix + "-" + body
}

// HasPrefix reports whether value was issued with prefix.
func HasPrefix(value, prefix string) bool {
	return strings.HasPrefix(value, prefix+"-") && len(value) > len(prefix)+1
}
