package ratelimit

import (
	"fmt"

	"github.com/staffparty/partyhub/common/config"
)

// Class names a bucket of requests that share a limit
type Class string

const (
	ClassGlobal   Class = "global"   // Every request, service-wide
	ClassRegister Class = "register" // Session creation, per client IP
	ClassVote     Class = "vote"     // Vote submission, per participant
	ClassExchange Class = "exchange" // Gift-exchange mutations, per participant
)

// ClassConfig defines the limit for one class
type ClassConfig struct {
	Class         Class
	Limit         int64 // Requests allowed per window
	WindowSeconds int
	Description   string
}

// Limits maps each class to its configuration
type Limits map[Class]ClassConfig

// DefaultLimits mirrors the config package defaults
var DefaultLimits = Limits{
	ClassGlobal:   {Class: ClassGlobal, Limit: 3000, WindowSeconds: 60, Description: "All requests - 3000/minute"},
	ClassRegister: {Class: ClassRegister, Limit: 10, WindowSeconds: 60, Description: "Session creation - 10/minute per IP"},
	ClassVote:     {Class: ClassVote, Limit: 30, WindowSeconds: 60, Description: "Votes - 30/minute per participant"},
	ClassExchange: {Class: ClassExchange, Limit: 30, WindowSeconds: 60, Description: "Gift exchange - 30/minute per participant"},
}

// LimitsFromConfig builds per-class limits from service configuration
func LimitsFromConfig(cfg config.RateLimitConfig) Limits {
	w := cfg.WindowSeconds
	return Limits{
		ClassGlobal:   {Class: ClassGlobal, Limit: cfg.Global, WindowSeconds: w, Description: describe("All requests", cfg.Global, w)},
		ClassRegister: {Class: ClassRegister, Limit: cfg.Register, WindowSeconds: w, Description: describe("Session creation per IP", cfg.Register, w)},
		ClassVote:     {Class: ClassVote, Limit: cfg.Vote, WindowSeconds: w, Description: describe("Votes per participant", cfg.Vote, w)},
		ClassExchange: {Class: ClassExchange, Limit: cfg.Exchange, WindowSeconds: w, Description: describe("Gift exchange per participant", cfg.Exchange, w)},
	}
}

// For returns the config for class, falling back to the most restrictive class
func (l Limits) For(class Class) ClassConfig {
	if cfg, ok := l[class]; ok {
		return cfg
	}
	return l[ClassRegister]
}

func describe(what string, limit int64, window int) string {
	return fmt.Sprintf("%s - %d per %ds", what, limit, window)
}
