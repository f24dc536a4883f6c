package repo

import (
	"math/rand"
	"time"
)

// MainColor is the fixed colour of the branch created by init.
const MainColor = "#4ade80"

// DefaultPalette holds the colours new branches are drawn from.
var DefaultPalette = []string{
	"#f97316", "#34d399", "#f472b6", "#a78bfa",
	"#f59e0b", "#60a5fa", "#ef4444", "#10b981",
}

func newTimeSeededRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// NewRand returns a source seeded with seed, or time-seeded when seed is 0.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		return newTimeSeededRand()
	}
	return rand.New(rand.NewSource(seed))
}
