package repo

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"lukechampine.com/blake3"
)

// ID schemes accepted by NewIDGenerator.
const (
	SchemeRandom     = "random"
	SchemeUUID       = "uuid"
	SchemeContent    = "content"
	SchemeSequential = "sequential"
)

// IDGenerator hands out commit ids. Generators need not guarantee
// uniqueness; the repository draws again on collision.
type IDGenerator interface {
	NextID(message string, parents []string) string
}

// NewIDGenerator returns the generator for a configured scheme.
// rng is only used by the random scheme.
func NewIDGenerator(scheme string, rng *rand.Rand) (IDGenerator, error) {
	switch scheme {
	case "", SchemeRandom:
		return NewRandomIDs(rng), nil
	case SchemeUUID:
		return UUIDs{}, nil
	case SchemeContent:
		return &ContentIDs{}, nil
	case SchemeSequential:
		return &SequentialIDs{}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme %q", scheme)
	}
}

// SequentialIDs yields c00001, c00002, ... Deterministic, used in tests.
type SequentialIDs struct {
	n int
}

func (g *SequentialIDs) NextID(string, []string) string {
	g.n++
	return fmt.Sprintf("c%05d", g.n)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomIDs yields 7-character base36 tokens from an injected source.
type RandomIDs struct {
	rng *rand.Rand
}

// NewRandomIDs wraps rng. A nil rng gets a time-seeded source.
func NewRandomIDs(rng *rand.Rand) *RandomIDs {
	if rng == nil {
		rng = newTimeSeededRand()
	}
	return &RandomIDs{rng: rng}
}

func (g *RandomIDs) NextID(string, []string) string {
	var b strings.Builder
	for range 7 {
		b.WriteByte(base36[g.rng.Intn(len(base36))])
	}
	return b.String()
}

// UUIDs yields random UUIDs without dashes, so short ids stay hex.
type UUIDs struct{}

func (UUIDs) NextID(string, []string) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// ContentIDs derives ids from the commit message and parents, the way
// content-addressed systems name commits. A sequence number is mixed in
// so two commits with identical content still get distinct ids.
type ContentIDs struct {
	seq int
}

func (g *ContentIDs) NextID(message string, parents []string) string {
	g.seq++
	data := fmt.Sprintf("%s|%s|%d", message, strings.Join(parents, ","), g.seq)
	sum := blake3.Sum256([]byte(data))
	return hex.EncodeToString(sum[:20])
}
