// internal/game/random.go
package game

import (
	"math/rand/v2"
	"time"

	"github.com/jason-s-yu/chaos-uno/internal/models"
)

// Rand is the source of every random decision the engine makes: shuffles,
// bot choices and room codes. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// NewRand returns a PCG-backed generator. A zero seed is replaced by the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Shuffle permutes s in place with an unbiased Fisher-Yates pass.
func Shuffle[T any](r Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// randomColor picks one of the four colors of the active side uniformly.
func randomColor(r Rand, side models.Side) models.Color {
	palette := side.Palette()
	return palette[r.IntN(len(palette))]
}
