// internal/room/code.go
package room

import "github.com/jason-s-yu/chaos-uno/internal/game"

const (
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength   = 4
)

// NewCode returns a random room code of four uppercase alphanumerics.
func NewCode(r game.Rand) string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[r.IntN(len(codeAlphabet))]
	}
	return string(b)
}
