package entity

import (
	"math/rand"
	"strconv"
)

const maxColor = 0xFFFFFF

// IdentityCookie carries the player id across /auth and /connect.
const IdentityCookie = "atid"

type Player struct {
	ID    string `json:"id"`
	Color string `json:"color"`
	Score int    `json:"score"`
}

// NewPlayer - creates a player with a random color and zero score.
// The color is a decimal string, clients render it as hex.
func NewPlayer(id string) *Player {
	return &Player{
		ID:    id,
		Color: strconv.Itoa(rand.Intn(maxColor)), //nolint: gosec // cosmetic value
	}
}
