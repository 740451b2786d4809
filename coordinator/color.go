package coordinator

import "github.com/samber/lo"

type Color string

const (
	ColorBlack     Color = "black"
	ColorWhite     Color = "white"
	ColorSpectator Color = "spectator"
)

func (c Color) String() string {
	return string(c)
}

// IsPlayer is true for the two playing colors.
func (c Color) IsPlayer() bool {
	return c == ColorBlack || c == ColorWhite
}

// AssignColor picks the color for a connection joining a room with the given
// occupants. Black goes first, then white, everyone after that spectates. The
// decision looks only at who is present right now, so a freed slot is handed
// to the next joiner.
func AssignColor(players map[string]*Player) Color {
	occupants := lo.Values(players)

	taken := func(color Color) bool {
		return lo.ContainsBy(occupants, func(p *Player) bool {
			return p.Color == color
		})
	}

	switch {
	case !taken(ColorBlack):
		return ColorBlack
	case !taken(ColorWhite):
		return ColorWhite
	default:
		return ColorSpectator
	}
}
