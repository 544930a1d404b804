package reward

import (
	"strings"

	"github.com/pokerushai/go-trainer/internal/game"
)

// #region hints

// Hint returns an early-game routing hint for the current state, or
// empty when no guidance applies. Hints only cover the pre-badge
// corridor; past the first badge the value table is on its own.
func Hint(s game.Snapshot) string {
	if s.Badges != 0 {
		return ""
	}
	location := strings.ToLower(s.Location)

	switch {
	case strings.Contains(location, "pallet"):
		return "go UP/NORTH to leave Pallet Town"
	case strings.Contains(location, "route 1"):
		return "continue NORTH to Viridian City"
	case strings.Contains(location, "viridian"):
		return "go NORTH through the forest to Pewter City"
	case strings.Contains(location, "pewter"):
		return "enter the gym building to battle for the first badge"
	}
	return ""
}

// SuggestAction maps a hint onto an available action, or empty when no
// hint applies or the hinted action isn't available.
func SuggestAction(s game.Snapshot, available []string) string {
	hint := Hint(s)
	if hint == "" {
		return ""
	}

	pick := func(action string) string {
		for _, a := range available {
			if a == action {
				return a
			}
		}
		return ""
	}

	switch {
	case strings.Contains(hint, "UP") || strings.Contains(hint, "NORTH"):
		if a := pick("UP"); a != "" {
			return a
		}
	case strings.Contains(hint, "DOWN") || strings.Contains(hint, "SOUTH"):
		if a := pick("DOWN"); a != "" {
			return a
		}
	case strings.Contains(hint, "LEFT") || strings.Contains(hint, "WEST"):
		if a := pick("LEFT"); a != "" {
			return a
		}
	case strings.Contains(hint, "RIGHT") || strings.Contains(hint, "EAST"):
		if a := pick("RIGHT"); a != "" {
			return a
		}
	}

	// Entering buildings and battling both go through the confirm
	// button.
	if strings.Contains(hint, "gym") || strings.Contains(hint, "building") || strings.Contains(hint, "battle") {
		return pick("A")
	}
	return ""
}

// #endregion hints
