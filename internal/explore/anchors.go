package explore

// #region anchor-types

// Anchor is a global raster position (row, col) that a map's local
// origin hangs from.
type Anchor struct {
	Y int `json:"y"`
	X int `json:"x"`
}

// AnchorTable maps in-game map identifiers to their anchors on the
// global raster. It is calibration data, injectable so it can be
// corrected without touching the grid logic. Unknown map identifiers
// resolve to Default.
type AnchorTable struct {
	ByMap   map[int]Anchor `json:"by_map"`
	Default Anchor         `json:"default"`
}

// Lookup resolves a map identifier, falling back to the default
// anchor.
func (t AnchorTable) Lookup(mapID int) Anchor {
	if a, ok := t.ByMap[mapID]; ok {
		return a
	}
	return t.Default
}

// #endregion anchor-types

// #region default-anchors

// DefaultAnchors returns the hand-calibrated anchor table for the
// Gen 1 overworld on the 384x384 raster.
func DefaultAnchors() AnchorTable {
	return AnchorTable{
		Default: Anchor{Y: 80, X: 0},
		ByMap: map[int]Anchor{
			// Cities and towns
			0x00: {61, 9},    // Pallet Town
			0x01: {100, 54},  // Viridian City
			0x02: {135, 54},  // Pewter City
			0x03: {162, 135}, // Cerulean City
			0x04: {197, 162}, // Lavender Town
			0x05: {215, 135}, // Vermilion City
			0x06: {197, 81},  // Celadon City
			0x07: {252, 9},   // Fuchsia City
			0x08: {270, 54},  // Cinnabar Island
			0x09: {9, 54},    // Indigo Plateau
			0x0A: {197, 135}, // Saffron City

			// Routes
			0x0B: {81, 9},    // Route 1
			0x0C: {108, 54},  // Route 2
			0x0D: {135, 108}, // Route 3
			0x0E: {135, 162}, // Route 4
			0x0F: {170, 135}, // Route 5
			0x10: {188, 135}, // Route 6
			0x11: {197, 108}, // Route 7
			0x12: {197, 162}, // Route 8
			0x13: {215, 162}, // Route 9
			0x14: {215, 189}, // Route 10
			0x15: {215, 162}, // Route 11
			0x16: {233, 162}, // Route 12
			0x17: {243, 162}, // Route 13
			0x18: {252, 162}, // Route 14
			0x19: {252, 135}, // Route 15
			0x1A: {197, 54},  // Route 16
			0x1B: {215, 54},  // Route 17
			0x1C: {252, 54},  // Route 18
			0x1D: {270, 81},  // Route 19
			0x1E: {270, 27},  // Route 20
			0x1F: {270, 9},   // Route 21
			0x25: {100, 20},  // Route 22
			0x26: {45, 54},   // Route 23
			0x27: {170, 162}, // Route 24
			0x28: {162, 189}, // Route 25

			// Pallet Town buildings
			0x33: {61, 9}, // Red's House 1F
			0x34: {61, 0}, // Red's House 2F
			0x35: {91, 9}, // Blue's House
			0x36: {91, 1}, // Oak's Lab

			// Viridian City buildings
			0x37: {100, 54}, // Pokémon Center Viridian
			0x38: {100, 62}, // Poké Mart Viridian
			0x39: {100, 79}, // School Viridian
			0x3A: {100, 45}, // House Viridian 1
			0x40: {100, 36}, // Viridian Gym

			// Pewter City buildings
			0x41: {135, 45}, // Pewter Gym
			0x42: {135, 72}, // House Pewter 1
			0x43: {135, 63}, // Poké Mart Pewter
			0x44: {135, 36}, // House Pewter 2
			0x45: {135, 54}, // Pokémon Center Pewter
			0x46: {135, 99}, // Museum Pewter 1F
			0x47: {135, 90}, // Museum Pewter 2F

			// Cerulean City buildings
			0x48: {162, 126}, // Cerulean Gym
			0x49: {162, 144}, // Bike Shop
			0x4A: {162, 135}, // Pokémon Center Cerulean
			0x4B: {162, 117}, // Poké Mart Cerulean
			0x4C: {162, 108}, // House Cerulean 1
			0x4D: {162, 153}, // House Cerulean 2
			0x4E: {162, 162}, // House Cerulean 3
			0x4F: {162, 99},  // House Cerulean 4

			// Forest, caves and towers
			0x59: {117, 54},  // Viridian Forest
			0x6C: {135, 135}, // Mt. Moon 1F
			0x6D: {135, 144}, // Mt. Moon B1F
			0x6E: {135, 153}, // Mt. Moon B2F
			0xA4: {197, 189}, // Rock Tunnel 1F
			0xA5: {197, 198}, // Rock Tunnel B1F
			0xAB: {215, 189}, // Power Plant
			0xAC: {215, 81},  // Diglett's Cave
			0xE7: {197, 162}, // Pokemon Tower 1F
			0xE8: {197, 153}, // Pokemon Tower 2F
			0xE9: {197, 144}, // Pokemon Tower 3F
			0xEA: {197, 135}, // Pokemon Tower 4F
			0xEB: {197, 126}, // Pokemon Tower 5F
			0xEC: {197, 117}, // Pokemon Tower 6F
			0xED: {197, 108}, // Pokemon Tower 7F
		},
	}
}

// #endregion default-anchors
