package game

import "fmt"

// #region map-names

// mapNames covers the major overworld locations, gyms and dungeons.
// Interiors without an entry fall through to a hex label.
var mapNames = map[int]string{
	// Cities and towns
	0x00: "Pallet Town",
	0x01: "Viridian City",
	0x02: "Pewter City",
	0x03: "Cerulean City",
	0x04: "Lavender Town",
	0x05: "Vermilion City",
	0x06: "Celadon City",
	0x07: "Fuchsia City",
	0x08: "Cinnabar Island",
	0x09: "Indigo Plateau",
	0x0A: "Saffron City",

	// Routes
	0x0B: "Route 1", 0x0C: "Route 2", 0x0D: "Route 3", 0x0E: "Route 4",
	0x0F: "Route 5", 0x10: "Route 6", 0x11: "Route 7", 0x12: "Route 8",
	0x13: "Route 9", 0x14: "Route 10", 0x15: "Route 11", 0x16: "Route 12",
	0x17: "Route 13", 0x18: "Route 14", 0x19: "Route 15", 0x1A: "Route 16",
	0x1B: "Route 17", 0x1C: "Route 18", 0x1D: "Route 19", 0x1E: "Route 20",
	0x1F: "Route 21", 0x25: "Route 22", 0x26: "Route 23", 0x27: "Route 24",
	0x28: "Route 25",

	// Pallet Town buildings
	0x33: "Red's House 1F", 0x34: "Red's House 2F",
	0x35: "Blue's House", 0x36: "Oak's Lab",

	// Viridian City buildings
	0x37: "Pokémon Center Viridian", 0x38: "Poké Mart Viridian",
	0x39: "School Viridian", 0x3A: "House Viridian 1",
	0x40: "Viridian Gym",

	// Pewter City buildings
	0x41: "Pewter Gym", 0x42: "House Pewter 1",
	0x43: "Poké Mart Pewter", 0x44: "House Pewter 2",
	0x45: "Pokémon Center Pewter",
	0x46: "Museum Pewter 1F", 0x47: "Museum Pewter 2F",

	// Cerulean City buildings
	0x48: "Cerulean Gym", 0x49: "Bike Shop",
	0x4A: "Pokémon Center Cerulean", 0x4B: "Poké Mart Cerulean",
	0x4C: "House Cerulean 1", 0x4D: "House Cerulean 2",
	0x4E: "House Cerulean 3", 0x4F: "House Cerulean 4",

	// Forest, caves and towers
	0x59: "Viridian Forest",
	0x6C: "Mt. Moon 1F", 0x6D: "Mt. Moon B1F", 0x6E: "Mt. Moon B2F",
	0xA4: "Rock Tunnel 1F", 0xA5: "Rock Tunnel B1F",
	0xAB: "Power Plant", 0xAC: "Diglett's Cave",
	0xE7: "Pokemon Tower 1F", 0xE8: "Pokemon Tower 2F",
	0xE9: "Pokemon Tower 3F", 0xEA: "Pokemon Tower 4F",
	0xEB: "Pokemon Tower 5F", 0xEC: "Pokemon Tower 6F",
	0xED: "Pokemon Tower 7F",
}

// MapName resolves a map identifier to its location name.
func MapName(id int) string {
	if name, ok := mapNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%02X)", id)
}

// #endregion map-names
