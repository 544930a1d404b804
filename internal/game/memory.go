package game

import "math/bits"

// Known RAM addresses for the Gen 1 editions. The same layout holds
// for Red, Blue and Yellow.
// #region addresses
const (
	AddrPlayerX uint16 = 0xD362
	AddrPlayerY uint16 = 0xD361

	AddrMapID     uint16 = 0xD35E
	AddrMapWidth  uint16 = 0xD369
	AddrMapHeight uint16 = 0xD368

	// Badge bitflags: Boulder, Cascade, Thunder, Rainbow, Soul,
	// Marsh, Volcano, Earth.
	AddrBadges uint16 = 0xD356

	AddrPlaytimeHoursHigh uint16 = 0xDA40
	AddrPlaytimeHoursLow  uint16 = 0xDA41
	AddrPlaytimeMinutes   uint16 = 0xDA42
	AddrPlaytimeSeconds   uint16 = 0xDA43

	AddrPartyCount uint16 = 0xD163

	// Money is 3 bytes BCD.
	AddrMoneyHigh uint16 = 0xD347
	AddrMoneyMid  uint16 = 0xD348
	AddrMoneyLow  uint16 = 0xD349

	// Persistent story/world-state bits. 311 bytes of flags.
	AddrEventFlagsStart uint16 = 0xD747
	AddrEventFlagsEnd   uint16 = 0xD87E
	// Museum ticket flag lives at bit 0 of this byte.
	AddrMuseumTicket uint16 = 0xD754

	// 0 = no battle, 1 = wild, 2 = trainer.
	AddrBattleType uint16 = 0xD057
)

// Per-slot party data. Levels are single bytes, HP values are two
// bytes big-endian.
var (
	addrPartyLevels = [6]uint16{0xD18C, 0xD1B8, 0xD1E4, 0xD210, 0xD23C, 0xD268}
	addrPartyHP     = [6]uint16{0xD16D, 0xD199, 0xD1C5, 0xD1F1, 0xD21D, 0xD249}
	addrPartyMaxHP  = [6]uint16{0xD18D, 0xD1B9, 0xD1E5, 0xD211, 0xD23D, 0xD269}
	addrOppLevels   = [6]uint16{0xD8C5, 0xD8F1, 0xD91D, 0xD949, 0xD975, 0xD9A1}
)

// #endregion addresses

// #region bit-helpers

// ReadBit reports whether bit i (0 = least significant) is set.
func ReadBit(b byte, i uint) bool {
	return (b>>i)&1 == 1
}

// readHP16 joins two bytes into a 16-bit HP value.
func readHP16(high, low byte) int {
	return int(high)<<8 | int(low)
}

// readBCD decodes a packed BCD byte.
func readBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

// #endregion bit-helpers

// #region derived-facts

// BadgeCount is the population count of the badge status byte.
func BadgeCount(m MemoryReader) int {
	return bits.OnesCount8(m.ReadMemory(AddrBadges))
}

// CountEventFlags counts all set event flags across the flag region.
func CountEventFlags(m MemoryReader) int {
	total := 0
	for addr := AddrEventFlagsStart; addr < AddrEventFlagsEnd; addr++ {
		total += bits.OnesCount8(m.ReadMemory(addr))
	}
	return total
}

// PartyLevels returns the level of each party member, up to the
// current party count.
func PartyLevels(m MemoryReader) []int {
	count := int(m.ReadMemory(AddrPartyCount))
	if count > 6 {
		count = 6
	}
	levels := make([]int, 0, count)
	for i := 0; i < count; i++ {
		levels = append(levels, int(m.ReadMemory(addrPartyLevels[i])))
	}
	return levels
}

// OpponentLevels returns all six opponent level slots. Slots are zero
// outside of battle.
func OpponentLevels(m MemoryReader) []int {
	levels := make([]int, 0, 6)
	for _, addr := range addrOppLevels {
		levels = append(levels, int(m.ReadMemory(addr)))
	}
	return levels
}

// HPFraction is the party-wide current/max HP ratio in [0, 1].
// An empty party reads as fully healthy.
func HPFraction(m MemoryReader) float64 {
	count := int(m.ReadMemory(AddrPartyCount))
	if count == 0 {
		return 1.0
	}
	if count > 6 {
		count = 6
	}

	totalHP := 0
	totalMax := 0
	for i := 0; i < count; i++ {
		totalHP += readHP16(m.ReadMemory(addrPartyHP[i]), m.ReadMemory(addrPartyHP[i]+1))
		totalMax += readHP16(m.ReadMemory(addrPartyMaxHP[i]), m.ReadMemory(addrPartyMaxHP[i]+1))
	}
	if totalMax == 0 {
		totalMax = 1
	}
	return float64(totalHP) / float64(totalMax)
}

// InBattle reports whether a battle is in progress.
func InBattle(m MemoryReader) bool {
	return m.ReadMemory(AddrBattleType) > 0
}

// Money decodes the 3-byte BCD money counter.
func Money(m MemoryReader) int {
	return readBCD(m.ReadMemory(AddrMoneyHigh))*10000 +
		readBCD(m.ReadMemory(AddrMoneyMid))*100 +
		readBCD(m.ReadMemory(AddrMoneyLow))
}

// #endregion derived-facts
