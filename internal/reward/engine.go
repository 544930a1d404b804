// Package reward turns state transitions into a shaped, multi-component
// reward signal. Progress components (badge, event, level, opponent,
// explore) are monotonic: they pay out only the increase over the
// episode's running maximum, never the absolute value. Anti-grinding
// penalties (stuck, loop) fire after a configurable grace period.
package reward

import (
	"fmt"
	"log"

	"github.com/pokerushai/go-trainer/internal/explore"
	"github.com/pokerushai/go-trainer/internal/game"
	"github.com/pokerushai/go-trainer/internal/novelty"
)

// #region points

// Point values per component. Calibrated against the badge reward:
// one badge is worth roughly two orders of magnitude more than one
// explored tile.
const (
	badgePoints    = 10.0
	eventPoints    = 4.0
	tilePoints     = 0.1
	locationBonus  = 5.0
	opponentPoints = 0.5
	opponentBase   = 5
	healPoints     = 10.0
	deathPenalty   = -0.1
	stuckPenalty   = -0.05
	loopPenalty    = -1.0
	screenPoints   = 0.004

	// Level shaping: levels below the starter floor don't count, the
	// starter's own levels are subtracted, and gains past the
	// threshold are divided down to de-incentivize grinding.
	minPokeLevel      = 2
	starterOffset     = 4
	levelThreshold    = 22.0
	levelScaleDivisor = 4.0
)

// #endregion points

// #region config

// Config tunes the engine's scaling and penalty triggers.
type Config struct {
	// Scale multiplies every component.
	Scale float64

	// ExploreWeight additionally multiplies tile and screen rewards.
	ExploreWeight float64

	// GracePeriod is the number of initial steps per episode during
	// which stuck and loop penalties are suppressed.
	GracePeriod int

	// StuckVisitThreshold is the per-coordinate visit count past
	// which the stuck penalty applies.
	StuckVisitThreshold int

	// LoopWindow and LoopDistinctMax define the anti-oscillation
	// rule: the last LoopWindow positions collapsing into
	// LoopDistinctMax or fewer distinct cells triggers the penalty.
	LoopWindow      int
	LoopDistinctMax int
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		Scale:               1.0,
		ExploreWeight:       1.0,
		GracePeriod:         50,
		StuckVisitThreshold: 600,
		LoopWindow:          10,
		LoopDistinctMax:     3,
	}
}

// #endregion config

// #region breakdown

// Breakdown maps component names to their values for one step. The
// "total" key holds the arithmetic sum of all components.
type Breakdown map[string]float64

// Total returns the summed reward.
func (b Breakdown) Total() float64 {
	return b["total"]
}

// #endregion breakdown

// #region engine

type position struct {
	x, y, mapID int
}

// Engine computes per-step reward breakdowns over mutable episode
// trackers. It reads emulator memory through the narrow MemoryReader
// contract and never writes it. Owned exclusively by the training
// loop; not safe for concurrent use.
type Engine struct {
	mem     game.MemoryReader // nil disables memory-derived components
	cfg     Config
	grid    *explore.Grid
	screens novelty.Index

	stepCount        int
	visitedLocations map[string]struct{}
	seenCoords       map[string]int
	positionHistory  []position

	// Max-so-far trackers, reset per episode.
	baseEventFlags   int
	maxEventFlags    int
	maxLevelSum      float64
	maxOpponentLevel int
	maxExploredTiles int

	lastHealth        float64
	partySize         int
	diedCount         int
	totalHealing      float64
	baseScreenExplore int
}

// NewEngine wires an engine over its trackers. mem may be nil, in
// which case event, level, opponent and heal components read as zero.
func NewEngine(mem game.MemoryReader, grid *explore.Grid, screens novelty.Index, cfg Config) *Engine {
	e := &Engine{
		mem:     mem,
		cfg:     cfg,
		grid:    grid,
		screens: screens,
	}
	e.Reset()
	return e
}

// Reset clears all per-episode trackers and counters and re-baselines
// the event-flag count against current memory. Called at episode
// start.
func (e *Engine) Reset() {
	e.grid.Reset()
	e.screens.Reset()
	e.visitedLocations = make(map[string]struct{})
	e.seenCoords = make(map[string]int)
	e.positionHistory = e.positionHistory[:0]
	e.baseScreenExplore = 0

	e.baseEventFlags = 0
	if e.mem != nil {
		e.baseEventFlags = game.CountEventFlags(e.mem)
	}
	e.maxEventFlags = 0
	e.maxLevelSum = 0
	e.maxOpponentLevel = 0
	e.maxExploredTiles = 0

	e.lastHealth = 1.0
	e.partySize = 1 // starter
	e.diedCount = 0
	e.totalHealing = 0
	e.stepCount = 0
}

// #endregion engine

// #region calculate

// Calculate produces the reward breakdown for one state transition.
// elapsed is the wall-clock duration of the step in seconds; it is
// carried for symmetry with recorded transitions but no component
// currently scales by it.
func (e *Engine) Calculate(prev, curr game.Snapshot, elapsed float64) Breakdown {
	_ = elapsed
	e.stepCount++
	r := Breakdown{}

	r["badge"] = e.badgeReward(prev, curr)
	r["event"] = e.eventReward()
	r["level"] = e.levelReward()
	r["explore"] = e.explorationReward(curr)
	r["opponent"] = e.opponentReward()

	r["heal"] = e.healingReward()
	r["death"] = e.deathPenalty()

	// Penalties sit out the grace period so the agent isn't punished
	// for unavoidable noise right after a reset.
	if e.stepCount > e.cfg.GracePeriod {
		r["stuck"] = e.stuckPenalty(curr)
		r["loop"] = e.loopPenalty(curr)
	} else {
		r["stuck"] = 0
		r["loop"] = 0
	}

	e.updateTracking()

	total := 0.0
	for _, v := range r {
		total += v
	}
	r["total"] = total
	return r
}

// #endregion calculate

// #region badge

// badgeReward pays a one-time lump sum per badge-earning step.
func (e *Engine) badgeReward(prev, curr game.Snapshot) float64 {
	if curr.Badges <= prev.Badges {
		return 0
	}
	increase := curr.Badges - prev.Badges
	reward := e.cfg.Scale * float64(increase) * badgePoints
	log.Printf("[REWARD] badge earned, total=%d (+%.1f)", curr.Badges, reward)
	return reward
}

// #endregion badge

// #region event

// eventReward pays for newly set story/event flags, normalized against
// the count at episode start. The museum ticket flag is subtracted
// when set: that single flag could otherwise be farmed.
func (e *Engine) eventReward() float64 {
	if e.mem == nil {
		return 0
	}

	current := game.CountEventFlags(e.mem)
	if game.ReadBit(e.mem.ReadMemory(game.AddrMuseumTicket), 0) {
		current--
	}

	thisEpisode := current - e.baseEventFlags
	if thisEpisode < 0 {
		thisEpisode = 0
	}

	if thisEpisode > e.maxEventFlags {
		increase := thisEpisode - e.maxEventFlags
		e.maxEventFlags = thisEpisode
		return e.cfg.Scale * float64(increase) * eventPoints
	}
	return 0
}

// #endregion event

// #region level

// levelReward pays 1:1 for level-sum increases below the threshold and
// a quarter rate above it.
func (e *Engine) levelReward() float64 {
	if e.mem == nil {
		return 0
	}

	levels := game.PartyLevels(e.mem)
	if len(levels) == 0 {
		return 0
	}

	levelSum := 0
	for _, lvl := range levels {
		if lvl > minPokeLevel {
			levelSum += lvl - minPokeLevel
		}
	}
	levelSum -= starterOffset
	if levelSum < 0 {
		levelSum = 0
	}

	scaled := float64(levelSum)
	if scaled >= levelThreshold {
		scaled = (scaled-levelThreshold)/levelScaleDivisor + levelThreshold
	}

	if scaled > e.maxLevelSum {
		increase := scaled - e.maxLevelSum
		e.maxLevelSum = scaled
		return e.cfg.Scale * increase
	}
	return 0
}

// #endregion level

// #region explore

// explorationReward combines per-tile coverage from the global grid
// with a flat bonus the first time a named location is entered.
func (e *Engine) explorationReward(curr game.Snapshot) float64 {
	reward := 0.0

	if e.grid.MarkVisited(curr.X, curr.Y, curr.MapID) {
		explored := e.grid.VisitedCount()
		if explored > e.maxExploredTiles {
			increase := explored - e.maxExploredTiles
			e.maxExploredTiles = explored
			reward += e.cfg.Scale * e.cfg.ExploreWeight * float64(increase) * tilePoints
		}
	}

	coordKey := fmt.Sprintf("x:%d y:%d m:%d", curr.X, curr.Y, curr.MapID)
	e.seenCoords[coordKey]++

	locKey := fmt.Sprintf("%s_%d", curr.Location, curr.MapID)
	if _, ok := e.visitedLocations[locKey]; !ok {
		e.visitedLocations[locKey] = struct{}{}
		reward += e.cfg.Scale * locationBonus
		log.Printf("[REWARD] new location: %s", curr.Location)
	}

	return reward
}

// #endregion explore

// #region opponent

// opponentReward pays for the strongest opposing level seen in battle
// this episode, above a fixed base. Zero outside battle.
func (e *Engine) opponentReward() float64 {
	if e.mem == nil || !game.InBattle(e.mem) {
		return 0
	}

	maxLevel := 0
	for _, lvl := range game.OpponentLevels(e.mem) {
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}
	maxLevel -= opponentBase
	if maxLevel < 0 {
		maxLevel = 0
	}

	if maxLevel > e.maxOpponentLevel {
		increase := maxLevel - e.maxOpponentLevel
		e.maxOpponentLevel = maxLevel
		return e.cfg.Scale * float64(increase) * opponentPoints
	}
	return 0
}

// #endregion opponent

// #region heal

// healingReward pays for HP-fraction increases while party size is
// unchanged — a size change means a catch, not a heal. A recovery
// from zero HP with the same party is a revive from blackout: it
// increments the death counter and pays nothing.
func (e *Engine) healingReward() float64 {
	if e.mem == nil {
		return 0
	}

	health := game.HPFraction(e.mem)
	partySize := int(e.mem.ReadMemory(game.AddrPartyCount))

	if health > e.lastHealth && partySize == e.partySize {
		if e.lastHealth > 0 {
			healed := health - e.lastHealth
			reward := e.cfg.Scale * healed * healPoints
			e.totalHealing += reward
			return reward
		}
		e.diedCount++
	}
	return 0
}

// deathPenalty applies the cumulative death count every step.
//
// Deliberately preserved quirk: the full penalty is re-applied on
// every subsequent step after a death, not deducted once at the
// moment of death. Confirm intended semantics before changing.
func (e *Engine) deathPenalty() float64 {
	return e.cfg.Scale * float64(e.diedCount) * deathPenalty
}

// #endregion heal

// #region penalties

// stuckPenalty fires once any single coordinate has been revisited
// past the threshold within the episode.
func (e *Engine) stuckPenalty(curr game.Snapshot) float64 {
	coordKey := fmt.Sprintf("x:%d y:%d m:%d", curr.X, curr.Y, curr.MapID)
	if e.seenCoords[coordKey] > e.cfg.StuckVisitThreshold {
		return e.cfg.Scale * stuckPenalty
	}
	return 0
}

// loopPenalty fires when the recent position history collapses into
// too few distinct cells.
func (e *Engine) loopPenalty(curr game.Snapshot) float64 {
	e.positionHistory = append(e.positionHistory, position{curr.X, curr.Y, curr.MapID})
	if len(e.positionHistory) > e.cfg.LoopWindow {
		e.positionHistory = e.positionHistory[1:]
	}

	if len(e.positionHistory) >= e.cfg.LoopWindow {
		distinct := make(map[position]struct{}, len(e.positionHistory))
		for _, p := range e.positionHistory {
			distinct[p] = struct{}{}
		}
		if len(distinct) <= e.cfg.LoopDistinctMax {
			return loopPenalty
		}
	}
	return 0
}

// #endregion penalties

// #region tracking

// updateTracking refreshes the health and party-size baselines after
// all components have read them.
func (e *Engine) updateTracking() {
	if e.mem == nil {
		return
	}
	e.lastHealth = game.HPFraction(e.mem)
	e.partySize = int(e.mem.ReadMemory(game.AddrPartyCount))
}

// #endregion tracking

// #region screen

// ObserveFrame feeds a rendered frame to the novelty index and
// reports whether it was novel.
func (e *Engine) ObserveFrame(frame []byte) bool {
	return e.screens.Observe(frame)
}

// ScreenReward pays a small amount per newly unique frame since the
// last call. It deduplicates menus and repeated screens that the
// coordinate grid cannot see.
func (e *Engine) ScreenReward() float64 {
	unique := e.screens.UniqueCount()
	newFrames := unique - e.baseScreenExplore
	if newFrames <= 0 {
		return 0
	}
	e.baseScreenExplore = unique
	return e.cfg.Scale * e.cfg.ExploreWeight * float64(newFrames) * screenPoints
}

// #endregion screen

// #region stats

// Stats is a read-only snapshot of the engine's episode trackers.
type Stats struct {
	MaxEventFlags    int     `json:"max_event_flags"`
	MaxLevelSum      float64 `json:"max_level_sum"`
	MaxOpponentLevel int     `json:"max_opponent_level"`
	ExploredTiles    int     `json:"explored_tiles"`
	UniqueCoords     int     `json:"unique_coords"`
	UniqueFrames     int     `json:"unique_frames"`
	DiedCount        int     `json:"died_count"`
	TotalHealing     float64 `json:"total_healing"`
}

// Stats returns the current tracker values.
func (e *Engine) Stats() Stats {
	return Stats{
		MaxEventFlags:    e.maxEventFlags,
		MaxLevelSum:      e.maxLevelSum,
		MaxOpponentLevel: e.maxOpponentLevel,
		ExploredTiles:    e.maxExploredTiles,
		UniqueCoords:     len(e.seenCoords),
		UniqueFrames:     e.screens.UniqueCount(),
		DiedCount:        e.diedCount,
		TotalHealing:     e.totalHealing,
	}
}

// #endregion stats
