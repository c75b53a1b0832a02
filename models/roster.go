package models

import "sort"

const (
	PositionQB    = "QB"
	PositionWR    = "WR"
	PositionRB    = "RB"
	PositionTE    = "TE"
	PositionFlex  = "W/R/T"
	PositionDEF   = "DEF"
	PositionK     = "K"
	PositionBench = "BN"
	PositionIR    = "IR"
)

var positionPriority = map[string]int{
	PositionQB:    0,
	PositionWR:    1,
	PositionRB:    2,
	PositionTE:    3,
	PositionFlex:  4,
	PositionDEF:   5,
	PositionK:     6,
	PositionBench: 8,
	PositionIR:    9,
}

// unknown starting positions sort after K and before the bench
const unknownPositionPriority = 7

type RosterSlot struct {
	ID        string  `json:"id" db:"id"`
	Week      int     `json:"week" db:"week"`
	MatchupID string  `json:"matchup_id" db:"matchup_id"`
	TeamKey   string  `json:"team_key" db:"team_key"`
	PlayerKey string  `json:"player_key" db:"player_key"`
	Points    float64 `json:"points" db:"points"`
	Position  string  `json:"position" db:"position"`

	Player *Player `json:"player,omitempty" db:"-"`
}

// IsStarter reports whether the slot's points count toward the team score.
func (s *RosterSlot) IsStarter() bool {
	return s.Position != PositionBench && s.Position != PositionIR
}

func PositionPriority(position string) int {
	if p, ok := positionPriority[position]; ok {
		return p
	}
	return unknownPositionPriority
}

// SortRosterSlots orders slots by display priority, then points descending.
func SortRosterSlots(slots []*RosterSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		pi, pj := PositionPriority(slots[i].Position), PositionPriority(slots[j].Position)
		if pi != pj {
			return pi < pj
		}
		return slots[i].Points > slots[j].Points
	})
}

// StarterPoints sums the non-bench, non-IR points scored by teamKey.
func StarterPoints(slots []*RosterSlot, teamKey string) float64 {
	total := 0.0
	for _, s := range slots {
		if s.TeamKey == teamKey && s.IsStarter() {
			total += s.Points
		}
	}
	return total
}
