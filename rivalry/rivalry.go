// Package rivalry aggregates all-time manager-versus-manager records.
package rivalry

import (
	"math"
	"sort"

	"github.com/brianbrunner/just2guys/dataset"
	"github.com/brianbrunner/just2guys/models"
)

// MatchupRef is one game of a rivalry, seen from the record owner's side.
type MatchupRef struct {
	MatchupID       string  `json:"matchup_id"`
	LeagueKey       string  `json:"league_key"`
	Season          int     `json:"season"`
	Week            int     `json:"week"`
	TeamKey         string  `json:"team_key"`
	OpponentTeamKey string  `json:"opponent_team_key"`
	Points          float64 `json:"points"`
	OpponentPoints  float64 `json:"opponent_points"`
	Won             bool    `json:"won"`
	Upset           bool    `json:"upset"`
}

type Record struct {
	ManagerKey              string       `json:"manager_key"`
	OpponentKey             string       `json:"opponent_key"`
	Wins                    int          `json:"wins"`
	Losses                  int          `json:"losses"`
	UpsetsInFavor           int          `json:"upsets_in_favor"`
	UpsetsAgainst           int          `json:"upsets_against"`
	LargestMarginOfVictory  *float64     `json:"largest_margin_of_victory,omitempty"`
	SmallestMarginOfVictory *float64     `json:"smallest_margin_of_victory,omitempty"`
	LargestMarginOfDefeat   *float64     `json:"largest_margin_of_defeat,omitempty"`
	SmallestMarginOfDefeat  *float64     `json:"smallest_margin_of_defeat,omitempty"`
	Matchups                []MatchupRef `json:"matchups"`
}

func (r *Record) Games() int {
	return r.Wins + r.Losses
}

// WinRate is wins over games played, or zero before the first game.
func (r *Record) WinRate() float64 {
	if r.Games() == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Games())
}

// Records is keyed by owner manager, then opponent manager.
type Records map[string]map[string]*Record

func (rs Records) Get(managerKey, opponentKey string) (*Record, bool) {
	r, ok := rs[managerKey][opponentKey]
	return r, ok
}

// For lists a manager's rivalries ordered by win rate, then games played.
func (rs Records) For(managerKey string) []*Record {
	out := make([]*Record, 0, len(rs[managerKey]))
	for _, r := range rs[managerKey] {
		out = append(out, r)
	}
	SortByRecord(out)
	return out
}

// All flattens every directed record.
func (rs Records) All() []*Record {
	var out []*Record
	for _, byOpp := range rs {
		for _, r := range byOpp {
			out = append(out, r)
		}
	}
	SortByRecord(out)
	return out
}

func SortByRecord(rs []*Record) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.WinRate() != b.WinRate() {
			return a.WinRate() > b.WinRate()
		}
		if a.Games() != b.Games() {
			return a.Games() > b.Games()
		}
		if a.ManagerKey != b.ManagerKey {
			return a.ManagerKey < b.ManagerKey
		}
		return a.OpponentKey < b.OpponentKey
	})
}

func (rs Records) record(owner, opponent string) *Record {
	byOpp, ok := rs[owner]
	if !ok {
		byOpp = make(map[string]*Record)
		rs[owner] = byOpp
	}
	r, ok := byOpp[opponent]
	if !ok {
		r = &Record{ManagerKey: owner, OpponentKey: opponent, Matchups: []MatchupRef{}}
		byOpp[opponent] = r
	}
	return r
}

// Aggregate walks every finalized matchup in season/week order and credits
// each pairing of the two teams' managers. Co-managed teams expand into
// one pairing per manager; a manager is never paired with themselves.
func Aggregate(ds *dataset.Dataset) Records {
	rs := make(Records)
	for _, m := range ds.Matchups() {
		if !m.IsFinalized() {
			continue
		}
		sideA, errA := m.Side(m.TeamAKey)
		sideB, errB := m.Side(*m.TeamBKey)
		if errA != nil || errB != nil {
			continue
		}
		season := ds.Season(m)
		upset := isUpset(sideA, sideB)

		for _, ma := range ds.ManagersOf(sideA.TeamKey) {
			for _, mb := range ds.ManagersOf(sideB.TeamKey) {
				if ma.Key == mb.Key {
					continue
				}
				rs.record(ma.Key, mb.Key).add(m, season, sideA, upset)
				rs.record(mb.Key, ma.Key).add(m, season, sideB, upset)
			}
		}
	}
	return rs
}

// isUpset reports whether the winner was projected to score less than the
// loser. Without both projections there is no upset.
func isUpset(a, b models.MatchupSide) bool {
	if a.Projected == nil || b.Projected == nil {
		return false
	}
	if a.Won {
		return *a.Projected < *b.Projected
	}
	if b.Won {
		return *b.Projected < *a.Projected
	}
	return false
}

func (r *Record) add(m *models.Matchup, season int, side models.MatchupSide, upset bool) {
	margin := roundMargin(math.Abs(side.Points - side.OpponentPoints))
	if side.Won {
		r.Wins++
		if upset {
			r.UpsetsInFavor++
		}
		r.LargestMarginOfVictory = maxPtr(r.LargestMarginOfVictory, margin)
		r.SmallestMarginOfVictory = minPtr(r.SmallestMarginOfVictory, margin)
	} else {
		r.Losses++
		if upset {
			r.UpsetsAgainst++
		}
		r.LargestMarginOfDefeat = maxPtr(r.LargestMarginOfDefeat, margin)
		r.SmallestMarginOfDefeat = minPtr(r.SmallestMarginOfDefeat, margin)
	}
	r.Matchups = append(r.Matchups, MatchupRef{
		MatchupID:       m.ID,
		LeagueKey:       m.LeagueKey,
		Season:          season,
		Week:            m.Week,
		TeamKey:         side.TeamKey,
		OpponentTeamKey: side.OpponentKey,
		Points:          side.Points,
		OpponentPoints:  side.OpponentPoints,
		Won:             side.Won,
		Upset:           upset,
	})
}

func roundMargin(v float64) float64 {
	return math.Round(v*100) / 100
}

func maxPtr(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}

func minPtr(cur *float64, v float64) *float64 {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}
