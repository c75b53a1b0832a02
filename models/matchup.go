package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrTeamNotInMatchup      = errors.New("that team is not part of this matchup")
	ErrMatchupNotPlaceholder = errors.New("matchup already has two teams")
	ErrMatchupNotPaired      = errors.New("matchup has only one team")
	ErrMatchupMismatch       = errors.New("matchups belong to different leagues or weeks")
)

type Matchup struct {
	ID                   string   `json:"id" db:"id"`
	Key                  string   `json:"key" db:"matchup_key"`
	LeagueKey            string   `json:"league_key" db:"league_key"`
	Week                 int      `json:"week" db:"week"`
	TeamAKey             string   `json:"team_a_key" db:"team_a_key"`
	TeamAProjectedPoints *float64 `json:"team_a_projected_points,omitempty" db:"team_a_projected_points"`
	TeamAPoints          float64  `json:"team_a_points" db:"team_a_points"`
	TeamBKey             *string  `json:"team_b_key,omitempty" db:"team_b_key"`
	TeamBProjectedPoints *float64 `json:"team_b_projected_points,omitempty" db:"team_b_projected_points"`
	TeamBPoints          float64  `json:"team_b_points" db:"team_b_points"`
	IsPlayoffs           bool     `json:"is_playoffs" db:"is_playoffs"`
	IsConsolation        bool     `json:"is_consolation" db:"is_consolation"`
	IsLosers             bool     `json:"is_losers" db:"is_losers"`
	IsBye                bool     `json:"is_bye" db:"is_bye"`
	BracketOrder         int      `json:"bracket_order" db:"bracket_order"`
	WinnerTeamKey        *string  `json:"winner_team_key,omitempty" db:"winner_team_key"`

	Slots []*RosterSlot `json:"slots,omitempty" db:"-"`
}

// BracketInfo is the set of bracket fields the playoff builder owns.
type BracketInfo struct {
	IsPlayoffs    bool `json:"is_playoffs"`
	IsConsolation bool `json:"is_consolation"`
	IsLosers      bool `json:"is_losers"`
	IsBye         bool `json:"is_bye"`
	BracketOrder  int  `json:"bracket_order"`
}

// MatchupSide is a matchup seen from one team.
type MatchupSide struct {
	TeamKey           string   `json:"team_key"`
	OpponentKey       string   `json:"opponent_key"`
	Points            float64  `json:"points"`
	OpponentPoints    float64  `json:"opponent_points"`
	Projected         *float64 `json:"projected,omitempty"`
	OpponentProjected *float64 `json:"opponent_projected,omitempty"`
	Won               bool     `json:"won"`
}

// MatchupKey builds the composite identity league.week.teamA[.teamB].
func MatchupKey(leagueKey string, week int, teamAKey string, teamBKey *string) string {
	parts := []string{leagueKey, fmt.Sprint(week), teamAKey}
	if teamBKey != nil {
		parts = append(parts, *teamBKey)
	}
	return strings.Join(parts, ".")
}

func (m *Matchup) IsPlaceholder() bool {
	return m.TeamBKey == nil
}

// IsFinalized reports whether both sides are set and a winner is recorded.
// An empty winner key marks a tie and is not a result.
func (m *Matchup) IsFinalized() bool {
	return m.TeamBKey != nil && m.WinnerTeamKey != nil && *m.WinnerTeamKey != ""
}

func (m *Matchup) HasTeam(teamKey string) bool {
	return m.TeamAKey == teamKey || (m.TeamBKey != nil && *m.TeamBKey == teamKey)
}

func (m *Matchup) Info() BracketInfo {
	return BracketInfo{
		IsPlayoffs:    m.IsPlayoffs,
		IsConsolation: m.IsConsolation,
		IsLosers:      m.IsLosers,
		IsBye:         m.IsBye,
		BracketOrder:  m.BracketOrder,
	}
}

func (m *Matchup) ApplyInfo(info BracketInfo) {
	m.IsPlayoffs = info.IsPlayoffs
	m.IsConsolation = info.IsConsolation
	m.IsLosers = info.IsLosers
	m.IsBye = info.IsBye
	m.BracketOrder = info.BracketOrder
}

// Side returns the matchup from teamKey's point of view.
func (m *Matchup) Side(teamKey string) (MatchupSide, error) {
	if m.TeamBKey == nil {
		if m.TeamAKey != teamKey {
			return MatchupSide{}, ErrTeamNotInMatchup
		}
		return MatchupSide{TeamKey: teamKey, Points: m.TeamAPoints, Projected: m.TeamAProjectedPoints}, nil
	}
	won := m.WinnerTeamKey != nil && *m.WinnerTeamKey == teamKey
	switch teamKey {
	case m.TeamAKey:
		return MatchupSide{
			TeamKey:           m.TeamAKey,
			OpponentKey:       *m.TeamBKey,
			Points:            m.TeamAPoints,
			OpponentPoints:    m.TeamBPoints,
			Projected:         m.TeamAProjectedPoints,
			OpponentProjected: m.TeamBProjectedPoints,
			Won:               won,
		}, nil
	case *m.TeamBKey:
		return MatchupSide{
			TeamKey:           *m.TeamBKey,
			OpponentKey:       m.TeamAKey,
			Points:            m.TeamBPoints,
			OpponentPoints:    m.TeamAPoints,
			Projected:         m.TeamBProjectedPoints,
			OpponentProjected: m.TeamAProjectedPoints,
			Won:               won,
		}, nil
	default:
		return MatchupSide{}, ErrTeamNotInMatchup
	}
}

// Winner returns the winning team key of a finalized matchup.
func (m *Matchup) Winner() (string, bool) {
	if !m.IsFinalized() {
		return "", false
	}
	return *m.WinnerTeamKey, true
}

// Loser returns the losing team key of a finalized matchup.
func (m *Matchup) Loser() (string, bool) {
	winner, ok := m.Winner()
	if !ok {
		return "", false
	}
	if winner == m.TeamAKey {
		return *m.TeamBKey, true
	}
	return m.TeamAKey, true
}

func (m *Matchup) Margin() float64 {
	return math.Abs(m.TeamAPoints - m.TeamBPoints)
}

func (m *Matchup) TotalPoints() float64 {
	return m.TeamAPoints + m.TeamBPoints
}

// MergeMatchups folds two one-sided placeholders of the same league and week
// into one two-sided matchup. The placeholder of the team whose name sorts
// first survives as team A, so the result does not depend on argument order.
// The returned ID is the absorbed placeholder that the caller must delete
// after moving its roster slots.
func MergeMatchups(a, b *Matchup, nameA, nameB string) (*Matchup, string, error) {
	if !a.IsPlaceholder() || !b.IsPlaceholder() {
		return nil, "", ErrMatchupNotPlaceholder
	}
	if a.LeagueKey != b.LeagueKey || a.Week != b.Week || a.ID == b.ID || a.TeamAKey == b.TeamAKey {
		return nil, "", ErrMatchupMismatch
	}

	first, second := a, b
	if nameB < nameA || (nameA == nameB && b.TeamAKey < a.TeamAKey) {
		first, second = b, a
	}

	merged := *first
	merged.Slots = nil
	teamB := second.TeamAKey
	merged.TeamBKey = &teamB
	merged.TeamBPoints = second.TeamAPoints
	merged.TeamBProjectedPoints = second.TeamAProjectedPoints
	merged.WinnerTeamKey = nil
	merged.IsBye = false
	merged.Key = MatchupKey(merged.LeagueKey, merged.Week, merged.TeamAKey, merged.TeamBKey)

	return &merged, second.ID, nil
}

// DecoupleMatchup splits a two-sided matchup back into two placeholders.
// Team A keeps the original row; team B moves to a new row with splitID.
// Winner and bracket fields are cleared on both.
func DecoupleMatchup(m *Matchup, splitID string) (*Matchup, *Matchup, error) {
	if m.IsPlaceholder() {
		return nil, nil, ErrMatchupNotPaired
	}

	kept := *m
	kept.Slots = nil
	kept.TeamBKey = nil
	kept.TeamBPoints = 0
	kept.TeamBProjectedPoints = nil
	kept.WinnerTeamKey = nil
	kept.ApplyInfo(BracketInfo{})
	kept.Key = MatchupKey(kept.LeagueKey, kept.Week, kept.TeamAKey, nil)

	split := &Matchup{
		ID:                   splitID,
		LeagueKey:            m.LeagueKey,
		Week:                 m.Week,
		TeamAKey:             *m.TeamBKey,
		TeamAPoints:          m.TeamBPoints,
		TeamAProjectedPoints: m.TeamBProjectedPoints,
	}
	split.Key = MatchupKey(split.LeagueKey, split.Week, split.TeamAKey, nil)

	return &kept, split, nil
}
