// Package ingest decodes and validates league snapshots exported from the
// fantasy provider.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/brianbrunner/just2guys/models"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

type Snapshot struct {
	Players []Player `json:"players"`
	Leagues []League `json:"leagues"`
}

type Player struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	DisplayPosition string `json:"display_position"`
	PositionType    string `json:"position_type"`
	ImageURL        string `json:"image_url,omitempty"`
}

type Manager struct {
	Key      string `json:"key"`
	Nickname string `json:"nickname"`
}

type League struct {
	Key           string    `json:"key"`
	Name          string    `json:"name"`
	Season        int       `json:"season"`
	CurrentWeek   int       `json:"current_week"`
	IsFinished    bool      `json:"is_finished"`
	IsMultiLeague bool      `json:"is_multi_league"`
	Teams         []Team    `json:"teams"`
	Matchups      []Matchup `json:"matchups"`
}

type Team struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Logo     string    `json:"logo,omitempty"`
	Division string    `json:"division,omitempty"`
	Managers []Manager `json:"managers"`
	Players  []string  `json:"players,omitempty"`
}

// Matchup is one provider matchup. Playoff weeks may arrive with a single
// side; the bracket builder pairs those later.
type Matchup struct {
	Week          int     `json:"week"`
	IsPlayoffs    bool    `json:"is_playoffs"`
	IsConsolation bool    `json:"is_consolation"`
	WinnerTeamKey *string `json:"winner_team_key,omitempty"`
	Sides         []Side  `json:"sides"`
}

type Side struct {
	TeamKey         string   `json:"team_key"`
	Points          float64  `json:"points"`
	ProjectedPoints *float64 `json:"projected_points,omitempty"`
	Roster          []Slot   `json:"roster,omitempty"`
}

type Slot struct {
	PlayerKey string  `json:"player_key"`
	Position  string  `json:"position"`
	Points    float64 `json:"points"`
}

// Decode reads a snapshot and validates it.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Validate checks referential integrity across the snapshot and reports every
// problem it finds.
func (s *Snapshot) Validate() error {
	var problems []error
	fail := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	players := make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		if p.Key == "" {
			fail("player %q has no key", p.Name)
			continue
		}
		players[p.Key] = true
	}

	leagues := make(map[string]bool, len(s.Leagues))
	for _, l := range s.Leagues {
		if l.Key == "" {
			fail("league %q has no key", l.Name)
			continue
		}
		if leagues[l.Key] {
			fail("league %s appears twice", l.Key)
		}
		leagues[l.Key] = true
		if l.Season <= 0 {
			fail("league %s has no season", l.Key)
		}
		if l.CurrentWeek < 0 || l.CurrentWeek > models.FinalWeek+1 {
			fail("league %s has current week %d", l.Key, l.CurrentWeek)
		}

		teams := make(map[string]bool, len(l.Teams))
		for _, t := range l.Teams {
			if t.Key == "" {
				fail("league %s: team %q has no key", l.Key, t.Name)
				continue
			}
			teams[t.Key] = true
			if t.Division != "" && t.Division != models.DivisionA && t.Division != models.DivisionB {
				fail("team %s: unknown division %q", t.Key, t.Division)
			}
			for _, m := range t.Managers {
				if m.Key == "" {
					fail("team %s: manager %q has no key", t.Key, m.Nickname)
				}
			}
			for _, pk := range t.Players {
				if !players[pk] {
					fail("team %s: unknown player %s", t.Key, pk)
				}
			}
		}

		for i, m := range l.Matchups {
			where := fmt.Sprintf("league %s matchup %d (week %d)", l.Key, i, m.Week)
			if m.Week < 1 || m.Week > models.FinalWeek {
				fail("%s: week out of range", where)
			}
			switch len(m.Sides) {
			case 2:
				if m.Sides[0].TeamKey == m.Sides[1].TeamKey {
					fail("%s: team plays itself", where)
				}
			case 1:
				if m.Week < models.FirstPlayoffWeek {
					fail("%s: regular season matchup needs two sides", where)
				}
			default:
				fail("%s: has %d sides", where, len(m.Sides))
			}
			for _, side := range m.Sides {
				if !teams[side.TeamKey] {
					fail("%s: unknown team %s", where, side.TeamKey)
				}
				for _, slot := range side.Roster {
					if !players[slot.PlayerKey] {
						fail("%s: unknown player %s", where, slot.PlayerKey)
					}
					if slot.Position == "" {
						fail("%s: player %s has no position", where, slot.PlayerKey)
					}
				}
			}
			if w := m.WinnerTeamKey; w != nil && *w != "" && !m.hasSide(*w) {
				fail("%s: winner %s is not a side", where, *w)
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, errors.Join(problems...))
	}
	return nil
}

func (m Matchup) hasSide(teamKey string) bool {
	for _, s := range m.Sides {
		if s.TeamKey == teamKey {
			return true
		}
	}
	return false
}
