package brackets

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/brianbrunner/just2guys/models"
)

var errNotFound = errors.New("not found")

// fakeStore is an in-memory Store that counts writes.
type fakeStore struct {
	league   *models.League
	teams    map[string]*models.Team
	matchups map[string]*models.Matchup
	slots    []*models.RosterSlot
	writes   int
	nextID   int
}

func newFakeStore(league *models.League) *fakeStore {
	return &fakeStore{
		league:   league,
		teams:    make(map[string]*models.Team),
		matchups: make(map[string]*models.Matchup),
	}
}

func (s *fakeStore) addTeam(t *models.Team) {
	s.teams[t.Key] = t
}

func (s *fakeStore) addMatchup(m *models.Matchup) {
	if m.ID == "" {
		s.nextID++
		m.ID = fmt.Sprintf("m%d", s.nextID)
	}
	m.LeagueKey = s.league.Key
	m.Key = models.MatchupKey(m.LeagueKey, m.Week, m.TeamAKey, m.TeamBKey)
	s.matchups[m.ID] = m
}

func (s *fakeStore) GetLeague(ctx context.Context, leagueKey string) (*models.League, error) {
	if leagueKey != s.league.Key {
		return nil, errNotFound
	}
	l := *s.league
	return &l, nil
}

func (s *fakeStore) ListTeams(ctx context.Context, leagueKey string) ([]*models.Team, error) {
	var out []*models.Team
	for _, t := range s.teams {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *fakeStore) ListMatchups(ctx context.Context, leagueKey string, fromWeek, toWeek int) ([]*models.Matchup, error) {
	var out []*models.Matchup
	for _, m := range s.matchups {
		if m.Week >= fromWeek && m.Week <= toWeek {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (s *fakeStore) ListRosterSlots(ctx context.Context, matchupID string) ([]*models.RosterSlot, error) {
	var out []*models.RosterSlot
	for _, slot := range s.slots {
		if slot.MatchupID == matchupID {
			c := *slot
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *fakeStore) MergeMatchups(ctx context.Context, a, b *models.Matchup) (*models.Matchup, error) {
	ta, tb := s.teams[a.TeamAKey], s.teams[b.TeamAKey]
	merged, absorbed, err := models.MergeMatchups(s.matchups[a.ID], s.matchups[b.ID], ta.Name, tb.Name)
	if err != nil {
		return nil, err
	}
	s.writes++
	for _, slot := range s.slots {
		if slot.MatchupID == absorbed {
			slot.MatchupID = merged.ID
		}
	}
	delete(s.matchups, absorbed)
	s.matchups[merged.ID] = merged
	c := *merged
	return &c, nil
}

func (s *fakeStore) DecoupleMatchup(ctx context.Context, m *models.Matchup) (*models.Matchup, *models.Matchup, error) {
	s.nextID++
	kept, split, err := models.DecoupleMatchup(s.matchups[m.ID], fmt.Sprintf("split%d", s.nextID))
	if err != nil {
		return nil, nil, err
	}
	s.writes++
	for _, slot := range s.slots {
		if slot.MatchupID == kept.ID && slot.TeamKey == split.TeamAKey {
			slot.MatchupID = split.ID
		}
	}
	s.matchups[kept.ID] = kept
	s.matchups[split.ID] = split
	return kept, split, nil
}

func (s *fakeStore) UpdateBracketInfo(ctx context.Context, matchupID string, info models.BracketInfo) error {
	m, ok := s.matchups[matchupID]
	if !ok {
		return errNotFound
	}
	s.writes++
	m.ApplyInfo(info)
	return nil
}

func (s *fakeStore) UpdateScore(ctx context.Context, matchupID string, teamAPoints, teamBPoints float64) error {
	m, ok := s.matchups[matchupID]
	if !ok {
		return errNotFound
	}
	s.writes++
	m.TeamAPoints, m.TeamBPoints = teamAPoints, teamBPoints
	return nil
}

func (s *fakeStore) SetWinner(ctx context.Context, matchupID string, winnerTeamKey *string) error {
	m, ok := s.matchups[matchupID]
	if !ok {
		return errNotFound
	}
	s.writes++
	m.WinnerTeamKey = winnerTeamKey
	return nil
}

func (s *fakeStore) SetPlayoffSeed(ctx context.Context, teamKey string, seed *int) error {
	t, ok := s.teams[teamKey]
	if !ok {
		return errNotFound
	}
	s.writes++
	t.PlayoffSeed = seed
	return nil
}

// week returns the stored matchups of one week.
func (s *fakeStore) week(week int) []*models.Matchup {
	out, _ := s.ListMatchups(context.Background(), s.league.Key, week, week)
	return out
}

// find returns the week's matchup that contains team.
func (s *fakeStore) find(week int, team string) *models.Matchup {
	for _, m := range s.week(week) {
		if m.HasTeam(team) {
			return m
		}
	}
	return nil
}
