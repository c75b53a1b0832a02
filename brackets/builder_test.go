package brackets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/brianbrunner/just2guys/models"
)

func strPtr(s string) *string { return &s }

func teamKey(i int) string { return fmt.Sprintf("t.%02d", i) }

func quietBuilder() *Builder {
	return NewBuilder(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newSeason builds a league where team i beats team j whenever i < j, so
// the regular-season ranking is t.01, t.02, ... Every team gets a
// placeholder for each playoff week scoring 200-5i.
func newSeason(n int, divisions func(i int) string) *fakeStore {
	s := newFakeStore(&models.League{Key: "l", Season: 2020, CurrentWeek: models.FirstPlayoffWeek})
	for i := 1; i <= n; i++ {
		t := &models.Team{Key: teamKey(i), LeagueKey: "l", Name: fmt.Sprintf("Team %02d", i), Division: models.DivisionA}
		if divisions != nil {
			t.Division = divisions(i)
		}
		s.addTeam(t)
	}
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			s.addMatchup(&models.Matchup{
				Week:          1 + (i+j)%models.RegularSeasonWeeks,
				TeamAKey:      teamKey(i),
				TeamAPoints:   100,
				TeamBKey:      strPtr(teamKey(j)),
				TeamBPoints:   90,
				WinnerTeamKey: strPtr(teamKey(i)),
			})
		}
	}
	for week := models.FirstPlayoffWeek; week <= models.FinalWeek; week++ {
		for i := 1; i <= n; i++ {
			s.addMatchup(&models.Matchup{Week: week, TeamAKey: teamKey(i), TeamAPoints: float64(200 - 5*i)})
		}
	}
	return s
}

func assertPair(t *testing.T, s *fakeStore, week, a, b int, info models.BracketInfo) {
	t.Helper()
	m := s.find(week, teamKey(a))
	if m == nil {
		t.Fatalf("week %d: no matchup for %s", week, teamKey(a))
	}
	if m.TeamBKey == nil || !m.HasTeam(teamKey(b)) {
		t.Fatalf("week %d: %s paired with %v, want %s", week, teamKey(a), m.TeamBKey, teamKey(b))
	}
	if m.Info() != info {
		t.Errorf("week %d %s vs %s: info = %+v, want %+v", week, teamKey(a), teamKey(b), m.Info(), info)
	}
}

func assertBye(t *testing.T, s *fakeStore, week, team int, info models.BracketInfo) {
	t.Helper()
	m := s.find(week, teamKey(team))
	if m == nil || !m.IsPlaceholder() {
		t.Fatalf("week %d: %s should be unpaired", week, teamKey(team))
	}
	if m.Info() != info {
		t.Errorf("week %d %s: info = %+v, want %+v", week, teamKey(team), m.Info(), info)
	}
}

func TestSeedingTenTeams(t *testing.T) {
	s := newSeason(10, nil)
	res, err := quietBuilder().Advance(context.Background(), s, "l")
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if len(res.Stages) != 1 || res.Stages[0].Paired != 5 || res.Stages[0].Finalized != 0 {
		t.Fatalf("stages = %+v", res.Stages)
	}

	playoffs := func(order int) models.BracketInfo { return models.BracketInfo{IsPlayoffs: true, BracketOrder: order} }
	assertPair(t, s, 14, 1, 8, playoffs(1))
	assertPair(t, s, 14, 2, 7, playoffs(4))
	assertPair(t, s, 14, 3, 6, playoffs(3))
	assertPair(t, s, 14, 4, 5, playoffs(2))
	assertPair(t, s, 14, 9, 10, models.BracketInfo{IsLosers: true, BracketOrder: 5})

	if len(s.week(14)) != 5 {
		t.Errorf("week 14 has %d matchups, want 5", len(s.week(14)))
	}
	for i, want := range map[int]int{1: 1, 8: 8, 9: 1, 10: 2} {
		if got := s.teams[teamKey(i)].PlayoffSeed; got == nil || *got != want {
			t.Errorf("seed of %s = %v, want %d", teamKey(i), got, want)
		}
	}
	// merged matchups take the alphabetically first team as team A
	if m := s.find(14, teamKey(8)); m.TeamAKey != teamKey(1) || m.TeamBPoints != 160 {
		t.Errorf("merged matchup = %+v", m)
	}
}

func TestAdvanceIsIdempotent(t *testing.T) {
	s := newSeason(10, nil)
	b := quietBuilder()
	if _, err := b.Advance(context.Background(), s, "l"); err != nil {
		t.Fatal(err)
	}
	before := s.writes

	res, err := b.Advance(context.Background(), s, "l")
	if err != nil {
		t.Fatal(err)
	}
	if s.writes != before || res.Changed {
		t.Fatalf("second Advance wrote %d rows", s.writes-before)
	}
}

func TestStageSkippedWhenPlaceholderMissing(t *testing.T) {
	s := newSeason(10, nil)
	for id, m := range s.matchups {
		if m.Week == 14 && m.TeamAKey == teamKey(5) {
			delete(s.matchups, id)
		}
	}

	res, err := quietBuilder().Advance(context.Background(), s, "l")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Stages[0].Skipped || s.writes != 0 {
		t.Fatalf("stage = %+v, writes = %d", res.Stages[0], s.writes)
	}
	for _, m := range s.week(14) {
		if !m.IsPlaceholder() {
			t.Fatalf("matchup %s was merged", m.Key)
		}
	}
}

func TestNothingHappensBeforePlayoffs(t *testing.T) {
	s := newSeason(8, nil)
	s.league.CurrentWeek = 13
	res, err := quietBuilder().Advance(context.Background(), s, "l")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Stages) != 0 || s.writes != 0 {
		t.Fatalf("res = %+v, writes = %d", res, s.writes)
	}
}

func TestFullPlayoffRun(t *testing.T) {
	s := newSeason(14, nil)
	b := quietBuilder()
	ctx := context.Background()

	if _, err := b.Advance(ctx, s, "l"); err != nil {
		t.Fatal(err)
	}
	losers := func(order int) models.BracketInfo { return models.BracketInfo{IsLosers: true, BracketOrder: order} }
	assertPair(t, s, 14, 9, 12, losers(5))
	assertPair(t, s, 14, 10, 11, losers(8))
	assertBye(t, s, 14, 13, models.BracketInfo{IsLosers: true, IsBye: true, BracketOrder: 9})
	assertBye(t, s, 14, 14, models.BracketInfo{IsLosers: true, IsBye: true, BracketOrder: 10})

	// week 15 cannot be paired until week 14 is over
	s.league.CurrentWeek = 15
	res, err := b.Advance(ctx, s, "l")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Stages) != 2 || res.Stages[0].Finalized != 6 || res.Stages[1].Paired != 6 {
		t.Fatalf("stages = %+v", res.Stages)
	}
	if w := s.find(14, teamKey(1)).WinnerTeamKey; w == nil || *w != teamKey(1) {
		t.Fatalf("week 14 winner = %v", w)
	}

	playoffs := func(order int) models.BracketInfo { return models.BracketInfo{IsPlayoffs: true, BracketOrder: order} }
	consolation := func(order int) models.BracketInfo { return models.BracketInfo{IsConsolation: true, BracketOrder: order} }
	assertPair(t, s, 15, 1, 4, playoffs(0))
	assertPair(t, s, 15, 3, 2, playoffs(1))
	assertPair(t, s, 15, 8, 5, consolation(2))
	assertPair(t, s, 15, 6, 7, consolation(3))
	assertPair(t, s, 15, 12, 14, losers(4))
	assertPair(t, s, 15, 11, 13, losers(5))
	assertBye(t, s, 15, 9, models.BracketInfo{IsBye: true})
	assertBye(t, s, 15, 10, models.BracketInfo{IsBye: true})

	s.league.CurrentWeek = 16
	s.league.IsFinished = true
	res, err = b.Advance(ctx, s, "l")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Stages) != 3 || res.Stages[2].Paired != 5 || res.Stages[2].Finalized != 5 {
		t.Fatalf("stages = %+v", res.Stages)
	}

	assertPair(t, s, 16, 1, 2, playoffs(orderChampionship))
	assertPair(t, s, 16, 4, 3, consolation(orderThirdPlace))
	assertPair(t, s, 16, 5, 6, consolation(orderFifthPlace))
	assertPair(t, s, 16, 8, 7, consolation(orderSeventhPlace))
	assertPair(t, s, 16, 12, 11, losers(orderLastPlace))

	if w := s.find(16, teamKey(1)).WinnerTeamKey; w == nil || *w != teamKey(1) {
		t.Errorf("champion = %v, want %s", w, teamKey(1))
	}
}

// runThrough advances the league week by week up to and including week.
func runThrough(t *testing.T, b *Builder, s *fakeStore, week int) {
	t.Helper()
	for w := models.FirstPlayoffWeek; w <= week; w++ {
		s.league.CurrentWeek = w
		s.league.IsFinished = w == models.FinalWeek
		if _, err := b.Advance(context.Background(), s, "l"); err != nil {
			t.Fatalf("Advance() at week %d error = %v", w, err)
		}
	}
}

func TestShortWinnersPoolGivesTopSeedsByes(t *testing.T) {
	playoffs := func(order int) models.BracketInfo { return models.BracketInfo{IsPlayoffs: true, BracketOrder: order} }
	consolation := func(order int) models.BracketInfo { return models.BracketInfo{IsConsolation: true, BracketOrder: order} }

	tests := []struct {
		name  string
		teams int
		byes  []int
	}{
		{"six teams", 6, []int{1, 2}},
		{"seven teams", 7, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSeason(tt.teams, nil)
			b := quietBuilder()

			runThrough(t, b, s, models.FirstPlayoffWeek)
			assertBye(t, s, 14, 1, models.BracketInfo{IsPlayoffs: true, IsBye: true, BracketOrder: 1})
			if tt.teams == 6 {
				assertBye(t, s, 14, 2, models.BracketInfo{IsPlayoffs: true, IsBye: true, BracketOrder: 4})
			} else {
				assertPair(t, s, 14, 2, 7, playoffs(4))
			}
			assertPair(t, s, 14, 3, 6, playoffs(3))
			assertPair(t, s, 14, 4, 5, playoffs(2))

			runThrough(t, b, s, models.SemifinalWeek)
			assertPair(t, s, 15, 1, 4, playoffs(0))
			assertPair(t, s, 15, 3, 2, playoffs(1))
			assertPair(t, s, 15, 5, 6, consolation(2))

			runThrough(t, b, s, models.FinalWeek)
			assertPair(t, s, 16, 1, 2, playoffs(orderChampionship))
			assertPair(t, s, 16, 4, 3, consolation(orderThirdPlace))
			for _, m := range s.week(16) {
				if m.IsPlayoffs && m.IsPlaceholder() {
					t.Errorf("week 16 has a winners-bracket bye: %+v", m)
				}
			}
			if w := s.find(16, teamKey(1)).WinnerTeamKey; w == nil || *w != teamKey(1) {
				t.Errorf("champion = %v, want %s", w, teamKey(1))
			}
		})
	}
}

func TestTiedGameGoesToBetterRecordAcrossDivisions(t *testing.T) {
	// A: t.02, t.04 / B: t.01, t.03, so division A lists first in
	// the standings while t.01 has the best record.
	s := newSeason(4, func(i int) string {
		if i%2 == 1 {
			return models.DivisionB
		}
		return models.DivisionA
	})
	s.league.IsMultiLeague = true
	for _, m := range s.matchups {
		if m.Week == models.SemifinalWeek && (m.TeamAKey == teamKey(1) || m.TeamAKey == teamKey(2)) {
			m.TeamAPoints = 110
		}
	}
	b := quietBuilder()

	runThrough(t, b, s, models.SemifinalWeek)
	assertPair(t, s, 15, 2, 1, models.BracketInfo{IsPlayoffs: true, BracketOrder: 0})

	s.league.CurrentWeek = models.FinalWeek
	if _, err := b.Advance(context.Background(), s, "l"); err != nil {
		t.Fatal(err)
	}
	m := s.find(15, teamKey(1))
	if m.TeamAPoints != m.TeamBPoints {
		t.Fatalf("expected a tied game, got %v-%v", m.TeamAPoints, m.TeamBPoints)
	}
	if m.WinnerTeamKey == nil || *m.WinnerTeamKey != teamKey(1) {
		t.Errorf("tie winner = %v, want %s on record", m.WinnerTeamKey, teamKey(1))
	}
}

func TestRecordedWinnerKeptOnceNextWeekPaired(t *testing.T) {
	s := newSeason(8, nil)
	b := quietBuilder()
	runThrough(t, b, s, models.SemifinalWeek)

	m := s.find(14, teamKey(8))
	if m.WinnerTeamKey == nil || *m.WinnerTeamKey != teamKey(1) {
		t.Fatalf("week 14 winner = %v, want %s", m.WinnerTeamKey, teamKey(1))
	}
	s.matchups[m.ID].TeamBPoints = 500

	res, err := b.Advance(context.Background(), s, "l")
	if err != nil {
		t.Fatal(err)
	}
	if res.Stages[0].Finalized != 0 {
		t.Errorf("week 14 finalized %d matchups after week 15 was paired", res.Stages[0].Finalized)
	}
	if w := s.find(14, teamKey(8)).WinnerTeamKey; w == nil || *w != teamKey(1) {
		t.Errorf("winner = %v, want recorded %s kept", w, teamKey(1))
	}
	assertPair(t, s, 15, 1, 4, models.BracketInfo{IsPlayoffs: true, BracketOrder: 0})
}

func TestFinalNotDecidedUntilLeagueFinished(t *testing.T) {
	s := newSeason(8, nil)
	b := quietBuilder()
	ctx := context.Background()
	for _, week := range []int{14, 15, 16} {
		s.league.CurrentWeek = week
		if _, err := b.Advance(ctx, s, "l"); err != nil {
			t.Fatal(err)
		}
	}
	if m := s.find(16, teamKey(1)); m.IsPlaceholder() || m.WinnerTeamKey != nil {
		t.Fatalf("final = %+v, want paired and undecided", m)
	}

	s.league.IsFinished = true
	if _, err := b.Advance(ctx, s, "l"); err != nil {
		t.Fatal(err)
	}
	if m := s.find(16, teamKey(1)); m.WinnerTeamKey == nil {
		t.Fatal("final should be decided once the league is finished")
	}
}

func TestScoresFromStartingSlots(t *testing.T) {
	s := newSeason(8, nil)
	t1 := s.find(14, teamKey(1))
	s.slots = []*models.RosterSlot{
		{ID: "a", MatchupID: t1.ID, TeamKey: teamKey(1), Position: models.PositionQB, Points: 30},
		{ID: "b", MatchupID: t1.ID, TeamKey: teamKey(1), Position: models.PositionBench, Points: 50},
		{ID: "c", MatchupID: t1.ID, TeamKey: teamKey(1), Position: models.PositionIR, Points: 5},
	}
	t8 := s.find(14, teamKey(8))
	s.slots = append(s.slots, &models.RosterSlot{ID: "d", MatchupID: t8.ID, TeamKey: teamKey(8), Position: models.PositionWR, Points: 31})

	s.league.CurrentWeek = 15
	if _, err := quietBuilder().Advance(context.Background(), s, "l"); err != nil {
		t.Fatal(err)
	}
	m := s.find(14, teamKey(1))
	if m.TeamAPoints != 30 || m.TeamBPoints != 31 {
		t.Fatalf("points = %v/%v, want 30/31", m.TeamAPoints, m.TeamBPoints)
	}
	if *m.WinnerTeamKey != teamKey(8) {
		t.Errorf("winner = %s, want upset by %s", *m.WinnerTeamKey, teamKey(8))
	}
}

func TestMultiDivisionSeeding(t *testing.T) {
	s := newSeason(10, func(i int) string {
		if i%2 == 1 {
			return models.DivisionA
		}
		return models.DivisionB
	})
	s.league.IsMultiLeague = true

	if _, err := quietBuilder().Advance(context.Background(), s, "l"); err != nil {
		t.Fatal(err)
	}
	// A: 1,3,5,7,9 / B: 2,4,6,8,10
	playoffs := func(order int) models.BracketInfo { return models.BracketInfo{IsPlayoffs: true, BracketOrder: order} }
	assertPair(t, s, 14, 1, 7, playoffs(1))
	assertPair(t, s, 14, 3, 5, playoffs(2))
	assertPair(t, s, 14, 2, 8, playoffs(3))
	assertPair(t, s, 14, 4, 6, playoffs(4))
	assertBye(t, s, 14, 9, models.BracketInfo{IsLosers: true, IsBye: true, BracketOrder: 9})
	assertBye(t, s, 14, 10, models.BracketInfo{IsLosers: true, IsBye: true, BracketOrder: 13})
}

func TestResetRestoresPlaceholders(t *testing.T) {
	s := newSeason(10, nil)
	b := quietBuilder()
	ctx := context.Background()
	s.league.CurrentWeek = 15
	if _, err := b.Advance(ctx, s, "l"); err != nil {
		t.Fatal(err)
	}

	n, err := b.Reset(ctx, s, "l")
	if err != nil {
		t.Fatal(err)
	}
	if n != 9 {
		t.Errorf("decoupled = %d, want 9", n)
	}
	for week := 14; week <= 16; week++ {
		ms := s.week(week)
		if len(ms) != 10 {
			t.Fatalf("week %d has %d matchups after reset", week, len(ms))
		}
		for _, m := range ms {
			if !m.IsPlaceholder() || m.Info() != (models.BracketInfo{}) || m.WinnerTeamKey != nil {
				t.Fatalf("week %d matchup not reset: %+v", week, m)
			}
		}
	}
	for _, tm := range s.teams {
		if tm.PlayoffSeed != nil {
			t.Fatalf("seed of %s not cleared", tm.Key)
		}
	}

	if _, err := b.Advance(ctx, s, "l"); err != nil {
		t.Fatal(err)
	}
	assertPair(t, s, 15, 1, 4, models.BracketInfo{IsPlayoffs: true, BracketOrder: 0})
}

func TestDecideWinnerTieBreak(t *testing.T) {
	m := &models.Matchup{TeamAKey: "a", TeamBKey: strPtr("b"), TeamAPoints: 90, TeamBPoints: 90}
	if got := decideWinner(m, map[string]int{"a": 3, "b": 1}); got != "b" {
		t.Errorf("tie winner = %q, want better-ranked b", got)
	}
	if got := decideWinner(m, nil); got != "" {
		t.Errorf("tie without standings = %q, want undecided", got)
	}
	m.TeamAPoints = 90.01
	if got := decideWinner(m, map[string]int{"a": 3, "b": 1}); got != "a" {
		t.Errorf("winner = %q, want a", got)
	}
}
