package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/brianbrunner/just2guys/db"
	"github.com/brianbrunner/just2guys/models"
)

type testRepos struct {
	conn     *sql.DB
	leagues  LeagueRepository
	teams    TeamRepository
	managers ManagerRepository
	players  PlayerRepository
	matchups MatchupRepository
	slots    RosterSlotRepository
}

func newTestRepos(t *testing.T) *testRepos {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, ":memory:", time.Second)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return &testRepos{
		conn:     conn,
		leagues:  NewPostgresLeagueRepository(conn),
		teams:    NewPostgresTeamRepository(conn),
		managers: NewPostgresManagerRepository(conn),
		players:  NewPostgresPlayerRepository(conn),
		matchups: NewPostgresMatchupRepository(conn),
		slots:    NewPostgresRosterSlotRepository(conn),
	}
}

// seedLeague stores a league with two teams, two players and week 14
// placeholders for both teams, each with two roster slots.
func seedLeague(t *testing.T, r *testRepos) (*models.Matchup, *models.Matchup) {
	t.Helper()
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	must(r.leagues.Upsert(ctx, nil, &models.League{Key: "l1", Name: "League", Season: 2023, CurrentWeek: 14}))
	must(r.teams.Upsert(ctx, nil, &models.Team{Key: "t.zed", LeagueKey: "l1", Name: "Zebras"}))
	must(r.teams.Upsert(ctx, nil, &models.Team{Key: "t.ant", LeagueKey: "l1", Name: "Ants"}))
	must(r.players.Upsert(ctx, nil, &models.Player{Key: "p1", Name: "One", DisplayPosition: "QB"}))
	must(r.players.Upsert(ctx, nil, &models.Player{Key: "p2", Name: "Two", DisplayPosition: "WR"}))

	zed := &models.Matchup{LeagueKey: "l1", Week: 14, TeamAKey: "t.zed", TeamAPoints: 90}
	ant := &models.Matchup{LeagueKey: "l1", Week: 14, TeamAKey: "t.ant", TeamAPoints: 80}
	must(r.matchups.Create(ctx, nil, zed))
	must(r.matchups.Create(ctx, nil, ant))

	must(r.slots.ReplaceForTeam(ctx, nil, zed.ID, "t.zed", []*models.RosterSlot{
		{Week: 14, PlayerKey: "p1", Points: 20, Position: models.PositionQB},
		{Week: 14, PlayerKey: "p2", Points: 5, Position: models.PositionBench},
	}))
	must(r.slots.ReplaceForTeam(ctx, nil, ant.ID, "t.ant", []*models.RosterSlot{
		{Week: 14, PlayerKey: "p1", Points: 11, Position: models.PositionQB},
		{Week: 14, PlayerKey: "p2", Points: 7, Position: models.PositionWR},
	}))
	return zed, ant
}

func TestLeagueUpsertUpdatesInPlace(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	league := &models.League{Key: "l1", Name: "Old", Season: 2022}
	if err := r.leagues.Upsert(ctx, nil, league); err != nil {
		t.Fatal(err)
	}
	league.Name = "New"
	league.CurrentWeek = 16
	league.IsFinished = true
	if err := r.leagues.Upsert(ctx, nil, league); err != nil {
		t.Fatal(err)
	}

	got, err := r.leagues.GetByKey(ctx, nil, "l1")
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if got.Name != "New" || got.CurrentWeek != 16 || !got.IsFinished {
		t.Errorf("GetByKey() = %+v", got)
	}

	if _, err := r.leagues.GetByKey(ctx, nil, "missing"); !errors.Is(err, ErrLeagueNotFound) {
		t.Errorf("GetByKey(missing) error = %v, want ErrLeagueNotFound", err)
	}
}

func TestTeamSeedSurvivesUpsert(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedLeague(t, r)

	seed := 3
	if err := r.teams.SetPlayoffSeed(ctx, nil, "t.ant", &seed); err != nil {
		t.Fatal(err)
	}
	if err := r.teams.Upsert(ctx, nil, &models.Team{Key: "t.ant", LeagueKey: "l1", Name: "Ants II"}); err != nil {
		t.Fatal(err)
	}

	team, err := r.teams.GetByKey(ctx, nil, "t.ant")
	if err != nil {
		t.Fatal(err)
	}
	if team.Name != "Ants II" || team.PlayoffSeed == nil || *team.PlayoffSeed != 3 {
		t.Errorf("team = %+v", team)
	}
	if team.Division != models.DivisionA {
		t.Errorf("Division = %q, want default A", team.Division)
	}

	if err := r.teams.SetPlayoffSeed(ctx, nil, "t.ant", nil); err != nil {
		t.Fatal(err)
	}
	team, _ = r.teams.GetByKey(ctx, nil, "t.ant")
	if team.PlayoffSeed != nil {
		t.Errorf("PlayoffSeed = %d, want nil", *team.PlayoffSeed)
	}
}

func TestMergeAndDecoupleRoundTrip(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	zed, ant := seedLeague(t, r)

	merged, err := r.matchups.Merge(ctx, nil, zed, ant)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged.ID != ant.ID || merged.TeamAKey != "t.ant" {
		t.Fatalf("Merge() survivor = %s/%s, want Ants placeholder", merged.ID, merged.TeamAKey)
	}
	if merged.TeamBKey == nil || *merged.TeamBKey != "t.zed" || merged.TeamBPoints != 90 {
		t.Fatalf("Merge() team B = %v (%v)", merged.TeamBKey, merged.TeamBPoints)
	}
	if merged.Key != "l1.14.t.ant.t.zed" {
		t.Errorf("Merge() key = %q", merged.Key)
	}

	if _, err := r.matchups.GetByID(ctx, nil, zed.ID); !errors.Is(err, ErrMatchupNotFound) {
		t.Errorf("absorbed matchup still present: %v", err)
	}
	slots, err := r.slots.ListByMatchup(ctx, nil, merged.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 4 {
		t.Fatalf("merged matchup has %d slots, want 4", len(slots))
	}

	stored, err := r.matchups.GetByID(ctx, nil, merged.ID)
	if err != nil {
		t.Fatal(err)
	}
	kept, split, err := r.matchups.Decouple(ctx, nil, stored)
	if err != nil {
		t.Fatalf("Decouple() error = %v", err)
	}
	if kept.TeamAKey != "t.ant" || !kept.IsPlaceholder() || split.TeamAKey != "t.zed" || split.TeamAPoints != 90 {
		t.Fatalf("Decouple() = %+v / %+v", kept, split)
	}

	keptSlots, _ := r.slots.ListByMatchup(ctx, nil, kept.ID)
	splitSlots, _ := r.slots.ListByMatchup(ctx, nil, split.ID)
	if len(keptSlots) != 2 || len(splitSlots) != 2 {
		t.Fatalf("slot counts = %d/%d, want 2/2", len(keptSlots), len(splitSlots))
	}
	for _, s := range splitSlots {
		if s.TeamKey != "t.zed" {
			t.Errorf("split row holds slot of team %s", s.TeamKey)
		}
	}

	week, err := r.matchups.ListByLeague(ctx, nil, "l1", 14, 14)
	if err != nil {
		t.Fatal(err)
	}
	if len(week) != 2 {
		t.Errorf("week 14 has %d matchups after decouple, want 2", len(week))
	}
}

func TestMergeRejectsPairedMatchup(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	zed, ant := seedLeague(t, r)

	merged, err := r.matchups.Merge(ctx, nil, zed, ant)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.matchups.Merge(ctx, nil, merged, zed); !errors.Is(err, models.ErrMatchupNotPlaceholder) {
		t.Errorf("Merge(paired) error = %v, want ErrMatchupNotPlaceholder", err)
	}
}

func TestMatchupUpsertKeepsID(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedLeague(t, r)

	teamB := "t.zed"
	winner := "t.ant"
	m := &models.Matchup{LeagueKey: "l1", Week: 3, TeamAKey: "t.ant", TeamBKey: &teamB, TeamAPoints: 100, TeamBPoints: 99, WinnerTeamKey: &winner}
	if err := r.matchups.Upsert(ctx, nil, m); err != nil {
		t.Fatal(err)
	}
	firstID := m.ID

	again := &models.Matchup{LeagueKey: "l1", Week: 3, TeamAKey: "t.ant", TeamBKey: &teamB, TeamAPoints: 101, TeamBPoints: 99, WinnerTeamKey: &winner}
	if err := r.matchups.Upsert(ctx, nil, again); err != nil {
		t.Fatal(err)
	}
	if again.ID != firstID {
		t.Errorf("Upsert() ID = %s, want existing %s", again.ID, firstID)
	}

	got, err := r.matchups.FindByTeamWeek(ctx, nil, "l1", 3, "t.zed")
	if err != nil {
		t.Fatal(err)
	}
	if got.TeamAPoints != 101 || got.WinnerTeamKey == nil || *got.WinnerTeamKey != "t.ant" {
		t.Errorf("FindByTeamWeek() = %+v", got)
	}
}

func TestReassignTeams(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedLeague(t, r)

	for _, m := range []*models.Manager{{Key: "keep", Nickname: "Keep"}, {Key: "dupe", Nickname: "Dupe"}} {
		if err := r.managers.Upsert(ctx, nil, m); err != nil {
			t.Fatal(err)
		}
	}
	links := []models.TeamManager{{TeamKey: "t.ant", ManagerKey: "keep"}, {TeamKey: "t.ant", ManagerKey: "dupe"}, {TeamKey: "t.zed", ManagerKey: "dupe"}}
	for _, l := range links {
		if err := r.teams.AddManager(ctx, nil, l.TeamKey, l.ManagerKey); err != nil {
			t.Fatal(err)
		}
	}

	moved, err := r.managers.ReassignTeams(ctx, nil, "dupe", "keep")
	if err != nil {
		t.Fatalf("ReassignTeams() error = %v", err)
	}
	if moved != 2 {
		t.Errorf("ReassignTeams() moved %d, want 2", moved)
	}

	got, err := r.teams.ListTeamManagers(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.TeamManager{{TeamKey: "t.ant", ManagerKey: "keep"}, {TeamKey: "t.zed", ManagerKey: "keep"}}
	if len(got) != len(want) {
		t.Fatalf("links = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("links[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDuplicateKeyTranslated(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	seedLeague(t, r)

	dup := &models.Matchup{LeagueKey: "l1", Week: 14, TeamAKey: "t.ant"}
	err := r.matchups.Create(ctx, nil, dup)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicateKey", err)
	}
}
