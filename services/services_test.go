package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/brianbrunner/just2guys/config"
	"github.com/brianbrunner/just2guys/db"
	"github.com/brianbrunner/just2guys/ingest"
	"github.com/brianbrunner/just2guys/repositories"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []string
}

func (p *fakePublisher) PublishLeague(leagueKey, messageType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, leagueKey+":"+messageType)
}

type testEnv struct {
	conn      *sql.DB
	leagues   repositories.LeagueRepository
	teams     repositories.TeamRepository
	managers  repositories.ManagerRepository
	players   repositories.PlayerRepository
	matchups  repositories.MatchupRepository
	slots     repositories.RosterSlotRepository
	pipeline  *Pipeline
	publisher *fakePublisher
	logger    *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, ":memory:", time.Second)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		conn:      conn,
		leagues:   repositories.NewPostgresLeagueRepository(conn),
		teams:     repositories.NewPostgresTeamRepository(conn),
		managers:  repositories.NewPostgresManagerRepository(conn),
		players:   repositories.NewPostgresPlayerRepository(conn),
		matchups:  repositories.NewPostgresMatchupRepository(conn),
		slots:     repositories.NewPostgresRosterSlotRepository(conn),
		pipeline:  NewPipeline(logger),
		publisher: &fakePublisher{},
		logger:    logger,
	}
}

func (e *testEnv) ingest(merges []config.ManagerMerge) IngestService {
	return NewIngestService(e.conn, e.leagues, e.teams, e.managers, e.players, e.matchups, e.slots, merges, e.pipeline, e.logger)
}

func (e *testEnv) leagueService() LeagueService {
	return NewLeagueService(e.leagues, e.teams, e.players, e.matchups, e.slots, e.logger)
}

func (e *testEnv) bracketService() BracketService {
	return NewBracketService(e.conn, e.leagues, e.teams, e.matchups, e.slots, e.publisher, e.pipeline, e.logger)
}

func (e *testEnv) historyService() HistoryService {
	return NewHistoryService(NewSnapshotLoader(e.leagues, e.teams, e.managers, e.players, e.matchups, e.slots))
}

func ptr[T any](v T) *T { return &v }

func side(team string, points float64, roster ...ingest.Slot) ingest.Side {
	return ingest.Side{TeamKey: team, Points: points, Roster: roster}
}

// fourTeamSnapshot is one regular-season week (t1 beats t2, t3 beats t4)
// and week 14 placeholders for every team.
func fourTeamSnapshot() *ingest.Snapshot {
	team := func(key, name, manager string) ingest.Team {
		return ingest.Team{
			Key:      key,
			Name:     name,
			Managers: []ingest.Manager{{Key: manager, Nickname: manager}},
			Players:  []string{"p1"},
		}
	}
	return &ingest.Snapshot{
		Players: []ingest.Player{{Key: "p1", Name: "Quarterback", DisplayPosition: "QB", PositionType: "O"}},
		Leagues: []ingest.League{{
			Key:         "l1",
			Name:        "Just Two Guys",
			Season:      2023,
			CurrentWeek: 14,
			Teams:       []ingest.Team{
				team("t1", "Dragons", "m1"),
				team("t2", "Cobras", "m2"),
				team("t3", "Bears", "m3"),
				team("t4", "Apes", "m4"),
			},
			Matchups: []ingest.Matchup{
				{Week: 1, WinnerTeamKey: ptr("t1"), Sides: []ingest.Side{
					side("t1", 120.5, ingest.Slot{PlayerKey: "p1", Position: "QB", Points: 30}),
					side("t2", 98.25),
				}},
				{Week: 1, WinnerTeamKey: ptr("t3"), Sides: []ingest.Side{side("t3", 110), side("t4", 90)}},
				{Week: 14, Sides: []ingest.Side{side("t1", 0)}},
				{Week: 14, Sides: []ingest.Side{side("t2", 0)}},
				{Week: 14, Sides: []ingest.Side{side("t3", 0)}},
				{Week: 14, Sides: []ingest.Side{side("t4", 0)}},
			},
		}},
	}
}

func TestImportStoresRegularAndPlayoffWeeks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.ingest(nil).Import(ctx, fourTeamSnapshot())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Leagues != 1 || res.Teams != 4 || res.Matchups != 2 || res.PlayoffSides != 4 || res.RosterSlots != 1 {
		t.Fatalf("Import() = %+v", res)
	}

	week1, err := env.matchups.ListByLeague(ctx, nil, "l1", 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	keys := map[string]bool{}
	for _, m := range week1 {
		keys[m.Key] = true
	}
	// team A is the side whose name sorts first
	for _, want := range []string{"l1.1.t2.t1", "l1.1.t4.t3"} {
		if !keys[want] {
			t.Errorf("missing matchup %s, have %v", want, keys)
		}
	}

	placeholders, err := env.matchups.ListByLeague(ctx, nil, "l1", 14, 14)
	if err != nil {
		t.Fatal(err)
	}
	if len(placeholders) != 4 {
		t.Fatalf("week 14 matchups = %d, want 4", len(placeholders))
	}

	// a second import updates rows in place
	if _, err := env.ingest(nil).Import(ctx, fourTeamSnapshot()); err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	all, err := env.matchups.ListByLeague(ctx, nil, "l1", 1, 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 6 {
		t.Errorf("matchups after re-import = %d, want 6", len(all))
	}
}

func TestImportRejectsInvalidSnapshot(t *testing.T) {
	env := newTestEnv(t)
	snap := fourTeamSnapshot()
	snap.Leagues[0].Matchups[0].Sides[1].TeamKey = "nobody"

	_, err := env.ingest(nil).Import(context.Background(), snap)
	if !errors.Is(err, ErrValidationFailed) || !errors.Is(err, ingest.ErrInvalidSnapshot) {
		t.Fatalf("Import() error = %v, want validation failure", err)
	}
}

func TestImportAppliesManagerMerges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	merges := []config.ManagerMerge{{Keep: "m1", Merge: "m2"}, {Keep: "ghost", Merge: "m3"}}
	res, err := env.ingest(merges).Import(ctx, fourTeamSnapshot())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.ManagersMerged != 1 {
		t.Errorf("ManagersMerged = %d, want 1", res.ManagersMerged)
	}
	if _, err := env.managers.GetByKey(ctx, nil, "m2"); !errors.Is(err, repositories.ErrManagerNotFound) {
		t.Errorf("merged manager still present, err = %v", err)
	}

	links, err := env.teams.ListTeamManagers(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	owner := map[string]string{}
	for _, l := range links {
		owner[l.TeamKey] = l.ManagerKey
	}
	if owner["t2"] != "m1" {
		t.Errorf("t2 manager = %q, want m1", owner["t2"])
	}
}

func TestMergeManagers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.ingest(nil).Import(ctx, fourTeamSnapshot()); err != nil {
		t.Fatal(err)
	}
	admin := NewAdminService(env.conn, env.managers, env.pipeline, env.logger)

	res, err := admin.MergeManagers(ctx, "m1", "m2")
	if err != nil {
		t.Fatalf("MergeManagers() error = %v", err)
	}
	if !res.Removed || res.TeamsMoved != 1 {
		t.Errorf("MergeManagers() = %+v", res)
	}

	again, err := admin.MergeManagers(ctx, "m1", "m2")
	if err != nil {
		t.Fatalf("second MergeManagers() error = %v", err)
	}
	if again.Removed {
		t.Error("second merge should be a no-op")
	}

	if _, err := admin.MergeManagers(ctx, "m1", "m1"); !errors.Is(err, ErrSameManager) {
		t.Errorf("self merge error = %v, want ErrSameManager", err)
	}
	if _, err := admin.MergeManagers(ctx, "ghost", "m3"); !errors.Is(err, ErrManagerNotFound) {
		t.Errorf("unknown keep error = %v, want ErrManagerNotFound", err)
	}
}

func TestStandings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.ingest(nil).Import(ctx, fourTeamSnapshot()); err != nil {
		t.Fatal(err)
	}
	svc := env.leagueService()

	rows, err := svc.Standings(ctx, "l1", "")
	if err != nil {
		t.Fatalf("Standings() error = %v", err)
	}
	var order []string
	for _, r := range rows {
		order = append(order, r.TeamKey)
	}
	want := []string{"t1", "t3", "t2", "t4"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("standings order = %v, want %v", order, want)
		}
	}

	if _, err := svc.Standings(ctx, "l1", "C"); !errors.Is(err, ErrInvalidDivision) {
		t.Errorf("division C error = %v, want ErrInvalidDivision", err)
	}
	if _, err := svc.Standings(ctx, "nope", ""); !errors.Is(err, ErrLeagueNotFound) {
		t.Errorf("unknown league error = %v, want ErrLeagueNotFound", err)
	}
}

func TestMatchupRosterAttachesPlayers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.ingest(nil).Import(ctx, fourTeamSnapshot()); err != nil {
		t.Fatal(err)
	}
	m, err := env.matchups.FindByTeamWeek(ctx, nil, "l1", 1, "t1")
	if err != nil {
		t.Fatal(err)
	}

	roster, err := env.leagueService().MatchupRoster(ctx, m.ID)
	if err != nil {
		t.Fatalf("MatchupRoster() error = %v", err)
	}
	// t2 sorts first by name, so t1 is team B
	if len(roster.TeamA) != 0 || len(roster.TeamB) != 1 {
		t.Fatalf("roster sizes = %d/%d, want 0/1", len(roster.TeamA), len(roster.TeamB))
	}
	if p := roster.TeamB[0].Player; p == nil || p.Name != "Quarterback" {
		t.Errorf("player = %+v, want Quarterback", p)
	}

	if _, err := env.leagueService().MatchupRoster(ctx, "missing"); !errors.Is(err, ErrMatchupNotFound) {
		t.Errorf("missing matchup error = %v", err)
	}
}

func TestAdvanceLeaguePairsPlaceholders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.ingest(nil).Import(ctx, fourTeamSnapshot()); err != nil {
		t.Fatal(err)
	}
	svc := env.bracketService()

	res, err := svc.AdvanceLeague(ctx, "l1")
	if err != nil {
		t.Fatalf("AdvanceLeague() error = %v", err)
	}
	if !res.Changed {
		t.Fatal("first advance should change the bracket")
	}

	view, err := env.leagueService().Bracket(ctx, "l1")
	if err != nil {
		t.Fatalf("Bracket() error = %v", err)
	}
	if len(view.Rounds) != 1 || len(view.Rounds[0].Unpaired) != 0 || len(view.Rounds[0].Playoffs) != 2 {
		t.Fatalf("Bracket() rounds = %+v", view.Rounds)
	}

	again, err := svc.AdvanceLeague(ctx, "l1")
	if err != nil {
		t.Fatalf("second AdvanceLeague() error = %v", err)
	}
	if again.Changed {
		t.Error("second advance should write nothing")
	}
	if len(env.publisher.messages) != 1 {
		t.Errorf("published %v, want one update", env.publisher.messages)
	}

	decoupled, err := svc.ResetPlayoffs(ctx, "l1")
	if err != nil {
		t.Fatalf("ResetPlayoffs() error = %v", err)
	}
	if decoupled != 2 {
		t.Errorf("ResetPlayoffs() = %d, want 2", decoupled)
	}
	week14, err := env.matchups.ListByLeague(ctx, nil, "l1", 14, 14)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range week14 {
		if !m.IsPlaceholder() {
			t.Errorf("matchup %s still paired after reset", m.Key)
		}
	}

	if _, err := svc.AdvanceLeague(ctx, "nope"); !errors.Is(err, ErrLeagueNotFound) {
		t.Errorf("unknown league error = %v, want ErrLeagueNotFound", err)
	}
}

func TestHistoryService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.ingest(nil).Import(ctx, fourTeamSnapshot()); err != nil {
		t.Fatal(err)
	}
	svc := env.historyService()

	recs, err := svc.ManagerRivalries(ctx, "m1")
	if err != nil {
		t.Fatalf("ManagerRivalries() error = %v", err)
	}
	if len(recs) != 1 || recs[0].OpponentKey != "m2" || recs[0].Wins != 1 {
		t.Fatalf("ManagerRivalries() = %+v", recs)
	}
	if _, err := svc.ManagerRivalries(ctx, "ghost"); !errors.Is(err, ErrManagerNotFound) {
		t.Errorf("unknown manager error = %v", err)
	}

	tables, err := svc.Records(ctx)
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(tables) == 0 {
		t.Error("Records() returned no tables")
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewAuthService(string(hash), "secret", logger)

	res, err := svc.Login("hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	token, err := jwt.Parse(res.Token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	if err != nil || !token.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims := token.Claims.(jwt.MapClaims); claims["role"] != RoleAdmin {
		t.Errorf("role claim = %v", claims["role"])
	}

	if _, err := svc.Login("wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := NewAuthService("", "secret", logger).Login("x"); !errors.Is(err, ErrAdminLoginDisabled) {
		t.Errorf("disabled login error = %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
	if _, err := HashPassword(""); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("empty password error = %v", err)
	}
}

func TestPipelineTryDoRejectsOverlap(t *testing.T) {
	p := NewPipeline(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	err := p.Do(ctx, "outer", func(ctx context.Context) error {
		return p.TryDo(ctx, "inner", func(context.Context) error { return nil })
	})
	if !errors.Is(err, ErrPipelineBusy) {
		t.Fatalf("TryDo() inside Do() error = %v, want ErrPipelineBusy", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	p.sem <- struct{}{}
	defer func() { <-p.sem }()
	if err := p.Do(cancelled, "late", func(context.Context) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Do() with cancelled ctx error = %v", err)
	}
}
