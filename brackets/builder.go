package brackets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brianbrunner/just2guys/models"
	"github.com/brianbrunner/just2guys/standings"
)

type StageResult struct {
	Week      int    `json:"week"`
	Paired    int    `json:"paired"`
	Scored    int    `json:"scored"`
	Finalized int    `json:"finalized"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
}

type Result struct {
	LeagueKey string        `json:"league_key"`
	Stages    []StageResult `json:"stages"`
	// Changed is true when any row was written.
	Changed bool `json:"changed"`
}

// Builder drives the playoff bracket through weeks 14 to 16. Each stage
// pairs its week from standings or the previous week's results, scores
// paired matchups from roster slots, and records winners once the week is
// over. A stage whose inputs are missing is skipped without writing.
type Builder struct {
	logger *slog.Logger
}

func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

type stageInput struct {
	league    *models.League
	teams     []*models.Team
	regular   []*models.Matchup
	positions map[string]int
}

// Advance runs every stage the league's current week allows. It is safe to
// call repeatedly; a second call with no new data writes nothing.
func (b *Builder) Advance(ctx context.Context, store Store, leagueKey string) (*Result, error) {
	league, err := store.GetLeague(ctx, leagueKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load league %s: %w", leagueKey, err)
	}
	result := &Result{LeagueKey: league.Key}
	if !league.InPlayoffs() {
		return result, nil
	}

	teams, err := store.ListTeams(ctx, league.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for league %s: %w", league.Key, err)
	}
	regular, err := store.ListMatchups(ctx, league.Key, 1, models.RegularSeasonWeeks)
	if err != nil {
		return nil, fmt.Errorf("failed to list regular season for league %s: %w", league.Key, err)
	}
	in := stageInput{
		league:    league,
		teams:     teams,
		regular:   regular,
		positions: standings.Positions(standings.Overall(teams, regular)),
	}

	for week := models.FirstPlayoffWeek; week <= models.FinalWeek && league.CurrentWeek >= week; week++ {
		stage, changed, err := b.runStage(ctx, store, in, week)
		if err != nil {
			return nil, err
		}
		result.Stages = append(result.Stages, stage)
		result.Changed = result.Changed || changed
		if stage.Skipped {
			b.logger.Warn("playoff stage skipped",
				slog.String("league", league.Key),
				slog.Int("week", week),
				slog.String("reason", stage.Reason))
			break
		}
	}
	return result, nil
}

func (b *Builder) runStage(ctx context.Context, store Store, in stageInput, week int) (StageResult, bool, error) {
	stage := StageResult{Week: week}
	changed := false

	matchups, err := store.ListMatchups(ctx, in.league.Key, week, week)
	if err != nil {
		return stage, false, fmt.Errorf("failed to list week %d matchups: %w", week, err)
	}
	if len(matchups) == 0 {
		stage.Skipped, stage.Reason = true, "no matchups"
		return stage, false, nil
	}

	if hasUnpaired(matchups) {
		plan, reason, err := b.plan(ctx, store, in, week)
		if err != nil {
			return stage, false, err
		}
		if reason == "" {
			reason = missingPlaceholder(plan, matchups)
		}
		if reason != "" {
			stage.Skipped, stage.Reason = true, reason
			return stage, false, nil
		}

		paired, err := b.apply(ctx, store, in, plan, matchups)
		if err != nil {
			return stage, false, fmt.Errorf("failed to pair week %d: %w", week, err)
		}
		stage.Paired = paired
		changed = true

		b.logger.Info("playoff week paired",
			slog.String("league", in.league.Key),
			slog.Int("week", week),
			slog.Int("matchups", paired))

		if matchups, err = store.ListMatchups(ctx, in.league.Key, week, week); err != nil {
			return stage, changed, fmt.Errorf("failed to reload week %d matchups: %w", week, err)
		}
	}

	done := in.league.CurrentWeek > week
	if week == models.FinalWeek {
		done = in.league.IsFinished
	}
	locked := false
	if done && week < models.FinalWeek {
		next, err := store.ListMatchups(ctx, in.league.Key, week+1, week+1)
		if err != nil {
			return stage, changed, fmt.Errorf("failed to list week %d matchups: %w", week+1, err)
		}
		locked = isPaired(next)
	}

	for _, m := range matchups {
		if m.IsPlaceholder() {
			continue
		}
		scored, err := b.score(ctx, store, m)
		if err != nil {
			return stage, changed, err
		}
		if scored {
			stage.Scored++
			changed = true
		}
		if !done {
			continue
		}
		finalized, err := b.finalize(ctx, store, m, in.positions, locked)
		if err != nil {
			return stage, changed, err
		}
		if finalized {
			stage.Finalized++
			changed = true
		}
	}
	return stage, changed, nil
}

// plan returns the pairings for a week, or a reason the week cannot be
// paired yet.
func (b *Builder) plan(ctx context.Context, store Store, in stageInput, week int) (*SeedingPlan, string, error) {
	switch week {
	case models.FirstPlayoffWeek:
		gen := NewGenerator(in.league)
		params := GenerateBracketParams{
			League:    in.league,
			Standings: standings.Compute(in.teams, in.regular),
			Divisions: map[string][]models.Standing{
				models.DivisionA: standings.ComputeDivision(in.teams, in.regular, models.DivisionA),
				models.DivisionB: standings.ComputeDivision(in.teams, in.regular, models.DivisionB),
			},
		}
		plan, err := gen.GenerateBracket(ctx, params)
		if errors.Is(err, ErrNotEnoughTeams) {
			return nil, err.Error(), nil
		}
		if err != nil {
			return nil, "", fmt.Errorf("%s seeding failed: %w", gen.GetName(), err)
		}
		return plan, "", nil

	case models.SemifinalWeek, models.FinalWeek:
		prev, err := store.ListMatchups(ctx, in.league.Key, week-1, week-1)
		if err != nil {
			return nil, "", fmt.Errorf("failed to list week %d matchups: %w", week-1, err)
		}
		if len(prev) == 0 {
			return nil, fmt.Sprintf("no week %d matchups", week-1), nil
		}
		pair := SemifinalPlan
		if week == models.FinalWeek {
			pair = FinalPlan
		}
		matches, err := pair(prev)
		if errors.Is(err, ErrRoundIncomplete) {
			return nil, err.Error(), nil
		}
		if err != nil {
			return nil, "", err
		}
		return &SeedingPlan{Matches: matches}, "", nil
	}
	return nil, fmt.Sprintf("week %d is not a playoff week", week), nil
}

// apply persists seeds, merges placeholders and marks byes. Placeholders
// the plan does not mention become plain byes so later runs see the week
// as paired.
func (b *Builder) apply(ctx context.Context, store Store, in stageInput, plan *SeedingPlan, matchups []*models.Matchup) (int, error) {
	for _, t := range in.teams {
		seed, seeded := plan.Seeds[t.Key]
		switch {
		case seeded && (t.PlayoffSeed == nil || *t.PlayoffSeed != seed):
			if err := store.SetPlayoffSeed(ctx, t.Key, &seed); err != nil {
				return 0, err
			}
		case !seeded && plan.Seeds != nil && t.PlayoffSeed != nil:
			if err := store.SetPlayoffSeed(ctx, t.Key, nil); err != nil {
				return 0, err
			}
		}
	}

	byTeam := placeholdersByTeam(matchups)
	used := make(map[string]bool)
	paired := 0

	for _, bm := range plan.Matches {
		a := byTeam[bm.TeamAKey]
		used[a.ID] = true
		if bm.IsBye() {
			if err := store.UpdateBracketInfo(ctx, a.ID, bm.Info); err != nil {
				return paired, err
			}
			continue
		}
		other := byTeam[bm.TeamBKey]
		used[other.ID] = true
		merged, err := store.MergeMatchups(ctx, a, other)
		if err != nil {
			return paired, fmt.Errorf("failed to merge %s and %s: %w", bm.TeamAKey, bm.TeamBKey, err)
		}
		if err := store.UpdateBracketInfo(ctx, merged.ID, bm.Info); err != nil {
			return paired, err
		}
		paired++
	}

	for _, m := range byTeam {
		if used[m.ID] {
			continue
		}
		if err := store.UpdateBracketInfo(ctx, m.ID, models.BracketInfo{IsBye: true}); err != nil {
			return paired, err
		}
	}
	return paired, nil
}

// score recomputes both sides from starting roster slots. Matchups with no
// slots keep the points they were ingested with.
func (b *Builder) score(ctx context.Context, store Store, m *models.Matchup) (bool, error) {
	slots, err := store.ListRosterSlots(ctx, m.ID)
	if err != nil {
		return false, fmt.Errorf("failed to list roster slots for matchup %s: %w", m.ID, err)
	}
	if len(slots) == 0 {
		return false, nil
	}
	a := models.StarterPoints(slots, m.TeamAKey)
	bPts := models.StarterPoints(slots, *m.TeamBKey)
	if a == m.TeamAPoints && bPts == m.TeamBPoints {
		return false, nil
	}
	if err := store.UpdateScore(ctx, m.ID, a, bPts); err != nil {
		return false, fmt.Errorf("failed to score matchup %s: %w", m.ID, err)
	}
	m.TeamAPoints, m.TeamBPoints = a, bPts
	return true, nil
}

// finalize records the matchup's winner. Once the following week has been
// paired a recorded winner is kept even if the scores now disagree; the
// bracket has to be reset to pick up the correction.
func (b *Builder) finalize(ctx context.Context, store Store, m *models.Matchup, positions map[string]int, locked bool) (bool, error) {
	winner := decideWinner(m, positions)
	if winner == "" {
		b.logger.Warn("unable to decide playoff matchup", slog.String("matchup", m.Key))
		return false, nil
	}
	if m.WinnerTeamKey != nil && *m.WinnerTeamKey == winner {
		return false, nil
	}
	if m.WinnerTeamKey != nil && *m.WinnerTeamKey != "" {
		if locked {
			b.logger.Warn("playoff result changed after the next round was paired; reset playoffs to rebuild",
				slog.String("matchup", m.Key),
				slog.String("recorded", *m.WinnerTeamKey),
				slog.String("scored", winner))
			return false, nil
		}
		b.logger.Warn("playoff result changed",
			slog.String("matchup", m.Key),
			slog.String("recorded", *m.WinnerTeamKey),
			slog.String("scored", winner))
	}
	if err := store.SetWinner(ctx, m.ID, &winner); err != nil {
		return false, fmt.Errorf("failed to finalize matchup %s: %w", m.ID, err)
	}
	m.WinnerTeamKey = &winner
	return true, nil
}

// decideWinner picks the side with more points. Tied playoff games go to
// the team with the better regular-season standing.
func decideWinner(m *models.Matchup, positions map[string]int) string {
	a, b := m.TeamAKey, *m.TeamBKey
	switch {
	case m.TeamAPoints > m.TeamBPoints:
		return a
	case m.TeamBPoints > m.TeamAPoints:
		return b
	}
	pa, okA := positions[a]
	pb, okB := positions[b]
	switch {
	case okA && okB && pa < pb, okA && !okB:
		return a
	case okA && okB && pb < pa, okB && !okA:
		return b
	}
	return ""
}

func hasUnpaired(matchups []*models.Matchup) bool {
	for _, m := range matchups {
		if m.IsPlaceholder() && !m.IsBye {
			return true
		}
	}
	return false
}

// isPaired reports whether a week has already been through pairing.
func isPaired(matchups []*models.Matchup) bool {
	for _, m := range matchups {
		if !m.IsPlaceholder() || m.IsBye {
			return true
		}
	}
	return false
}

func placeholdersByTeam(matchups []*models.Matchup) map[string]*models.Matchup {
	out := make(map[string]*models.Matchup)
	for _, m := range matchups {
		if m.IsPlaceholder() && !m.IsBye {
			out[m.TeamAKey] = m
		}
	}
	return out
}

func missingPlaceholder(plan *SeedingPlan, matchups []*models.Matchup) string {
	byTeam := placeholdersByTeam(matchups)
	for _, bm := range plan.Matches {
		for _, key := range []string{bm.TeamAKey, bm.TeamBKey} {
			if key == "" {
				continue
			}
			if _, ok := byTeam[key]; !ok {
				return fmt.Sprintf("missing placeholder for team %s", key)
			}
		}
	}
	return ""
}

// Reset splits every playoff matchup back into placeholders and clears
// byes and seeds, so the bracket can be rebuilt from scratch.
func (b *Builder) Reset(ctx context.Context, store Store, leagueKey string) (int, error) {
	matchups, err := store.ListMatchups(ctx, leagueKey, models.FirstPlayoffWeek, models.FinalWeek)
	if err != nil {
		return 0, fmt.Errorf("failed to list playoff matchups: %w", err)
	}
	decoupled := 0
	for _, m := range matchups {
		if m.IsPlaceholder() {
			if m.Info() != (models.BracketInfo{}) {
				if err := store.UpdateBracketInfo(ctx, m.ID, models.BracketInfo{}); err != nil {
					return decoupled, err
				}
			}
			continue
		}
		if _, _, err := store.DecoupleMatchup(ctx, m); err != nil {
			return decoupled, fmt.Errorf("failed to decouple matchup %s: %w", m.Key, err)
		}
		decoupled++
	}

	teams, err := store.ListTeams(ctx, leagueKey)
	if err != nil {
		return decoupled, fmt.Errorf("failed to list teams: %w", err)
	}
	for _, t := range teams {
		if t.PlayoffSeed == nil {
			continue
		}
		if err := store.SetPlayoffSeed(ctx, t.Key, nil); err != nil {
			return decoupled, err
		}
	}

	b.logger.Info("playoff bracket reset", slog.String("league", leagueKey), slog.Int("decoupled", decoupled))
	return decoupled, nil
}
