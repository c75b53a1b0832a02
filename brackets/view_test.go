package brackets

import (
	"testing"

	"github.com/brianbrunner/just2guys/models"
)

func TestRoundsGroupsByBracket(t *testing.T) {
	b := func(s string) *string { return &s }
	win := "a"
	matchups := []*models.Matchup{
		{Key: "w3", Week: 5, TeamAKey: "x", TeamBKey: b("y")},
		{Key: "q2", Week: 14, TeamAKey: "c", TeamBKey: b("d"), IsPlayoffs: true, BracketOrder: 4},
		{Key: "q1", Week: 14, TeamAKey: "a", TeamBKey: b("b"), IsPlayoffs: true, BracketOrder: 1},
		{Key: "ql", Week: 14, TeamAKey: "e", TeamBKey: b("f"), IsLosers: true, BracketOrder: 5},
		{Key: "qb", Week: 14, TeamAKey: "g", IsLosers: true, IsBye: true, BracketOrder: 9},
		{Key: "f0", Week: 16, TeamAKey: "a", TeamBKey: b("c"), IsPlayoffs: true, WinnerTeamKey: &win},
		{Key: "f1", Week: 16, TeamAKey: "b", TeamBKey: b("d"), IsConsolation: true, BracketOrder: 1},
		{Key: "fp", Week: 16, TeamAKey: "h"},
	}

	rounds := Rounds(matchups)
	if len(rounds) != 2 {
		t.Fatalf("Rounds() returned %d rounds, want 2", len(rounds))
	}

	q := rounds[0]
	if q.Week != 14 || q.Name != "Quarterfinals" {
		t.Errorf("first round = %d %q", q.Week, q.Name)
	}
	if len(q.Playoffs) != 2 || q.Playoffs[0].Key != "q1" || q.Playoffs[1].Key != "q2" {
		t.Errorf("playoffs not ordered by bracket order: %v", keysOf(q.Playoffs))
	}
	if len(q.Losers) != 1 || len(q.Byes) != 1 {
		t.Errorf("losers = %d, byes = %d", len(q.Losers), len(q.Byes))
	}

	f := rounds[1]
	if len(f.Playoffs) != 1 || len(f.Consolation) != 1 || len(f.Unpaired) != 1 {
		t.Errorf("finals grouping = %d/%d/%d", len(f.Playoffs), len(f.Consolation), len(f.Unpaired))
	}

	champ, ok := Champion(matchups)
	if !ok || champ != "a" {
		t.Errorf("Champion() = %q, %v", champ, ok)
	}
}

func keysOf(ms []*models.Matchup) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Key
	}
	return out
}
