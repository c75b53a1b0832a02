package models

import (
	"errors"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func placeholder(id, team string, points float64, projected *float64) *Matchup {
	return &Matchup{
		ID:                   id,
		Key:                  MatchupKey("nfl.l.1", 14, team, nil),
		LeagueKey:            "nfl.l.1",
		Week:                 14,
		TeamAKey:             team,
		TeamAPoints:          points,
		TeamAProjectedPoints: projected,
	}
}

func TestMergeMatchupsIsCommutative(t *testing.T) {
	a := placeholder("m1", "t.1", 101.5, floatPtr(110))
	b := placeholder("m2", "t.2", 88.25, nil)

	ab, absorbedAB, err := MergeMatchups(a, b, "Zebras", "Aardvarks")
	if err != nil {
		t.Fatalf("MergeMatchups(a, b) error = %v", err)
	}
	ba, absorbedBA, err := MergeMatchups(b, a, "Aardvarks", "Zebras")
	if err != nil {
		t.Fatalf("MergeMatchups(b, a) error = %v", err)
	}

	if ab.ID != ba.ID || absorbedAB != absorbedBA {
		t.Fatalf("survivors differ: %s/%s vs %s/%s", ab.ID, absorbedAB, ba.ID, absorbedBA)
	}
	if ab.TeamAKey != "t.2" || *ab.TeamBKey != "t.1" {
		t.Errorf("team order = %s vs %s, want alphabetical by name", ab.TeamAKey, *ab.TeamBKey)
	}
	if ab.TeamAPoints != 88.25 || ab.TeamBPoints != 101.5 {
		t.Errorf("points = %v/%v", ab.TeamAPoints, ab.TeamBPoints)
	}
	if ab.TeamBProjectedPoints == nil || *ab.TeamBProjectedPoints != 110 {
		t.Errorf("team B projection not carried over")
	}
	if ab.Key != "nfl.l.1.14.t.2.t.1" || ab.Key != ba.Key {
		t.Errorf("key = %q / %q", ab.Key, ba.Key)
	}
}

func TestMergeMatchupsRejectsInvalidInput(t *testing.T) {
	paired := placeholder("m1", "t.1", 0, nil)
	other := "t.3"
	paired.TeamBKey = &other

	otherWeek := placeholder("m3", "t.4", 0, nil)
	otherWeek.Week = 15

	tests := []struct {
		name string
		a, b *Matchup
		want error
	}{
		{"two-sided input", paired, placeholder("m2", "t.2", 0, nil), ErrMatchupNotPlaceholder},
		{"different weeks", placeholder("m2", "t.2", 0, nil), otherWeek, ErrMatchupMismatch},
		{"same team", placeholder("m2", "t.2", 0, nil), placeholder("m5", "t.2", 0, nil), ErrMatchupMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := MergeMatchups(tt.a, tt.b, "A", "B"); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecoupleRoundTrip(t *testing.T) {
	a := placeholder("m1", "t.1", 120.5, floatPtr(100))
	b := placeholder("m2", "t.2", 98.25, floatPtr(105))

	merged, _, err := MergeMatchups(a, b, "Alpha", "Beta")
	if err != nil {
		t.Fatal(err)
	}
	merged.IsPlayoffs = true
	merged.BracketOrder = 3

	kept, split, err := DecoupleMatchup(merged, "m2")
	if err != nil {
		t.Fatal(err)
	}
	if kept.IsPlayoffs || kept.BracketOrder != 0 || kept.WinnerTeamKey != nil {
		t.Errorf("bracket fields not cleared: %+v", kept)
	}

	again, _, err := MergeMatchups(kept, split, "Alpha", "Beta")
	if err != nil {
		t.Fatal(err)
	}
	if again.TeamAPoints != merged.TeamAPoints || again.TeamBPoints != merged.TeamBPoints {
		t.Errorf("points changed: %v/%v vs %v/%v", again.TeamAPoints, again.TeamBPoints, merged.TeamAPoints, merged.TeamBPoints)
	}
	if *again.TeamAProjectedPoints != 100 || *again.TeamBProjectedPoints != 105 {
		t.Errorf("projections changed")
	}
	if again.Key != merged.Key {
		t.Errorf("key = %q, want %q", again.Key, merged.Key)
	}
}

func TestSideForUnknownTeam(t *testing.T) {
	m := placeholder("m1", "t.1", 0, nil)
	other := "t.2"
	m.TeamBKey = &other

	if _, err := m.Side("t.9"); !errors.Is(err, ErrTeamNotInMatchup) {
		t.Fatalf("err = %v, want ErrTeamNotInMatchup", err)
	}
	side, err := m.Side("t.2")
	if err != nil {
		t.Fatal(err)
	}
	if side.OpponentKey != "t.1" {
		t.Errorf("opponent = %q", side.OpponentKey)
	}
}

func TestFinalizedAndLoser(t *testing.T) {
	m := placeholder("m1", "t.1", 10, nil)
	other := "t.2"
	m.TeamBKey = &other

	tie := ""
	m.WinnerTeamKey = &tie
	if m.IsFinalized() {
		t.Fatal("tie should not count as finalized")
	}

	winner := "t.2"
	m.WinnerTeamKey = &winner
	loser, ok := m.Loser()
	if !ok || loser != "t.1" {
		t.Fatalf("Loser() = %q, %v", loser, ok)
	}
}

func TestSortRosterSlots(t *testing.T) {
	slots := []*RosterSlot{
		{Position: PositionBench, Points: 30},
		{Position: PositionK, Points: 8},
		{Position: "DB", Points: 4},
		{Position: PositionIR},
		{Position: PositionQB, Points: 20},
		{Position: PositionWR, Points: 5},
		{Position: PositionWR, Points: 15},
	}
	SortRosterSlots(slots)

	want := []string{PositionQB, PositionWR, PositionWR, PositionK, "DB", PositionBench, PositionIR}
	for i, s := range slots {
		if s.Position != want[i] {
			t.Fatalf("position[%d] = %s, want %s", i, s.Position, want[i])
		}
	}
	if slots[1].Points != 15 {
		t.Errorf("WR order by points not respected")
	}
	if got := StarterPoints(slots, ""); got != 52 {
		t.Errorf("StarterPoints = %v, want 52", got)
	}
}
