// Package standings derives regular-season standings from matchup results.
package standings

import (
	"sort"

	"github.com/brianbrunner/just2guys/models"
)

// Compute ranks every team by division, wins, points for and points against.
// Only regular-season matchups with a recorded winner contribute; a winner
// key of "" is a tie and counts for neither side.
func Compute(teams []*models.Team, matchups []*models.Matchup) []models.Standing {
	return rank(tally(teams, matchups), less)
}

// Overall ranks every team on its record alone, ignoring divisions.
func Overall(teams []*models.Team, matchups []*models.Matchup) []models.Standing {
	return rank(tally(teams, matchups), lessRecord)
}

func tally(teams []*models.Team, matchups []*models.Matchup) []models.Standing {
	ordered := make([]*models.Team, len(teams))
	copy(ordered, teams)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Key < ordered[j].Key })

	rows := make([]models.Standing, len(ordered))
	index := make(map[string]int, len(ordered))
	for i, t := range ordered {
		division := t.Division
		if division == "" {
			division = models.DivisionA
		}
		rows[i] = models.Standing{TeamKey: t.Key, TeamName: t.Name, Division: division}
		index[t.Key] = i
	}

	for _, m := range matchups {
		if m.Week > models.RegularSeasonWeeks || m.TeamBKey == nil || m.WinnerTeamKey == nil {
			continue
		}
		tie := *m.WinnerTeamKey == ""
		for _, key := range []string{m.TeamAKey, *m.TeamBKey} {
			i, ok := index[key]
			if !ok {
				continue
			}
			side, err := m.Side(key)
			if err != nil {
				continue
			}
			row := &rows[i]
			if tie {
				// ties stay out of the points columns too
				row.Ties++
				continue
			}
			if side.Won {
				row.Wins++
			} else {
				row.Losses++
			}
			row.PointsFor += side.Points
			row.PointsAgainst += side.OpponentPoints
			if side.Projected != nil {
				row.ProjectedPoints += *side.Projected
			}
		}
	}
	return rows
}

func rank(rows []models.Standing, less func(a, b *models.Standing) bool) []models.Standing {
	sort.SliceStable(rows, func(i, j int) bool { return less(&rows[i], &rows[j]) })
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// ComputeDivision ranks only the teams of one division.
func ComputeDivision(teams []*models.Team, matchups []*models.Matchup, division string) []models.Standing {
	var scoped []*models.Team
	for _, t := range teams {
		d := t.Division
		if d == "" {
			d = models.DivisionA
		}
		if d == division {
			scoped = append(scoped, t)
		}
	}
	return Compute(scoped, matchups)
}

func less(a, b *models.Standing) bool {
	if a.Division != b.Division {
		return a.Division < b.Division
	}
	return lessRecord(a, b)
}

func lessRecord(a, b *models.Standing) bool {
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	if a.PointsFor != b.PointsFor {
		return a.PointsFor > b.PointsFor
	}
	return a.PointsAgainst < b.PointsAgainst
}

// Ranking returns team keys in standings order.
func Ranking(rows []models.Standing) []string {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.TeamKey
	}
	return keys
}

// Positions maps each team key to its zero-based standings position.
func Positions(rows []models.Standing) map[string]int {
	pos := make(map[string]int, len(rows))
	for i, r := range rows {
		pos[r.TeamKey] = i
	}
	return pos
}
