package brackets

import (
	"sort"

	"github.com/brianbrunner/just2guys/models"
)

// Round groups one playoff week's matchups by bracket.
type Round struct {
	Week        int               `json:"week"`
	Name        string            `json:"name"`
	Playoffs    []*models.Matchup `json:"playoffs"`
	Consolation []*models.Matchup `json:"consolation"`
	Losers      []*models.Matchup `json:"losers"`
	Byes        []*models.Matchup `json:"byes"`
	Unpaired    []*models.Matchup `json:"unpaired"`
}

var roundNames = map[int]string{
	models.FirstPlayoffWeek: "Quarterfinals",
	models.SemifinalWeek:    "Semifinals",
	models.FinalWeek:        "Finals",
}

// Rounds arranges the playoff-week matchups of one league into rounds,
// each bracket ordered by BracketOrder. Weeks without matchups are omitted.
func Rounds(matchups []*models.Matchup) []Round {
	byWeek := make(map[int]*Round)
	for _, m := range matchups {
		if m.Week < models.FirstPlayoffWeek || m.Week > models.FinalWeek {
			continue
		}
		r, ok := byWeek[m.Week]
		if !ok {
			r = &Round{Week: m.Week, Name: roundNames[m.Week]}
			byWeek[m.Week] = r
		}
		switch {
		case m.IsBye:
			r.Byes = append(r.Byes, m)
		case m.IsPlaceholder():
			r.Unpaired = append(r.Unpaired, m)
		case m.IsPlayoffs:
			r.Playoffs = append(r.Playoffs, m)
		case m.IsConsolation:
			r.Consolation = append(r.Consolation, m)
		case m.IsLosers:
			r.Losers = append(r.Losers, m)
		default:
			r.Unpaired = append(r.Unpaired, m)
		}
	}

	rounds := make([]Round, 0, len(byWeek))
	for week := models.FirstPlayoffWeek; week <= models.FinalWeek; week++ {
		r, ok := byWeek[week]
		if !ok {
			continue
		}
		for _, group := range [][]*models.Matchup{r.Playoffs, r.Consolation, r.Losers, r.Byes, r.Unpaired} {
			sortByOrder(group)
		}
		rounds = append(rounds, *r)
	}
	return rounds
}

func sortByOrder(ms []*models.Matchup) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].BracketOrder != ms[j].BracketOrder {
			return ms[i].BracketOrder < ms[j].BracketOrder
		}
		return ms[i].Key < ms[j].Key
	})
}

// Champion returns the winner of the championship game, if it is decided.
func Champion(matchups []*models.Matchup) (string, bool) {
	for _, m := range matchups {
		if m.Week == models.FinalWeek && m.IsPlayoffs && m.BracketOrder == orderChampionship {
			return m.Winner()
		}
	}
	return "", false
}
