package brackets

import (
	"errors"
	"sort"

	"github.com/brianbrunner/just2guys/models"
)

var ErrRoundIncomplete = errors.New("previous playoff round is not finalized")

// Bracket orders used from the second playoff week on.
const (
	orderChampionship = 0
	orderThirdPlace   = 1
	orderFifthPlace   = 2
	orderSeventhPlace = 3
	orderLastPlace    = 4
)

type roundResults struct {
	winners, losers            []string
	consolationW, consolationL []string
	losersW, losersL           []string
	losersByes                 []string
}

// collect reads the previous week's results in bracket order. Every
// two-sided matchup must be finalized.
func collect(prev []*models.Matchup) (*roundResults, error) {
	ordered := make([]*models.Matchup, len(prev))
	copy(ordered, prev)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].BracketOrder < ordered[j].BracketOrder })

	res := &roundResults{}
	for _, m := range ordered {
		if m.IsPlaceholder() {
			switch {
			case m.IsBye && m.IsPlayoffs:
				res.winners = append(res.winners, m.TeamAKey)
			case m.IsBye && m.IsLosers:
				res.losersByes = append(res.losersByes, m.TeamAKey)
			}
			continue
		}
		winner, ok := m.Winner()
		if !ok {
			return nil, ErrRoundIncomplete
		}
		loser, _ := m.Loser()
		switch {
		case m.IsPlayoffs:
			res.winners = append(res.winners, winner)
			res.losers = append(res.losers, loser)
		case m.IsConsolation:
			res.consolationW = append(res.consolationW, winner)
			res.consolationL = append(res.consolationL, loser)
		case m.IsLosers:
			res.losersW = append(res.losersW, winner)
			res.losersL = append(res.losersL, loser)
		}
	}
	return res, nil
}

// SemifinalPlan pairs week 15 from finalized week-14 results. Winners meet
// in order (first vs second, third vs fourth), the winners-bracket losers
// do the same in the consolation bracket, and the losers of the losers
// bracket are interleaved with the week-14 byes.
func SemifinalPlan(prev []*models.Matchup) ([]*BracketMatch, error) {
	res, err := collect(prev)
	if err != nil {
		return nil, err
	}

	var plan []*BracketMatch
	plan = appendSequential(plan, res.winners, models.BracketInfo{IsPlayoffs: true}, 0)
	plan = appendSequential(plan, res.losers, models.BracketInfo{IsConsolation: true}, 2)
	plan = appendSequential(plan, interleave(res.losersL, res.losersByes), models.BracketInfo{IsLosers: true}, 4)
	return plan, nil
}

// FinalPlan pairs week 16: the championship, third, fifth and seventh
// place games, and the last-place game between the winners of the week-15
// losers bracket.
func FinalPlan(prev []*models.Matchup) ([]*BracketMatch, error) {
	res, err := collect(prev)
	if err != nil {
		return nil, err
	}

	var plan []*BracketMatch
	plan = appendSequential(plan, res.winners, models.BracketInfo{IsPlayoffs: true}, orderChampionship)
	plan = appendSequential(plan, res.losers, models.BracketInfo{IsConsolation: true}, orderThirdPlace)
	plan = appendSequential(plan, res.consolationW, models.BracketInfo{IsConsolation: true}, orderFifthPlace)
	plan = appendSequential(plan, res.consolationL, models.BracketInfo{IsConsolation: true}, orderSeventhPlace)
	plan = appendSequential(plan, res.losersW, models.BracketInfo{IsLosers: true}, orderLastPlace)
	return plan, nil
}

// appendSequential pairs teams[0] with teams[1], teams[2] with teams[3], and
// so on, numbering orders from start. An odd team out gets a bye.
func appendSequential(plan []*BracketMatch, teams []string, info models.BracketInfo, start int) []*BracketMatch {
	order := start
	for i := 0; i < len(teams); i += 2 {
		m := &BracketMatch{TeamAKey: teams[i], Info: info}
		m.Info.BracketOrder = order
		if i+1 < len(teams) {
			m.TeamBKey = teams[i+1]
		} else {
			m.Info.IsBye = true
		}
		plan = append(plan, m)
		order++
	}
	return plan
}

// interleave alternates losers in order with byes in reverse order:
// [loser0, bye1, loser1, bye0] for two of each.
func interleave(losers, byes []string) []string {
	n := len(losers)
	if len(byes) > n {
		n = len(byes)
	}
	var out []string
	for i := 0; i < n; i++ {
		if i < len(losers) {
			out = append(out, losers[i])
		}
		if j := len(byes) - 1 - i; j >= 0 {
			out = append(out, byes[j])
		}
	}
	return out
}
