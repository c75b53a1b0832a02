package brackets

import (
	"context"
	"errors"

	"github.com/brianbrunner/just2guys/models"
)

var ErrNotEnoughTeams = errors.New("not enough teams to seed a playoff bracket")

type GenerateBracketParams struct {
	League *models.League
	// Standings is the overall regular-season ranking.
	Standings []models.Standing
	// Divisions holds division-scoped rankings keyed by division.
	Divisions map[string][]models.Standing
}

// BracketMatch is one planned pairing. An empty TeamBKey is a bye.
type BracketMatch struct {
	TeamAKey string
	TeamBKey string
	Info     models.BracketInfo
}

func (m *BracketMatch) IsBye() bool {
	return m.TeamBKey == ""
}

// SeedingPlan is the output of a first-round generator.
type SeedingPlan struct {
	Matches []*BracketMatch
	// Seeds is each pooled team's rank within its pool, starting at 1.
	Seeds map[string]int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*SeedingPlan, error)

	GetName() string
}

// NewGenerator picks the first-round seeding for the league's shape.
func NewGenerator(league *models.League) BracketGenerator {
	if league.IsMultiLeague {
		return NewMultiDivisionGenerator()
	}
	return NewSingleDivisionGenerator()
}

// pool describes one group of teams seeded against each other.
type pool struct {
	teams     []string
	orders    []int
	info      models.BracketInfo
	maxActive int
	byeOrder  int
}

// seedPool pairs a pool best-versus-worst. The i-th pair takes orders[i].
// Only the largest power of two of teams (at least two, at most maxActive)
// play; the bottom-most remainder get byes.
func seedPool(p pool, plan *SeedingPlan) {
	for i, key := range p.teams {
		plan.Seeds[key] = i + 1
	}

	active := activeCount(len(p.teams), p.maxActive)
	playing, byes := p.teams[:active], p.teams[active:]

	for i, pair := range popBestWorst(playing) {
		info := p.info
		if i < len(p.orders) {
			info.BracketOrder = p.orders[i]
		} else {
			info.BracketOrder = p.orders[len(p.orders)-1] + i
		}
		plan.Matches = append(plan.Matches, &BracketMatch{TeamAKey: pair[0], TeamBKey: pair[1], Info: info})
	}
	for i, key := range byes {
		info := p.info
		info.IsBye = true
		info.BracketOrder = p.byeOrder + i
		plan.Matches = append(plan.Matches, &BracketMatch{TeamAKey: key, Info: info})
	}
}

// seedWinners places a pool into a bracket sized to the next power of two
// (at most maxActive): seed i meets seed size+1-i and the i-th pair takes
// orders[i]. A seed without an opponent gets a bye at its pair's order, so
// a short pool rests its top seeds and later rounds still meet best
// against worst.
func seedWinners(p pool, plan *SeedingPlan) {
	for i, key := range p.teams {
		plan.Seeds[key] = i + 1
	}
	size := bracketSize(len(p.teams), p.maxActive)
	for i := 0; i < size/2; i++ {
		m := &BracketMatch{TeamAKey: p.teams[i], Info: p.info}
		m.Info.BracketOrder = p.orders[i]
		if j := size - 1 - i; j < len(p.teams) {
			m.TeamBKey = p.teams[j]
		} else {
			m.Info.IsBye = true
		}
		plan.Matches = append(plan.Matches, m)
	}
}

// bracketSize is the smallest power of two holding n teams, capped at max.
func bracketSize(n, max int) int {
	if n < 2 {
		return 0
	}
	size := 2
	for size < n && size < max {
		size *= 2
	}
	return size
}

// activeCount is the largest power of two between 2 and min(n, max), or 0.
func activeCount(n, max int) int {
	if max > 0 && n > max {
		n = max
	}
	if n < 2 {
		return 0
	}
	c := 2
	for c*2 <= n {
		c *= 2
	}
	return c
}

// popBestWorst pairs the first with the last, the second with the
// second-to-last, and so on.
func popBestWorst(teams []string) [][2]string {
	var pairs [][2]string
	for i, j := 0, len(teams)-1; i < j; i, j = i+1, j-1 {
		pairs = append(pairs, [2]string{teams[i], teams[j]})
	}
	return pairs
}

func keys(rows []models.Standing) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.TeamKey
	}
	return out
}

func split(teams []string, n int) ([]string, []string) {
	if len(teams) < n {
		n = len(teams)
	}
	return teams[:n], teams[n:]
}
