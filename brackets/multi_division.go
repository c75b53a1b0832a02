package brackets

import (
	"context"

	"github.com/brianbrunner/just2guys/models"
)

const multiDivisionWinners = 4

type divisionOrders struct {
	division string
	winners  []int
	losers   []int
	byeOrder int
}

var multiOrders = []divisionOrders{
	{division: models.DivisionA, winners: []int{1, 2}, losers: []int{5, 6}, byeOrder: 9},
	{division: models.DivisionB, winners: []int{3, 4}, losers: []int{7, 8}, byeOrder: 13},
}

// MultiDivisionGenerator seeds each division separately: its top four play
// for the title and the rest play in the losers bracket.
type MultiDivisionGenerator struct{}

func NewMultiDivisionGenerator() BracketGenerator {
	return &MultiDivisionGenerator{}
}

func (g *MultiDivisionGenerator) GetName() string {
	return "MultiDivision"
}

func (g *MultiDivisionGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*SeedingPlan, error) {
	plan := &SeedingPlan{Seeds: make(map[string]int)}
	seeded := 0

	for _, d := range multiOrders {
		rows := params.Divisions[d.division]
		if len(rows) < 2 {
			continue
		}
		winners, losers := split(keys(rows), multiDivisionWinners)
		seedWinners(pool{
			teams:     winners,
			orders:    d.winners,
			info:      models.BracketInfo{IsPlayoffs: true},
			maxActive: multiDivisionWinners,
		}, plan)
		seedPool(pool{
			teams:     losers,
			orders:    d.losers,
			info:      models.BracketInfo{IsLosers: true},
			maxActive: 4,
			byeOrder:  d.byeOrder,
		}, plan)
		seeded += len(rows)
	}

	if seeded < 2 {
		return nil, ErrNotEnoughTeams
	}
	return plan, nil
}
