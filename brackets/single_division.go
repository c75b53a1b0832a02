package brackets

import (
	"context"

	"github.com/brianbrunner/just2guys/models"
)

const singleDivisionWinners = 8

var (
	singleWinnerOrders = []int{1, 4, 3, 2}
	singleLoserOrders  = []int{5, 8, 7, 6}
)

// SingleDivisionGenerator sends the top eight of the overall standings to
// the winners bracket and everyone else to the losers bracket.
type SingleDivisionGenerator struct{}

func NewSingleDivisionGenerator() BracketGenerator {
	return &SingleDivisionGenerator{}
}

func (g *SingleDivisionGenerator) GetName() string {
	return "SingleDivision"
}

func (g *SingleDivisionGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*SeedingPlan, error) {
	if len(params.Standings) < 2 {
		return nil, ErrNotEnoughTeams
	}

	winners, losers := split(keys(params.Standings), singleDivisionWinners)
	plan := &SeedingPlan{Seeds: make(map[string]int)}

	seedWinners(pool{
		teams:     winners,
		orders:    singleWinnerOrders,
		info:      models.BracketInfo{IsPlayoffs: true},
		maxActive: singleDivisionWinners,
	}, plan)
	seedPool(pool{
		teams:     losers,
		orders:    singleLoserOrders,
		info:      models.BracketInfo{IsLosers: true},
		maxActive: 8,
		byeOrder:  9,
	}, plan)

	return plan, nil
}
