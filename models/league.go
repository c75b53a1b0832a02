package models

// Season shape shared by every league the engine handles.
const (
	RegularSeasonWeeks = 13
	FirstPlayoffWeek   = 14
	SemifinalWeek      = 15
	FinalWeek          = 16
)

type League struct {
	Key           string `json:"key" db:"league_key"`
	Name          string `json:"name" db:"name"`
	Season        int    `json:"season" db:"season"`
	CurrentWeek   int    `json:"current_week" db:"current_week"`
	IsFinished    bool   `json:"is_finished" db:"is_finished"`
	IsMultiLeague bool   `json:"is_multi_league" db:"is_multi_league"`

	Teams []*Team `json:"teams,omitempty" db:"-"`
}

// InPlayoffs reports whether the league has reached the first playoff week.
func (l *League) InPlayoffs() bool {
	return l.CurrentWeek >= FirstPlayoffWeek
}
