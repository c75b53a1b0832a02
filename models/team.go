package models

const (
	DivisionA = "A"
	DivisionB = "B"
)

type Team struct {
	Key         string `json:"key" db:"team_key"`
	LeagueKey   string `json:"league_key" db:"league_key"`
	Name        string `json:"name" db:"name"`
	Logo        string `json:"logo,omitempty" db:"logo"`
	Division    string `json:"division" db:"division"`
	PlayoffSeed *int   `json:"playoff_seed,omitempty" db:"playoff_seed"`

	Managers []*Manager `json:"managers,omitempty" db:"-"`
}

type TeamManager struct {
	TeamKey    string `json:"team_key" db:"team_key"`
	ManagerKey string `json:"manager_key" db:"manager_key"`
}

type TeamPlayer struct {
	TeamKey   string `json:"team_key" db:"team_key"`
	PlayerKey string `json:"player_key" db:"player_key"`
}
