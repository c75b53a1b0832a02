package models

// Standing is a derived regular-season row; it is never persisted.
type Standing struct {
	Rank            int     `json:"rank"`
	TeamKey         string  `json:"team_key"`
	TeamName        string  `json:"team_name"`
	Division        string  `json:"division"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Ties            int     `json:"ties"`
	PointsFor       float64 `json:"points_for"`
	PointsAgainst   float64 `json:"points_against"`
	ProjectedPoints float64 `json:"projected_points"`
}

func (s *Standing) GamesPlayed() int {
	return s.Wins + s.Losses + s.Ties
}
