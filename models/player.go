package models

type Player struct {
	Key             string `json:"key" db:"player_key"`
	Name            string `json:"name" db:"name"`
	DisplayPosition string `json:"display_position" db:"display_position"`
	PositionType    string `json:"position_type" db:"position_type"`
	ImageURL        string `json:"image_url,omitempty" db:"image_url"`
}

// IsQuarterback reports whether the player lines up under center.
func (p *Player) IsQuarterback() bool {
	return p.DisplayPosition == PositionQB
}
