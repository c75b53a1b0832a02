package models

type Manager struct {
	Key      string `json:"key" db:"manager_key"`
	Nickname string `json:"nickname" db:"nickname"`
}
