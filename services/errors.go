package services

import "errors"

var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	ErrLeagueNotFound  = errors.New("league not found")
	ErrTeamNotFound    = errors.New("team not found")
	ErrManagerNotFound = errors.New("manager not found")
	ErrMatchupNotFound = errors.New("matchup not found")

	ErrInvalidCredentials   = errors.New("invalid password")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrAdminLoginDisabled   = errors.New("admin login is not configured")

	ErrInvalidDivision = errors.New("division must be A or B")
	ErrSameManager     = errors.New("cannot merge a manager into itself")
	ErrPipelineBusy    = errors.New("another pipeline pass is running")
)
