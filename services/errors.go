package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	ErrSessionNotFound    = errors.New("session not found")
	ErrCompetitorNotFound = errors.New("competitor not found")
	ErrBracketSetNotFound = errors.New("bracket set not found")
	ErrBoutNotFound       = errors.New("bout not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrTitleRequired        = errors.New("session title is required")
	ErrInvalidMaxScore      = errors.New("max score must be positive")
	ErrInvalidPlacement     = errors.New("placement groups start at place 3 or later")
	ErrPINTooShort          = errors.New("pin is too short")
	ErrCompetitorName       = errors.New("competitor name is required")
	ErrInvalidRank          = errors.New("rank must not be negative")
	ErrDuplicateCompetitor  = errors.New("competitor listed twice")
	ErrNotEnoughCompetitors = errors.New("at least two competitors are required")
	ErrUnknownFormat        = errors.New("unsupported bracket format")
	ErrEmptyScore           = errors.New("at least one side score is required")

	// Ошибки конфликтов
	ErrStageConflict = errors.New("operation not allowed at the current session stage")
	ErrBoutNotReady  = errors.New("bout opponents are not known yet")
	ErrBoutDropped   = errors.New("bout is closed by a withdrawal or exclusion, restore the competitor first")
	ErrNotInBout     = errors.New("competitor has no bout to change")
	ErrSessionExists = errors.New("session already exists")
	ErrPublishing    = errors.New("results could not be published")
	ErrPublishingOff = errors.New("results publishing is not configured")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid role or pin")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current role")
)
