package models

import "time"

// SessionStage отражает, на каком этапе находится соревнование.
type SessionStage string

const (
	StageRegistration SessionStage = "registration"
	StageElimination  SessionStage = "elimination"
)

type SessionRole string

const (
	RoleOrganizer SessionRole = "organizer"
	RoleReferee   SessionRole = "referee"
)

// Session is one competition run with everything needed to rebuild it.
type Session struct {
	ID            string       `json:"id" db:"id"`
	Title         string       `json:"title" db:"title"`
	Stage         SessionStage `json:"stage" db:"stage"`
	MaxScore      int          `json:"max_score"`
	AllowOverflow bool         `json:"allow_overflow"`
	Seed          int64        `json:"seed"`
	Placements    []int        `json:"placements,omitempty"`
	LastID        int          `json:"last_id"`

	OrganizerPINHash string `json:"organizer_pin_hash,omitempty"`
	RefereePINHash   string `json:"referee_pin_hash,omitempty"`

	Competitors []Competitor         `json:"competitors"`
	BracketSets []BracketSetRecord   `json:"bracket_sets,omitempty"`
	Pools       []PoolScheduleRecord `json:"pools,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SessionSummary is what is exposed to clients, without the PIN hashes and
// the bracket internals.
type SessionSummary struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Stage           SessionStage `json:"stage"`
	MaxScore        int          `json:"max_score"`
	AllowOverflow   bool         `json:"allow_overflow"`
	Placements      []int        `json:"placements,omitempty"`
	CompetitorCount int          `json:"competitor_count"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:              s.ID,
		Title:           s.Title,
		Stage:           s.Stage,
		MaxScore:        s.MaxScore,
		AllowOverflow:   s.AllowOverflow,
		Placements:      s.Placements,
		CompetitorCount: len(s.Competitors),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (s *Session) Competitor(id int) (*Competitor, bool) {
	for i := range s.Competitors {
		if s.Competitors[i].ID == id {
			return &s.Competitors[i], true
		}
	}
	return nil, false
}
