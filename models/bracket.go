package models

// BracketSetRecord is the persisted form of one placement group.
type BracketSetRecord struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	FirstPlace  int              `json:"first_place"`
	Attendees   []AttendeeRecord `json:"attendees"`
	Withdrawals []int            `json:"withdrawals,omitempty"`
	Tables      []TableRecord    `json:"tables"`
}

// AttendeeRecord keeps the seeding order. CompetitorID zero is an empty slot.
type AttendeeRecord struct {
	CompetitorID int `json:"competitor_id"`
	Rank         int `json:"rank"`
}

// TableRecord is one level of a bracket set.
type TableRecord struct {
	ID            string       `json:"id"`
	Size          int          `json:"size"`
	Title         string       `json:"title"`
	DefeatedSetID string       `json:"defeated_set_id,omitempty"`
	Bouts         []BoutRecord `json:"bouts,omitempty"`
}

type BoutRecord struct {
	Number      int          `json:"number"`
	NetID       int          `json:"net_id,omitempty"`
	BatchID     int          `json:"batch_id,omitempty"`
	Piste       int          `json:"piste,omitempty"`
	Date        string       `json:"date,omitempty"`
	Time        string       `json:"time,omitempty"`
	DurationSec int          `json:"duration_sec,omitempty"`
	Referees    []int        `json:"referees,omitempty"`
	Sides       []SideRecord `json:"sides"`
}

// SideRecord: Status is V, D, A or E. Score is only present for V and D.
// BackupStatus and BackupScore hold the score the side had before a drop in
// the bout, so a restore after reload brings it back.
type SideRecord struct {
	CompetitorID int    `json:"competitor_id"`
	Status       string `json:"status,omitempty"`
	Score        *int   `json:"score,omitempty"`
	BackupStatus string `json:"backup_status,omitempty"`
	BackupScore  *int   `json:"backup_score,omitempty"`
}
