package models

import "time"

// Competitor is a roster entry. Rank is the prior-stage ranking used to seed
// the elimination, 1 being the best.
type Competitor struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Club      string    `json:"club,omitempty" db:"club"`
	Rank      int       `json:"rank" db:"rank"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
