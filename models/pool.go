package models

// PoolScheduleRecord is a round-robin bout order. Pairs hold 1-based indexes
// into Competitors.
type PoolScheduleRecord struct {
	ID            string   `json:"id"`
	Competitors   []int    `json:"competitors"`
	Pairs         [][2]int `json:"pairs"`
	SpacingErrors int      `json:"spacing_errors"`
}
