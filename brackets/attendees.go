package brackets

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/Dosada05/fencing-tableau/models"
)

// Attendee is a competitor entering a bracket set with its prior rank.
// A zero Competitor is an empty slot.
type Attendee struct {
	Competitor CompetitorID
	Rank       int
}

// RankAttendees sorts attendees by prior rank. Equal ranks are ordered by a
// PCG stream seeded with the session seed and the competitor id, so the same
// seed and field always give the same order. Seed 0 keeps the input order of
// ties.
func RankAttendees(attendees []Attendee, seed int64) []Attendee {
	out := make([]Attendee, len(attendees))
	copy(out, attendees)

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rankKey(out[i].Rank), rankKey(out[j].Rank)
		if ri != rj {
			return ri < rj
		}
		if seed == 0 {
			return false
		}
		ki, kj := tieBreakKey(seed, out[i].Competitor), tieBreakKey(seed, out[j].Competitor)
		if ki != kj {
			return ki < kj
		}
		return out[i].Competitor < out[j].Competitor
	})
	return out
}

// Unranked attendees go last.
func rankKey(rank int) int {
	if rank <= 0 {
		return math.MaxInt
	}
	return rank
}

func tieBreakKey(seed int64, id CompetitorID) uint64 {
	return rand.New(rand.NewPCG(uint64(seed), uint64(id))).Uint64()
}

func attendeeRecords(attendees []Attendee) []models.AttendeeRecord {
	out := make([]models.AttendeeRecord, len(attendees))
	for i, a := range attendees {
		out[i] = models.AttendeeRecord{CompetitorID: int(a.Competitor), Rank: a.Rank}
	}
	return out
}

func attendeesFromRecords(records []models.AttendeeRecord) []Attendee {
	out := make([]Attendee, len(records))
	for i, r := range records {
		out[i] = Attendee{Competitor: CompetitorID(r.CompetitorID), Rank: r.Rank}
	}
	return out
}
