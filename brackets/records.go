package brackets

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/Dosada05/fencing-tableau/models"
)

const (
	recordDateLayout = "2006-01-02"
	recordTimeLayout = "15:04"
)

// Snapshot returns the persisted form of the set: its field and every bout
// managed by its tables, first round first.
func (s *BracketSet) Snapshot() models.BracketSetRecord {
	rec := models.BracketSetRecord{
		ID:         s.id,
		Title:      s.title,
		FirstPlace: s.firstPlace,
		Attendees:  attendeeRecords(s.attendees),
	}
	for _, w := range s.withdrawals {
		rec.Withdrawals = append(rec.Withdrawals, int(w))
	}

	for level := len(s.tables) - 1; level >= 0; level-- {
		t := s.tables[level]
		tr := models.TableRecord{ID: t.ID(), Size: t.Size, Title: t.Title}
		if d := s.defeated[level]; d != nil {
			tr.DefeatedSetID = d.id
		}
		for _, b := range s.TableBouts(level) {
			tr.Bouts = append(tr.Bouts, boutRecord(b))
		}
		rec.Tables = append(rec.Tables, tr)
	}
	return rec
}

func boutRecord(b *Bout) models.BoutRecord {
	br := models.BoutRecord{
		Number:      b.Number,
		NetID:       b.NetID,
		BatchID:     b.BatchID,
		Piste:       b.Piste,
		DurationSec: int(b.Duration / time.Second),
	}
	if !b.StartTime.IsZero() {
		br.Date = b.StartTime.Format(recordDateLayout)
		br.Time = b.StartTime.Format(recordTimeLayout)
	}
	for _, r := range b.Referees {
		br.Referees = append(br.Referees, int(r))
	}

	for _, side := range []Side{SideA, SideB} {
		bs := b.sides[side]
		sr := models.SideRecord{CompetitorID: int(bs.competitor), Status: bs.score.StatusCode()}
		if sr.Status == StatusVictory || sr.Status == StatusDefeat {
			v := bs.score.value
			sr.Score = &v
		}
		if status, value, ok := bs.score.Backup(); ok {
			sr.BackupStatus = statusCode(status)
			if sr.BackupStatus == StatusVictory || sr.BackupStatus == StatusDefeat {
				sr.BackupScore = &value
			}
		}
		br.Sides = append(br.Sides, sr)
	}
	return br
}

// RestoreBracketSet rebuilds a set from its record. Scores are replayed from
// the first round on so every bout sees its opponents before its own scores.
func RestoreBracketSet(rec models.BracketSetRecord, rules ScoreRules, ids *IDGenerator) (*BracketSet, error) {
	s := NewBracketSet(rec.ID, rec.FirstPlace, rules, ids)
	if err := s.apply(rec); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *BracketSet) apply(rec models.BracketSetRecord) error {
	if rec.Title != "" {
		s.title = rec.Title
	}

	withdrawals := make([]CompetitorID, len(rec.Withdrawals))
	for i, w := range rec.Withdrawals {
		withdrawals[i] = CompetitorID(w)
	}

	// Network ids come from the record, do not burn fresh ones.
	ids := s.ids
	s.ids = nil
	s.SetAttendees(attendeesFromRecords(rec.Attendees), withdrawals)
	s.ids = ids

	tables := append([]models.TableRecord(nil), rec.Tables...)
	sort.SliceStable(tables, func(i, j int) bool { return tables[i].Size > tables[j].Size })

	for _, tr := range tables {
		for _, br := range tr.Bouts {
			b, err := s.Bout(tr.Size, br.Number)
			if err != nil {
				return fmt.Errorf("restore %s: %w", s.id, err)
			}
			if err := loadBout(b, br); err != nil {
				return fmt.Errorf("restore %s table of %d bout %d: %w", s.id, tr.Size, br.Number, err)
			}
		}
		s.Refresh()
	}
	return nil
}

func loadBout(b *Bout, br models.BoutRecord) error {
	b.NetID = br.NetID
	b.BatchID = br.BatchID
	b.Piste = br.Piste
	b.Duration = time.Duration(br.DurationSec) * time.Second
	b.Referees = nil
	for _, r := range br.Referees {
		b.Referees = append(b.Referees, CompetitorID(r))
	}

	b.StartTime = time.Time{}
	if when := strings.TrimSpace(br.Date + " " + br.Time); when != "" {
		t, err := dateparse.ParseLocal(when)
		if err != nil {
			return fmt.Errorf("bout start %q: %w", when, err)
		}
		b.StartTime = t
	}

	if len(br.Sides) != 2 {
		return fmt.Errorf("expected 2 sides, got %d", len(br.Sides))
	}

	for i, sr := range br.Sides {
		side := Side(i)
		if sr.CompetitorID == 0 {
			continue
		}
		if c, known := b.Competitor(side); !known || c != CompetitorID(sr.CompetitorID) {
			b.SetCompetitor(side, CompetitorID(sr.CompetitorID))
		}
	}

	for i, sr := range br.Sides {
		sc := &b.sides[i].score
		switch sr.Status {
		case StatusVictory, StatusDefeat:
			if sr.Score == nil {
				return fmt.Errorf("%w: side %s has status %s without score", ErrInvalidScore, Side(i), sr.Status)
			}
			sc.value = *sr.Score
			sc.status = ScoreDefeat
			if sr.Status == StatusVictory {
				sc.status = ScoreVictory
			}
		case "", StatusWithdrawal, StatusBlackCard:
			if err := loadBackup(sc, sr); err != nil {
				return fmt.Errorf("side %s: %w", Side(i), err)
			}
		default:
			return fmt.Errorf("%w: unknown status %q", ErrInvalidScore, sr.Status)
		}
	}

	for i, sr := range br.Sides {
		if sr.Status != StatusWithdrawal && sr.Status != StatusBlackCard {
			continue
		}
		side := Side(i)
		b.sides[side].score.drop(DropReason(sr.Status))
		b.sides[side.Other()].score.synchronizeWith(&b.sides[side].score, b.rules)
	}
	return nil
}

// loadBackup puts back the score a side had before a drop, the drop itself is
// replayed afterwards.
func loadBackup(sc *Score, sr models.SideRecord) error {
	if sr.BackupStatus == "" && sr.BackupScore == nil {
		return nil
	}
	switch sr.BackupStatus {
	case "":
		sc.status, sc.value = ScoreUnknown, 0
	case StatusVictory, StatusDefeat:
		if sr.BackupScore == nil {
			return fmt.Errorf("%w: backup status %s without score", ErrInvalidScore, sr.BackupStatus)
		}
		sc.value = *sr.BackupScore
		sc.status = ScoreDefeat
		if sr.BackupStatus == StatusVictory {
			sc.status = ScoreVictory
		}
	default:
		return fmt.Errorf("%w: unknown backup status %q", ErrInvalidScore, sr.BackupStatus)
	}
	return nil
}

// Snapshot returns the records of every group, main group first.
func (r *Router) Snapshot() []models.BracketSetRecord {
	out := make([]models.BracketSetRecord, 0, len(r.sets))
	for _, s := range r.sets {
		out = append(out, s.Snapshot())
	}
	return out
}

// RestoreRouter rebuilds the main set and its groups from their records.
func RestoreRouter(records []models.BracketSetRecord, placements Placements, rules ScoreRules, ids *IDGenerator) (*Router, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrUnknownSet)
	}
	if records[0].FirstPlace != 1 {
		return nil, fmt.Errorf("%w: first record %s is not the main group", ErrUnknownSet, records[0].ID)
	}

	main, err := RestoreBracketSet(records[0], rules, ids)
	if err != nil {
		return nil, err
	}

	r := NewRouter(main, placements)
	for _, rec := range records[1:] {
		set, ok := r.Set(rec.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSet, rec.ID)
		}
		if err := set.apply(rec); err != nil {
			return nil, err
		}
	}
	return r, nil
}
