package brackets

import "time"

// The view types are read-only projections handed to API clients. They copy
// what they need and never point back into the arena.

type SideView struct {
	CompetitorID int    `json:"competitor_id,omitempty"`
	Known        bool   `json:"known"`
	Bye          bool   `json:"bye,omitempty"`
	Status       string `json:"status,omitempty"`
	Score        *int   `json:"score,omitempty"`
	Image        string `json:"image,omitempty"`
}

type BoutView struct {
	SetID     string      `json:"set_id"`
	TableSize int         `json:"table_size"`
	Number    int         `json:"number"`
	NetID     int         `json:"net_id,omitempty"`
	Piste     int         `json:"piste,omitempty"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	Sides     [2]SideView `json:"sides"`
	WinnerID  int         `json:"winner_id,omitempty"`
	IsOver    bool        `json:"is_over"`
	IsExempt  bool        `json:"is_exempt,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type TableView struct {
	ID             string     `json:"id"`
	Size           int        `json:"size"`
	Title          string     `json:"title"`
	IsOver         bool       `json:"is_over"`
	ReadyToFence   bool       `json:"ready_to_fence"`
	FirstErrorBout int        `json:"first_error_bout,omitempty"`
	Error          string     `json:"error,omitempty"`
	DefeatedSetID  string     `json:"defeated_set_id,omitempty"`
	Bouts          []BoutView `json:"bouts,omitempty"`
}

type BracketSetView struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	FirstPlace int         `json:"first_place"`
	IsOver     bool        `json:"is_over"`
	WinnerID   int         `json:"winner_id,omitempty"`
	Error      string      `json:"error,omitempty"`
	Tables     []TableView `json:"tables"`
}

func (s *BracketSet) View() BracketSetView {
	v := BracketSetView{
		ID:         s.id,
		Title:      s.title,
		FirstPlace: s.firstPlace,
		IsOver:     s.IsOver(),
		WinnerID:   int(s.Winner()),
	}
	if err := s.FirstError(); err != nil {
		v.Error = err.Error()
	}

	for level := len(s.tables) - 1; level >= 1; level-- {
		t := s.tables[level]
		tv := TableView{
			ID:             t.ID(),
			Size:           t.Size,
			Title:          t.Title,
			IsOver:         t.IsOver,
			ReadyToFence:   t.ReadyToFence,
			FirstErrorBout: t.FirstErrorBout,
		}
		if t.Err != nil {
			tv.Error = t.Err.Error()
		}
		if d := s.defeated[level]; d != nil {
			tv.DefeatedSetID = d.id
		}
		for _, b := range s.TableBouts(level) {
			tv.Bouts = append(tv.Bouts, s.boutView(t.Size, b))
		}
		v.Tables = append(v.Tables, tv)
	}
	return v
}

// BoutView describes one bout of the table of the given size.
func (s *BracketSet) BoutView(tableSize, number int) (BoutView, error) {
	b, err := s.Bout(tableSize, number)
	if err != nil {
		return BoutView{}, err
	}
	return s.boutView(tableSize, b), nil
}

func (s *BracketSet) boutView(tableSize int, b *Bout) BoutView {
	v := BoutView{
		SetID:     s.id,
		TableSize: tableSize,
		Number:    b.Number,
		NetID:     b.NetID,
		Piste:     b.Piste,
		IsOver:    b.IsOver(),
		IsExempt:  b.IsExempt(),
	}
	if !b.StartTime.IsZero() {
		t := b.StartTime
		v.StartTime = &t
	}
	if v.IsOver {
		v.WinnerID = int(b.Winner())
	}
	if err := b.Err(); err != nil {
		v.Error = err.Error()
	}

	for _, side := range []Side{SideA, SideB} {
		bs := b.sides[side]
		sv := SideView{
			CompetitorID: int(bs.competitor),
			Known:        bs.known,
			Bye:          bs.known && bs.competitor == NoCompetitor,
			Status:       bs.score.StatusCode(),
			Image:        bs.score.Image(b.rules),
		}
		if sv.Status == StatusVictory || sv.Status == StatusDefeat {
			val := bs.score.value
			sv.Score = &val
		}
		v.Sides[side] = sv
	}
	return v
}

// BoutViews lists every fenced bout of the set, first round first.
func (s *BracketSet) BoutViews() []BoutView {
	var out []BoutView
	for level := len(s.tables) - 1; level >= 1; level-- {
		size := s.tables[level].Size
		for _, b := range s.TableBouts(level) {
			out = append(out, s.boutView(size, b))
		}
	}
	return out
}

// View projects every group of the router, main group first.
func (r *Router) View() []BracketSetView {
	out := make([]BracketSetView, 0, len(r.sets))
	for _, s := range r.sets {
		out = append(out, s.View())
	}
	return out
}
