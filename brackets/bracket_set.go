package brackets

import (
	"fmt"
	"time"
)

// BracketNode is one slot of the tree. Level 0 is the winner slot, the leaves
// sit at the deepest level. Relationships are indices into the set's arena;
// -1 means none. Bout is -1 once the slot has been dropped as empty.
type BracketNode struct {
	Level    int
	Row      int
	SeedRank int
	Parent   int
	Children [2]int
	Bout     int
}

func (n BracketNode) IsLeaf() bool { return n.Children[0] < 0 }

// position is the side of the parent bout this node feeds.
func (n BracketNode) position() Side { return Side(n.Row % 2) }

// BracketSet is the elimination tree of one placement group. It owns its
// nodes and bouts; callers address bouts by table size and bout number.
type BracketSet struct {
	id         string
	title      string
	firstPlace int
	rules      ScoreRules
	ids        *IDGenerator

	attendees   []Attendee
	withdrawals []CompetitorID

	levels int
	nodes  []BracketNode
	bouts  []*Bout
	tables []Table
	slots  map[[2]int]int

	defeated map[int]*BracketSet
}

// NewBracketSet creates an empty group for places starting at firstPlace.
// ids may be nil, bouts then get no network id.
func NewBracketSet(id string, firstPlace int, rules ScoreRules, ids *IDGenerator) *BracketSet {
	return &BracketSet{
		id:         id,
		title:      fmt.Sprintf("Places %d+", firstPlace),
		firstPlace: firstPlace,
		rules:      rules,
		ids:        ids,
		defeated:   make(map[int]*BracketSet),
	}
}

func (s *BracketSet) ID() string          { return s.id }
func (s *BracketSet) Title() string       { return s.title }
func (s *BracketSet) SetTitle(t string)   { s.title = t }
func (s *BracketSet) FirstPlace() int     { return s.firstPlace }
func (s *BracketSet) Rules() ScoreRules   { return s.rules }
func (s *BracketSet) Levels() int         { return s.levels }
func (s *BracketSet) IsEmpty() bool       { return len(s.nodes) == 0 }
func (s *BracketSet) Nodes() []BracketNode { return append([]BracketNode(nil), s.nodes...) }

func (s *BracketSet) Attendees() []Attendee {
	return append([]Attendee(nil), s.attendees...)
}

func (s *BracketSet) Withdrawals() []CompetitorID {
	return append([]CompetitorID(nil), s.withdrawals...)
}

func (s *BracketSet) Tables() []Table {
	return append([]Table(nil), s.tables...)
}

// Table returns the table of the given size.
func (s *BracketSet) Table(size int) (Table, bool) {
	level := levelOf(size)
	if level < 0 || level >= len(s.tables) {
		return Table{}, false
	}
	return s.tables[level], true
}

// Defeated returns the group receiving the losers of the table at level.
func (s *BracketSet) Defeated(level int) *BracketSet {
	return s.defeated[level]
}

// SetAttendees rebuilds the whole tree for a new field. Slots left empty
// become byes and fully empty branches are pruned. The main group (first
// place 1) seats attendees by expected seed rank, other groups seat them in
// list order.
func (s *BracketSet) SetAttendees(attendees []Attendee, withdrawals []CompetitorID) {
	s.attendees = append([]Attendee(nil), attendees...)
	s.withdrawals = append([]CompetitorID(nil), withdrawals...)
	s.nodes = nil
	s.bouts = nil
	s.tables = nil
	s.slots = make(map[[2]int]int)
	s.levels = 0

	if len(attendees) == 0 {
		return
	}

	s.levels = levelsFor(len(attendees))
	for level := 0; level < s.levels; level++ {
		size := 1 << level
		s.tables = append(s.tables, Table{Level: level, Size: size, Title: tableTitle(size)})
	}

	s.addFork(-1, SideA)
	s.deleteDeadNodes()
	s.Refresh()
}

func (s *BracketSet) addFork(parent int, position Side) {
	level, row, rank := 0, 0, 1
	if parent >= 0 {
		p := s.nodes[parent]
		level = p.Level + 1
		row = p.Row*2 + int(position)
		rank = ChildSeedRank(1<<level, p.SeedRank, int(position))
	}

	bout := NewBout(row+1, s.rules)
	isLeaf := level == s.levels-1
	if !isLeaf && s.ids != nil {
		bout.NetID = s.ids.Next()
	}

	idx := len(s.nodes)
	s.nodes = append(s.nodes, BracketNode{
		Level:    level,
		Row:      row,
		SeedRank: rank,
		Parent:   parent,
		Children: [2]int{-1, -1},
		Bout:     len(s.bouts),
	})
	s.bouts = append(s.bouts, bout)
	s.slots[[2]int{level, row}] = idx
	if parent >= 0 {
		s.nodes[parent].Children[position] = idx
	}

	if !isLeaf {
		s.addFork(idx, SideA)
		s.addFork(idx, SideB)
		return
	}

	competitor := s.leafCompetitor(s.nodes[idx])
	if competitor == NoCompetitor {
		if parent >= 0 {
			s.dropNode(idx)
		}
		return
	}

	bout.SetCompetitor(SideA, competitor)
	bout.SetCompetitor(SideB, NoCompetitor)
	if parent >= 0 {
		s.bouts[s.nodes[parent].Bout].SetCompetitor(position, competitor)
	}
}

func (s *BracketSet) leafCompetitor(n BracketNode) CompetitorID {
	i := n.Row
	if s.firstPlace == 1 {
		i = n.SeedRank - 1
	}
	if i < 0 || i >= len(s.attendees) {
		return NoCompetitor
	}
	return s.attendees[i].Competitor
}

// dropNode removes the bout of an empty slot; the parent bout sees a bye on
// that side.
func (s *BracketSet) dropNode(idx int) {
	n := s.nodes[idx]
	s.nodes[idx].Bout = -1
	if n.Parent < 0 {
		return
	}
	if pb := s.nodes[n.Parent].Bout; pb >= 0 {
		s.bouts[pb].SetCompetitor(n.position(), NoCompetitor)
	}
}

// deleteDeadNodes drops inner nodes whose children were both dropped.
// Children always have higher indices than their parent.
func (s *BracketSet) deleteDeadNodes() {
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]
		if n.IsLeaf() || n.Bout < 0 {
			continue
		}
		if s.nodes[n.Children[0]].Bout < 0 && s.nodes[n.Children[1]].Bout < 0 {
			s.dropNode(i)
		}
	}
}

// Refresh re-derives everything from the bout scores: winners move up, sides
// of undecided bouts go back to unknown, table status is recomputed.
func (s *BracketSet) Refresh() {
	for i := len(s.nodes) - 1; i > 0; i-- {
		n := s.nodes[i]
		if n.Bout < 0 || n.Parent < 0 {
			continue
		}
		pb := s.nodes[n.Parent].Bout
		if pb < 0 {
			continue
		}
		parent, child := s.bouts[pb], s.bouts[n.Bout]
		side := n.position()

		if child.IsOver() {
			parent.SetCompetitor(side, child.Winner())
		} else if _, known := parent.Competitor(side); known {
			parent.ClearCompetitor(side)
		}
	}
	s.refreshTables()
}

func (s *BracketSet) refreshTables() {
	for i := range s.tables {
		s.tables[i].IsOver = true
		s.tables[i].ReadyToFence = true
		s.tables[i].FirstErrorBout = 0
		s.tables[i].Err = nil
	}

	for _, n := range s.nodes {
		if n.Bout < 0 || n.IsLeaf() {
			continue
		}
		t := &s.tables[n.Level+1]
		b := s.bouts[n.Bout]
		if b.IsOver() {
			continue
		}
		t.IsOver = false
		if !b.HasOpponents() {
			t.ReadyToFence = false
			continue
		}
		if err := b.Err(); err != nil && t.FirstErrorBout == 0 {
			t.FirstErrorBout = b.Number
			t.Err = err
		}
	}
}

func (s *BracketSet) IsOver() bool {
	if len(s.tables) == 0 {
		return false
	}
	for _, t := range s.tables {
		if !t.IsOver {
			return false
		}
	}
	return true
}

func (s *BracketSet) HasError() bool {
	return s.FirstError() != nil
}

// FirstError reports the first bout in error, walking from the first round
// to the final.
func (s *BracketSet) FirstError() error {
	for i := len(s.tables) - 1; i >= 0; i-- {
		t := s.tables[i]
		if t.HasError() {
			return fmt.Errorf("%s bout %d: %w", t.Title, t.FirstErrorBout, t.Err)
		}
	}
	return nil
}

// Winner is the competitor holding the winner slot, if decided.
func (s *BracketSet) Winner() CompetitorID {
	if len(s.nodes) == 0 || s.nodes[0].Bout < 0 {
		return NoCompetitor
	}
	root := s.bouts[s.nodes[0].Bout]
	if !root.IsOver() {
		return NoCompetitor
	}
	return root.Winner()
}

func (s *BracketSet) nodeFor(tableSize, number int) (int, error) {
	level := levelOf(tableSize)
	if level < 1 || level >= s.levels {
		return -1, fmt.Errorf("%w: no table of %d in %s", ErrBoutNotFound, tableSize, s.id)
	}
	idx, ok := s.slots[[2]int{level - 1, number - 1}]
	if !ok || s.nodes[idx].Bout < 0 {
		return -1, fmt.Errorf("%w: table of %d bout %d in %s", ErrBoutNotFound, tableSize, number, s.id)
	}
	return idx, nil
}

// Bout returns a bout of the table of the given size for reading. Use the set
// methods to change it so derived state stays in line.
func (s *BracketSet) Bout(tableSize, number int) (*Bout, error) {
	idx, err := s.nodeFor(tableSize, number)
	if err != nil {
		return nil, err
	}
	return s.bouts[s.nodes[idx].Bout], nil
}

// TableBouts lists the bouts managed by the table at level, by number.
func (s *BracketSet) TableBouts(level int) []*Bout {
	var out []*Bout
	for _, n := range s.nodes {
		if n.Level == level-1 && n.Bout >= 0 && !n.IsLeaf() {
			out = append(out, s.bouts[n.Bout])
		}
	}
	return out
}

// SetScore records one side of a bout and re-derives the tree.
func (s *BracketSet) SetScore(tableSize, number int, side Side, value int, best bool) error {
	b, err := s.Bout(tableSize, number)
	if err != nil {
		return err
	}
	if err := b.SetScore(side, value, best); err != nil {
		return err
	}
	s.Refresh()
	return nil
}

// SetScoreText parses score sheet input ("V", "V12", "W12", "12") and records
// it.
func (s *BracketSet) SetScoreText(tableSize, number int, side Side, text string) error {
	value, best, err := ParseScore(text, s.rules)
	if err != nil {
		return err
	}
	return s.SetScore(tableSize, number, side, value, best)
}

// BoutDetails are the scheduling fields of a bout.
type BoutDetails struct {
	Piste     int
	StartTime time.Time
	Duration  time.Duration
	Referees  []CompetitorID
}

func (s *BracketSet) SetBoutDetails(tableSize, number int, d BoutDetails) error {
	b, err := s.Bout(tableSize, number)
	if err != nil {
		return err
	}
	b.Piste = d.Piste
	b.StartTime = d.StartTime
	b.Duration = d.Duration
	b.Referees = append([]CompetitorID(nil), d.Referees...)
	return nil
}

// FindBout locates the latest bout of a competitor: the one closest to the
// final where they are seated. Leaf slots do not count.
func (s *BracketSet) FindBout(competitor CompetitorID) (tableSize, number int, ok bool) {
	best := -1
	for i, n := range s.nodes {
		if n.Bout < 0 || n.IsLeaf() {
			continue
		}
		if _, seated := s.bouts[n.Bout].SideOf(competitor); !seated {
			continue
		}
		if best < 0 || n.Level < s.nodes[best].Level {
			best = i
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	n := s.nodes[best]
	return 1 << (n.Level + 1), n.Row + 1, true
}

// Drop takes a competitor out of their latest bout for the given reason.
func (s *BracketSet) Drop(competitor CompetitorID, reason DropReason) error {
	size, number, ok := s.FindBout(competitor)
	if !ok {
		return fmt.Errorf("%w: competitor %d in %s", ErrCompetitorNotInBout, competitor, s.id)
	}
	b, _ := s.Bout(size, number)
	if err := b.Drop(competitor, reason); err != nil {
		return err
	}
	s.Refresh()
	return nil
}

// Restore undoes Drop.
func (s *BracketSet) Restore(competitor CompetitorID) error {
	for _, n := range s.nodes {
		if n.Bout < 0 || n.IsLeaf() {
			continue
		}
		b := s.bouts[n.Bout]
		side, ok := b.SideOf(competitor)
		if !ok || !b.sides[side].score.IsOut() {
			continue
		}
		if err := b.Restore(competitor); err != nil {
			return err
		}
		s.Refresh()
		return nil
	}
	return fmt.Errorf("%w: competitor %d is not dropped in %s", ErrCompetitorNotInBout, competitor, s.id)
}

// DroppedStatus returns the drop status of a competitor in this set, if any.
func (s *BracketSet) DroppedStatus(competitor CompetitorID) (ScoreStatus, bool) {
	for _, n := range s.nodes {
		if n.Bout < 0 {
			continue
		}
		b := s.bouts[n.Bout]
		if side, ok := b.SideOf(competitor); ok && b.sides[side].score.IsOut() {
			return b.sides[side].score.Status(), true
		}
	}
	return ScoreUnknown, false
}
