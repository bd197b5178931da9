package brackets

import "fmt"

// Table is one column of a bracket set: the Size slots of its level. The
// bouts a table manages are the ones deciding who fills those slots' parents,
// so the table of 8 holds the quarter-finals.
type Table struct {
	Level        int
	Size         int
	Title        string
	IsOver       bool
	ReadyToFence bool

	// FirstErrorBout is the number of the first bout in error, 0 if none.
	FirstErrorBout int
	Err            error
}

func (t Table) ID() string { return fmt.Sprintf("T%d", t.Size) }

func (t Table) HasError() bool { return t.FirstErrorBout != 0 }

func tableTitle(size int) string {
	switch size {
	case 1:
		return "Winner"
	case 2:
		return "Final"
	case 4:
		return "Semi-final"
	}
	return fmt.Sprintf("Table of %d", size)
}

// levelOf returns log2(size), -1 if size is not a power of two.
func levelOf(size int) int {
	if size <= 0 || size&(size-1) != 0 {
		return -1
	}
	level := 0
	for 1<<level < size {
		level++
	}
	return level
}
