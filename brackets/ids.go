package brackets

// IDGenerator hands out identifiers for one session. It is owned by the
// session and passed to whatever needs fresh ids; it is not safe for
// concurrent use.
type IDGenerator struct {
	next int
}

// NewIDGenerator starts after last, so a reloaded session continues where it
// stopped.
func NewIDGenerator(last int) *IDGenerator {
	return &IDGenerator{next: last + 1}
}

func (g *IDGenerator) Next() int {
	id := g.next
	g.next++
	return id
}

// Last is the most recently issued id, zero if none.
func (g *IDGenerator) Last() int {
	return g.next - 1
}
