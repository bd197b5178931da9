package brackets

// Pair is one scheduled pool bout between opponents A and B (opponent ids,
// 1..N). Spacings count the pairs between this one and the previous
// appearance of the same opponent, -1 when there is none.
type Pair struct {
	Iteration int `json:"iteration"`
	A         int `json:"a"`
	B         int `json:"b"`
	ASpacing  int `json:"a_spacing"`
	BSpacing  int `json:"b_spacing"`
}

func (p Pair) Has(opponent int) bool {
	return p.A == opponent || p.B == opponent
}

// HasSpacingError reports an opponent fencing twice in a row.
func (p Pair) HasSpacingError() bool {
	return p.ASpacing == 0 || p.BSpacing == 0
}
