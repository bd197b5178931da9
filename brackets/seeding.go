package brackets

// ChildSeedRank is the expected seed rank of a child slot in a table of the
// given size, knowing its parent's rank and its position (0 or 1) under that
// parent. Applied from the root (rank 1) down, it yields the classic
// 1v8, 4v5, 2v7, 3v6 layout.
func ChildSeedRank(size, parentRank, position int) int {
	if position != parentRank%2 {
		return parentRank
	}
	return size + 1 - parentRank
}

// SeedOrder lists the seed ranks of a table of the given size in row order.
// size must be a power of two.
func SeedOrder(size int) []int {
	ranks := []int{1}
	for width := 2; width <= size; width *= 2 {
		next := make([]int, 0, width)
		for _, r := range ranks {
			next = append(next, ChildSeedRank(width, r, 0), ChildSeedRank(width, r, 1))
		}
		ranks = next
	}
	return ranks
}

// levelsFor returns how many tables a bracket for n entrants needs: the
// smallest exponent e with 2^e >= n, plus the winner column.
func levelsFor(n int) int {
	e := 0
	for 1<<e < n {
		e++
	}
	return e + 1
}
