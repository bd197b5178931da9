package brackets

// Losers of one table. Entrants is the simplified list to seat in the
// repechage group, NoCompetitor marking an empty slot.
type Losers struct {
	Entrants    []CompetitorID
	Withdrawals []CompetitorID
	BlackCarded []CompetitorID
	Count       int
}

// Losers collects the losers of the bouts managed by the table at level.
// Withdrawn and black carded competitors leave a hole in the list and are
// reported on their own.
func (s *BracketSet) Losers(level int) Losers {
	var out Losers
	var raw []CompetitorID

	for _, b := range s.TableBouts(level) {
		if b.IsDropped() {
			for _, side := range []Side{SideA, SideB} {
				c, _ := b.Competitor(side)
				if c == NoCompetitor {
					continue
				}
				switch b.sides[side].score.Status() {
				case ScoreWithdrawal:
					out.Withdrawals = append(out.Withdrawals, c)
				case ScoreBlackCard:
					out.BlackCarded = append(out.BlackCarded, c)
				}
			}
			raw = append(raw, NoCompetitor)
			continue
		}

		loser := b.Loser()
		if loser != NoCompetitor {
			out.Count++
		}
		raw = append(raw, loser)
	}

	out.Entrants = SimplifyLoserTree(raw)
	return out
}

// SimplifyLoserTree trims empty branches off a raw loser list. Leading empty
// pairs go; in the first kept pair an empty slot moves behind the competitor.
// Trailing holes go, and an odd list gets one empty slot appended.
func SimplifyLoserTree(list []CompetitorID) []CompetitorID {
	var out []CompetitorID

	for i := 0; i < len(list); i += 2 {
		even := list[i]
		odd, hasOdd := NoCompetitor, i+1 < len(list)
		if hasOdd {
			odd = list[i+1]
		}
		if even == NoCompetitor && odd == NoCompetitor {
			continue
		}
		out = append([]CompetitorID(nil), list[i:]...)
		if hasOdd && even == NoCompetitor {
			out[0], out[1] = odd, NoCompetitor
		}
		break
	}

	last := -1
	for i, c := range out {
		if c != NoCompetitor {
			last = i
		}
	}
	if last < 0 {
		return nil
	}
	out = out[:last+1]

	if len(out)%2 != 0 {
		out = append(out, NoCompetitor)
	}
	return out
}
