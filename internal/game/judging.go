package game

import "github.com/jason-s-yu/gpcards/internal/models"

// verdictOrder fixes the iteration order so resolution never depends on map order.
var verdictOrder = []models.Verdict{models.VerdictConvincing, models.VerdictPartial, models.VerdictNo}

// ResolveVerdict tallies votes and returns the verdict with a strict plurality.
// Any tie for the top count, including no votes at all, resolves to partial.
// Values outside the three verdicts are ignored.
func ResolveVerdict(votes []models.Verdict) models.Verdict {
	counts := make(map[models.Verdict]int, len(verdictOrder))
	for _, v := range votes {
		counts[v]++
	}

	best, top, tied := models.VerdictPartial, -1, false
	for _, v := range verdictOrder {
		switch c := counts[v]; {
		case c > top:
			best, top, tied = v, c, false
		case c == top:
			tied = true
		}
	}
	if tied {
		return models.VerdictPartial
	}
	return best
}

// positionDelta is the move applied to the active player once a verdict is known.
func positionDelta(v models.Verdict, cell models.CellType) int {
	switch v {
	case models.VerdictConvincing:
		if cell == models.CellBonus {
			return 1
		}
	case models.VerdictNo:
		return -1
	}
	return 0
}

func clamp(pos, boardSize int) int {
	if pos < 0 {
		return 0
	}
	if pos > boardSize {
		return boardSize
	}
	return pos
}
