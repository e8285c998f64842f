package game

import (
	"github.com/jason-s-yu/gpcards/internal/deck"
	"github.com/jason-s-yu/gpcards/internal/models"
)

// Deck is the read-only card source a session draws from.
type Deck interface {
	Draw(name string) (models.Card, bool)
}

// CellTypeAt maps a board position to its cell category by its last digit.
func CellTypeAt(position int) models.CellType {
	switch position % 10 {
	case 0:
		return models.CellAnalysis
	case 3:
		return models.CellConstraint
	case 6:
		return models.CellTwist
	case 8:
		return models.CellBonus
	case 5:
		return models.CellQuickChoice
	default:
		return models.CellSituation
	}
}

// Cells with a fixed card never touch the decks.
var fixedCards = map[models.CellType]models.Card{
	models.CellAnalysis: {
		Type: string(models.CellAnalysis),
		ID:   "an_001",
		Text: "Analyse : active un calque et explicite une priorité (savoirs / climat / équité / temps).",
	},
	models.CellQuickChoice: {
		Type: string(models.CellQuickChoice),
		ID:   "qc_001",
		Text: "Choix rapide : que fais-tu en premier ? (30 sec)",
	},
	models.CellBonus: {
		Type: string(models.CellBonus),
		ID:   "bo_001",
		Text: "Bonus : si ta réponse est jugée convaincante, avance +1.",
	},
}

type deckSource struct {
	deck     string
	cardType string
}

var drawnCells = map[models.CellType]deckSource{
	models.CellConstraint: {deck: deck.Constraints, cardType: "constraint"},
	models.CellTwist:      {deck: deck.Twists, cardType: "twist"},
	models.CellSituation:  {deck: deck.Scenarios, cardType: "scenario"},
}

// cardFor picks the card for a cell. An empty or missing deck yields a card
// that only carries its type.
func cardFor(cell models.CellType, d Deck) models.Card {
	if c, ok := fixedCards[cell]; ok {
		return c
	}
	src, ok := drawnCells[cell]
	if !ok {
		src = drawnCells[models.CellSituation]
	}
	var card models.Card
	if d != nil {
		card, _ = d.Draw(src.deck)
	}
	card.Type = src.cardType
	return card
}
