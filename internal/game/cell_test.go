package game

import (
	"testing"

	"github.com/jason-s-yu/gpcards/internal/deck"
	"github.com/jason-s-yu/gpcards/internal/models"
	"github.com/stretchr/testify/assert"
)

// stubDeck returns a fixed card per deck name.
type stubDeck map[string]models.Card

func (d stubDeck) Draw(name string) (models.Card, bool) {
	c, ok := d[name]
	return c, ok
}

func TestCellTypeAt(t *testing.T) {
	cases := map[int]models.CellType{
		0:  models.CellAnalysis,
		10: models.CellAnalysis,
		3:  models.CellConstraint,
		23: models.CellConstraint,
		6:  models.CellTwist,
		8:  models.CellBonus,
		5:  models.CellQuickChoice,
		1:  models.CellSituation,
		2:  models.CellSituation,
		4:  models.CellSituation,
		7:  models.CellSituation,
		9:  models.CellSituation,
		39: models.CellSituation,
	}
	for pos, want := range cases {
		assert.Equal(t, want, CellTypeAt(pos), "position %d", pos)
	}
}

func TestCardForFixedCells(t *testing.T) {
	d := stubDeck{}
	assert.Equal(t, "an_001", cardFor(models.CellAnalysis, d).ID)
	assert.Equal(t, "qc_001", cardFor(models.CellQuickChoice, d).ID)

	bonus := cardFor(models.CellBonus, d)
	assert.Equal(t, "bo_001", bonus.ID)
	assert.Equal(t, "bonus", bonus.Type)
}

func TestCardForDrawnCells(t *testing.T) {
	d := stubDeck{
		deck.Scenarios:   {ID: "sc_1", Title: "Sortie scolaire"},
		deck.Constraints: {ID: "co_1"},
		deck.Twists:      {ID: "tw_1"},
	}

	sc := cardFor(models.CellSituation, d)
	assert.Equal(t, "sc_1", sc.ID)
	assert.Equal(t, "scenario", sc.Type)

	assert.Equal(t, "co_1", cardFor(models.CellConstraint, d).ID)
	assert.Equal(t, "constraint", cardFor(models.CellConstraint, d).Type)
	assert.Equal(t, "tw_1", cardFor(models.CellTwist, d).ID)
	assert.Equal(t, "twist", cardFor(models.CellTwist, d).Type)
}

func TestCardForEmptyDeck(t *testing.T) {
	card := cardFor(models.CellTwist, stubDeck{})
	assert.Equal(t, models.Card{Type: "twist"}, card)

	card = cardFor(models.CellSituation, nil)
	assert.Equal(t, models.Card{Type: "scenario"}, card)
}
