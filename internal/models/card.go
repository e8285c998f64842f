package models

import "encoding/json"

// CellType is the semantic category of a board position. It decides which
// deck a card is drawn from when a player lands on the cell.
type CellType string

const (
	CellAnalysis    CellType = "analysis"
	CellConstraint  CellType = "constraint"
	CellTwist       CellType = "twist"
	CellBonus       CellType = "bonus"
	CellQuickChoice CellType = "quick_choice"
	CellSituation   CellType = "situation"
)

// Card is a drawable prompt. Deck items carry an ID and text; Type is set
// from the deck (or fixed cell) the card came from. Any other column of a
// deck item is kept verbatim in Extra and encoded back at the top level.
type Card struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// cardFields are the keys decoded into Card's named fields.
var cardFields = []string{"type", "id", "title", "text"}

// UnmarshalJSON decodes the named fields and keeps the rest in Extra. A
// named key whose value is not a string (a numeric id, say) stays in Extra.
func (c *Card) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Card{}
	targets := map[string]*string{"type": &c.Type, "id": &c.ID, "title": &c.Title, "text": &c.Text}
	for _, key := range cardFields {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, targets[key]); err == nil {
			delete(raw, key)
		}
	}
	if len(raw) > 0 {
		c.Extra = raw
	}
	return nil
}

// MarshalJSON flattens Extra next to the named fields. Named fields win
// over an Extra key of the same name.
func (c Card) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Extra)+len(cardFields))
	for k, v := range c.Extra {
		out[k] = v
	}
	out["type"] = c.Type
	if c.ID != "" {
		out["id"] = c.ID
	}
	if c.Title != "" {
		out["title"] = c.Title
	}
	if c.Text != "" {
		out["text"] = c.Text
	}
	return json.Marshal(out)
}
