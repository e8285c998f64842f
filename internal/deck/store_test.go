package deck

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jason-s-yu/gpcards/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDecks = `{
	"scenarios": [{"id": "sc_1", "text": "Un élève refuse de travailler."}, {"id": "sc_2", "text": "La classe est agitée."}],
	"constraints": [{"id": "co_1", "text": "Sans écrit."}],
	"twists": []
}`

func TestParseAndDraw(t *testing.T) {
	s, err := Parse([]byte(sampleDecks))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{Scenarios: 2, Constraints: 1, Twists: 0}, s.Counts())

	for i := 0; i < 20; i++ {
		c, ok := s.Draw(Scenarios)
		require.True(t, ok)
		assert.Contains(t, []string{"sc_1", "sc_2"}, c.ID)
	}

	c, ok := s.Draw(Constraints)
	require.True(t, ok)
	assert.Equal(t, models.Card{ID: "co_1", Text: "Sans écrit."}, c)
}

func TestParseKeepsExtraColumns(t *testing.T) {
	s, err := Parse([]byte(`{"scenarios": [{
		"id": "sc_1",
		"text": "t",
		"consigne": "Reformule.",
		"niveau": 2,
		"tags": ["climat", "oral"]
	}]}`))
	require.NoError(t, err)

	c, ok := s.Draw(Scenarios)
	require.True(t, ok)
	assert.Equal(t, "sc_1", c.ID)
	assert.Len(t, c.Extra, 3)

	c.Type = "scenario"
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "scenario",
		"id": "sc_1",
		"text": "t",
		"consigne": "Reformule.",
		"niveau": 2,
		"tags": ["climat", "oral"]
	}`, string(data))

	var back models.Card
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c.Text, back.Text)
	assert.JSONEq(t, string(c.Extra["tags"]), string(back.Extra["tags"]))
}

func TestParseKeepsNonStringID(t *testing.T) {
	s, err := Parse([]byte(`{"twists": [{"id": 7, "text": "Coupure de courant."}]}`))
	require.NoError(t, err)

	c, ok := s.Draw(Twists)
	require.True(t, ok)
	assert.Empty(t, c.ID)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "", "id": 7, "text": "Coupure de courant."}`, string(data))
}

func TestDrawEmptyOrUnknownDeck(t *testing.T) {
	s, err := Parse([]byte(sampleDecks))
	require.NoError(t, err)

	_, ok := s.Draw(Twists)
	assert.False(t, ok, "empty deck should report no card")

	_, ok = s.Draw("jokers")
	assert.False(t, ok, "unknown deck should report no card")

	_, ok = Empty().Draw(Scenarios)
	assert.False(t, ok)
}

func TestParseMissingKeys(t *testing.T) {
	s, err := Parse([]byte(`{"twists": [{"id": "tw_1"}]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{Scenarios: 0, Constraints: 0, Twists: 1}, s.Counts())
}

func TestLoadDegradesToEmpty(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	s := Load(filepath.Join(t.TempDir(), "missing.json"), logger)
	assert.Equal(t, 0, s.Counts()[Scenarios])
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	bad := filepath.Join(t.TempDir(), "decks.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	s = Load(bad, logger)
	_, ok := s.Draw(Scenarios)
	assert.False(t, ok)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLoadFromFile(t *testing.T) {
	logger, hook := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "decks.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDecks), 0o600))

	s := Load(path, logger)
	assert.Equal(t, 2, s.Counts()[Scenarios])
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, 1, hook.LastEntry().Data["constraints"])
}
