package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestSettingsOverridesApply(t *testing.T) {
	difficulty := "hard"
	scoring := true
	s := SettingsOverrides{
		MaxPlayers: intPtr(3),
		BoardSize:  intPtr(20),
		TimerSec:   intPtr(60),
		Scoring:    &scoring,
		Difficulty: &difficulty,
	}.Apply(DefaultSettings())

	assert.Equal(t, Settings{MaxPlayers: 3, BoardSize: 20, TimerSec: 60, Scoring: true, Difficulty: "hard"}, s)
}

func TestSettingsClampsMaxPlayers(t *testing.T) {
	assert.Equal(t, 2, SettingsOverrides{MaxPlayers: intPtr(1)}.Apply(DefaultSettings()).MaxPlayers)
	assert.Equal(t, 4, SettingsOverrides{MaxPlayers: intPtr(12)}.Apply(DefaultSettings()).MaxPlayers)
	assert.Equal(t, 4, SettingsOverrides{}.Apply(DefaultSettings()).MaxPlayers)
}

func TestSettingsNormalizeFallsBackToDefaults(t *testing.T) {
	s := Settings{MaxPlayers: 2, BoardSize: -5, TimerSec: -1}.Normalize()
	assert.Equal(t, DefaultBoardSize, s.BoardSize)
	assert.Equal(t, DefaultTimerSec, s.TimerSec)
	assert.Equal(t, DefaultDifficulty, s.Difficulty)
}

func TestVerdictValid(t *testing.T) {
	assert.True(t, VerdictConvincing.Valid())
	assert.True(t, VerdictPartial.Valid())
	assert.True(t, VerdictNo.Valid())
	assert.False(t, Verdict("maybe").Valid())
	assert.False(t, Verdict("").Valid())
}
