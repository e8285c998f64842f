// internal/models/settings.go
package models

const (
	MinPlayers = 2
	MaxPlayers = 4

	DefaultBoardSize  = 40
	DefaultTimerSec   = 180
	DefaultDifficulty = "medium"
)

// Settings captures the per-session configuration chosen at creation time.
// It never changes after the session is created.
type Settings struct {
	// MaxPlayers is the seat limit, always within [MinPlayers, MaxPlayers].
	MaxPlayers int `json:"maxPlayers"`

	// BoardSize is the finish line; reaching it ends the game.
	BoardSize int `json:"boardSize"`

	// TimerSec is the advertised per-turn timer. Clients display it; the server does not enforce it.
	TimerSec int `json:"timerSec"`

	Scoring    bool   `json:"scoring"`
	Difficulty string `json:"difficulty"`
}

// SettingsOverrides holds the optional fields a client may send with session:create.
// A nil field keeps the default.
type SettingsOverrides struct {
	MaxPlayers *int    `json:"maxPlayers,omitempty"`
	BoardSize  *int    `json:"boardSize,omitempty"`
	TimerSec   *int    `json:"timerSec,omitempty"`
	Scoring    *bool   `json:"scoring,omitempty"`
	Difficulty *string `json:"difficulty,omitempty"`
}

// DefaultSettings returns the settings used when a client sends no overrides.
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers: MaxPlayers,
		BoardSize:  DefaultBoardSize,
		TimerSec:   DefaultTimerSec,
		Difficulty: DefaultDifficulty,
	}
}

// Apply returns a copy of base with every non-nil override applied, then normalised.
func (o SettingsOverrides) Apply(base Settings) Settings {
	s := base
	if o.MaxPlayers != nil {
		s.MaxPlayers = *o.MaxPlayers
	}
	if o.BoardSize != nil {
		s.BoardSize = *o.BoardSize
	}
	if o.TimerSec != nil {
		s.TimerSec = *o.TimerSec
	}
	if o.Scoring != nil {
		s.Scoring = *o.Scoring
	}
	if o.Difficulty != nil {
		s.Difficulty = *o.Difficulty
	}
	return s.Normalize()
}

// Normalize clamps MaxPlayers into [MinPlayers, MaxPlayers] and replaces
// out-of-range values with their defaults.
func (s Settings) Normalize() Settings {
	switch {
	case s.MaxPlayers < MinPlayers:
		s.MaxPlayers = MinPlayers
	case s.MaxPlayers > MaxPlayers:
		s.MaxPlayers = MaxPlayers
	}
	if s.BoardSize <= 0 {
		s.BoardSize = DefaultBoardSize
	}
	if s.TimerSec < 0 {
		s.TimerSec = DefaultTimerSec
	}
	if s.Difficulty == "" {
		s.Difficulty = DefaultDifficulty
	}
	return s
}
