package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindEnvFillsUnsetFlags(t *testing.T) {
	t.Setenv("GPCARDS_REDIS_ADDR", "redis:6380")
	t.Setenv("GPCARDS_PORT", "9000")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addr := fs.String("redis-addr", "", "")
	port := fs.Int("port", 8787, "")
	decks := fs.String("decks", "decks.json", "")

	BindEnv(fs)
	require.NoError(t, fs.Parse([]string{"--port", "7000"}))

	assert.Equal(t, "redis:6380", *addr)
	assert.Equal(t, 7000, *port, "command line wins over env")
	assert.Equal(t, "decks.json", *decks)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "GPCARDS_REPORT_MALFORMED", EnvName("report-malformed"))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("warn")
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	_, err = NewLogger("loud")
	assert.Error(t, err)
}
