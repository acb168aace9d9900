package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/agency-ledger/logging"
	"go.uber.org/zap/zapcore"
)

func TestNew_LevelByEnvironment(t *testing.T) {
	tests := []struct {
		env       logging.Environment
		level     string
		debug     bool
		infoShown bool
	}{
		{logging.EnvironmentDevelopment, "", true, true},
		{logging.EnvironmentLocal, "", true, true},
		{logging.EnvironmentProduction, "", false, true},
		{logging.EnvironmentStaging, "", false, true},
		{logging.EnvironmentProduction, "debug", true, true},
		{logging.EnvironmentDevelopment, "error", false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.env)+"/"+tt.level, func(t *testing.T) {
			log, err := logging.New(logging.Config{Environment: tt.env, Level: tt.level})
			require.NoError(t, err)

			assert.Equal(t, tt.debug, log.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.infoShown, log.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := logging.New(logging.Config{Environment: "moon"})
	assert.ErrorContains(t, err, "invalid environment")

	_, err = logging.New(logging.Config{Environment: logging.EnvironmentProduction, Level: "loud"})
	assert.ErrorContains(t, err, "invalid level")
}
