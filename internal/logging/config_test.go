package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Caller.Enabled)
	assert.Equal(t, 1, cfg.Caller.Skip)
	assert.Equal(t, "error", cfg.Stacktrace.Level)
	assert.Equal(t, "scoutd", cfg.Fields["service"])
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid default config",
			config:  NewDefaultConfig(),
			wantErr: false,
		},
		{
			name: "valid console format",
			config: &Config{
				Level:  "debug",
				Format: "console",
			},
			wantErr: false,
		},
		{
			name: "invalid level",
			config: &Config{
				Level:  "verbose",
				Format: "json",
			},
			wantErr: true,
			errMsg:  "invalid level",
		},
		{
			name: "invalid format",
			config: &Config{
				Level:  "info",
				Format: "xml",
			},
			wantErr: true,
			errMsg:  "format must be 'json' or 'console'",
		},
		{
			name: "invalid stacktrace level",
			config: &Config{
				Level:      "info",
				Format:     "json",
				Stacktrace: StacktraceConfig{Level: "sometimes"},
			},
			wantErr: true,
			errMsg:  "invalid stacktrace level",
		},
		{
			name: "negative caller skip",
			config: &Config{
				Level:  "info",
				Format: "json",
				Caller: CallerConfig{Enabled: true, Skip: -1},
			},
			wantErr: true,
			errMsg:  "caller skip must be >= 0",
		},
		{
			name: "empty field value",
			config: &Config{
				Level:  "info",
				Format: "json",
				Fields: map[string]string{"service": ""},
			},
			wantErr: true,
			errMsg:  "empty value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ZapLevel(t *testing.T) {
	cfg := &Config{Level: "warn", Format: "json"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, zapcore.WarnLevel, cfg.zapLevel())
}
