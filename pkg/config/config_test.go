package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiSettings struct {
	Port       int           `env:"RECAM_TEST_PORT" envDefault:"8080"`
	Brokers    []string      `env:"RECAM_TEST_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	DedupeTTL  time.Duration `env:"RECAM_TEST_DEDUPE_TTL" envDefault:"24h"`
	Tracing    bool          `env:"RECAM_TEST_TRACING" envDefault:"false"`
	SampleRate float64       `env:"RECAM_TEST_SAMPLE_RATE" envDefault:"1"`
}

func withDotEnv(t *testing.T, contents string) {
	t.Helper()
	prev := DotEnvFile
	DotEnvFile = filepath.Join(t.TempDir(), ".env")
	if contents != "" {
		require.NoError(t, os.WriteFile(DotEnvFile, []byte(contents), 0o600))
	}
	t.Cleanup(func() { DotEnvFile = prev })
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want apiSettings
	}{
		{
			name: "defaults",
			want: apiSettings{Port: 8080, Brokers: []string{"localhost:9092"}, DedupeTTL: 24 * time.Hour, SampleRate: 1},
		},
		{
			name: "environment",
			env: map[string]string{
				"RECAM_TEST_PORT":        "9090",
				"RECAM_TEST_BROKERS":     "kafka-1:9092,kafka-2:9092",
				"RECAM_TEST_DEDUPE_TTL":  "90m",
				"RECAM_TEST_TRACING":     "true",
				"RECAM_TEST_SAMPLE_RATE": "0.25",
			},
			want: apiSettings{
				Port:       9090,
				Brokers:    []string{"kafka-1:9092", "kafka-2:9092"},
				DedupeTTL:  90 * time.Minute,
				Tracing:    true,
				SampleRate: 0.25,
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withDotEnv(t, "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			var got apiSettings
			require.NoError(t, Load(&got))
			assert.Equal(t, tc.want, got)
		})
	}
}

type secretSettings struct {
	Secret string `env:"RECAM_TEST_JWT_SECRET,required"`
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := map[string]struct {
		key, value string
		target     any
	}{
		"bad int":          {"RECAM_TEST_PORT", "eighty", &apiSettings{}},
		"bad duration":     {"RECAM_TEST_DEDUPE_TTL", "one day", &apiSettings{}},
		"missing required": {"", "", &secretSettings{}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			withDotEnv(t, "")
			if tc.key != "" {
				t.Setenv(tc.key, tc.value)
			}

			err := Load(tc.target)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parse config")
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	withDotEnv(t, "RECAM_TEST_DOTENV_PORT=7000\nRECAM_TEST_DOTENV_HOST=file-host\n")
	t.Setenv("RECAM_TEST_DOTENV_HOST", "env-host")
	t.Cleanup(func() { _ = os.Unsetenv("RECAM_TEST_DOTENV_PORT") })

	var cfg struct {
		Port int    `env:"RECAM_TEST_DOTENV_PORT"`
		Host string `env:"RECAM_TEST_DOTENV_HOST"`
	}
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 7000, cfg.Port, "read from file")
	assert.Equal(t, "env-host", cfg.Host, "process environment wins")
}

func TestLoad_MissingOrDisabledDotEnv(t *testing.T) {
	withDotEnv(t, "")
	var cfg apiSettings
	require.NoError(t, Load(&cfg))

	DotEnvFile = ""
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_UnreadableDotEnv(t *testing.T) {
	prev := DotEnvFile
	DotEnvFile = t.TempDir()
	t.Cleanup(func() { DotEnvFile = prev })

	var cfg apiSettings
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load ")
}
