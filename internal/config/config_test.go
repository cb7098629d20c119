package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setEnvAndRun(t *testing.T, env map[string]string, fn func()) {
	t.Helper()

	backup := map[string]string{}
	for k := range env {
		backup[k] = os.Getenv(k)
	}

	for k, v := range env {
		require.NoError(t, os.Setenv(k, v))
	}
	defer func() {
		for k := range env {
			_ = os.Unsetenv(k)
			if old, ok := backup[k]; ok && old != "" {
				_ = os.Setenv(k, old)
			}
		}
	}()

	fn()
}

func withFreshFlagSet(t *testing.T, fn func()) {
	t.Helper()
	old := flag.CommandLine
	oldArgs := os.Args
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{oldArgs[0]}
	defer func() {
		flag.CommandLine = old
		os.Args = oldArgs
	}()
	fn()
}

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("test", flag.ContinueOnError)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(newFlagSet(), nil)
	require.NoError(t, err)

	require.Equal(t, "localhost:8080", cfg.Addr)
	require.Equal(t, "http://localhost/nginx_status", cfg.StatusURL)
	require.Equal(t, time.Second, cfg.PollInterval)
	require.Equal(t, 5*time.Second, cfg.PruneInterval)
	require.Equal(t, 5*time.Second, cfg.FetchTimeout)
	require.Equal(t, 60*time.Second, cfg.Window)
	require.Equal(t, 60, cfg.BufferSize)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestParse_Flags(t *testing.T) {
	cfg, err := parse(newFlagSet(), []string{
		"-a", ":9000",
		"-u", "nginx:8080/status",
		"-p", "2s",
		"-prune", "10",
		"-t", "1500ms",
		"-w", "30s",
		"-n", "120",
		"-log-level", "debug",
	})
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.Addr)
	require.Equal(t, "http://nginx:8080/status", cfg.StatusURL)
	require.Equal(t, 2*time.Second, cfg.PollInterval)
	require.Equal(t, 10*time.Second, cfg.PruneInterval)
	require.Equal(t, 1500*time.Millisecond, cfg.FetchTimeout)
	require.Equal(t, 30*time.Second, cfg.Window)
	require.Equal(t, 120, cfg.BufferSize)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_BadFlag(t *testing.T) {
	fs := newFlagSet()
	fs.SetOutput(&discard{})
	_, err := parse(fs, []string{"-p", "soon"})
	require.Error(t, err)
}

func TestReadEnvironment(t *testing.T) {
	env := map[string]string{
		"ADDRESS":          "127.0.0.1:9999",
		"NGINX_STATUS_URL": "https://example.com/status",
		"POLL_INTERVAL":    "3",
		"PRUNE_INTERVAL":   "250ms",
		"FETCH_TIMEOUT":    "bad",  // invalid
		"BUFFER_SIZE":      "nope", // invalid
		"LOG_LEVEL":        "warn",
	}

	setEnvAndRun(t, env, func() {
		cfg := defaults()
		readEnvironment(cfg)

		require.Equal(t, "127.0.0.1:9999", cfg.Addr)
		require.Equal(t, "https://example.com/status", cfg.StatusURL)
		require.Equal(t, 3*time.Second, cfg.PollInterval)
		require.Equal(t, 250*time.Millisecond, cfg.PruneInterval)
		require.Equal(t, 5*time.Second, cfg.FetchTimeout)
		require.Equal(t, 60, cfg.BufferSize)
		require.Equal(t, "warn", cfg.LogLevel)
	})
}

func TestParse_JSONFile(t *testing.T) {
	path := writeFile(t, "dstat.json", `{
		"address": ":7070",
		"status_url": "http://10.0.0.1/nginx_status",
		"poll_interval": "500ms",
		"window": "2m",
		"buffer_size": 30
	}`)

	cfg, err := parse(newFlagSet(), []string{"-c", path, "-a", ":6060"})
	require.NoError(t, err)

	require.Equal(t, ":6060", cfg.Addr, "flags win over the file")
	require.Equal(t, "http://10.0.0.1/nginx_status", cfg.StatusURL)
	require.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	require.Equal(t, 2*time.Minute, cfg.Window)
	require.Equal(t, 30, cfg.BufferSize)
}

func TestParse_YAMLFile(t *testing.T) {
	path := writeFile(t, "dstat.yaml", `
address: ":7071"
status_url: http://10.0.0.2/nginx_status
fetch_timeout: 2s
prune_interval: 1s
log_level: error
`)

	setEnvAndRun(t, map[string]string{"CONFIG": path, "LOG_LEVEL": "debug"}, func() {
		cfg, err := parse(newFlagSet(), nil)
		require.NoError(t, err)

		require.Equal(t, ":7071", cfg.Addr)
		require.Equal(t, "http://10.0.0.2/nginx_status", cfg.StatusURL)
		require.Equal(t, 2*time.Second, cfg.FetchTimeout)
		require.Equal(t, time.Second, cfg.PruneInterval)
		require.Equal(t, "debug", cfg.LogLevel, "env wins over the file")
	})
}

func TestParse_FileErrors(t *testing.T) {
	_, err := parse(newFlagSet(), []string{"-config", filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)

	bad := writeFile(t, "bad.json", `{"poll_interval": "never"}`)
	_, err = parse(newFlagSet(), []string{"-c", bad})
	require.Error(t, err)
}

func TestParse_Validation(t *testing.T) {
	_, err := parse(newFlagSet(), []string{"-n", "0", "-w", "0s"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "buffer size must be positive")
	require.Contains(t, err.Error(), "window must be positive")
}

func TestNewConfig_BuildsLoggerAndReadsEnv(t *testing.T) {
	env := map[string]string{
		"ADDRESS":          "127.0.0.1:7070",
		"NGINX_STATUS_URL": "status.local/nginx_status",
	}
	setEnvAndRun(t, env, func() {
		withFreshFlagSet(t, func() {
			cfg, err := NewConfig()
			require.NoError(t, err)
			require.NotNil(t, cfg.Logger)
			require.Equal(t, "127.0.0.1:7070", cfg.Addr)
			require.Equal(t, "http://status.local/nginx_status", cfg.StatusURL)
		})
	})
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = NewLogger("loud")
	require.Error(t, err)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
