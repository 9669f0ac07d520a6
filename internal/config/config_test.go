package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scienceol/gogvault/internal/auth"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, env := range []string{
		"GOGVAULT_CONFIG", "GOGVAULT_USERNAME", "GOGVAULT_COOKIE_FILE",
		"GOGVAULT_IMPORT_FILE", "GOGVAULT_USER_AGENT", "GOGVAULT_HOME_URL",
		"GOGVAULT_LOGIN_URL", "GOGVAULT_WAKELOCK", "GOGVAULT_RETRIES",
	} {
		t.Setenv(env, "")
	}
	return home
}

func writeConfig(t *testing.T, home, name, body string) {
	t.Helper()
	dir := filepath.Join(home, ".gogvault")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(Flags{Retries: -1})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".gogvault", "cookies.json"), cfg.CookieFile)
	assert.Equal(t, filepath.Join(home, ".gogvault", "cookies.txt"), cfg.ImportFile)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, auth.DefaultHomeURL, cfg.HomeURL)
	assert.Equal(t, auth.DefaultLoginURL, cfg.LoginURL)
	assert.Equal(t, "idle", cfg.Wakelock)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 3, cfg.Retries())
	assert.Equal(t, 5*time.Second, cfg.RetryDelay())
}

func TestLoad_YAMLFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "config.yaml", `
username: alice
wakelock: display
http:
  timeout_seconds: 10
  retries: 0
  retry_delay_seconds: 2
`)

	cfg, err := Load(Flags{Retries: -1})
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Username)
	assert.Equal(t, "display", cfg.Wakelock)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, 0, cfg.Retries(), "explicit zero retries must survive defaults")
	assert.Equal(t, 2*time.Second, cfg.RetryDelay())
}

func TestLoad_TOMLFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "config.toml", `
username = "bob"
cookie_file = "/tmp/jar.json"

[http]
retries = 5
`)

	cfg, err := Load(Flags{Retries: -1})
	require.NoError(t, err)

	assert.Equal(t, "bob", cfg.Username)
	assert.Equal(t, "/tmp/jar.json", cfg.CookieFile)
	assert.Equal(t, 5, cfg.Retries())
}

func TestLoad_Precedence(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "config.yaml", "username: from-file\nuser_agent: file-agent\nhttp:\n  retries: 1\n")
	t.Setenv("GOGVAULT_USERNAME", "from-env")
	t.Setenv("GOGVAULT_RETRIES", "2")

	cfg, err := Load(Flags{Retries: -1})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Username)
	assert.Equal(t, "file-agent", cfg.UserAgent)
	assert.Equal(t, 2, cfg.Retries())

	cfg, err = Load(Flags{Username: "from-flag", Retries: 7})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Username)
	assert.Equal(t, 7, cfg.Retries())
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("home_url: https://www.gog.test\n"), 0o600))

	cfg, err := Load(Flags{ConfigFile: path, Retries: -1})
	require.NoError(t, err)
	assert.Equal(t, "https://www.gog.test", cfg.HomeURL)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		isolate(t)
		_, err := Load(Flags{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), Retries: -1})
		assert.ErrorContains(t, err, "read config")
	})

	t.Run("malformed file", func(t *testing.T) {
		home := isolate(t)
		writeConfig(t, home, "config.yaml", "http: [unterminated\n")
		_, err := Load(Flags{Retries: -1})
		assert.ErrorContains(t, err, "parse config")
	})

	t.Run("bad wakelock", func(t *testing.T) {
		isolate(t)
		t.Setenv("GOGVAULT_WAKELOCK", "forever")
		_, err := Load(Flags{Retries: -1})
		assert.ErrorContains(t, err, "wakelock")
	})

	t.Run("bad retries env", func(t *testing.T) {
		isolate(t)
		t.Setenv("GOGVAULT_RETRIES", "-2")
		_, err := Load(Flags{Retries: -1})
		assert.ErrorContains(t, err, "GOGVAULT_RETRIES")
	})
}
