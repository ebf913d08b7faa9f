package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoad_DefaultsWithoutFiles(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, time.Second, cfg.Bulk.Delay)
	assert.Equal(t, "memory", cfg.Assets.Backend)
}

func TestLoad_YAMLThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
server:
  port: ":8080"
jwt:
  secret: from-yaml
gemini:
  model: gemini-1.5-flash
smtp:
  host: mail.example.com
  port: 587
  user: bot@example.com
`)

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEY1", "gem-key")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "gem-key", cfg.Gemini.APIKey)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "bot@example.com", cfg.SMTP.From, "from defaults to the smtp user")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoad_DotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "EMAIL_USER=dotenv@example.com\nEMAIL_PASSWORD=secret\n")
	t.Setenv("EMAIL_USER", "process@example.com")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "process@example.com", cfg.SMTP.User)
	assert.Equal(t, "secret", cfg.SMTP.Password)
	os.Unsetenv("EMAIL_PASSWORD")
}

func TestLoad_InvalidBulkDelay(t *testing.T) {
	t.Setenv("BULK_DELAY", "soon")
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.Error(t, cfg.Validate(), "secret is required")

	cfg.JWT.Secret = "s"
	require.NoError(t, cfg.Validate())

	cfg.Assets.Backend = "sqlite"
	require.Error(t, cfg.Validate())
}
