package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  name: moderation-server
  version: 1.2.3
api:
  port: 9090
database:
  dsn: postgres://localhost/textmod?sslmode=disable
jwt:
  secret: file-secret
  access_token_ttl: 30m
quota:
  default_monthly: 5000
moderation:
  base_url: https://inference.example.com
  api_token: hf_token
  default_model: multilingual
  models:
    multilingual:
      provider: huggingface
      model: unitary/multilingual-toxic-xlm-roberta
      threshold: 0.65
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "moderation-server", cfg.Server.Name)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, int64(5000), cfg.Quota.DefaultMonthly)
	assert.Equal(t, "multilingual", cfg.Moderation.DefaultModel)
	assert.InDelta(t, 0.65, cfg.Moderation.Models["multilingual"].Threshold, 1e-9)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: postgres://localhost/textmod
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, int64(1000), cfg.Quota.DefaultMonthly)
	assert.Equal(t, 15*time.Second, cfg.Moderation.RequestTimeout)
	assert.Equal(t, "english-basic", cfg.Moderation.DefaultModel)

	// Built-in model table covers the default key
	model, ok := cfg.Moderation.Models[cfg.Moderation.DefaultModel]
	require.True(t, ok)
	assert.Equal(t, "unitary/toxic-bert", model.Model)
	assert.InDelta(t, 0.8, model.Threshold, 1e-9)

	assert.NotEmpty(t, cfg.Moderation.LabelRules)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: postgres://file/db
jwt:
  secret: file-secret
moderation:
  api_token: file-token
`)

	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("MODERATION_API_TOKEN", "env-token")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-token", cfg.Moderation.APIToken)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestDefaultLabelRulesOrdering(t *testing.T) {
	rules := DefaultLabelRules()
	require.NotEmpty(t, rules)

	// The broad toxicity match must come last so specific categories win
	last := rules[len(rules)-1]
	assert.Equal(t, "tox", last.Match)
	assert.Equal(t, "toxicity", last.Category)
}
