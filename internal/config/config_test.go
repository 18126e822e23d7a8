package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		configPathEnv, databaseDSNEnv, smtpHostEnv, smtpPortEnv, smtpUserEnv, smtpPassEnv,
		smtpToEnv, telegramTokenEnv, telegramChatEnv, logLevelEnv, timezoneEnv,
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data/tbl_instrumentos.csv", cfg.Source.Path)
	assert.Equal(t, "faixas", cfg.Classification.Scheme)
	require.Len(t, cfg.Classification.Alerts, 2)
	assert.Equal(t, "alerta_30", cfg.Classification.Alerts[0].Name)
	assert.Equal(t, "SIM", cfg.Classification.Labels.Yes)
	assert.Equal(t, "@monthly", cfg.Scheduler.Spec)
	assert.Equal(t, "alertas_30.csv", cfg.Output.AlertFiles["alerta_30"])
	assert.NotNil(t, cfg.Scheduler.Location())
	assert.False(t, cfg.Notifications.Email.Enabled())
	assert.False(t, cfg.Notifications.Telegram.Enabled())
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
source:
  path: planilha.csv
  delimiter: ";"
classification:
  scheme: semaforo
  alerts:
    - name: alerta_60
      max: 60
    - name: alerta_180
      min: 61
      max: 180
  labels:
    yes: "S"
notifications:
  email:
    to: equipe@example.org
    attach: true
scheduler:
  timezone: UTC
`)
	t.Setenv(smtpUserEnv, "robot@example.org")
	t.Setenv(smtpPortEnv, "2525")
	t.Setenv(telegramTokenEnv, "tok")
	t.Setenv(telegramChatEnv, "99")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "planilha.csv", cfg.Source.Path)
	assert.Equal(t, ';', cfg.Source.DelimiterRune())
	assert.Equal(t, "semaforo", cfg.Classification.Scheme)
	require.Len(t, cfg.Classification.Alerts, 2)
	assert.Equal(t, 61, cfg.Classification.Alerts[1].Min)
	assert.Equal(t, "S", cfg.Classification.Labels.Yes)
	assert.Equal(t, "NÃO", cfg.Classification.Labels.No)

	assert.Equal(t, "smtp.gmail.com", cfg.Notifications.Email.Host)
	assert.Equal(t, 2525, cfg.Notifications.Email.Port)
	assert.Equal(t, "robot@example.org", cfg.Notifications.Email.Username)
	assert.True(t, cfg.Notifications.Email.Attach)
	assert.True(t, cfg.Notifications.Email.Enabled())
	assert.True(t, cfg.Notifications.Telegram.Enabled())
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadCustomScheme(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
classification:
  custom:
    bands:
      - {max: 15, label: URGENTE}
      - {max: 45, label: ATENCAO}
    beyond: NORMAL
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	s, err := cfg.Classification.ResolveScheme()
	require.NoError(t, err)
	assert.Equal(t, "custom", s.Name)
	assert.Equal(t, "NORMAL", s.Beyond)
	require.Len(t, s.Bands, 2)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "classification:\n  scheme: nenhum\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "classification:\n  alerts:\n    - {name: a, min: 10, max: 1}\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "source:\n  delimiter: ';;'\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "source: [\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDelimiterRune(t *testing.T) {
	t.Parallel()

	assert.Equal(t, rune(0), SourceConfig{}.DelimiterRune())
	assert.Equal(t, '\t', SourceConfig{Delimiter: "tab"}.DelimiterRune())
	assert.Equal(t, '|', SourceConfig{Delimiter: "|"}.DelimiterRune())
}

func TestLoadExampleConfig(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join("..", "..", "configs", "monitor.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "faixas", cfg.Classification.Scheme)
	require.Len(t, cfg.Classification.Alerts, 2)
	assert.Equal(t, 180, cfg.Classification.Alerts[1].Max)
	assert.Equal(t, "NÃO", cfg.Classification.Labels.No)
	assert.Equal(t, []string{"ARQUIV"}, cfg.Status.Archived)
	assert.True(t, cfg.Notifications.Email.Attach)
	assert.Equal(t, "alertas_180.csv", cfg.Output.AlertFiles["alerta_180"])
	assert.False(t, cfg.Notifications.Email.Enabled())
}
