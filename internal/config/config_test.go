package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(dataDir, "nope.yaml"), dataDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dataDir, "foreman.db"), cfg.Database.Path)
	assert.Equal(t, filepath.Join(dataDir, "foreman.log"), cfg.Log.File)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5000, cfg.Database.BusyTimeoutMS)
	assert.Equal(t, 3, cfg.Database.BusyRetries)

	settings := cfg.Settings()
	assert.True(t, decimal.NewFromInt(725).Equal(settings.Policy.PartTimeWeeklyRate))
	assert.True(t, decimal.NewFromInt(1450).Equal(settings.Policy.FullTimeWeeklyRate))
	assert.Equal(t, "18.5", settings.Policy.DefaultGeneralConditionsPct.String())
	assert.Equal(t, "PRO", settings.Numbering.Proposal)
	assert.False(t, settings.RejectNegativeAmounts)
}

func TestLoad_FileOverridesAndKeepsOtherDefaults(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	path := writeConfig(t, `
database:
  path: /tmp/site.db
  busy_retries: 5
log:
  level: debug
pricing:
  full_time_weekly_rate: "1600"
  reject_negative_amounts: true
numbering:
  invoice_prefix: BILL
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/site.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.Database.BusyRetries)
	assert.Equal(t, 5000, cfg.Database.BusyTimeoutMS)
	assert.Equal(t, "debug", cfg.Log.Level)

	settings := cfg.Settings()
	assert.True(t, decimal.NewFromInt(1600).Equal(settings.Policy.FullTimeWeeklyRate))
	assert.True(t, decimal.NewFromInt(725).Equal(settings.Policy.PartTimeWeeklyRate))
	assert.True(t, settings.RejectNegativeAmounts)
	assert.Equal(t, "BILL", settings.Numbering.Invoice)
	assert.Equal(t, "PRJ", settings.Numbering.Project)
}

func TestLoad_EnvOverridesDatabasePath(t *testing.T) {
	t.Setenv(EnvDBPath, "/var/lib/foreman/env.db")
	path := writeConfig(t, "database:\n  path: /tmp/file.db\n")

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/foreman/env.db", cfg.Database.Path)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "pricing: [unclosed")

	_, err := Load(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate_FieldErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Path = "/tmp/x.db"
	cfg.Log.Level = "loud"
	cfg.Pricing.PartTimeWeeklyRate = "-5"
	cfg.Pricing.DefaultGeneralConditionsPct = "120"
	cfg.Database.BusyRetries = 50

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	var fields []string
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{
		"database.busy_retries",
		"log.level",
		"pricing.part_time_weekly_rate",
		"pricing.default_general_conditions_pct",
	}, fields)
}

func TestValidate_NumberingPrefixes(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*NumberingConfig)
		wantField string
		wantErr   string
	}{
		{name: "defaults are valid"},
		{
			name:      "lower case",
			mutate:    func(n *NumberingConfig) { n.ProposalPrefix = "pro" },
			wantField: "numbering.proposal_prefix",
			wantErr:   "upper-case",
		},
		{
			name:      "duplicate",
			mutate:    func(n *NumberingConfig) { n.ChangeOrderPrefix = "INV" },
			wantField: "numbering.change_order_prefix",
			wantErr:   "already used by numbering.invoice_prefix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Database.Path = "/tmp/x.db"
			if tt.mutate != nil {
				tt.mutate(&cfg.Numbering)
			}

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			require.Len(t, fieldErrs, 1)
			assert.Equal(t, tt.wantField, fieldErrs[0].Field)
			assert.Contains(t, fieldErrs[0].Err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultPath_EnvWins(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/foreman.yaml")
	assert.Equal(t, "/etc/foreman.yaml", DefaultPath("/home/x/.foreman"))

	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, filepath.Join("/home/x/.foreman", "config.yaml"), DefaultPath("/home/x/.foreman"))
}
