package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var prefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,7}$`)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("database.path", c.Database.Path, notEmpty),
		c.validateDatabase(),
		criterio.Run("log.level", c.Log.Level, validLevel),
		criterio.Run("pricing.part_time_weekly_rate", c.Pricing.PartTimeWeeklyRate, nonNegativeAmount),
		criterio.Run("pricing.full_time_weekly_rate", c.Pricing.FullTimeWeeklyRate, nonNegativeAmount),
		criterio.Run("pricing.default_general_conditions_pct", c.Pricing.DefaultGeneralConditionsPct, percentage),
		c.validateNumbering(),
	)
}

func (c *Config) validateDatabase() error {
	var errs criterio.FieldErrorsBuilder
	if c.Database.BusyTimeoutMS < 0 {
		errs = errs.Append("database.busy_timeout_ms", errors.New("cannot be negative"))
	}
	if c.Database.BusyRetries < 1 || c.Database.BusyRetries > 20 {
		errs = errs.Append("database.busy_retries", fmt.Errorf("%d must be between 1 and 20", c.Database.BusyRetries))
	}
	return errs.ToError()
}

func (c *Config) validateNumbering() error {
	var errs criterio.FieldErrorsBuilder
	seen := map[string]string{}
	for _, f := range []struct{ field, prefix string }{
		{"numbering.proposal_prefix", c.Numbering.ProposalPrefix},
		{"numbering.invoice_prefix", c.Numbering.InvoicePrefix},
		{"numbering.project_prefix", c.Numbering.ProjectPrefix},
		{"numbering.change_order_prefix", c.Numbering.ChangeOrderPrefix},
	} {
		field, prefix := f.field, f.prefix
		if !prefixPattern.MatchString(prefix) {
			errs = errs.Append(field, fmt.Errorf("%q must be 1-8 upper-case letters or digits", prefix))
			continue
		}
		if other, ok := seen[prefix]; ok {
			errs = errs.Append(field, fmt.Errorf("prefix %q is already used by %s", prefix, other))
			continue
		}
		seen[prefix] = field
	}
	return errs.ToError()
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func validLevel(s string) error {
	if _, err := zerolog.ParseLevel(s); err != nil {
		return fmt.Errorf("unknown level %q", s)
	}
	return nil
}

func nonNegativeAmount(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	if d.IsNegative() {
		return errors.New("cannot be negative")
	}
	return nil
}

func percentage(s string) error {
	if err := nonNegativeAmount(s); err != nil {
		return err
	}
	if decimal.RequireFromString(s).GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("cannot exceed 100")
	}
	return nil
}
