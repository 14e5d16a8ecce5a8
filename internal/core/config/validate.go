package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/toast/internal/core/styles"
	"github.com/colonyops/toast/internal/core/validate"
)

const (
	minToastWidth = 20

	// maxDefaultDuration bounds how long a timed toast may linger by default.
	maxDefaultDuration = time.Hour
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration
// including file accessibility and value ranges. The configPath argument
// specifies the config file location to validate (empty string skips the
// config file check). This calls Validate() first for basic structural
// validation.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		c.validateToasts(),
		c.validateTUI(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Toasts.MaxActive == 1 {
		warnings = append(warnings, ValidationWarning{
			Category: "Toasts",
			Item:     "max_active",
			Message:  "every new toast evicts the previous one",
		})
	}

	if c.Toasts.HistoryLimit == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Toasts",
			Item:     "history_limit",
			Message:  "retired toasts are not kept",
		})
	}

	return warnings
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func (c *Config) validateToasts() error {
	return criterio.ValidateStruct(
		criterio.Run("toasts.default_duration", c.Toasts.DefaultDuration, durationInRange),
		validate.IDPrefixField("toasts.id_prefix", c.Toasts.IDPrefix),
	)
}

func (c *Config) validateTUI() error {
	var errs criterio.FieldErrorsBuilder

	if _, ok := styles.GetPalette(c.TUI.Theme); !ok {
		errs = errs.Append("tui.theme", fmt.Errorf("unknown theme %q, available: %s", c.TUI.Theme, strings.Join(styles.ThemeNames(), ", ")))
	}

	return errs.ToError()
}

func durationInRange(d time.Duration) error {
	if d > maxDefaultDuration {
		return fmt.Errorf("must not exceed %s", maxDefaultDuration)
	}
	if d%time.Millisecond != 0 {
		return fmt.Errorf("must be a whole number of milliseconds")
	}
	return nil
}
