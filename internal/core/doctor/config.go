package doctor

import (
	"context"
	"errors"
	"os"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/toast/internal/core/config"
)

// ConfigCheck validates the loaded configuration and the file it came from.
type ConfigCheck struct {
	cfg  *config.Config
	path string
}

// NewConfigCheck creates a config check. path may be empty.
func NewConfigCheck(cfg *config.Config, path string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, path: path}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	switch _, err := os.Stat(c.path); {
	case c.path == "":
		result.Items = append(result.Items, CheckItem{Label: "Config file", Status: StatusPass, Detail: "using defaults"})
	case errors.Is(err, os.ErrNotExist):
		result.Items = append(result.Items, CheckItem{Label: "Config file", Status: StatusPass, Detail: "not found, using defaults"})
	default:
		result.Items = append(result.Items, CheckItem{Label: "Config file", Status: StatusPass, Detail: c.path})
	}

	if c.cfg == nil {
		result.Items = append(result.Items, CheckItem{Label: "Config values", Status: StatusFail, Detail: "configuration not loaded"})
		return result
	}

	if err := c.cfg.ValidateDeep(c.path); err != nil {
		var fieldErrs criterio.FieldErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result.Items = append(result.Items, CheckItem{Label: fe.Field, Status: StatusFail, Detail: fe.Err.Error()})
			}
		} else {
			result.Items = append(result.Items, CheckItem{Label: "Config values", Status: StatusFail, Detail: err.Error()})
		}
		return result
	}
	result.Items = append(result.Items, CheckItem{Label: "Config values", Status: StatusPass})

	for _, w := range c.cfg.Warnings() {
		result.Items = append(result.Items, CheckItem{
			Label:  "toasts." + w.Item,
			Status: StatusWarn,
			Detail: w.Message,
		})
	}

	return result
}
