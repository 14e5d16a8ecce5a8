// Package scenario loads and runs scripted toast sessions described in YAML.
//
// A scenario is a list of steps executed against a fresh toast.Service.
// Steps produce and dismiss toasts, move time forward, emit application
// events, and assert on the active list:
//
//	name: save then expire
//	steps:
//	  - show: { as: saved, kind: success, message: Saved }
//	  - wait: 5s
//	  - expect: { count: 0, retired: { saved: expired } }
package scenario

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/toast/internal/core/config"
	"github.com/colonyops/toast/internal/core/eventbus"
	"github.com/colonyops/toast/internal/core/notify"
	"github.com/colonyops/toast/internal/core/validate"
)

// Scenario is one scripted session.
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Toasts      *Overrides `yaml:"toasts"`
	Steps       []Step     `yaml:"steps"`

	// File is the path the scenario was loaded from, if any.
	File string `yaml:"-"`
}

// Overrides adjusts the toast configuration for a single scenario.
type Overrides struct {
	DefaultDuration time.Duration `yaml:"default_duration"`
	MaxActive       *int          `yaml:"max_active"`
}

// Step performs exactly one operation.
type Step struct {
	Show       *ShowStep     `yaml:"show,omitempty"`
	Dismiss    string        `yaml:"dismiss,omitempty"`
	DismissAll bool          `yaml:"dismiss_all,omitempty"`
	Wait       time.Duration `yaml:"wait,omitempty"`
	Emit       *EmitStep     `yaml:"emit,omitempty"`
	Expect     *Expect       `yaml:"expect,omitempty"`
}

// ShowStep enqueues a toast. Duration nil means the configured default;
// Persistent keeps the toast until it is dismissed.
type ShowStep struct {
	As          string         `yaml:"as"`
	Kind        string         `yaml:"kind"`
	Message     string         `yaml:"message"`
	Description string         `yaml:"description"`
	Duration    *time.Duration `yaml:"duration"`
	Persistent  bool           `yaml:"persistent"`
	Action      string         `yaml:"action"`
}

// EmitStep publishes an application event and delivers it before the next
// step. As names the newest toast the event produced.
type EmitStep struct {
	Event string            `yaml:"event"`
	Attrs map[string]string `yaml:"attrs"`
	As    string            `yaml:"as"`
}

// Expect asserts on the current state. Unset fields are not checked.
// Entries in Active match a toast by alias or by message.
type Expect struct {
	Active     []string          `yaml:"active"`
	Count      *int              `yaml:"count"`
	Broadcasts *int              `yaml:"broadcasts"`
	Retired    map[string]string `yaml:"retired"`
}

// Op names the operation a step performs.
func (s Step) Op() string {
	ops := s.ops()
	if len(ops) != 1 {
		return "invalid"
	}
	return ops[0]
}

func (s Step) ops() []string {
	var ops []string
	if s.Show != nil {
		ops = append(ops, "show")
	}
	if s.Dismiss != "" {
		ops = append(ops, "dismiss")
	}
	if s.DismissAll {
		ops = append(ops, "dismiss_all")
	}
	if s.Wait != 0 {
		ops = append(ops, "wait")
	}
	if s.Emit != nil {
		ops = append(ops, "emit")
	}
	if s.Expect != nil {
		ops = append(ops, "expect")
	}
	return ops
}

// Apply returns base with the scenario's overrides applied.
func (o *Overrides) Apply(base config.ToastsConfig) config.ToastsConfig {
	if o == nil {
		return base
	}
	if o.DefaultDuration > 0 {
		base.DefaultDuration = o.DefaultDuration
	}
	if o.MaxActive != nil {
		base.MaxActive = *o.MaxActive
	}
	return base
}

var retireReasons = []notify.Reason{
	notify.ReasonExpired,
	notify.ReasonDismissed,
	notify.ReasonEvicted,
	notify.ReasonCleared,
}

// Validate checks the scenario without running it. Aliases must be defined
// by an earlier step before they are referenced.
func (sc *Scenario) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if err := validate.Required(sc.Name); err != nil {
		errs = errs.Append("name", err)
	}
	if len(sc.Steps) == 0 {
		errs = errs.Append("steps", fmt.Errorf("at least one step is required"))
	}
	if sc.Toasts != nil {
		if sc.Toasts.DefaultDuration < 0 {
			errs = errs.Append("toasts.default_duration", fmt.Errorf("cannot be negative"))
		}
		if sc.Toasts.MaxActive != nil && *sc.Toasts.MaxActive < 0 {
			errs = errs.Append("toasts.max_active", fmt.Errorf("cannot be negative"))
		}
	}

	aliases := map[string]bool{}
	define := func(field, alias string) {
		if alias == "" {
			return
		}
		if aliases[alias] {
			errs = errs.Append(field, fmt.Errorf("alias %q already defined", alias))
		}
		aliases[alias] = true
	}
	known := func(field, alias string) {
		if !aliases[alias] {
			errs = errs.Append(field, fmt.Errorf("unknown alias %q", alias))
		}
	}

	for i, step := range sc.Steps {
		field := fmt.Sprintf("steps[%d]", i+1)

		ops := step.ops()
		switch len(ops) {
		case 0:
			errs = errs.Append(field, fmt.Errorf("step has no operation"))
			continue
		case 1:
		default:
			errs = errs.Append(field, fmt.Errorf("step has several operations: %s", strings.Join(ops, ", ")))
			continue
		}

		switch {
		case step.Show != nil:
			show := step.Show
			if err := validate.Required(show.Message); err != nil {
				errs = errs.Append(field+".show.message", err)
			}
			if show.Kind != "" {
				if _, err := notify.ParseKind(show.Kind); err != nil {
					errs = errs.Append(field+".show.kind", err)
				}
			}
			if show.Duration != nil && *show.Duration < 0 {
				errs = errs.Append(field+".show.duration", fmt.Errorf("cannot be negative"))
			}
			if show.Persistent && show.Duration != nil && *show.Duration > 0 {
				errs = errs.Append(field+".show.persistent", fmt.Errorf("conflicts with duration"))
			}
			define(field+".show.as", show.As)

		case step.Dismiss != "":
			known(field+".dismiss", step.Dismiss)

		case step.Wait != 0:
			if step.Wait < 0 {
				errs = errs.Append(field+".wait", fmt.Errorf("cannot be negative"))
			}

		case step.Emit != nil:
			if !slices.Contains(eventbus.EventNames(), step.Emit.Event) {
				errs = errs.Append(field+".emit.event",
					fmt.Errorf("unknown event %q, available: %s", step.Emit.Event, strings.Join(eventbus.EventNames(), ", ")))
			}
			define(field+".emit.as", step.Emit.As)

		case step.Expect != nil:
			exp := step.Expect
			if exp.Count != nil && *exp.Count < 0 {
				errs = errs.Append(field+".expect.count", fmt.Errorf("cannot be negative"))
			}
			if exp.Count != nil && exp.Active != nil && *exp.Count != len(exp.Active) {
				errs = errs.Append(field+".expect.count", fmt.Errorf("disagrees with active (%d entries)", len(exp.Active)))
			}
			for alias, reason := range exp.Retired {
				known(field+".expect.retired", alias)
				if !slices.Contains(retireReasons, notify.Reason(reason)) {
					errs = errs.Append(field+".expect.retired."+alias, fmt.Errorf("unknown reason %q", reason))
				}
			}
		}
	}

	return errs.ToError()
}
