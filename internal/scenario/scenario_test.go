package scenario

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/toast/internal/core/config"
)

func TestStep_Op(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{Step{Show: &ShowStep{Message: "m"}}, "show"},
		{Step{Dismiss: "a"}, "dismiss"},
		{Step{DismissAll: true}, "dismiss_all"},
		{Step{Wait: time.Second}, "wait"},
		{Step{Emit: &EmitStep{Event: "task.created"}}, "emit"},
		{Step{Expect: &Expect{}}, "expect"},
		{Step{}, "invalid"},
		{Step{Dismiss: "a", DismissAll: true}, "invalid"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.step.Op())
	}
}

func TestOverrides_Apply(t *testing.T) {
	base := config.DefaultConfig().Toasts

	var none *Overrides
	assert.Equal(t, base, none.Apply(base))

	three := 3
	got := (&Overrides{DefaultDuration: time.Second, MaxActive: &three}).Apply(base)
	assert.Equal(t, time.Second, got.DefaultDuration)
	assert.Equal(t, 3, got.MaxActive)
	assert.Equal(t, base.IDPrefix, got.IDPrefix)
}

func TestScenario_Validate(t *testing.T) {
	neg := -1
	two := 2
	negDur := -time.Second
	dur := time.Second

	tests := []struct {
		name    string
		sc      Scenario
		wantErr []string
	}{
		{
			name: "valid",
			sc: Scenario{Name: "ok", Steps: []Step{
				{Show: &ShowStep{As: "a", Kind: "warning", Message: "hi"}},
				{Emit: &EmitStep{Event: "task.created", As: "b"}},
				{Dismiss: "a"},
				{Expect: &Expect{Active: []string{"b"}, Retired: map[string]string{"a": "dismissed"}}},
			}},
		},
		{
			name:    "missing name and steps",
			sc:      Scenario{},
			wantErr: []string{"name", "at least one step"},
		},
		{
			name:    "empty step",
			sc:      Scenario{Name: "x", Steps: []Step{{}}},
			wantErr: []string{"steps[1]", "no operation"},
		},
		{
			name:    "several operations",
			sc:      Scenario{Name: "x", Steps: []Step{{DismissAll: true, Wait: time.Second}}},
			wantErr: []string{"dismiss_all, wait"},
		},
		{
			name: "bad show",
			sc: Scenario{Name: "x", Steps: []Step{
				{Show: &ShowStep{Kind: "loud", Message: " ", Duration: &negDur}},
			}},
			wantErr: []string{"steps[1].show.message", "steps[1].show.kind", "steps[1].show.duration"},
		},
		{
			name: "persistent with duration",
			sc: Scenario{Name: "x", Steps: []Step{
				{Show: &ShowStep{Message: "m", Persistent: true, Duration: &dur}},
			}},
			wantErr: []string{"conflicts with duration"},
		},
		{
			name: "alias used before definition",
			sc: Scenario{Name: "x", Steps: []Step{
				{Dismiss: "later"},
				{Show: &ShowStep{As: "later", Message: "m"}},
			}},
			wantErr: []string{`unknown alias "later"`},
		},
		{
			name: "duplicate alias",
			sc: Scenario{Name: "x", Steps: []Step{
				{Show: &ShowStep{As: "a", Message: "m"}},
				{Show: &ShowStep{As: "a", Message: "m"}},
			}},
			wantErr: []string{`alias "a" already defined`},
		},
		{
			name:    "unknown event",
			sc:      Scenario{Name: "x", Steps: []Step{{Emit: &EmitStep{Event: "task.exploded"}}}},
			wantErr: []string{`unknown event "task.exploded"`, "task.created"},
		},
		{
			name: "bad expectations",
			sc: Scenario{Name: "x", Steps: []Step{
				{Show: &ShowStep{As: "a", Message: "m"}},
				{Expect: &Expect{
					Count:   &two,
					Active:  []string{"a"},
					Retired: map[string]string{"a": "vanished"},
				}},
				{Expect: &Expect{Count: &neg}},
			}},
			wantErr: []string{"disagrees with active", `unknown reason "vanished"`, "steps[3].expect.count"},
		},
		{
			name: "negative overrides",
			sc: Scenario{
				Name:   "x",
				Toasts: &Overrides{DefaultDuration: -time.Second, MaxActive: &neg},
				Steps:  []Step{{DismissAll: true}},
			},
			wantErr: []string{"toasts.default_duration", "toasts.max_active"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sc.Validate()
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}
