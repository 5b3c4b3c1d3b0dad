package scrollstack

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ErrInvalidPercent is returned when a percentage cannot be parsed into a finite number.
var ErrInvalidPercent = errors.New("invalid percentage")

// Percent is a fraction of the viewport height expressed in percent (10 means 10%).
type Percent float64

// ParsePercent accepts "10%", "10", " 12.5 % " and rejects anything that is not a finite number.
func ParsePercent(s string) (Percent, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	if raw == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPercent, s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPercent, s)
	}
	return Percent(v), nil
}

// MustPercent is ParsePercent for constants. It panics on invalid input.
func MustPercent(s string) Percent {
	p, err := ParsePercent(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Of converts the percentage into pixels (or rows) of total.
func (p Percent) Of(total float64) float64 {
	return float64(p) / 100 * total
}

func (p Percent) String() string {
	return strconv.FormatFloat(float64(p), 'f', -1, 64) + "%"
}

// Config is the immutable configuration of a stack.
type Config struct {
	// ItemDistance is the scroll runway per item, in percent of the viewport height.
	ItemDistance float64 `mapstructure:"item_distance" yaml:"item_distance"`
	// ItemScale is the maximum fractional shrink applied to a settled item.
	ItemScale float64 `mapstructure:"item_scale" yaml:"item_scale"`
	// ItemStackDistance is the offset applied per stacked item so stacked items peek out.
	ItemStackDistance float64 `mapstructure:"item_stack_distance" yaml:"item_stack_distance"`
	// ItemDimming is the opacity lost by an item once the next one fully covers it.
	ItemDimming float64 `mapstructure:"item_dimming" yaml:"item_dimming"`
	// StackPosition is where pinning starts, measured from the top of the viewport.
	StackPosition Percent `mapstructure:"stack_position" yaml:"stack_position"`
	// ScaleEndPosition is where scaling of the covered item completes.
	ScaleEndPosition Percent `mapstructure:"scale_end_position" yaml:"scale_end_position"`
	// BaseScale is the floor below which an item never shrinks.
	BaseScale float64 `mapstructure:"base_scale" yaml:"base_scale"`
	// UseWindowScroll selects the whole viewport as scroll context instead of a container.
	// The engine never reads it: the host picks the ScrollContext it passes to New and measures
	// Anchor tops against it. A terminal has a single scroll surface, so the preview deck
	// lays out the same either way.
	UseWindowScroll bool `mapstructure:"use_window_scroll" yaml:"use_window_scroll"`
	// SmoothScroll enables the inertial smooth-scroll driver.
	SmoothScroll bool `mapstructure:"smooth_scroll" yaml:"smooth_scroll"`
	// SmoothDuration is how long the driver takes to catch up with a new scroll target.
	SmoothDuration time.Duration `mapstructure:"smooth_duration" yaml:"smooth_duration"`
}

// DefaultConfig returns the stock stack configuration.
func DefaultConfig() Config {
	return Config{
		ItemDistance:      40,
		ItemScale:         0.05,
		ItemStackDistance: 20,
		ItemDimming:       0.4,
		StackPosition:     10,
		ScaleEndPosition:  60,
		BaseScale:         0.88,
		SmoothDuration:    1200 * time.Millisecond,
	}
}

// Runway returns the total scroll length needed by n items in a viewport of the given height.
func (c Config) Runway(n int, viewport float64) float64 {
	return float64(n) * c.ItemDistance / 100 * viewport
}

// ParseConfig decodes a generic map (typically the "stack" section of a YAML file) into a Config.
// Unspecified keys keep their defaults; unknown keys and malformed percentages are errors.
func ParseConfig(raw map[string]any) (Config, error) {
	cfg := DefaultConfig()
	if len(raw) == 0 {
		return cfg, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			percentHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, fmt.Errorf("stack config: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("stack config: %w", err)
	}

	for name, v := range map[string]float64{
		"item_distance":       cfg.ItemDistance,
		"item_scale":          cfg.ItemScale,
		"item_stack_distance": cfg.ItemStackDistance,
		"item_dimming":        cfg.ItemDimming,
		"base_scale":          cfg.BaseScale,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Config{}, fmt.Errorf("stack config: %s must be a finite number", name)
		}
	}
	return cfg, nil
}

var percentType = reflect.TypeOf(Percent(0))

func percentHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != percentType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return ParsePercent(v)
	case float64:
		return Percent(v), nil
	case int:
		return Percent(v), nil
	}
	return data, nil
}
