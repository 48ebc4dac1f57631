// Package config holds the options recognized by the windowing tools, read
// from a TOML file and/or command line flags.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/carbocation/genowindow/window"
	"github.com/carbocation/pfx"
)

type Config struct {
	WindowSize          int64  `toml:"window_size"`
	WindowStep          int64  `toml:"window_step"`
	WindowUnit          string `toml:"window_unit"`
	WindowStartPosition string `toml:"window_start_position"`

	// ExplicitWindows is the path of an interval file. It cannot be combined
	// with WindowSize or WindowStep.
	ExplicitWindows string `toml:"explicit_windows"`

	MergePartialTrailingWindow bool `toml:"merge_partial_trailing_window"`
	DropPartialTrailingWindow  bool `toml:"drop_partial_trailing_window"`

	Contigs []string `toml:"contigs"`

	// ChunkSize is the storage chunking, in variants, for inputs that do not
	// carry their own.
	ChunkSize   int `toml:"chunk_size"`
	Concurrency int `toml:"concurrency"`

	Reduction string  `toml:"reduction"`
	HWECutoff float64 `toml:"hwe_cutoff"`
}

// Default returns the configuration used when no file or flag says otherwise.
func Default() Config {
	return Config{
		WindowUnit:          window.UnitVariant.String(),
		WindowStartPosition: window.StartContig.String(),
		ChunkSize:           10000,
		Reduction:           "sum",
		HWECutoff:           1e-6,
	}
}

// Load decodes the TOML file at path over Default(). Unknown keys are an
// error so that misspelled options do not go unnoticed.
func Load(path string) (Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return c, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	if err := undecoded(md); err != nil {
		return c, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	return c, nil
}

// Decode is Load for TOML text.
func Decode(data string) (Config, error) {
	c := Default()
	md, err := toml.Decode(data, &c)
	if err != nil {
		return c, err
	}
	return c, undecoded(md)
}

func undecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	sort.Strings(names)
	return fmt.Errorf("unrecognized options: %s", strings.Join(names, ", "))
}

// Explicit reports whether the configuration asks for explicit windows.
func (c Config) Explicit() bool {
	return c.ExplicitWindows != ""
}

// Trailing maps the two trailing window flags to a policy.
func (c Config) Trailing() (window.Trailing, error) {
	switch {
	case c.MergePartialTrailingWindow && c.DropPartialTrailingWindow:
		return 0, fmt.Errorf("%w: merge_partial_trailing_window and drop_partial_trailing_window are mutually exclusive", window.ErrInvalidWindowSpec)
	case c.MergePartialTrailingWindow:
		return window.TrailingMerge, nil
	case c.DropPartialTrailingWindow:
		return window.TrailingDrop, nil
	}
	return window.TrailingKeep, nil
}

// Spec builds the window specification. intervals must hold the parsed
// contents of ExplicitWindows when Explicit() is true and is ignored
// otherwise. A zero window_step means non-overlapping windows.
func (c Config) Spec(intervals []window.Interval) (window.Spec, error) {
	if c.Explicit() {
		if c.WindowSize != 0 || c.WindowStep != 0 {
			return window.Spec{}, fmt.Errorf("%w: explicit_windows is mutually exclusive with window_size and window_step", window.ErrInvalidWindowSpec)
		}
		if c.MergePartialTrailingWindow || c.DropPartialTrailingWindow {
			return window.Spec{}, fmt.Errorf("%w: trailing window options do not apply to explicit_windows", window.ErrInvalidWindowSpec)
		}
		if len(c.Contigs) > 0 {
			return window.Spec{}, fmt.Errorf("%w: contigs does not apply to explicit_windows", window.ErrInvalidWindowSpec)
		}
		if intervals == nil {
			intervals = []window.Interval{}
		}
		return window.Spec{Explicit: intervals}, nil
	}

	unit, err := window.ParseUnit(c.WindowUnit)
	if err != nil {
		return window.Spec{}, err
	}
	start, err := window.ParseStart(c.WindowStartPosition)
	if err != nil {
		return window.Spec{}, err
	}
	trailing, err := c.Trailing()
	if err != nil {
		return window.Spec{}, err
	}

	step := c.WindowStep
	if step == 0 {
		step = c.WindowSize
	}

	spec := window.Spec{
		Size:     c.WindowSize,
		Step:     step,
		Unit:     unit,
		Start:    start,
		Trailing: trailing,
		Contigs:  c.Contigs,
	}
	return spec, spec.Validate()
}
