package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownOption is returned by Set for keys that are not options.
var ErrUnknownOption = errors.New("unrecognized option")

// RegisterFlags defines one flag per option on fs, named like the TOML key and
// defaulting to c's current values.
func RegisterFlags(fs *flag.FlagSet, c *Config) {
	fs.Int64Var(&c.WindowSize, "window_size", c.WindowSize, "Window size, in window_unit units.")
	fs.Int64Var(&c.WindowStep, "window_step", c.WindowStep, "Distance between window starts. 0 means window_size (non-overlapping windows).")
	fs.StringVar(&c.WindowUnit, "window_unit", c.WindowUnit, "What window_size and window_step count: 'variant' or 'coordinate' (base pairs).")
	fs.StringVar(&c.WindowStartPosition, "window_start_position", c.WindowStartPosition, "Where tiling starts: 'contig' (first variant of each contig) or 'global' (coordinate 0).")
	fs.StringVar(&c.ExplicitWindows, "explicit_windows", c.ExplicitWindows, "Path to a file of contig/start/stop intervals. Mutually exclusive with window_size and window_step.")
	fs.BoolVar(&c.MergePartialTrailingWindow, "merge_partial_trailing_window", c.MergePartialTrailingWindow, "Fold a partial last window on each contig into the window before it.")
	fs.BoolVar(&c.DropPartialTrailingWindow, "drop_partial_trailing_window", c.DropPartialTrailingWindow, "Drop partial windows at the end of each contig.")
	fs.Var((*contigList)(&c.Contigs), "contigs", "Comma-separated contigs to window. Default: all.")
	fs.IntVar(&c.ChunkSize, "chunk_size", c.ChunkSize, "Storage chunk size, in variants.")
	fs.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "Maximum parallel chunk reads and reductions. 0 means one per CPU.")
	fs.StringVar(&c.Reduction, "reduction", c.Reduction, "Per-window statistic.")
	fs.Float64Var(&c.HWECutoff, "hwe_cutoff", c.HWECutoff, "P value below which a variant fails the Hardy-Weinberg test.")
}

// Set assigns one option by its TOML key.
func (c *Config) Set(key, value string) error {
	var err error
	switch key {
	case "window_size":
		c.WindowSize, err = strconv.ParseInt(value, 10, 64)
	case "window_step":
		c.WindowStep, err = strconv.ParseInt(value, 10, 64)
	case "window_unit":
		c.WindowUnit = value
	case "window_start_position":
		c.WindowStartPosition = value
	case "explicit_windows":
		c.ExplicitWindows = value
	case "merge_partial_trailing_window":
		c.MergePartialTrailingWindow, err = strconv.ParseBool(value)
	case "drop_partial_trailing_window":
		c.DropPartialTrailingWindow, err = strconv.ParseBool(value)
	case "contigs":
		err = (*contigList)(&c.Contigs).Set(value)
	case "chunk_size":
		c.ChunkSize, err = strconv.Atoi(value)
	case "concurrency":
		c.Concurrency, err = strconv.Atoi(value)
	case "reduction":
		c.Reduction = value
	case "hwe_cutoff":
		c.HWECutoff, err = strconv.ParseFloat(value, 64)
	default:
		return fmt.Errorf("%w %q", ErrUnknownOption, key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Overlay loads the TOML file at path and then re-applies every option flag
// that was set on fs, so that the command line wins over the file. Flags that
// are not options are ignored.
func Overlay(fs *flag.FlagSet, path string) (Config, error) {
	c, err := Load(path)
	if err != nil {
		return c, err
	}

	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		if setErr := c.Set(f.Name, f.Value.String()); setErr != nil && !errors.Is(setErr, ErrUnknownOption) {
			err = setErr
		}
	})

	return c, err
}

type contigList []string

func (l *contigList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *contigList) Set(value string) error {
	*l = nil
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*l = append(*l, name)
		}
	}
	return nil
}
