// Package config holds the assembler core's tuning parameters as a single
// immutable value threaded through component calls, rather than mutable
// process-wide globals, so tests can substitute alternate configurations
// without locking (per the teacher's convention of passing an Opts struct
// into each stage, e.g. markduplicates.Opts, pileup/snp.Opts).
package config

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Tunables holds every recognized setting from spec §6, with its default.
type Tunables struct {
	ReadsMinLen              uint32
	ReadLenThreshold         uint32
	MaxReadsInTip            uint32
	MaxDepthWithoutExtraFork uint32
	MaxNodes                 int
	MaxDifference            float64
	MaxBranches              int
	MaxStartNodes            int
	LengthThreshold          float64
	QualityThreshold         float64
	OverlapMaxAbsErrate      float64

	// TransitiveEpsilon and TransitiveAlpha parametrize the transitive-edge
	// hang tolerance ε·length(o1) + α from spec §4.4; the spec gives their
	// defaults in prose rather than the settings-file table, so they are
	// listed separately.
	TransitiveEpsilon float64
	TransitiveAlpha   float64
}

// Default returns the tunables with every spec-mandated default value.
func Default() Tunables {
	return Tunables{
		ReadsMinLen:              3000,
		ReadLenThreshold:         100000,
		MaxReadsInTip:            2,
		MaxDepthWithoutExtraFork: 5,
		MaxNodes:                 160,
		MaxDifference:            0.25,
		MaxBranches:              18,
		MaxStartNodes:            100,
		LengthThreshold:          0.05,
		QualityThreshold:         0.2,
		OverlapMaxAbsErrate:      0.4,
		TransitiveEpsilon:        0.15,
		TransitiveAlpha:          3,
	}
}

var setters = map[string]func(*Tunables, string) error{
	"READS_MIN_LEN":                 setUint32(func(t *Tunables) *uint32 { return &t.ReadsMinLen }),
	"READ_LEN_THRESHOLD":            setUint32(func(t *Tunables) *uint32 { return &t.ReadLenThreshold }),
	"MAX_READS_IN_TIP":              setUint32(func(t *Tunables) *uint32 { return &t.MaxReadsInTip }),
	"MAX_DEPTH_WITHOUT_EXTRA_FORK":  setUint32(func(t *Tunables) *uint32 { return &t.MaxDepthWithoutExtraFork }),
	"MAX_NODES":                     setInt(func(t *Tunables) *int { return &t.MaxNodes }),
	"MAX_DIFFERENCE":                setFloat(func(t *Tunables) *float64 { return &t.MaxDifference }),
	"MAX_BRANCHES":                  setInt(func(t *Tunables) *int { return &t.MaxBranches }),
	"MAX_START_NODES":               setInt(func(t *Tunables) *int { return &t.MaxStartNodes }),
	"LENGTH_THRESHOLD":              setFloat(func(t *Tunables) *float64 { return &t.LengthThreshold }),
	"QUALITY_THRESHOLD":             setFloat(func(t *Tunables) *float64 { return &t.QualityThreshold }),
	"overlap.max_abs_errate":        setFloat(func(t *Tunables) *float64 { return &t.OverlapMaxAbsErrate }),
}

func setUint32(field func(*Tunables) *uint32) func(*Tunables, string) error {
	return func(t *Tunables, v string) error {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return err
		}
		*field(t) = uint32(n)
		return nil
	}
}

func setInt(field func(*Tunables) *int) func(*Tunables, string) error {
	return func(t *Tunables, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(t) = n
		return nil
	}
}

func setFloat(field func(*Tunables) *float64) func(*Tunables, string) error {
	return func(t *Tunables, v string) error {
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		*field(t) = n
		return nil
	}
}

// Parse reads a key:value settings file (one setting per line, blank lines
// and lines starting with '#' ignored) on top of Default(). Unrecognized
// keys are logged at info level and skipped, matching spec §7's "non-fatal
// skips are logged at info level"; a malformed value for a recognized key is
// a fatal parse error, since a silently-ignored tunable would change
// assembly behavior without the caller noticing.
func Parse(r io.Reader) (Tunables, error) {
	t := Default()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			return t, errors.Errorf("config: line %d: missing ':' in %q", lineNo, line)
		}
		key := strings.TrimSpace(line[:idx])
		val := line[idx+1:]
		set, ok := setters[key]
		if !ok {
			log.Printf("config: line %d: ignoring unrecognized setting %q", lineNo, key)
			continue
		}
		if err := set(&t, val); err != nil {
			return t, errors.Wrapf(err, "config: line %d: invalid value for %q", lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return t, errors.Wrap(err, "config: reading settings file")
	}
	return t, nil
}
