package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExampleConfigPath is the checked-in example configuration.
const ExampleConfigPath = "config/spacegraph.example.json"

// Known sink names accepted in "sinks".
const (
	SinkTerm = "term"
	SinkPNG  = "png"
	SinkHTML = "html"
	SinkLog  = "log"
)

// KnownSinks lists every accepted sink name in display order.
var KnownSinks = []string{SinkTerm, SinkPNG, SinkHTML, SinkLog}

// MonitorConfig is the optional JSON configuration for a monitor run.
// All fields are pointers so an omitted field keeps its default and the
// command line can tell "unset" apart from "zero".
type MonitorConfig struct {
	Path          *string `json:"path,omitempty"`
	ExpectedCount *int    `json:"expected_count,omitempty"`
	PollInterval  *string `json:"poll_interval,omitempty"` // duration string like "1s"

	// View window
	XMin *float64 `json:"x_min,omitempty"`
	XMax *float64 `json:"x_max,omitempty"`
	YMin *float64 `json:"y_min,omitempty"`
	YMax *float64 `json:"y_max,omitempty"`

	// Output
	Sinks          []string `json:"sinks,omitempty"`
	OutputDir      *string  `json:"output_dir,omitempty"`
	RefreshSeconds *int     `json:"refresh_seconds,omitempty"` // html only

	Notify        *bool `json:"notify,omitempty"`
	SkipWarnAfter *int  `json:"skip_warn_after,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyMonitorConfig returns a MonitorConfig with every field unset.
func EmptyMonitorConfig() *MonitorConfig {
	return &MonitorConfig{}
}

// DefaultMonitorConfig returns a MonitorConfig with every defaulted field
// populated. Path and ExpectedCount have no default.
func DefaultMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		PollInterval:   ptrString("1s"),
		XMin:           ptrFloat64(-20000),
		XMax:           ptrFloat64(20000),
		YMin:           ptrFloat64(-20000),
		YMax:           ptrFloat64(20000),
		Sinks:          []string{SinkTerm},
		OutputDir:      ptrString("."),
		RefreshSeconds: ptrInt(1),
		Notify:         ptrBool(false),
		SkipWarnAfter:  ptrInt(0),
	}
}

// LoadMonitorConfig loads a MonitorConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Unknown fields are
// rejected so a typo does not silently fall back to a default.
func LoadMonitorConfig(path string) (*MonitorConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg := EmptyMonitorConfig()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set. Bounds are checked pairwise using
// defaults for the missing side.
func (c *MonitorConfig) Validate() error {
	if c.ExpectedCount != nil && *c.ExpectedCount <= 0 {
		return fmt.Errorf("expected_count must be positive, got %d", *c.ExpectedCount)
	}

	if c.PollInterval != nil && *c.PollInterval != "" {
		d, err := time.ParseDuration(*c.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll_interval '%s': %w", *c.PollInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("poll_interval must be positive, got %s", *c.PollInterval)
		}
	}

	if c.GetXMin() >= c.GetXMax() {
		return fmt.Errorf("x_min (%g) must be less than x_max (%g)", c.GetXMin(), c.GetXMax())
	}
	if c.GetYMin() >= c.GetYMax() {
		return fmt.Errorf("y_min (%g) must be less than y_max (%g)", c.GetYMin(), c.GetYMax())
	}

	if _, err := ParseSinks(c.Sinks); err != nil {
		return err
	}

	if c.RefreshSeconds != nil && *c.RefreshSeconds < 0 {
		return fmt.Errorf("refresh_seconds must be non-negative, got %d", *c.RefreshSeconds)
	}
	if c.SkipWarnAfter != nil && *c.SkipWarnAfter < 0 {
		return fmt.Errorf("skip_warn_after must be non-negative, got %d", *c.SkipWarnAfter)
	}
	return nil
}

// ParseSinks normalises a list of sink names: entries may themselves be
// comma separated, names are case-insensitive, and duplicates are dropped.
// An empty list yields the default sink.
func ParseSinks(names []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, entry := range names {
		for _, name := range strings.Split(entry, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			if !isKnownSink(name) {
				return nil, fmt.Errorf("unknown sink %q (want one of %s)", name, strings.Join(KnownSinks, ", "))
			}
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	if len(out) == 0 {
		out = []string{SinkTerm}
	}
	return out, nil
}

func isKnownSink(name string) bool {
	for _, k := range KnownSinks {
		if k == name {
			return true
		}
	}
	return false
}

// GetPath returns the monitored path, or "" when unset.
func (c *MonitorConfig) GetPath() string {
	if c.Path == nil {
		return ""
	}
	return *c.Path
}

// GetExpectedCount returns the expected line count, or 0 when unset.
func (c *MonitorConfig) GetExpectedCount() int {
	if c.ExpectedCount == nil {
		return 0
	}
	return *c.ExpectedCount
}

// GetPollInterval parses and returns PollInterval as a time.Duration.
func (c *MonitorConfig) GetPollInterval() time.Duration {
	if c.PollInterval == nil || *c.PollInterval == "" {
		return time.Second // default
	}
	d, err := time.ParseDuration(*c.PollInterval)
	if err != nil || d <= 0 {
		return time.Second // default on parse error
	}
	return d
}

func (c *MonitorConfig) GetXMin() float64 { return floatOr(c.XMin, -20000) }
func (c *MonitorConfig) GetXMax() float64 { return floatOr(c.XMax, 20000) }
func (c *MonitorConfig) GetYMin() float64 { return floatOr(c.YMin, -20000) }
func (c *MonitorConfig) GetYMax() float64 { return floatOr(c.YMax, 20000) }

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// GetSinks returns the normalised sink list, falling back to the default on
// invalid input. Call Validate first to surface the error.
func (c *MonitorConfig) GetSinks() []string {
	sinks, err := ParseSinks(c.Sinks)
	if err != nil {
		return []string{SinkTerm}
	}
	return sinks
}

// GetOutputDir returns the output directory for file sinks.
func (c *MonitorConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "."
	}
	return *c.OutputDir
}

// GetRefreshSeconds returns the HTML auto-refresh period.
func (c *MonitorConfig) GetRefreshSeconds() int {
	if c.RefreshSeconds == nil {
		return 1
	}
	return *c.RefreshSeconds
}

// GetNotify reports whether filesystem notifications are enabled.
func (c *MonitorConfig) GetNotify() bool {
	if c.Notify == nil {
		return false // default: polling only
	}
	return *c.Notify
}

// GetSkipWarnAfter returns the consecutive-skip warning threshold.
func (c *MonitorConfig) GetSkipWarnAfter() int {
	if c.SkipWarnAfter == nil {
		return 0 // default: never warn
	}
	return *c.SkipWarnAfter
}
