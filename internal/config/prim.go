package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/prim/internal/dataset"
	"github.com/banshee-data/prim/internal/prim"
)

// DefaultConfigPath is the path to the canonical run defaults file.
const DefaultConfigPath = "config/prim.defaults.json"

// PrimConfig is the JSON run configuration: engine parameters plus the schema
// used to read the results file. Nil fields fall back to the Get* defaults, so
// partial files are safe.
type PrimConfig struct {
	// Engine params
	Objective     *string  `json:"objective,omitempty"`
	PeelAlpha     *float64 `json:"peel_alpha,omitempty"`
	PasteAlpha    *float64 `json:"paste_alpha,omitempty"`
	MassMin       *float64 `json:"mass_min,omitempty"`
	Threshold     *float64 `json:"threshold,omitempty"`
	ThresholdType *string  `json:"threshold_type,omitempty"` // "above" or "below"
	QuantileAlpha *float64 `json:"quantile_alpha,omitempty"`
	QuantileBeta  *float64 `json:"quantile_beta,omitempty"`
	MaxSteps      *int     `json:"max_steps,omitempty"`

	// Run params
	Boxes   *int    `json:"boxes,omitempty"`
	Outcome *string `json:"outcome,omitempty"`

	// Results schema
	Attributes []dataset.AttributeSpec `json:"attributes,omitempty"`
	Outcomes   []string                `json:"outcomes,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyPrimConfig returns a PrimConfig with all fields unset.
func EmptyPrimConfig() *PrimConfig {
	return &PrimConfig{}
}

// DefaultPrimConfig returns a config with every engine and run field set to
// its default.
func DefaultPrimConfig() *PrimConfig {
	d := prim.DefaultConfig()
	return &PrimConfig{
		Objective:     ptrString(d.Objective),
		PeelAlpha:     ptrFloat64(d.PeelAlpha),
		PasteAlpha:    ptrFloat64(d.PasteAlpha),
		MassMin:       ptrFloat64(d.MassMin),
		Threshold:     ptrFloat64(d.Threshold),
		ThresholdType: ptrString(d.ThresholdType.String()),
		QuantileAlpha: ptrFloat64(d.QuantileAlpha),
		QuantileBeta:  ptrFloat64(d.QuantileBeta),
		MaxSteps:      ptrInt(d.MaxSteps),
		Boxes:         ptrInt(1),
		Outcome:       ptrString("y"),
	}
}

// LoadPrimConfig loads a PrimConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadPrimConfig(path string) (*PrimConfig, error) {
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

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPrimConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended for
// test setup.
func MustLoadDefaultConfig() *PrimConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadPrimConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *PrimConfig) Validate() error {
	if c.PeelAlpha != nil && (*c.PeelAlpha <= 0 || *c.PeelAlpha >= 1) {
		return fmt.Errorf("peel_alpha must be between 0 and 1 (exclusive), got %f", *c.PeelAlpha)
	}
	if c.PasteAlpha != nil && (*c.PasteAlpha <= 0 || *c.PasteAlpha >= 1) {
		return fmt.Errorf("paste_alpha must be between 0 and 1 (exclusive), got %f", *c.PasteAlpha)
	}
	if c.MassMin != nil && (*c.MassMin <= 0 || *c.MassMin > 1) {
		return fmt.Errorf("mass_min must be in (0, 1], got %f", *c.MassMin)
	}
	if c.ThresholdType != nil {
		if _, err := ParseThresholdType(*c.ThresholdType); err != nil {
			return err
		}
	}
	if c.MaxSteps != nil && *c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", *c.MaxSteps)
	}
	if c.Boxes != nil && *c.Boxes < 1 {
		return fmt.Errorf("boxes must be at least 1, got %d", *c.Boxes)
	}
	for _, a := range c.Attributes {
		if a.Name == "" {
			return fmt.Errorf("attribute with empty name")
		}
		if _, err := dataset.ParseKind(a.Kind); err != nil {
			return fmt.Errorf("attribute %q: %w", a.Name, err)
		}
	}
	return nil
}

// ParseThresholdType maps "above" and "below" to the engine constants.
func ParseThresholdType(s string) (prim.ThresholdType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above":
		return prim.Above, nil
	case "below":
		return prim.Below, nil
	default:
		return 0, fmt.Errorf("threshold_type must be \"above\" or \"below\", got %q", s)
	}
}

// GetObjective returns the objective name or the default.
func (c *PrimConfig) GetObjective() string {
	if c.Objective == nil || *c.Objective == "" {
		return prim.DefaultObjective
	}
	return *c.Objective
}

// GetPeelAlpha returns the peel_alpha value or the default.
func (c *PrimConfig) GetPeelAlpha() float64 {
	if c.PeelAlpha == nil {
		return 0.05
	}
	return *c.PeelAlpha
}

// GetPasteAlpha returns the paste_alpha value or the default.
func (c *PrimConfig) GetPasteAlpha() float64 {
	if c.PasteAlpha == nil {
		return 0.05
	}
	return *c.PasteAlpha
}

// GetMassMin returns the mass_min value or the default.
func (c *PrimConfig) GetMassMin() float64 {
	if c.MassMin == nil {
		return 0.05
	}
	return *c.MassMin
}

// GetThreshold returns the threshold value or the default.
func (c *PrimConfig) GetThreshold() float64 {
	if c.Threshold == nil {
		return 1
	}
	return *c.Threshold
}

// GetThresholdType returns the parsed threshold_type, defaulting to above.
func (c *PrimConfig) GetThresholdType() prim.ThresholdType {
	if c.ThresholdType == nil {
		return prim.Above
	}
	t, err := ParseThresholdType(*c.ThresholdType)
	if err != nil {
		return prim.Above
	}
	return t
}

// GetQuantileAlpha returns the quantile_alpha value or the default.
func (c *PrimConfig) GetQuantileAlpha() float64 {
	if c.QuantileAlpha == nil {
		return prim.DefaultQuantileAlpha
	}
	return *c.QuantileAlpha
}

// GetQuantileBeta returns the quantile_beta value or the default.
func (c *PrimConfig) GetQuantileBeta() float64 {
	if c.QuantileBeta == nil {
		return prim.DefaultQuantileBeta
	}
	return *c.QuantileBeta
}

// GetMaxSteps returns the max_steps value or the default.
func (c *PrimConfig) GetMaxSteps() int {
	if c.MaxSteps == nil {
		return prim.DefaultMaxSteps
	}
	return *c.MaxSteps
}

// GetBoxes returns the number of boxes to search for.
func (c *PrimConfig) GetBoxes() int {
	if c.Boxes == nil {
		return 1
	}
	return *c.Boxes
}

// GetOutcome returns the outcome to classify by.
func (c *PrimConfig) GetOutcome() string {
	if c.Outcome == nil || *c.Outcome == "" {
		return "y"
	}
	return *c.Outcome
}

// EngineConfig converts the file settings into engine parameters.
func (c *PrimConfig) EngineConfig() prim.Config {
	return prim.Config{
		Objective:     c.GetObjective(),
		PeelAlpha:     c.GetPeelAlpha(),
		PasteAlpha:    c.GetPasteAlpha(),
		MassMin:       c.GetMassMin(),
		Threshold:     c.GetThreshold(),
		ThresholdType: c.GetThresholdType(),
		QuantileAlpha: c.GetQuantileAlpha(),
		QuantileBeta:  c.GetQuantileBeta(),
		MaxSteps:      c.GetMaxSteps(),
	}
}

// Schema describes the results file. The classified outcome is always read,
// even when Outcomes does not list it.
func (c *PrimConfig) Schema() dataset.Schema {
	outcomes := append([]string(nil), c.Outcomes...)
	found := false
	for _, o := range outcomes {
		if o == c.GetOutcome() {
			found = true
			break
		}
	}
	if !found {
		outcomes = append(outcomes, c.GetOutcome())
	}
	return dataset.Schema{
		Attributes: append([]dataset.AttributeSpec(nil), c.Attributes...),
		Outcomes:   outcomes,
	}
}
