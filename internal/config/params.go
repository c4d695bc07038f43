// Package config loads the optional JSON parameter file of the morphometric
// pipelines. All fields are pointers so a partial file only overrides what it
// names; the Get* and *Params methods supply the tuned defaults for the rest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geomorfo/morfometria/internal/geomio"
	"github.com/geomorfo/morfometria/internal/morpho"
)

// AnalysisConfig is the root configuration for an analysis run.
type AnalysisConfig struct {
	// River ordering params
	AscentPenalty    *float64 `json:"ascent_penalty,omitempty"`
	LargeJump        *float64 `json:"large_jump,omitempty"`
	LargeAscent      *float64 `json:"large_ascent,omitempty"`
	DisorderFraction *float64 `json:"disorder_fraction,omitempty"`

	// Gradient params
	FilterAnomalies     *bool    `json:"filter_anomalies,omitempty"`
	ContinuityThreshold *float64 `json:"continuity_threshold,omitempty"`
	ModerateFence       *float64 `json:"moderate_fence,omitempty"`
	ExtremeFence        *float64 `json:"extreme_fence,omitempty"`

	// Field-name overrides; each is tried before the built-in candidates.
	FieldX     *string `json:"field_x,omitempty"`
	FieldY     *string `json:"field_y,omitempty"`
	FieldZ     *string `json:"field_z,omitempty"`
	FieldArea  *string `json:"field_area,omitempty"`
	FieldOrder *string `json:"field_order,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
// Use LoadAnalysisConfig to load actual values from a file.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.AscentPenalty != nil && *c.AscentPenalty < 1 {
		return fmt.Errorf("ascent_penalty must be >= 1, got %f", *c.AscentPenalty)
	}
	if c.LargeJump != nil && *c.LargeJump <= 0 {
		return fmt.Errorf("large_jump must be positive, got %f", *c.LargeJump)
	}
	if c.LargeAscent != nil && *c.LargeAscent <= 0 {
		return fmt.Errorf("large_ascent must be positive, got %f", *c.LargeAscent)
	}
	if c.DisorderFraction != nil {
		if *c.DisorderFraction < 0 || *c.DisorderFraction > 1 {
			return fmt.Errorf("disorder_fraction must be between 0 and 1, got %f", *c.DisorderFraction)
		}
	}
	if c.ContinuityThreshold != nil && *c.ContinuityThreshold <= 0 {
		return fmt.Errorf("continuity_threshold must be positive, got %f", *c.ContinuityThreshold)
	}
	if c.ModerateFence != nil && *c.ModerateFence <= 0 {
		return fmt.Errorf("moderate_fence must be positive, got %f", *c.ModerateFence)
	}
	if c.ExtremeFence != nil && *c.ExtremeFence <= 0 {
		return fmt.Errorf("extreme_fence must be positive, got %f", *c.ExtremeFence)
	}
	if c.ModerateFence != nil && c.ExtremeFence != nil && *c.ModerateFence > *c.ExtremeFence {
		return fmt.Errorf("moderate_fence (%f) must not exceed extreme_fence (%f)", *c.ModerateFence, *c.ExtremeFence)
	}
	return nil
}

// OrderingParams returns the river-ordering tunables with any configured
// overrides applied.
func (c *AnalysisConfig) OrderingParams() morpho.OrderingParams {
	p := morpho.DefaultOrderingParams()
	if c.AscentPenalty != nil {
		p.AscentPenalty = *c.AscentPenalty
	}
	if c.LargeJump != nil {
		p.LargeJump = *c.LargeJump
	}
	if c.LargeAscent != nil {
		p.LargeAscent = *c.LargeAscent
	}
	if c.DisorderFraction != nil {
		p.DisorderFraction = *c.DisorderFraction
	}
	return p
}

// GetFilterAnomalies returns the filter_anomalies value or the default.
func (c *AnalysisConfig) GetFilterAnomalies() bool {
	if c.FilterAnomalies == nil {
		return true // default: statistical filtering on
	}
	return *c.FilterAnomalies
}

// GradientParams returns the gradient-pipeline tunables with any configured
// overrides applied.
func (c *AnalysisConfig) GradientParams() morpho.GradientParams {
	p := morpho.DefaultGradientParams()
	p.FilterAnomalies = c.GetFilterAnomalies()
	if c.ContinuityThreshold != nil {
		p.ContinuityThreshold = *c.ContinuityThreshold
	}
	if c.ModerateFence != nil {
		p.ModerateFence = *c.ModerateFence
	}
	if c.ExtremeFence != nil {
		p.ExtremeFence = *c.ExtremeFence
	}
	return p
}

// FieldCandidates returns the attribute-name candidates with any configured
// overrides tried first.
func (c *AnalysisConfig) FieldCandidates() geomio.FieldCandidates {
	fields := geomio.DefaultFieldCandidates()
	if c.FieldX != nil {
		fields.X = append([]string{*c.FieldX}, fields.X...)
	}
	if c.FieldY != nil {
		fields.Y = append([]string{*c.FieldY}, fields.Y...)
	}
	if c.FieldZ != nil {
		fields.Z = append([]string{*c.FieldZ}, fields.Z...)
	}
	if c.FieldArea != nil {
		fields.Area = append([]string{*c.FieldArea}, fields.Area...)
	}
	if c.FieldOrder != nil {
		fields.Order = append([]string{*c.FieldOrder}, fields.Order...)
	}
	return fields
}
