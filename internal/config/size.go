package config

import "fmt"

// SizeConfig holds pull request size scoring configuration.
type SizeConfig struct {
	// WeightAdditions multiplies added lines in the size score.
	WeightAdditions float64
	// WeightDeletions multiplies deleted lines in the size score.
	WeightDeletions float64
	// WeightFiles multiplies changed files in the size score.
	WeightFiles float64
	// ThresholdXS, ThresholdS, ThresholdM and ThresholdL are exclusive upper bounds
	// of total changed lines for the XS, S, M and L grades.
	ThresholdXS int
	ThresholdS  int
	ThresholdM  int
	ThresholdL  int
}

// DefaultSizeConfig returns the default weights and grade thresholds.
func DefaultSizeConfig() SizeConfig {
	return SizeConfig{
		WeightAdditions: 1.0,
		WeightDeletions: 1.0,
		WeightFiles:     1.0,
		ThresholdXS:     10,
		ThresholdS:      100,
		ThresholdM:      300,
		ThresholdL:      1000,
	}
}

// LoadSizeConfigFromEnv loads size scoring configuration from environment variables.
func LoadSizeConfigFromEnv() SizeConfig {
	d := DefaultSizeConfig()
	return SizeConfig{
		WeightAdditions: GetEnvFloat("SIZE_WEIGHT_ADDITIONS", d.WeightAdditions),
		WeightDeletions: GetEnvFloat("SIZE_WEIGHT_DELETIONS", d.WeightDeletions),
		WeightFiles:     GetEnvFloat("SIZE_WEIGHT_FILES", d.WeightFiles),
		ThresholdXS:     GetEnvInt("SIZE_THRESHOLD_XS", d.ThresholdXS),
		ThresholdS:      GetEnvInt("SIZE_THRESHOLD_S", d.ThresholdS),
		ThresholdM:      GetEnvInt("SIZE_THRESHOLD_M", d.ThresholdM),
		ThresholdL:      GetEnvInt("SIZE_THRESHOLD_L", d.ThresholdL),
	}
}

// Validate validates size scoring configuration.
func (c SizeConfig) Validate() error {
	if c.WeightAdditions < 0 || c.WeightDeletions < 0 || c.WeightFiles < 0 {
		return fmt.Errorf("size weights must be non-negative")
	}
	if c.ThresholdXS <= 0 {
		return fmt.Errorf("SIZE_THRESHOLD_XS must be greater than 0")
	}
	if c.ThresholdXS >= c.ThresholdS || c.ThresholdS >= c.ThresholdM || c.ThresholdM >= c.ThresholdL {
		return fmt.Errorf("size thresholds must be strictly ascending (XS < S < M < L)")
	}
	return nil
}
