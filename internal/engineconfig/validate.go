package engineconfig

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/adpilot/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var validate = validator.New()

// Validate checks all required constraints
// 실패 시 첫 번째 ValidationError 반환
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationError{"config", "required"}
	}

	// === Field tags ===
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			msg := fe.Tag()
			if fe.Param() != "" {
				msg = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
			}
			return ValidationError{fe.Namespace(), msg}
		}
		return ValidationError{"config", err.Error()}
	}

	// === Thresholds ===
	bands := []struct {
		field string
		band  Band
	}{
		{"thresholds.ctr", cfg.Thresholds.CTR},
		{"thresholds.quality_score", cfg.Thresholds.QualityScore},
		{"thresholds.conversion_rate", cfg.Thresholds.ConversionRate},
		{"thresholds.impression_share", cfg.Thresholds.ImpressionShare},
	}
	for _, b := range bands {
		if b.band.Poor > b.band.Good || b.band.Good > b.band.Excellent {
			return ValidationError{b.field, "must satisfy poor <= good <= excellent"}
		}
	}
	for _, b := range []struct {
		field string
		band  Band
	}{
		{"thresholds.ctr", cfg.Thresholds.CTR},
		{"thresholds.conversion_rate", cfg.Thresholds.ConversionRate},
		{"thresholds.impression_share", cfg.Thresholds.ImpressionShare},
	} {
		if b.band.Excellent > 1 {
			return ValidationError{b.field, "ratio thresholds must be <= 1"}
		}
	}
	if cfg.Thresholds.QualityScore.Excellent > 10 {
		return ValidationError{"thresholds.quality_score", "must be <= 10"}
	}

	// === Quality ===
	if err := validateWeightsSum(cfg.Quality.Weights.Sum(), 1.0, 1e-6); err != nil {
		return ValidationError{"quality.weights", err.Error()}
	}

	// === Orchestrator ===
	for _, g := range cfg.Orchestrator.DefaultGoals {
		if !contracts.Goal(g).Valid() {
			return ValidationError{"orchestrator.default_goals", fmt.Sprintf("unknown goal %q", g)}
		}
	}

	return nil
}

// Warn returns advisory warnings (권장 위반)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Orchestrator.AutoApply.Enabled && cfg.Orchestrator.AutoApply.ConfidenceThreshold < 0.8 {
		warnings = append(warnings, Warning{
			Code:    "AUTO_APPLY_LOW_CONFIDENCE",
			Message: fmt.Sprintf("auto-apply confidence threshold %.2f is below 0.80", cfg.Orchestrator.AutoApply.ConfidenceThreshold),
		})
	}
	if cfg.Forecast.Margin > 0.5 {
		warnings = append(warnings, Warning{
			Code:    "FORECAST_WIDE_MARGIN",
			Message: fmt.Sprintf("forecast margin %.2f makes intervals wider than the estimate", cfg.Forecast.Margin),
		})
	}
	if cfg.Forecast.TopN == 0 {
		warnings = append(warnings, Warning{
			Code:    "FORECAST_ALL_RECOMMENDATIONS",
			Message: "forecast.top_n=0 compounds every recommendation",
		})
	}
	if len(cfg.Orchestrator.DefaultGoals) == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_DEFAULT_GOALS",
			Message: "requests without goals get no goal bonus",
		})
	}

	return warnings
}

func validateWeightsSum(sum, expected, tolerance float64) error {
	if math.Abs(sum-expected) > tolerance {
		return fmt.Errorf("sum must be %.2f (got %.6f)", expected, sum)
	}
	return nil
}
