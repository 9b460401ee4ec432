package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/latticeforge/deepscan/pkg/cache"
	"github.com/latticeforge/deepscan/pkg/tdg"
)

// AnalysisKind names one of the pluggable analyses an AnalysisOptions run
// may opt into via IncludeAnalyses, per spec.md §6's table.
type AnalysisKind string

const (
	AnalysisAst        AnalysisKind = "Ast"
	AnalysisComplexity AnalysisKind = "Complexity"
	AnalysisChurn      AnalysisKind = "Churn"
	AnalysisDag        AnalysisKind = "Dag"
	AnalysisDeadCode   AnalysisKind = "DeadCode"
	AnalysisSatd       AnalysisKind = "Satd"
	AnalysisTdg        AnalysisKind = "Tdg"
)

// validAnalysisKinds backs AnalysisOptions.Validate's unknown-value check.
var validAnalysisKinds = map[AnalysisKind]bool{
	AnalysisAst: true, AnalysisComplexity: true, AnalysisChurn: true,
	AnalysisDag: true, AnalysisDeadCode: true, AnalysisSatd: true, AnalysisTdg: true,
}

// DagType selects which edge subset pkg/dag's builder should keep, per
// spec.md §6.
type DagType string

const (
	DagCallGraph      DagType = "CallGraph"
	DagImportGraph    DagType = "ImportGraph"
	DagInheritance    DagType = "Inheritance"
	DagFullDependency DagType = "FullDependency"
)

var validDagTypes = map[DagType]bool{
	DagCallGraph: true, DagImportGraph: true, DagInheritance: true, DagFullDependency: true,
}

// cacheStrategyNames maps spec.md §6's string form of cache_strategy onto
// pkg/cache.Strategy, since viper config values arrive as strings/YAML
// scalars, not Go constants.
var cacheStrategyNames = map[string]cache.Strategy{
	"Normal":       cache.StrategyNormal,
	"ForceRefresh": cache.StrategyForceRefresh,
	"Offline":      cache.StrategyOffline,
}

// Sentinel validation errors for AnalysisOptions, alongside the existing
// server-config sentinels above.
var (
	ErrUnknownAnalysis      = errors.New("unknown analysis kind")
	ErrUnknownDagType       = errors.New("unknown dag type")
	ErrUnknownCacheStrategy = errors.New("unknown cache strategy")
	ErrInvalidMaxDepth      = errors.New("max_depth must be positive")
	ErrInvalidPeriodDays    = errors.New("period_days must be positive")
	ErrInvalidMaxFileSize   = errors.New("max_file_size must be positive")
	ErrInvalidConfidence    = errors.New("confidence_threshold must be in [0,1]")
	ErrInvalidWeights       = errors.New("tdg_weights must sum to 1.0")
)

// AnalysisOptions is the full set of options spec.md §6's table
// enumerates for a single analysis run. Unlike Config (the teacher's
// server/cache/logging settings, still loaded the same viper way),
// AnalysisOptions is new: it's the knob set this module's own pipeline
// consumes, not the HTTP server wrapped around it.
type AnalysisOptions struct {
	IncludeAnalyses     []AnalysisKind `mapstructure:"include_analyses"`
	PeriodDays          int            `mapstructure:"period_days"`
	DagType             DagType        `mapstructure:"dag_type"`
	MaxDepth            int            `mapstructure:"max_depth"`
	IncludePatterns     []string       `mapstructure:"include_patterns"`
	ExcludePatterns     []string       `mapstructure:"exclude_patterns"`
	CacheStrategyName   string         `mapstructure:"cache_strategy"`
	Parallel            bool           `mapstructure:"parallel"`
	ConfidenceThreshold float64        `mapstructure:"confidence_threshold"`
	TdgWeights          tdgWeightsYAML `mapstructure:"tdg_weights"`
	MaxFileSize         int64          `mapstructure:"max_file_size"`
}

// tdgWeightsYAML mirrors tdg.Weights with mapstructure tags; config files
// spell the five components out explicitly, then AnalysisOptions.Weights
// converts to tdg.Weights for the scorer.
type tdgWeightsYAML struct {
	Complexity float64 `mapstructure:"complexity"`
	Churn      float64 `mapstructure:"churn"`
	Coupling   float64 `mapstructure:"coupling"`
	DomainRisk float64 `mapstructure:"domain_risk"`
	Duplicate  float64 `mapstructure:"duplicate"`
}

const (
	defaultMaxDepth            = 10
	defaultPeriodDays          = 90
	defaultMaxFileSize   int64 = 10 * 1024 * 1024 // 10 MiB, spec.md §4.1's default ceiling.
	defaultConfidence          = 0.0
)

// defaultAnalysisOptions seeds every AnalysisOptions field spec.md §6
// lists a default for.
func defaultAnalysisOptions(v *viper.Viper) {
	v.SetDefault("include_analyses", []string{
		string(AnalysisAst), string(AnalysisComplexity), string(AnalysisChurn),
		string(AnalysisDag), string(AnalysisDeadCode), string(AnalysisSatd), string(AnalysisTdg),
	})
	v.SetDefault("period_days", defaultPeriodDays)
	v.SetDefault("dag_type", string(DagFullDependency))
	v.SetDefault("max_depth", defaultMaxDepth)
	v.SetDefault("include_patterns", []string{})
	v.SetDefault("exclude_patterns", []string{})
	v.SetDefault("cache_strategy", "Normal")
	v.SetDefault("parallel", true)
	v.SetDefault("confidence_threshold", defaultConfidence)
	v.SetDefault("tdg_weights.complexity", tdg.DefaultWeights.Complexity)
	v.SetDefault("tdg_weights.churn", tdg.DefaultWeights.Churn)
	v.SetDefault("tdg_weights.coupling", tdg.DefaultWeights.Coupling)
	v.SetDefault("tdg_weights.domain_risk", tdg.DefaultWeights.DomainRisk)
	v.SetDefault("tdg_weights.duplicate", tdg.DefaultWeights.Duplicate)
	v.SetDefault("max_file_size", defaultMaxFileSize)
}

// LoadAnalysisOptions loads AnalysisOptions from configPath (or the
// search-path convention LoadConfig uses when empty) and the
// `DEEPSCAN_`-prefixed environment, per SPEC_FULL.md §6. Unlike
// LoadConfig's viperCfg.Unmarshal, this uses UnmarshalExact so an
// unrecognized key fails Load rather than being silently ignored, per
// spec.md §6's "Unknown options are rejected at config construction".
// Before that, the raw settings map is checked against
// analysis_options.schema.json so a malformed enum value (an unknown
// dag_type, say) fails with every valid value named, not just the one
// the caller guessed wrong.
func LoadAnalysisOptions(configPath string) (*AnalysisOptions, error) {
	v := viper.New()

	defaultAnalysisOptions(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("deepscan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DEEPSCAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read analysis options: %w", err)
		}
	}

	if err := validateAnalysisOptionsSchema(v.AllSettings()); err != nil {
		return nil, err
	}

	var opts AnalysisOptions

	if err := v.UnmarshalExact(&opts); err != nil {
		return nil, fmt.Errorf("unmarshal analysis options: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis options: %w", err)
	}

	return &opts, nil
}

// Validate checks every AnalysisOptions field against spec.md §6/§8's
// stated constraints, failing fast at construction rather than letting a
// bad weight set or threshold reach the pipeline.
func (o *AnalysisOptions) Validate() error {
	for _, k := range o.IncludeAnalyses {
		if !validAnalysisKinds[k] {
			return fmt.Errorf("%w: %s", ErrUnknownAnalysis, k)
		}
	}

	if o.DagType != "" && !validDagTypes[o.DagType] {
		return fmt.Errorf("%w: %s", ErrUnknownDagType, o.DagType)
	}

	if _, ok := cacheStrategyNames[o.CacheStrategyName]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCacheStrategy, o.CacheStrategyName)
	}

	if o.MaxDepth <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDepth, o.MaxDepth)
	}

	if o.PeriodDays <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPeriodDays, o.PeriodDays)
	}

	if o.MaxFileSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxFileSize, o.MaxFileSize)
	}

	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: %f", ErrInvalidConfidence, o.ConfidenceThreshold)
	}

	if !o.Weights().Validate() {
		return ErrInvalidWeights
	}

	return nil
}

// Weights converts the YAML-shaped TdgWeights field into tdg.Weights.
func (o *AnalysisOptions) Weights() tdg.Weights {
	return tdg.Weights{
		Complexity: o.TdgWeights.Complexity,
		Churn:      o.TdgWeights.Churn,
		Coupling:   o.TdgWeights.Coupling,
		DomainRisk: o.TdgWeights.DomainRisk,
		Duplicate:  o.TdgWeights.Duplicate,
	}
}

// CacheStrategy resolves CacheStrategyName into pkg/cache.Strategy.
func (o *AnalysisOptions) CacheStrategy() cache.Strategy {
	return cacheStrategyNames[o.CacheStrategyName]
}

// Includes reports whether kind is in IncludeAnalyses.
func (o *AnalysisOptions) Includes(kind AnalysisKind) bool {
	for _, k := range o.IncludeAnalyses {
		if k == kind {
			return true
		}
	}

	return false
}
