// Package config decodes and validates the recognized configuration keys
// (spec section 6) into the typed options each component package expects,
// mirroring rdk's config package: an untyped map decoded with mapstructure,
// defaults filled in, then validated before any worker call.
package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/iraikov/dmosopt/logging"
	"github.com/iraikov/dmosopt/moasmo"
	"github.com/iraikov/dmosopt/paramspace"
	"github.com/iraikov/dmosopt/strategy"
	"github.com/iraikov/dmosopt/surrogate"
	"github.com/iraikov/dmosopt/termination"
)

// SurrogateOptions is the surrogate_options config block.
type SurrogateOptions struct {
	Anisotropic bool   `mapstructure:"anisotropic"`
	Optimizer   string `mapstructure:"optimizer"`
}

// TerminationConditions is the termination_conditions config block.
type TerminationConditions struct {
	XTol    float64 `mapstructure:"x_tol"`
	FTol    float64 `mapstructure:"f_tol"`
	NthGen  int     `mapstructure:"nth_gen"`
	NMaxGen int     `mapstructure:"n_max_gen"`
	NLast   int     `mapstructure:"n_last"`
}

// Config covers every recognized key in spec section 6. Space and
// ProblemParameters are decoded separately from the raw map (see Decode)
// since distinguishing an integer parameter from a real one requires
// inspecting the original JSON/YAML-shaped values before mapstructure
// coerces them to float64.
type Config struct {
	OptID string `mapstructure:"opt_id"`

	ObjFunName   string `mapstructure:"obj_fun_name"`
	ObjFunModule string `mapstructure:"obj_fun_module"`

	ObjectiveNames  []string `mapstructure:"objective_names"`
	FeatureDtypes   []string `mapstructure:"feature_dtypes"`
	ConstraintNames []string `mapstructure:"constraint_names"`

	NInitial       int    `mapstructure:"n_initial"`
	InitialMaxiter int    `mapstructure:"initial_maxiter"`
	InitialMethod  string `mapstructure:"initial_method"`

	PopulationSize   int     `mapstructure:"population_size"`
	NumGenerations   int     `mapstructure:"num_generations"`
	ResampleFraction float64 `mapstructure:"resample_fraction"`
	MutationRate     float64 `mapstructure:"mutation_rate"`
	CrossoverRate    float64 `mapstructure:"crossover_rate"`
	DiCrossover      float64 `mapstructure:"di_crossover"`
	DiMutation       float64 `mapstructure:"di_mutation"`

	SurrogateMethod  string           `mapstructure:"surrogate_method"`
	SurrogateOptions SurrogateOptions `mapstructure:"surrogate_options"`
	Optimizer        string           `mapstructure:"optimizer"`

	FeasibilityModel bool `mapstructure:"feasibility_model"`

	TerminationConditions TerminationConditions `mapstructure:"termination_conditions"`

	NEpochs           int    `mapstructure:"n_epochs"`
	Save              bool   `mapstructure:"save"`
	FilePath          string `mapstructure:"file_path"`
	SaveEval          bool   `mapstructure:"save_eval"`
	SaveSurrogateEval bool   `mapstructure:"save_surrogate_eval"`

	Metadata map[string]any `mapstructure:"metadata"`

	// Space and ProblemParameters are populated by Decode, not by
	// mapstructure (the "-" tag keeps the decoder from touching them),
	// since "space" values need their raw numeric kind inspected before
	// they become plain float64s.
	Space             paramspace.Space `mapstructure:"-"`
	ProblemParameters map[string]float64 `mapstructure:"-"`
}

// Decode builds a Config from an untyped map, the shape produced by
// whatever file-format loader the embedding CLI chooses (spec section 6
// notes reading bytes off disk is outside this module's core). Recognized
// keys are decoded with mapstructure; space and problem_parameters are
// decoded by hand so integer-valued bounds can be told apart from reals.
func Decode(raw map[string]any) (*Config, error) {
	cfg := &Config{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("config: build decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	space, err := decodeSpace(raw["space"])
	if err != nil {
		return nil, err
	}
	cfg.Space = space

	params, err := decodeProblemParameters(raw["problem_parameters"])
	if err != nil {
		return nil, err
	}
	cfg.ProblemParameters = params

	cfg.applyDefaults()
	return cfg, nil
}

// decodeSpace turns the name→(lo,hi) map into a paramspace.Space, marking a
// parameter integer when both bound values were encoded as whole-number
// JSON/YAML integers (spec section 6: "both ints ⇒ integer parameter").
func decodeSpace(raw any) (paramspace.Space, error) {
	if raw == nil {
		return paramspace.Space{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return paramspace.Space{}, fmt.Errorf("config: space must be a map of name to [lower, upper]")
	}

	params := make([]paramspace.Parameter, 0, len(m))
	for name, v := range m {
		loRaw, hiRaw, err := pairOf(v)
		if err != nil {
			return paramspace.Space{}, fmt.Errorf("config: space[%q]: %w", name, err)
		}
		lo, loInt, err := numericValue(loRaw)
		if err != nil {
			return paramspace.Space{}, fmt.Errorf("config: space[%q] lower bound: %w", name, err)
		}
		hi, hiInt, err := numericValue(hiRaw)
		if err != nil {
			return paramspace.Space{}, fmt.Errorf("config: space[%q] upper bound: %w", name, err)
		}
		params = append(params, paramspace.Parameter{
			Name:    name,
			Lower:   lo,
			Upper:   hi,
			Integer: loInt && hiInt,
		})
	}
	return paramspace.Space{Parameters: params}, nil
}

func decodeProblemParameters(raw any) (map[string]float64, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config: problem_parameters must be a map of name to fixed value")
	}
	out := make(map[string]float64, len(m))
	for name, v := range m {
		val, _, err := numericValue(v)
		if err != nil {
			return nil, fmt.Errorf("config: problem_parameters[%q]: %w", name, err)
		}
		out[name] = val
	}
	return out, nil
}

func pairOf(v any) (lo, hi any, err error) {
	switch s := v.(type) {
	case []any:
		if len(s) != 2 {
			return nil, nil, fmt.Errorf("expected a 2-element [lower, upper] list, got %d elements", len(s))
		}
		return s[0], s[1], nil
	case [2]float64:
		return s[0], s[1], nil
	default:
		return nil, nil, fmt.Errorf("expected a 2-element [lower, upper] list, got %T", v)
	}
}

// numericValue converts v to float64 and reports whether it was decoded as
// an integer type rather than a floating-point type. A config loader (YAML,
// for instance) that preserves the source's int/float distinction in an
// interface{} value is what makes "both ints ⇒ integer parameter" (spec
// section 6) possible to detect at all; the numeric value alone (3 vs 3.0)
// cannot carry that distinction once both are float64.
func numericValue(v any) (value float64, isInt bool, err error) {
	switch n := v.(type) {
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case float64:
		return n, false, nil
	case float32:
		return float64(n), false, nil
	default:
		return 0, false, fmt.Errorf("expected a number, got %T", v)
	}
}

// applyDefaults fills in every recognized key's documented default (spec
// section 6) for fields left at their zero value.
func (c *Config) applyDefaults() {
	dim := c.Space.Dim()

	if c.NInitial <= 0 {
		c.NInitial = 10
	}
	if c.InitialMaxiter <= 0 {
		c.InitialMaxiter = 5
	}
	if c.InitialMethod == "" {
		c.InitialMethod = "glp"
	}
	if c.PopulationSize <= 0 {
		c.PopulationSize = 100
	}
	if c.NumGenerations <= 0 {
		c.NumGenerations = 200
	}
	if c.ResampleFraction <= 0 {
		c.ResampleFraction = 0.25
	}
	if c.ResampleFraction > 1.0 {
		c.ResampleFraction = 1.0
	}
	if c.MutationRate <= 0 && dim > 0 {
		c.MutationRate = moasmo.DefaultMutationRate(dim)
	}
	if c.CrossoverRate <= 0 {
		c.CrossoverRate = 0.9
	}
	if c.DiCrossover <= 0 {
		c.DiCrossover = 1.0
	}
	if c.DiMutation <= 0 {
		c.DiMutation = 20.0
	}
	if c.SurrogateMethod == "" {
		c.SurrogateMethod = "gpr"
	}
	if c.Optimizer == "" {
		c.Optimizer = "nsga2"
	}
	if c.NEpochs <= 0 {
		c.NEpochs = 1
	}
}

// Validate reports the configuration error class from spec section 7:
// a missing space or problem_parameters with no restore file available, or
// a length mismatch between a restored schema and the keys provided here.
// restoredSpace/restoredParamNames are nil when this is a fresh run.
func (c *Config) Validate(restoredSpace *paramspace.Space, restoredParamNames []string) error {
	if c.Space.Dim() == 0 && restoredSpace == nil {
		return fmt.Errorf("config: %w: space is empty and no restore file was found", errConfiguration)
	}
	if c.ProblemParameters == nil && restoredSpace == nil {
		return fmt.Errorf("config: %w: problem_parameters is missing and no restore file was found", errConfiguration)
	}
	if len(c.ObjectiveNames) == 0 {
		return fmt.Errorf("config: %w: objective_names is required", errConfiguration)
	}
	if c.OptID == "" {
		return fmt.Errorf("config: %w: opt_id is required", errConfiguration)
	}

	if restoredSpace != nil {
		if c.Space.Dim() > 0 && c.Space.Dim() != restoredSpace.Dim() {
			return fmt.Errorf("config: %w: space has %d parameters, restored run has %d", errConfiguration, c.Space.Dim(), restoredSpace.Dim())
		}
	}
	if restoredParamNames != nil && len(c.ProblemParameters) > 0 && len(c.ProblemParameters) != len(restoredParamNames) {
		return fmt.Errorf("config: %w: problem_parameters has %d entries, restored run has %d", errConfiguration, len(c.ProblemParameters), len(restoredParamNames))
	}

	if err := c.Space.Validate(); c.Space.Dim() > 0 && err != nil {
		return fmt.Errorf("config: %w: %v", errConfiguration, err)
	}
	return nil
}

// errConfiguration is the sentinel wrapped by every configuration error,
// letting callers test for the class with errors.Is.
var errConfiguration = fmt.Errorf("configuration error")

// StrategyOptions translates the decoded config into strategy.Options,
// wiring the named surrogate/optimizer choices to their concrete
// implementations. surrogate_options.anisotropic and surrogate_options.optimizer
// are recognized keys (spec section 6) with a single concrete optimizer
// (SCE-UA) available in this module; any other requested name falls back to
// it rather than failing the run.
func (c *Config) StrategyOptions(logger logging.Logger) strategy.Options {
	opts := strategy.Options{
		NInitial:         c.NInitial,
		InitialMaxIter:   c.InitialMaxiter,
		PopulationSize:   c.PopulationSize,
		NumGenerations:   c.NumGenerations,
		ResampleFrac:     c.ResampleFraction,
		CrossoverRate:    c.CrossoverRate,
		MutationRate:     c.MutationRate,
		DiCrossover:      c.DiCrossover,
		DiMutation:       c.DiMutation,
		KernelKind:       surrogate.KernelMatern52,
		Optimizer:        surrogate.NewSCEUAOptimizer(logger),
		FeasibilityModel: c.FeasibilityModel,
		Logger:           logger,
	}
	if c.TerminationConditions != (TerminationConditions{}) {
		cond := c.TerminationOptions()
		opts.Termination = &cond
	}
	return opts
}

// TerminationOptions translates the decoded config into termination.Conditions.
func (c *Config) TerminationOptions() termination.Conditions {
	return termination.Conditions{
		XTol:    c.TerminationConditions.XTol,
		FTol:    c.TerminationConditions.FTol,
		NthGen:  c.TerminationConditions.NthGen,
		NMaxGen: c.TerminationConditions.NMaxGen,
		NLast:   c.TerminationConditions.NLast,
	}
}
