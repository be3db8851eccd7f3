package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iraikov/dmosopt/config"
	"github.com/iraikov/dmosopt/feasibility"
	"github.com/iraikov/dmosopt/logging"
	"github.com/iraikov/dmosopt/moasmo"
	"github.com/iraikov/dmosopt/storage"
	"github.com/iraikov/dmosopt/surrogate"
	"github.com/iraikov/dmosopt/termination"
)

func onestepCmd() *cobra.Command {
	var configPath, problemID string

	cmd := &cobra.Command{
		Use:   "onestep",
		Short: "Call moasmo.OneStep directly against an existing (X, Y) history, with no worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnestep(configPath, problemID)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON config document (spec section 6 keys)")
	cmd.Flags().StringVar(&problemID, "problem-id", defaultProblemID, "problem id whose history to load from file_path")
	cmd.MarkFlagRequired("config")
	return cmd
}

// runOnestep mirrors dmosopt_onestep.py: load an already-evaluated history
// from file_path and fit/optimize/resample exactly once, without
// dispatching any real evaluation.
func runOnestep(configPath, problemID string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.FilePath == "" {
		return fmt.Errorf("dmosoptctl: onestep requires file_path to be set")
	}

	store := storage.Open(cfg.FilePath)
	loaded, err := store.Load()
	if err != nil {
		return err
	}
	entries, ok := loaded.Entries[problemID]
	if !ok || len(entries) == 0 {
		return fmt.Errorf("dmosoptctl: no recorded evaluations for problem %q in %s", problemID, cfg.FilePath)
	}
	X, Y, _, C := storage.EntriesToHistory(entries, cfg.FeatureDtypes)

	logger := logging.NewLogger("dmosoptctl")

	var fm feasibility.Model
	if cfg.FeasibilityModel && len(cfg.ConstraintNames) > 0 && len(C) > 0 {
		model, err := feasibility.NewGPModel(X, C, surrogate.FitOptions{
			Kind:      surrogate.KernelMatern52,
			Optimizer: surrogate.NewSCEUAOptimizer(logger),
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("dmosoptctl: fit feasibility model: %w", err)
		}
		fm = model
	}

	var term *termination.Predicate
	if cfg.TerminationConditions != (config.TerminationConditions{}) {
		term = termination.New(cfg.TerminationOptions())
	}

	lb, ub := cfg.Space.Bounds()
	result, err := moasmo.OneStep(X, Y, lb, ub, moasmo.Options{
		Pop:           cfg.PopulationSize,
		Gen:           cfg.NumGenerations,
		CrossoverRate: cfg.CrossoverRate,
		MutationRate:  cfg.MutationRate,
		DiCrossover:   cfg.DiCrossover,
		DiMutation:    cfg.DiMutation,
		ResamplePct:   cfg.ResampleFraction,
		Kind:          surrogate.KernelMatern52,
		Optimizer:     surrogate.NewSCEUAOptimizer(logger),
		Feasibility:   fm,
		Termination:   term,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("surrogate Pareto front: %d points\n", len(result.BestX))
	fmt.Printf("resample batch: %d points\n", len(result.ResampleX))
	for i := range result.ResampleX {
		fmt.Printf("  resample[%d]: x=%v y_pred=%v\n", i, result.ResampleX[i], result.ResampleYPred[i])
	}
	return nil
}
