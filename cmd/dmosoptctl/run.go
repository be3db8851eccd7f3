package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/iraikov/dmosopt/config"
	"github.com/iraikov/dmosopt/logging"
	"github.com/iraikov/dmosopt/paramspace"
	"github.com/iraikov/dmosopt/scheduler"
	"github.com/iraikov/dmosopt/storage"
	"github.com/iraikov/dmosopt/strategy"
)

const defaultProblemID = "default"

func runCmd() *cobra.Command {
	var configPath string
	var workers int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive the scheduler against a LocalWorkerPool using a named objective",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimization(configPath, workers)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON config document (spec section 6 keys)")
	cmd.Flags().IntVar(&workers, "workers", 4, "number of local worker goroutines")
	cmd.MarkFlagRequired("config")
	return cmd
}

func runOptimization(configPath string, workers int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(nil, nil); err != nil {
		return err
	}

	logger := logging.NewLogger("dmosoptctl")
	obj, err := resolveObjective(cfg.ObjFunName)
	if err != nil {
		return err
	}

	prob := strategy.Problem{
		Space:         cfg.Space,
		NumObjective:  len(cfg.ObjectiveNames),
		NumFeature:    len(cfg.FeatureDtypes),
		NumConstraint: len(cfg.ConstraintNames),
	}
	opts := cfg.StrategyOptions(logger)

	var store *storage.Store
	var restoredX, restoredY, restoredF, restoredC [][]float64
	if cfg.Save && cfg.FilePath != "" {
		store = storage.Open(cfg.FilePath)
		loaded, err := store.Load()
		if err != nil {
			return fmt.Errorf("dmosoptctl: load %s: %w", cfg.FilePath, err)
		}
		if entries, ok := loaded.Entries[defaultProblemID]; ok {
			restoredX, restoredY, restoredF, restoredC = storage.EntriesToHistory(entries, cfg.FeatureDtypes)
		}
		if !loaded.HasSchema {
			if err := store.AppendSchema(schemaFromConfig(cfg)); err != nil {
				return err
			}
		}
	}

	strat := strategy.New(prob, opts, restoredX, restoredY, restoredF, restoredC)
	strategies := map[string]*strategy.Strategy{defaultProblemID: strat}

	pool := scheduler.NewLocalWorkerPool(workers, func(args map[string][]float64) map[string]scheduler.EvalResult {
		out := make(map[string]scheduler.EvalResult, len(args))
		for pid, x := range args {
			y, f, c := obj(x)
			out[pid] = scheduler.EvalResult{Y: y, F: f, C: c}
		}
		return out
	}, logger)

	metrics := scheduler.NewMetrics(prometheus.NewRegistry())
	ctrl := scheduler.NewController(cfg.OptID, pool, strategies, cfg.NEpochs, logger, metrics)

	epoch := 0
	if store != nil && cfg.SaveEval {
		ctrl.SetPersistHook(func(optID string, _ []scheduler.Completion) error {
			epoch++
			for pid, s := range strategies {
				x, y, f, c, yPred := s.GetCompleted()
				if len(x) == 0 {
					continue
				}
				entries := make([]paramspace.Entry, len(x))
				for i := range x {
					var features map[string]float64
					if len(f) > i && f[i] != nil {
						features = make(map[string]float64, len(cfg.FeatureDtypes))
						for j, name := range cfg.FeatureDtypes {
							if j < len(f[i]) {
								features[name] = f[i][j]
							}
						}
					}
					var constraints []float64
					if len(c) > i {
						constraints = c[i]
					}
					entries[i] = paramspace.Entry{Epoch: epoch, X: x[i], Y: y[i], Features: features, Constraints: constraints, YPred: yPred[i]}
				}
				if err := store.AppendEntries(pid, entries); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := ctrl.Run(); err != nil {
		return err
	}

	bestX, bestY, _ := strat.GetBestEvals(false)
	logger.Infof("run complete: %d non-dominated points", len(bestX))
	for i := range bestX {
		logger.Infof("pareto[%d]: x=%v y=%v", i, bestX[i], bestY[i])
	}
	return nil
}

func schemaFromConfig(cfg *config.Config) storage.Schema {
	lb, ub := cfg.Space.Bounds()
	return storage.Schema{
		OptID:           cfg.OptID,
		ParameterNames:  cfg.Space.Names(),
		ParameterLower:  lb,
		ParameterUpper:  ub,
		ParameterInt:    cfg.Space.IntegerMask(),
		ObjectiveNames:  cfg.ObjectiveNames,
		FeatureNames:    cfg.FeatureDtypes,
		ConstraintNames: cfg.ConstraintNames,
		ProblemParams:   cfg.ProblemParameters,
	}
}
