package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iraikov/dmosopt/moasmo"
	"github.com/iraikov/dmosopt/storage"
)

func analyzeCmd() *cobra.Command {
	var feasibleOnly bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Load an evaluation log and print best evals, Pareto front size, and surrogate MAE trend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagFilePath == "" {
				return fmt.Errorf("dmosoptctl: analyze requires --file-path")
			}
			return analyzeLog(flagFilePath, feasibleOnly)
		},
	}
	cmd.Flags().BoolVar(&feasibleOnly, "feasible", true, "restrict the Pareto front to rows whose recorded constraints are all satisfied, mirroring dmosopt_analyze's --constraints flag")
	return cmd
}

// analyzeLog mirrors dmosopt_analyze.py: load the log, report each
// problem's non-dominated subset and front size, then the surrogate
// prediction-error trend if a surrogate_evals stream was recorded.
func analyzeLog(path string, feasibleOnly bool) error {
	store := storage.Open(path)
	result, err := store.Load()
	if err != nil {
		return err
	}
	if !result.HasSchema {
		return fmt.Errorf("dmosoptctl: %s has no recorded schema", path)
	}

	fmt.Printf("opt_id: %s\n", result.Schema.OptID)
	for problemID, entries := range result.Entries {
		X, Y, F, C := storage.EntriesToHistory(entries, result.Schema.FeatureNames)
		bestX, bestY, _, _ := moasmo.GetBest(X, Y, F, C, feasibleOnly)
		fmt.Printf("problem %s: %d evaluations, %d on the Pareto front\n", problemID, len(X), len(bestX))
		for i := range bestX {
			fmt.Printf("  pareto[%d]: x=%v y=%v\n", i, bestX[i], bestY[i])
		}
	}

	if len(result.Surrogate) > 0 {
		byProblem := make(map[string][]storage.SurrogateEvalRecord)
		for _, rec := range result.Surrogate {
			byProblem[rec.ProblemID] = append(byProblem[rec.ProblemID], rec)
		}
		for problemID, recs := range byProblem {
			fmt.Printf("problem %s: surrogate MAE trend over %d recorded epochs\n", problemID, len(recs))
			for _, rec := range recs {
				mae := meanAbsError(rec.YActual, rec.YPred)
				fmt.Printf("  epoch %d: MAE=%.6g\n", rec.Epoch, mae)
			}
		}
	}
	return nil
}

func meanAbsError(actual, pred []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		d := actual[i] - pred[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / float64(len(actual))
}
