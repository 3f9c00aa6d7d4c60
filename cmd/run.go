package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/metaheuristics"
	"github.com/cwbudde/metaheuristics/internal/bench"
	"github.com/cwbudde/metaheuristics/internal/store"
)

var (
	objective string
	dim       int
	algorithm string
	strategy  int
	deF       float64
	deCR      float64
	popSize   int
	taskName  string
	taskValue float64
	rptEvery  int
	seed      int64
	outPath   string
	dataDir   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot optimization",
	Long: `Runs the configured algorithm against a benchmark objective and writes
the best vector, its fitness and the report history. A record is saved
under the data directory so the run can be resumed later.`,
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&objective, "objective", "sphere", "Objective name (see 'objectives' output)")
	runCmd.Flags().IntVar(&dim, "dim", 0, "Problem dimensionality (0 = objective default)")
	runCmd.Flags().StringVar(&algorithm, "algo", "de", "Algorithm: de, tlbo")
	runCmd.Flags().IntVar(&strategy, "strategy", 1, "DE strategy (1-10)")
	runCmd.Flags().Float64Var(&deF, "f", 0.6, "DE mutation scale factor")
	runCmd.Flags().Float64Var(&deCR, "cr", 0.9, "DE crossover probability")
	runCmd.Flags().IntVar(&popSize, "pop", 0, "Population size (0 = algorithm default)")
	runCmd.Flags().StringVar(&taskName, "task", "maxgen", "Termination: maxgen, minfit, maxtime, slowdown")
	runCmd.Flags().Float64Var(&taskValue, "task-value", 200, "Termination threshold (generations, fitness, seconds or ratio)")
	runCmd.Flags().IntVar(&rptEvery, "rpt", 50, "Report cadence in generations")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	runCmd.Flags().StringVar(&outPath, "out", "", "Write the result as JSON to this file")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Base directory for records and traces")

	rootCmd.AddCommand(runCmd)
}

// parseTask maps a task name and threshold onto a termination condition.
func parseTask(name string, value float64) (metaheuristics.Task, error) {
	switch name {
	case "maxgen":
		if value < 1 {
			return metaheuristics.Task{}, fmt.Errorf("maxgen needs a positive generation count, got %g", value)
		}
		return metaheuristics.MaxGen(int(value)), nil
	case "minfit":
		return metaheuristics.MinFit(value), nil
	case "maxtime":
		if value <= 0 {
			return metaheuristics.Task{}, fmt.Errorf("maxtime needs a positive duration in seconds, got %g", value)
		}
		return metaheuristics.MaxTime(time.Duration(value * float64(time.Second))), nil
	case "slowdown":
		if value <= 0 || value > 1 {
			return metaheuristics.Task{}, fmt.Errorf("slowdown ratio must be in (0, 1], got %g", value)
		}
		return metaheuristics.SlowDown(value), nil
	default:
		return metaheuristics.Task{}, fmt.Errorf("unknown task %q (want maxgen, minfit, maxtime or slowdown)", name)
	}
}

// runResult is the outcome of a local run.
type runResult struct {
	JobID       string                  `json:"jobId"`
	Objective   string                  `json:"objective"`
	Algorithm   string                  `json:"algorithm"`
	BestParams  []float64               `json:"bestParams"`
	BestFitness float64                 `json:"bestFitness"`
	Generations int                     `json:"generations"`
	Elapsed     float64                 `json:"elapsed"`
	Reports     []metaheuristics.Report `json:"reports"`
}

// executeRun performs a full local optimization for the given config. guess
// optionally seeds the initial population. The report history is logged as
// it accumulates.
func executeRun(jobID string, cfg store.RunConfig, guess []float64) (*runResult, error) {
	problem, err := bench.New(cfg.Objective, cfg.Dim)
	if err != nil {
		return nil, err
	}
	cfg.Dim = problem.Dim()

	task, err := parseTask(cfg.Task, cfg.TaskValue)
	if err != nil {
		return nil, err
	}

	setting := metaheuristics.Setting{
		Task:   task,
		PopNum: cfg.Pop,
		Rpt:    cfg.Rpt,
		Seed:   cfg.Seed,
		Guess:  guess,
	}

	var alg metaheuristics.Algorithm[float64]
	switch cfg.Algorithm {
	case "de":
		ds := metaheuristics.DefaultDESetting()
		if setting.PopNum <= 0 {
			setting.PopNum = ds.PopNum
		}
		ds.Setting = setting
		ds.Strategy = metaheuristics.Strategy(cfg.Strategy)
		if cfg.F != 0 {
			ds.F = cfg.F
		}
		if cfg.CR != 0 {
			ds.CR = cfg.CR
		}
		alg, err = metaheuristics.NewDE[float64](problem, ds)
	case "tlbo":
		if setting.PopNum <= 0 {
			setting.PopNum = metaheuristics.DefaultSetting().PopNum
		}
		alg, err = metaheuristics.NewTLBO[float64](problem, setting)
	default:
		return nil, fmt.Errorf("unknown algorithm %q (want de or tlbo)", cfg.Algorithm)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("Starting optimization",
		"objective", cfg.Objective, "dim", cfg.Dim,
		"algorithm", cfg.Algorithm, "task", task.String(), "seed", cfg.Seed)

	base := alg.Base()
	start := time.Now()
	bestFitness := metaheuristics.Run(alg, func(r metaheuristics.Report) {
		slog.Info("Progress", "gen", r.Gen, "fitness", r.Fitness, "elapsed", r.Time)
	})
	elapsed := time.Since(start)

	best, _ := base.Result()
	return &runResult{
		JobID:       jobID,
		Objective:   cfg.Objective,
		Algorithm:   cfg.Algorithm,
		BestParams:  best,
		BestFitness: bestFitness,
		Generations: base.Gen,
		Elapsed:     elapsed.Seconds(),
		Reports:     base.History(),
	}, nil
}

// saveRunRecord persists the outcome so it can be listed and resumed.
func saveRunRecord(cfg store.RunConfig, res *runResult) error {
	st, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create record store: %w", err)
	}
	defer st.Close()

	initial := res.BestFitness
	if len(res.Reports) > 0 {
		initial = res.Reports[0].Fitness
	}
	rec := store.NewRunRecord(res.JobID, res.BestParams, res.BestFitness, initial, res.Generations, cfg)
	if err := st.SaveRecord(res.JobID, rec); err != nil {
		return err
	}

	tw, err := store.NewTraceWriter(dataDir, res.JobID, false)
	if err != nil {
		return err
	}
	defer tw.Close()
	for _, r := range res.Reports {
		if err := tw.Write(store.TraceEntry{Gen: r.Gen, Fitness: r.Fitness, Time: r.Time}); err != nil {
			return err
		}
	}
	return nil
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg := store.RunConfig{
		Objective: objective,
		Dim:       dim,
		Algorithm: algorithm,
		Strategy:  strategy,
		F:         deF,
		CR:        deCR,
		Pop:       popSize,
		Task:      taskName,
		TaskValue: taskValue,
		Rpt:       rptEvery,
		Seed:      seed,
	}

	jobID := uuid.New().String()
	result, err := executeRun(jobID, cfg, nil)
	if err != nil {
		return err
	}
	cfg.Dim = len(result.BestParams)
	cfg.Pop = popForRecord(cfg)

	if dataDir != "" {
		if err := saveRunRecord(cfg, result); err != nil {
			slog.Warn("Failed to save record", "error", err)
		}
	}

	initial := result.Reports[0].Fitness
	slog.Info("Optimization complete",
		"elapsed", result.Elapsed,
		"initial_fitness", initial,
		"best_fitness", result.BestFitness,
		"generations", result.Generations,
	)

	if outPath != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize result: %w", err)
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		fmt.Printf("Wrote %s\n", outPath)
	}

	fmt.Printf("Job %s: fitness %.6g -> %.6g after %d generations (%.2fs)\n",
		jobID, initial, result.BestFitness, result.Generations, result.Elapsed)
	fmt.Printf("Best: %v\n", result.BestParams)

	return nil
}

// popForRecord resolves the population size actually used so resume
// validation sees the effective value, not the 0 placeholder.
func popForRecord(cfg store.RunConfig) int {
	if cfg.Pop > 0 {
		return cfg.Pop
	}
	if cfg.Algorithm == "de" {
		return metaheuristics.DefaultDESetting().PopNum
	}
	return metaheuristics.DefaultSetting().PopNum
}
