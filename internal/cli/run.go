package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forgeworks/testforge/internal/config"
	apperrors "github.com/forgeworks/testforge/internal/errors"
	"github.com/forgeworks/testforge/internal/history"
	"github.com/forgeworks/testforge/internal/logging"
	"github.com/forgeworks/testforge/internal/pipeline"
	"github.com/forgeworks/testforge/internal/progress"
	"github.com/forgeworks/testforge/internal/request"
	"github.com/forgeworks/testforge/internal/state"
	"github.com/forgeworks/testforge/internal/worker"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <request.json>",
		Short: "Run the full pipeline for a request file",
		Long: `Run the full gate pipeline for a pipeline request.

The request file is a JSON document with at least a url and a feature or
user story. The pipeline fetches the page once, decides whether test data
preparation is needed, then drives each gate's worker in order, validating
every output before it is persisted. Test execution retries with bounded
self-healing when the same failure repeats.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPipeline,
	}

	cmd.Flags().Int("max-runs", 0, "Override the execution-run budget")
	cmd.Flags().Int("timeout", 0, "Override the execution timeout in seconds")
	cmd.Flags().Bool("no-progress", false, "Disable spinners and progress lines")
	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fail(apperrors.MissingRequestFile())
	}
	requestPath := args[0]

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fail(apperrors.WrapWithMessage(err, apperrors.Configuration, "loading configuration",
			"run 'testforge config init' to create a default config"))
	}

	raw, err := os.ReadFile(requestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fail(apperrors.RequestFileNotFound(requestPath))
		}
		return fail(apperrors.WrapWithMessage(err, apperrors.Prerequisite, "reading request file"))
	}

	classifier := &request.Classifier{
		DefaultMaxRuns:            cfg.MaxRuns,
		DefaultMaxHealingAttempts: cfg.MaxHealingAttempts,
		DefaultTimeoutSeconds:     cfg.ExecutionTimeout,
	}
	req, err := classifier.Classify(raw)
	if err != nil {
		if errors.Is(err, request.ErrNotPipelineRequest) {
			return fail(apperrors.NotAPipelineRequest(requestPath))
		}
		return fail(apperrors.RequestParseError(requestPath, err))
	}

	if maxRuns, _ := cmd.Flags().GetInt("max-runs"); maxRuns > 0 {
		req.Constraints.MaxRuns = maxRuns
	}
	if timeout, _ := cmd.Flags().GetInt("timeout"); timeout > 0 {
		req.Constraints.TimeoutSeconds = timeout
	}

	debug, _ := cmd.Flags().GetBool("debug")
	log := logging.New(debug || cfg.Debug, cfg.LogFormat)
	defer logging.Sync(log)

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fail(apperrors.StateDirNotWritable(cfg.StateDir))
	}
	store := state.NewStore(cfg.StateDir)

	invoker := worker.NewCommandInvoker(cfg.WorkersDir, cfg.WorkerCmds)
	workerTimeout := time.Duration(cfg.WorkerTimeout) * time.Second
	executionTimeout := time.Duration(cfg.ExecutionTimeout) * time.Second

	executor := pipeline.NewGateExecutor(store, invoker, workerTimeout, executionTimeout, log)
	healing := pipeline.NewHealingLoop(executor, invoker, store,
		cfg.MaxRuns, cfg.MaxHealingAttempts, workerTimeout, log)

	var reporter pipeline.Reporter
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	if cfg.ShowProgress && !noProgress {
		reporter = progress.NewGateDisplay(progress.DetectTerminalCapabilities())
	}

	fetcher := &pipeline.HTTPFetcher{}
	coord := pipeline.NewCoordinator(store, executor, healing, fetcher, reporter, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hw := history.NewWriter(cfg.StateDir, cfg.HistoryMaxEntries)
	key := state.Key(req.Domain, req.Feature)
	runID, histErr := hw.WriteStart(key, req.RequestID)
	if histErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", histErr)
	}

	start := time.Now()
	result, err := coord.Run(ctx, req)
	if err != nil {
		status := history.StatusFailed
		if errors.Is(err, context.Canceled) {
			status = history.StatusCancelled
		}
		recordRun(hw, runID, status, nil, start)
		return failRunError(err)
	}

	result.AuditTrail = runID
	printResult(result)
	recordRun(hw, runID, historyStatus(result.Status), result, start)

	switch result.Status {
	case state.StatusSuccess:
		return nil
	case state.StatusPartial:
		return NewExitError(ExitPartial)
	default:
		return NewExitError(ExitPipelineFailed)
	}
}

// failRunError maps coordinator errors to structured CLI errors.
func failRunError(err error) error {
	var valErr *request.ValidationError
	if errors.As(err, &valErr) {
		return fail(apperrors.InvalidRequest(valErr))
	}
	var timeoutErr *worker.TimeoutError
	if errors.As(err, &timeoutErr) {
		apperrors.PrintError(apperrors.PipelineTimeout(timeoutErr.Timeout.String(), timeoutErr.Worker))
		return NewExitError(ExitTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return fail(apperrors.NewRuntimeError("pipeline interrupted"))
	}
	return fail(apperrors.Wrap(err, apperrors.Runtime))
}

func historyStatus(s state.Status) string {
	switch s {
	case state.StatusSuccess:
		return history.StatusSuccess
	case state.StatusPartial:
		return history.StatusPartial
	default:
		return history.StatusFailed
	}
}

func recordRun(hw *history.Writer, runID, status string, result *pipeline.Result, start time.Time) {
	if runID == "" {
		return
	}
	gates, healingAttempts, score := 0, 0, 0
	if result != nil {
		gates = len(result.Gates)
		healingAttempts = result.HealingAttempts
		score = result.Metrics.OverallScore
	}
	if err := hw.UpdateComplete(runID, status, gates, healingAttempts, score, time.Since(start)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record run history: %v\n", err)
	}
}

func printResult(r *pipeline.Result) {
	fmt.Println()
	switch r.Status {
	case state.StatusSuccess:
		color.New(color.FgGreen, color.Bold).Printf("Pipeline SUCCESS")
	case state.StatusPartial:
		color.New(color.FgYellow, color.Bold).Printf("Pipeline PARTIAL")
	default:
		color.New(color.FgRed, color.Bold).Printf("Pipeline FAILED")
	}
	fmt.Printf("  (%s, %s)\n", r.Key, (time.Duration(r.ExecutionTimeMs) * time.Millisecond).Round(time.Millisecond))

	for _, g := range r.Gates {
		line := fmt.Sprintf("  gate %d %-16s %-8s score %3d", g.Gate, g.Name, g.Status, g.Score)
		fmt.Println(line)
		for _, issue := range g.Issues {
			fmt.Printf("      - %s\n", issue)
		}
	}

	fmt.Printf("\n  coverage %d%%  locator confidence %d%%  pass rate %d%%  overall %d\n",
		r.Metrics.Coverage, r.Metrics.LocatorConfidence, r.Metrics.PassRate, r.Metrics.OverallScore)

	if r.HealingAttempts > 0 {
		outcome := "did not converge"
		if r.HealingSucceeded {
			outcome = "converged"
		}
		fmt.Printf("  healing: %d attempt(s), %s\n", r.HealingAttempts, outcome)
	}
	if len(r.Deliverables) > 0 {
		fmt.Printf("  deliverables: %s\n", strings.Join(r.Deliverables, ", "))
	}
	if len(r.FailureIssues) > 0 {
		fmt.Printf("  failure: %s\n", strings.Join(r.FailureIssues, "; "))
	}
	if r.AuditTrail != "" {
		fmt.Printf("  run id: %s\n", r.AuditTrail)
	}
}
