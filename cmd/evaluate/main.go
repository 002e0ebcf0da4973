// Command evaluate scores each tau by predicting held-out matches from
// ratings trained on earlier ones.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	app "github.com/okian/wrestlerank/internal/app"
	"github.com/okian/wrestlerank/internal/cli"
	"github.com/okian/wrestlerank/internal/config"
	"github.com/okian/wrestlerank/internal/domain/evaluation"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("evaluate: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := cli.Load(ctx, "evaluate", os.Args[1:], func(fs *flag.FlagSet, cfg *config.Config) {
		cli.BindSource(fs, cfg)
		fs.StringVar(&cfg.TrainEnd, "train-end", cfg.TrainEnd, "last instant of the training set (required)")
		fs.StringVar(&cfg.EvalStart, "eval-start", cfg.EvalStart, "first instant of the evaluation set (default: right after train-end)")
		fs.StringVar(&cfg.EvalEnd, "eval-end", cfg.EvalEnd, "last instant of the evaluation set (inclusive)")
		fs.StringVar(&cfg.EvalMode, "mode", cfg.EvalMode, "online or frozen")
		fs.StringVar(&cfg.EvalOutput, "output", cfg.EvalOutput, "write the JSON summary to this path")
		fs.BoolVar(&cfg.EvalRecords, "records", cfg.EvalRecords, "include per-match records in the summary")
	})
	if err != nil {
		return err
	}
	window, err := cfg.Window()
	if err != nil {
		return err
	}
	if window.TrainEnd.IsZero() {
		return evaluation.ErrMissingTrainEnd
	}

	src, closeSrc, err := cli.OpenSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeSrc() }()

	opts, err := cli.ServiceOptions(cfg, src)
	if err != nil {
		return err
	}
	summary, err := app.New(append(opts, app.WithPersistTau(0), app.WithOutputDir(""))...).Evaluate(ctx, app.EvalRequest{
		Window:      window,
		Mode:        cfg.Mode(),
		Records:     cfg.EvalRecords,
		SummaryPath: cfg.EvalOutput,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "tau\tmatches\tlog_loss\tbrier\taccuracy")
	for _, r := range summary.Results {
		if r.MatchesScored == 0 {
			fmt.Fprintf(tw, "%.3f\t0\t-\t-\t-\n", r.Tau)
			continue
		}
		fmt.Fprintf(tw, "%.3f\t%d\t%.6f\t%.6f\t%.4f\n", r.Tau, r.MatchesScored, r.LogLoss, r.BrierScore, r.Accuracy)
	}
	if best := app.Best(summary.Results); best != nil {
		fmt.Fprintf(tw, "best\t\t%.3f\t\t\n", best.Tau)
	}
	return tw.Flush()
}
