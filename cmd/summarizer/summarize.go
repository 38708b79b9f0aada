package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/video-summarizer/internal/client"
	"github.com/jonathan/video-summarizer/internal/config"
	"github.com/jonathan/video-summarizer/internal/observability"
	"github.com/jonathan/video-summarizer/internal/pipeline"
	"github.com/jonathan/video-summarizer/internal/upstream"
)

var (
	summarizePrompt  string
	summarizeServer  string
	summarizeLocal   bool
	summarizeToken   string
	summarizeTimeout time.Duration
	summarizeVerbose bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <video-url>",
	Short: "Summarize one video",
	Long: `Run the pipeline for one watch URL and print the summary.

By default the two calls go to a running summarizer server (--server). With --local
the metadata and completion providers are called directly using the local configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarizeCmd,
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizePrompt, "prompt", "p", "", "Summary instruction, e.g. \"three bullet points\"")
	summarizeCmd.Flags().StringVar(&summarizeServer, "server", "http://localhost:3000", "Base URL of the summarizer server")
	summarizeCmd.Flags().BoolVar(&summarizeLocal, "local", false, "Call the providers directly instead of a server")
	summarizeCmd.Flags().StringVar(&summarizeToken, "token", "", "Bearer token for the server (defaults to SUMMARIZER_TOKEN)")
	summarizeCmd.Flags().DurationVar(&summarizeTimeout, "timeout", 2*time.Minute, "Overall time limit")
	summarizeCmd.Flags().BoolVarP(&summarizeVerbose, "verbose", "v", false, "Print state transitions and the fetched description")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarizeCmd(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	backend, closeBackend, err := newBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend()

	printer := observability.NewPrinter(cmd.OutOrStdout(), summarizeVerbose)
	return summarize(ctx, backend, printer, pipeline.Request{VideoURL: args[0], Instruction: summarizePrompt})
}

// newBackend picks the remote server client or the local gateway.
func newBackend(ctx context.Context) (pipeline.Backend, func(), error) {
	if !summarizeLocal {
		token := summarizeToken
		if token == "" {
			token = os.Getenv("SUMMARIZER_TOKEN")
		}
		return client.New(summarizeServer, client.WithToken(token), client.WithTimeout(summarizeTimeout)), func() {}, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	gateway, err := upstream.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create upstream gateway: %w", err)
	}
	return gateway, func() { _ = gateway.Close() }, nil
}

// summarize runs one request to completion. The summary box is the
// controller's scroll target.
func summarize(ctx context.Context, backend pipeline.Backend, printer *observability.Printer, req pipeline.Request) error {
	var ctrl *pipeline.Controller
	ctrl = pipeline.NewController(backend,
		pipeline.WithObserver(func(ev pipeline.Event) {
			printer.PrintEvent(ev)
			if ev.To == pipeline.DescriptionReady {
				printer.PrintDescription(ctrl.Snapshot())
			}
		}),
		pipeline.WithScrollNotifier(printer.PrintSummary),
	)
	defer ctrl.Close()

	ctrl.Submit(ctx, req)
	snap, err := ctrl.Wait(ctx)
	if err != nil {
		return fmt.Errorf("summarize interrupted: %w", err)
	}

	if snap.State != pipeline.SummaryReady {
		printer.PrintFailure(snap)
		return errors.New(snap.ErrorMessage)
	}
	return nil
}
