// Package main provides the wallet credit analyzer CLI.
// For each address: history → profiles → resolve → aggregate → narrative → sinks
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"solana-credit-lab/internal/analyzer"
	"solana-credit-lab/internal/config"
	"solana-credit-lab/internal/logging"
	"solana-credit-lab/internal/observability"
	"solana-credit-lab/internal/reporting"
	"solana-credit-lab/internal/storage"
)

func main() {
	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	var addresses addressList
	configPath := flag.String("config", "", "Path to YAML configuration file")
	flag.Var(&addresses, "address", "Wallet address to analyze (repeatable, comma-separated)")
	interactive := flag.Bool("interactive", false, "Read addresses from stdin until exit/quit")
	save := flag.Bool("save", false, "Write credit_analysis_<address> files to the output directory")
	outputDir := flag.String("output-dir", "", "Output directory for saved reports (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse/Kafka")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config, \"off\" disables)")
	showLast := flag.Bool("show-last", false, "Print the latest stored report of each address instead of analyzing")
	flag.Parse()

	addresses = append(addresses, flag.Args()...)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Storage.OutputDir = *outputDir
	}
	if *save {
		cfg.Storage.SaveFile = true
	}
	if *metricsAddr == "off" {
		cfg.Metrics.Addr = ""
	} else if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	log, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxAgeDays: cfg.Logging.MaxAge,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}

	if len(addresses) == 0 && !*interactive {
		log.Error("no address given: use --address, positional arguments or --interactive")
		os.Exit(2)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Warn("received signal, cancelling analysis")
		cancel()
	}()

	var metricsServer *http.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = startMetricsServer(cfg.Metrics.Addr, logging.Component(log, "metrics"))
	}

	az := buildAnalyzer(cfg, log)

	sinks, reports, cleanup := buildSinks(ctx, cfg, *useMemory, logging.Component(log, "storage"))
	defer cleanup()

	fileSink := newFileSink(cfg)
	if reports == nil {
		reports = fileSink
	}

	app := &app{
		analyzer:    az,
		sinks:       sinks,
		fileSink:    fileSink,
		reports:     reports,
		showLast:    *showLast,
		saveFile:    cfg.Storage.SaveFile,
		askSave:     *interactive && !*save,
		interactive: *interactive,
		out:         os.Stdout,
		logger:      logging.Component(log, "cli"),
	}

	failed := app.run(ctx, addresses, bufio.NewScanner(os.Stdin))

	if metricsServer != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		stop()
	}

	if failed > 0 && !*interactive {
		log.WithField("failed", failed).Error("some analyses failed")
		os.Exit(1)
	}
}

// app runs analyses for a stream of addresses.
type app struct {
	analyzer    *analyzer.Analyzer
	sinks       *storage.MultiSink
	fileSink    storage.ReportSink
	reports     storage.LatestReader
	showLast    bool
	saveFile    bool
	askSave     bool
	interactive bool
	out         io.Writer
	logger      *logrus.Entry
}

// run analyzes every flag address, then stdin addresses when interactive.
// Returns the number of failed analyses.
func (a *app) run(ctx context.Context, addresses []string, in *bufio.Scanner) int {
	failed := 0
	for _, addr := range addresses {
		if ctx.Err() != nil {
			return failed
		}
		if !a.process(ctx, addr, in) {
			failed++
		}
	}

	if !a.interactive {
		return failed
	}

	fmt.Fprintln(a.out, "Solana Wallet Analyzer CLI - Credit Assessment")
	for ctx.Err() == nil {
		addr, ok := prompt(a.out, in, "Please enter address or exit to quit: ")
		if !ok || isExit(addr) {
			break
		}
		if addr == "" {
			continue
		}
		if !a.process(ctx, addr, in) {
			failed++
		}
	}
	return failed
}

// process analyzes one address. Failures are logged and reported as false.
func (a *app) process(ctx context.Context, address string, in *bufio.Scanner) bool {
	log := a.logger.WithField("address", address)

	if a.showLast {
		return a.printLatest(ctx, log, address)
	}

	report, err := a.analyzer.Analyze(ctx, address)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("analysis cancelled")
		} else {
			log.WithError(err).Error("analysis failed")
		}
		return false
	}

	if err := reporting.WriteConsole(a.out, report); err != nil {
		log.WithError(err).Warn("failed to print summary")
	}

	if a.sinks != nil && a.sinks.Len() > 0 {
		// Failures are logged per sink inside MultiSink.
		_ = a.sinks.Save(ctx, report)
	}

	saveFile := a.saveFile
	if a.askSave {
		answer, _ := prompt(a.out, in, "Save analysis to file? (y/n): ")
		saveFile = isYes(answer)
	}
	if saveFile && a.fileSink != nil {
		if err := a.fileSink.Save(ctx, report); err != nil {
			observability.RecordSinkError("file")
			log.WithError(err).Error("failed to save report file")
		} else {
			log.Info("report saved to file")
		}
	}
	return true
}

// printLatest prints the newest stored report of address without analyzing.
func (a *app) printLatest(ctx context.Context, log *logrus.Entry, address string) bool {
	if a.reports == nil {
		log.Error("no report store configured")
		return false
	}
	report, err := a.reports.GetLatestByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("no stored report for address")
		} else {
			log.WithError(err).Error("failed to load stored report")
		}
		return false
	}
	if err := reporting.WriteConsole(a.out, report); err != nil {
		log.WithError(err).Warn("failed to print summary")
	}
	return true
}

// startMetricsServer serves /metrics and /health in the background.
func startMetricsServer(addr string, log *logrus.Entry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", addr).Info("starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server error")
		}
	}()
	return srv
}
