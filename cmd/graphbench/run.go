package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"graphbench/pkg/aging"
	"graphbench/pkg/config"
	"graphbench/pkg/library"
	"graphbench/pkg/logging"
	"graphbench/pkg/metrics"
	"graphbench/pkg/results"
	"graphbench/pkg/signals"
)

var runFlags struct {
	configPath       string
	libraryName      string
	logPath          string
	directed         bool
	numThreads       int
	granularity      int
	buildFrequency   time.Duration
	reportProgress   bool
	numReportsPerOps uint64
	measureLatency   bool
	resultsPath      string
	metricsAddr      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay an update log against a library",
	RunE:  runBenchmark,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.configPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&runFlags.libraryName, "library", "", "registered name of the library under test (e.g. adjlist)")
	f.StringVar(&runFlags.logPath, "log", "", "path to the update log")
	f.BoolVar(&runFlags.directed, "directed", false, "create the library with directed edges")
	f.IntVar(&runFlags.numThreads, "threads", 1, "number of writer threads")
	f.IntVar(&runFlags.granularity, "granularity", aging.DefaultWorkerGranularity, "operations per worker chunk between progress polls")
	f.DurationVar(&runFlags.buildFrequency, "build-frequency", 0, "background build cadence (0 disables)")
	f.BoolVar(&runFlags.reportProgress, "progress", false, "print progress lines")
	f.Uint64Var(&runFlags.numReportsPerOps, "reports-per-ops", 1, "progress reports per num_edges operations")
	f.BoolVar(&runFlags.measureLatency, "measure-latency", false, "record per-operation latencies")
	f.StringVar(&runFlags.resultsPath, "results", "", "SQLite database to append the run to")
	f.StringVar(&runFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	rootCmd.AddCommand(runCmd)
}

// mergeConfig layers explicit flags over the config file over the defaults.
func mergeConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if runFlags.configPath != "" {
		loaded, err := config.Load(runFlags.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	set := cmd.Flags().Changed
	if set("library") {
		cfg.Library = runFlags.libraryName
	}
	if set("log") {
		cfg.LogPath = runFlags.logPath
	}
	if set("directed") {
		cfg.Directed = runFlags.directed
	}
	if set("threads") {
		cfg.NumThreads = runFlags.numThreads
	}
	if set("granularity") {
		cfg.WorkerGranularity = runFlags.granularity
	}
	if set("build-frequency") {
		cfg.BuildFrequencyMS = runFlags.buildFrequency.Milliseconds()
	}
	if set("progress") {
		cfg.ReportProgress = runFlags.reportProgress
	}
	if set("reports-per-ops") {
		cfg.NumReportsPerOps = runFlags.numReportsPerOps
	}
	if set("measure-latency") {
		cfg.MeasureLatency = runFlags.measureLatency
	}
	if set("results") {
		cfg.ResultsPath = runFlags.resultsPath
	}
	if set("metrics-addr") {
		cfg.MetricsAddr = runFlags.metricsAddr
	}
	return cfg, nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := mergeConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.DefaultLogger()
	lib, err := library.Open(cfg.Library, cfg.Directed)
	if err != nil {
		return err
	}

	guard, err := signals.Install()
	if err != nil {
		return err
	}
	defer guard.Uninstall()

	registry := metrics.Default()
	if cfg.MetricsAddr != "" {
		handler := promhttp.HandlerFor(registry.PrometheusRegistry(), promhttp.HandlerOpts{})
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", handler)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics endpoint failed", logging.Error(err))
			}
		}()
	}

	exp := aging.NewExperiment()
	exp.SetLibrary(cfg.Library, lib)
	exp.SetLogPath(cfg.LogPath)
	exp.SetParallelismDegree(cfg.NumThreads)
	exp.SetWorkerGranularity(cfg.WorkerGranularity)
	exp.SetMaxWeight(cfg.MaxWeight)
	exp.SetBuildFrequency(cfg.BuildFrequency())
	exp.SetReportProgress(cfg.ReportProgress)
	exp.SetNumReportsPerOps(cfg.NumReportsPerOps)
	exp.SetMeasureLatency(cfg.MeasureLatency)
	exp.SetLogger(logger)
	exp.SetMetrics(registry)
	exp.SetStopChannel(guard.Done())

	result, err := exp.Execute()
	if err != nil {
		registry.RecordRun("error")
		return err
	}

	printSummary(cfg, result)

	if cfg.ResultsPath != "" {
		store, err := results.Open(cfg.ResultsPath)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.SaveRun(cfg, result)
		if err != nil {
			return err
		}
		fmt.Printf("run saved as %s in %s\n", id, cfg.ResultsPath)
	}
	return nil
}

func printSummary(cfg config.Config, result *aging.Result) {
	fmt.Printf("\nlibrary:            %s\n", cfg.Library)
	fmt.Printf("operations:         %d\n", result.NumOperationsTotal)
	fmt.Printf("completion time:    %v\n", result.CompletionTime)
	fmt.Printf("throughput:         %.0f ops/s\n", result.Throughput())
	fmt.Printf("build invocations:  %d\n", result.NumBuildInvocations)
	fmt.Printf("final graph:        %d vertices, %d edges (match: %v)\n",
		result.NumVerticesFinalGraph, result.NumEdgesFinalGraph, result.Matches())
	if len(result.Latencies) > 0 {
		stats := result.LatencySummary()
		fmt.Printf("latency:            mean %v, p50 %v, p90 %v, p99 %v, max %v\n",
			stats.Mean, stats.P50, stats.P90, stats.P99, stats.Max)
	}
}
