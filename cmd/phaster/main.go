package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/phaster/internal/app"
	"github.com/ternarybob/phaster/internal/common"
)

// fastaFiles is a custom flag type that allows multiple -fasta flags
type fastaFiles []string

func (f *fastaFiles) String() string {
	return fmt.Sprintf("%v", *f)
}

func (f *fastaFiles) Set(value string) error {
	*f = append(*f, value)
	return nil
}

var (
	// Command-line flags
	inputFiles   fastaFiles // Multiple -fasta flags supported
	contigs      = flag.Bool("contigs", false, "Input is a multi-contig assembly file")
	contigsC     = flag.Bool("c", false, "Input is a multi-contig assembly file (shorthand)")
	getStatus    = flag.Bool("get-status", false, "Poll status of submitted jobs stored in the ledger; downloads results for finished jobs")
	getStatusG   = flag.Bool("g", false, "Poll status of submitted jobs (shorthand)")
	ledgerPath   = flag.String("database", "", "Tab-separated ledger of submitted jobs (overrides config)")
	ledgerPathD  = flag.String("d", "", "Ledger path (shorthand, overrides config)")
	endpoint     = flag.String("url", "", "URL of the PHASTER API endpoint (overrides config)")
	endpointU    = flag.String("u", "", "API endpoint URL (shorthand, overrides config)")
	waitSecs     = flag.Int("wait", -1, "Seconds to wait between remote calls (overrides config)")
	waitSecsW    = flag.Int("w", -1, "Wait seconds (shorthand, overrides config)")
	logLevel     = flag.String("loglevel", "", "Log level: debug or info (overrides config)")
	configFile   = flag.String("config", "", "Configuration file path")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&inputFiles, "fasta", "FASTA file with genome sequence to submit (can be specified multiple times)")
	flag.Var(&inputFiles, "f", "FASTA file to submit (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()

	// Invocation without arguments prints help; the tool never does remote
	// work implicitly.
	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Phaster version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Merge shorthand flags (shorthand takes precedence)
	finalEndpoint := *endpoint
	if *endpointU != "" {
		finalEndpoint = *endpointU
	}
	finalLedger := *ledgerPath
	if *ledgerPathD != "" {
		finalLedger = *ledgerPathD
	}
	finalWait := *waitSecs
	if *waitSecsW >= 0 {
		finalWait = *waitSecsW
	}
	finalContigs := *contigs || *contigsC
	finalGetStatus := *getStatus || *getStatusG

	// Auto-discover config file if not specified
	configPath := *configFile
	if configPath == "" {
		if _, err := os.Stat("phaster.toml"); err == nil {
			configPath = "phaster.toml"
		}
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	config, err = common.LoadFromFile(configPath)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Str("path", configPath).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, finalEndpoint, finalLedger, finalWait, *logLevel)

	if err := config.Validate(); err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Str("url", config.API.URL).
		Str("ledger", config.Ledger.Path).
		Int("wait", config.API.Wait).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}

	ctx := context.Background()

	switch {
	case len(inputFiles) > 0:
		logger.Info().
			Int("files", len(inputFiles)).
			Bool("contigs", finalContigs).
			Msg("Submitting genomes to PHASTER")
		if err := application.SubmitAll(ctx, inputFiles, finalContigs); err != nil {
			logger.Fatal().Err(err).Msg("Submission run failed")
			os.Exit(1)
		}

	case finalGetStatus:
		logger.Info().
			Int("jobs", application.Ledger.Len()).
			Msg("Polling status of tracked jobs")
		if err := application.PollAll(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Status run failed")
			os.Exit(1)
		}

	default:
		logger.Info().Msg("No action requested; rewriting ledger unchanged")
	}

	if err := application.Save(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to save job ledger")
		os.Exit(1)
	}

	logger.Info().
		Int("jobs", application.Ledger.Len()).
		Str("ledger", config.Ledger.Path).
		Msg("Done")
}
