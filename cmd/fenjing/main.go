// Package main implements the fenjing-go CLI: a command-line front end over
// the SSTI payload generation engine (internal/ssti), its HTTP/browser
// oracles and field-discovery fuzzer (internal/probe), and its Datalog-backed
// explain ledger (internal/explain).
//
// # File Index
//
//   - main.go          - entry point, rootCmd, global flags, logger bootstrap
//   - generate.go       - `fenjing generate` - run the engine once for one goal
//   - crack.go          - `fenjing crack`    - discover the field, generate an
//     OS_POPEN_READ payload, submit it, print the command's output
//   - explain.go        - `fenjing explain`  - print the ledger's blocked-
//     construct summary for the last run
//   - styles.go         - lipgloss status styles for CLI announcements
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FunctFan/fenjing-go/internal/config"
	"github.com/FunctFan/fenjing-go/internal/logging"
)

var (
	verbose         bool
	cfgPath         string
	workspace       string
	timeout         time.Duration
	cfg             *config.Config
	logger          *zap.Logger
	stopConfigWatch func()
)

var rootCmd = &cobra.Command{
	Use:   "fenjing",
	Short: "fenjing-go - a Jinja2-dialect SSTI payload generation engine",
	Long: `fenjing-go synthesizes server-side template injection payloads against
a WAF-guarded Jinja2-dialect target, given only a blackbox accept/reject
oracle for candidate template fragments.

Run "fenjing generate" to produce one payload for a single goal, or
"fenjing crack" to discover the injectable field on a live form and run a
shell command through it end to end.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			logger.Warn("failed to initialize file logging", zap.Error(err))
		}
		stopWatch, err := logging.WatchConfig()
		if err != nil {
			logger.Warn("config hot-reload unavailable", zap.Error(err))
		} else {
			stopConfigWatch = stopWatch
		}

		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Info("configuration loaded",
			zap.String("path", cfgPath),
			zap.String("workspace", ws))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopConfigWatch != nil {
			stopConfigWatch()
		}
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".fenjing/config.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "oracle round-trip timeout")

	rootCmd.AddCommand(generateCmd, crackCmd, explainCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
