package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FunctFan/fenjing-go/internal/explain"
	"github.com/FunctFan/fenjing-go/internal/ssti"
)

var explainGenType string

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "explain why a generation type succeeded, failed, or looks blocked",
	Long: `explain queries the Datalog-backed fact ledger (internal/explain) built
during a generate/crack run and reports how many fragments for --type were
accepted versus rejected, then lists the rejected fragments. A generate or
crack run records only the fragments the oracle accepted, so its ledger
shows no rejected ones.

This command reads the ledger a prior "fenjing generate" or "fenjing crack"
invocation saved to .fenjing/ledger.json under the workspace, so it must be
run against the same --workspace (or current directory) as that prior run.`,
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainGenType, "type", "", "generation type to explain (required)")
	explainCmd.MarkFlagRequired("type")
}

func runExplain(cmd *cobra.Command, args []string) error {
	ledger, err := explain.LoadLedger(ledgerPath())
	if err != nil {
		return fmt.Errorf("load ledger (run generate/crack first): %w", err)
	}
	defer ledger.Close()
	logger.Info("loaded ledger",
		zap.String("path", ledgerPath()),
		zap.String("run_id", ledger.RunID()))

	for _, line := range ledger.Why(ssti.GenType(explainGenType)) {
		fmt.Println(line)
	}
	return nil
}
