package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/mzn-typecheck/internal/checker"
	"github.com/cwbudde/mzn-typecheck/internal/config"
	"github.com/cwbudde/mzn-typecheck/internal/errors"
	"github.com/cwbudde/mzn-typecheck/internal/fixture"
	"github.com/spf13/cobra"
)

var (
	checkConfigPath string
	checkFzn        bool
	checkColor      bool
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Type-check a model in the JSON fixture format",
	Long: `Type-check reads a model in the compact JSON fixture format (see
internal/fixture), runs it through the full P0-P8 pass sequence, and
reports diagnostics.

If no file is provided, reads from stdin. Use --fzn to run only the
FlatZinc fallback typer instead of the full pass sequence.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkConfigPath, "config", "", "path to a YAML config file")
	checkCmd.Flags().BoolVar(&checkFzn, "fzn", false, "run only the FlatZinc fallback typer")
	checkCmd.Flags().BoolVar(&checkColor, "color", false, "colorize diagnostic output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	doc, err := readInput(args)
	if err != nil {
		return err
	}
	m, err := fixture.Load(doc)
	if err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}

	cfg := config.Default()
	if checkConfigPath != "" {
		cfg, err = config.Load(checkConfigPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	env := checker.NewEnv()
	var diags []checker.Diagnostic
	if checkFzn {
		scopes := checker.NewScopeStack()
		for _, vd := range m.VarDeclItems() {
			if err := scopes.Add(vd); err != nil {
				return err
			}
		}
		diags = checker.NewFznTyper(scopes).Run(m)
	} else {
		driver := checker.NewDriver(env, checker.Options{IgnoreUndefinedParameters: cfg.IgnoreUndefinedParameters})
		diags = driver.Run(m)
	}

	if len(diags) == 0 {
		fmt.Println("OK: no diagnostics")
		return nil
	}

	var errs []*errors.CompilerError
	for _, d := range diags {
		errs = append(errs, errors.NewCompilerError(d.Pos, fmt.Sprintf("%s [%s]", d.Message, d.Kind), doc, ""))
	}
	fmt.Fprint(os.Stderr, errors.FormatErrors(errs, checkColor))
	return fmt.Errorf("type-checking failed with %d diagnostic(s)", len(errs))
}

func readInput(args []string) (string, error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
