package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/checker"
	"github.com/cwbudde/mzn-typecheck/internal/fixture"
	"github.com/spf13/cobra"
)

var modelInterfaceCmd = &cobra.Command{
	Use:   "model-interface [file]",
	Short: "Type-check a model and emit its input/output JSON interface",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModelInterface,
}

func init() {
	rootCmd.AddCommand(modelInterfaceCmd)
}

func runModelInterface(cmd *cobra.Command, args []string) error {
	doc, err := readInput(args)
	if err != nil {
		return err
	}
	m, err := fixture.Load(doc)
	if err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}

	env := checker.NewEnv()
	driver := checker.NewDriver(env, checker.Options{})
	if diags := driver.Run(m); len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "%s: %s [%s]\n", d.Pos, d.Message, d.Kind)
		}
		return fmt.Errorf("type-checking failed with %d diagnostic(s)", len(diags))
	}

	method := ast.Satisfy
	for _, it := range m.Items {
		if si, ok := it.(*ast.SolveItem); ok {
			method = si.Method
		}
	}
	return checker.WriteModelInterface(m, method, os.Stdout)
}
