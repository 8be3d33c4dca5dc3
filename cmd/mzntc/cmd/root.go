package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "mzntc",
	Short: "Standalone type checker for MiniZinc-style constraint models",
	Long: `mzntc is the type-checking and name-resolution core of a MiniZinc-style
constraint modelling language: type lattice and subtyping, scope
resolution, enum expansion, coercion insertion, and overload resolution,
exposed without the rest of a full compiler (no parser, no flattener, no
solver backend).

Models are read from the compact JSON fixture format described in
internal/fixture, not from .mzn source text — parsing MiniZinc's surface
syntax is outside this tool's scope.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))
}
