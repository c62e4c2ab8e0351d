// Command fvkernel exercises the assembly engine on a synthetic vertical
// column: it loads a YAML run description, assembles one residual vector and
// Jacobian, and reports their norms.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the fvkernel CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fvkernel",
		Short: "Black-oil residual assembly engine",
		Long: "fvkernel assembles the conservation residual and Jacobian of a " +
			"black-oil reservoir model with two-point flux approximation.",
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewAssembleCommand(opts))

	return cmd
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
