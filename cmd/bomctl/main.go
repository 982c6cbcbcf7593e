// Command bomctl works with bill-of-materials fixtures offline: it filters
// rows, writes spreadsheet and PDF exports and lists export history.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/structdraw/backend/internal/analysis"
)

// Version info (set during build)
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "bomctl",
	Short: "Bill of materials tools for structural drawings",
	Long: `bomctl reads analysis fixtures (YAML documents with "elements" and
"rows") and works with their bill of materials without running the server.

When no fixture is given the built-in demonstration content is used.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "bomctl", Version)
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadFixture reads the fixture at path, or the demo content when path is empty.
func loadFixture(path string) (*analysis.Result, error) {
	if path == "" {
		return analysis.DemoFixture()
	}
	return analysis.LoadFixture(path)
}

// fixtureArg returns the optional first positional argument.
func fixtureArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
