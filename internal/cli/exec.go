package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <command line>",
	Short: "Run a single command line",
	Long: `Run one command line against the saved repository state.

Arguments are joined with spaces, so shell quoting of messages is optional.

Examples:
  gitsim exec git init
  gitsim exec git commit -m "add parser"
  gitsim exec 'git tag -a v1 -m "first release"'`,
	Args: cobra.MinimumNArgs(1),
	Run:  runExec,
}

func runExec(cmd *cobra.Command, args []string) {
	c := initContext()
	res := c.Interp.Execute(strings.Join(args, " "))
	c.Close()

	printResult(stdout, res)
	if res.Failed() {
		os.Exit(1)
	}
}
