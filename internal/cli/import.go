package cli

import (
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/gitsim/internal/gitimport"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Replace the repository with the history of a real git repository",
	Long: `Replace the repository state with the branches, tags and commit graph of
a git repository on disk. Only metadata is imported: messages, parents and
refs. Commits keep their full hashes.

Examples:
  gitsim import .
  gitsim import ~/src/project --max-commits 500`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

var importMaxCommits int

func init() {
	importCmd.Flags().IntVar(&importMaxCommits, "max-commits", gitimport.DefaultMaxCommits, "Maximum number of commits to import")
}

func runImport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	doc, err := gitimport.Import(args[0], &gitimport.Options{
		MaxCommits: importMaxCommits,
		Logger:     c.Logger,
	})
	if err != nil {
		exitError("failed to import %s: %v", args[0], err)
	}
	if err := c.Interp.Replace(doc); err != nil {
		exitError("failed to load imported state: %v", err)
	}

	green.Fprintf(stdout, "Imported %d commits, %d branches, %d tags from %s\n",
		doc.Commits.Len(), doc.Branches.Len(), doc.Tags.Len(), args[0])
	printResult(stdout, c.Interp.Execute(c.Interp.Tool()+" status"))
}
