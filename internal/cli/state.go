package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/kilupskalvis/gitsim/internal/models"
	"github.com/kilupskalvis/gitsim/internal/store"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the saved repository state",
	Long: `Print the saved repository state document, the same document that is
persisted between runs. Output is highlighted when writing to a terminal.

Examples:
  gitsim state
  gitsim state --format yaml`,
	Args: cobra.NoArgs,
	Run:  runState,
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the repository state to a file",
	Long: `Write the repository state document to a file as JSON. Files ending in
.zst are zstd-compressed.`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Replace the repository state with a file",
	Long: `Replace the repository state with a document written by export.
Files ending in .zst are decompressed.`,
	Args: cobra.ExactArgs(1),
	Run:  runLoad,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the repository",
	Long:  `Discard every commit, branch and tag and delete the saved state.`,
	Args:  cobra.NoArgs,
	Run:   runClear,
}

var stateFormat string

func init() {
	stateCmd.Flags().StringVar(&stateFormat, "format", "json", "Output format (json|yaml)")
}

func runState(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	highlight := false
	if f, ok := stdout.(*os.File); ok {
		highlight = term.IsTerminal(int(f.Fd()))
	}
	if err := renderState(stdout, c.Interp.Snapshot(), stateFormat, highlight); err != nil {
		exitError("%v", err)
	}
}

// renderState writes doc as indented JSON or block-style YAML, keeping
// the document's key order in both.
func renderState(w io.Writer, doc *models.Document, format string, highlight bool) error {
	data, err := store.EncodeIndent(doc)
	if err != nil {
		return err
	}

	lexer := "json"
	switch format {
	case "json":
	case "yaml":
		if data, err = jsonToYAML(data); err != nil {
			return err
		}
		lexer = "yaml"
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}

	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	if highlight {
		return quick.Highlight(w, string(data), lexer, "terminal256", "monokai")
	}
	_, err = w.Write(data)
	return err
}

// jsonToYAML re-encodes JSON as YAML. Decoding into a yaml.Node rather
// than a map keeps key order.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("convert to yaml: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("convert to yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("convert to yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// blockStyle drops the flow and quoting styles JSON input carries.
// Empty collections stay in flow style so they print as {} and [].
func blockStyle(n *yaml.Node) {
	if (n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode) && len(n.Content) == 0 {
		n.Style = yaml.FlowStyle
		return
	}
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}

func runExport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	doc := c.Interp.Snapshot()
	if err := store.WriteFile(args[0], doc); err != nil {
		exitError("failed to export: %v", err)
	}
	fmt.Fprintf(stdout, "Exported %d commits to %s\n", doc.Commits.Len(), args[0])
}

func runLoad(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	doc, err := store.ReadFile(args[0])
	if err != nil {
		exitError("failed to read %s: %v", args[0], err)
	}
	if err := c.Interp.Replace(doc); err != nil {
		exitError("invalid state in %s: %v", args[0], err)
	}
	fmt.Fprintf(stdout, "Loaded %d commits from %s\n", doc.Commits.Len(), args[0])
}

func runClear(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	printResult(stdout, c.Interp.Clear())
}
