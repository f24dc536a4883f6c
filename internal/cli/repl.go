package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kilupskalvis/gitsim/internal/interp"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long: `Start an interactive session. Each line is executed as it is entered
and the state is saved after every change.

Besides the git commands, the session understands:
  clear   discard the repository and start over
  exit    leave the session (also quit or Ctrl-D)`,
	Args: cobra.NoArgs,
	Run:  runRepl,
}

const prompt = "gitsim> "

func runRepl(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		if err := session(c.Interp, os.Stdin, stdout); err != nil {
			exitError("%v", err)
		}
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		exitError("failed to enter raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, prompt)
	fmt.Fprintf(t, "gitsim: type %q for a list of commands, \"exit\" to leave\n", "help")

	for {
		line, err := t.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			c.Logger.Error("read line", "error", err)
			return
		}
		if !replLine(c.Interp, t, line) {
			return
		}
	}
}

// session runs a non-interactive stream of lines, such as piped input.
func session(in *interp.Interpreter, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if !replLine(in, w, sc.Text()) {
			return nil
		}
	}
	return sc.Err()
}

// replLine handles one session line and reports whether to continue.
func replLine(in *interp.Interpreter, w io.Writer, line string) bool {
	switch strings.TrimSpace(line) {
	case "exit", "quit":
		return false
	case "clear":
		printResult(w, in.Clear())
		return true
	}
	printResult(w, in.Execute(line))
	return true
}
