package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kilupskalvis/gitsim/internal/interp"
)

var (
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// printResult writes a command's transcript lines with colour coding:
// errors red, the current branch green, commit ids in log yellow.
func printResult(w io.Writer, res *interp.Result) {
	for n, line := range res.Output {
		switch {
		case strings.HasPrefix(line, "error: "):
			red.Fprintln(w, line)
		case strings.HasPrefix(line, "* ") && res.Command == "branch":
			green.Fprintln(w, line)
		case res.Command == "log" && n > 0 && strings.IndexByte(line, ' ') > 0:
			sp := strings.IndexByte(line, ' ')
			yellow.Fprint(w, line[:sp])
			fmt.Fprintln(w, line[sp:])
		case n == 0 && res.Command == "help":
			cyan.Fprintln(w, line)
		default:
			fmt.Fprintln(w, line)
		}
	}
}

// transcript renders lines as "$ <line>" followed by the output, the
// format replay scripts are compared in.
func transcript(line string, res *interp.Result) []string {
	out := make([]string, 0, len(res.Output)+1)
	out = append(out, "$ "+line)
	return append(out, res.Output...)
}
