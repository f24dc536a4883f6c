package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/kilupskalvis/gitsim/internal/app"
	"github.com/kilupskalvis/gitsim/internal/interp"
	"github.com/kilupskalvis/gitsim/internal/repo"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script>",
	Short: "Run a script of command lines on a fresh repository",
	Long: `Run a script of command lines on a fresh, unsaved repository and print
the transcript. Blank lines and lines starting with # are skipped; each
executed line is echoed as "$ <line>" before its output.

Ids are sequential and colours seeded by default so that transcripts are
reproducible.

Examples:
  gitsim replay demo.txt
  gitsim replay demo.txt --expect demo.golden
  gitsim replay demo.txt --watch`,
	Args: cobra.ExactArgs(1),
	Run:  runReplay,
}

var (
	replayExpect string
	replayWatch  bool
	replayIDs    string
	replaySeed   int64
)

const replayDebounce = 100 * time.Millisecond

func init() {
	f := replayCmd.Flags()
	f.StringVar(&replayExpect, "expect", "", "Compare the transcript with this file and fail on differences")
	f.BoolVar(&replayWatch, "watch", false, "Re-run whenever the script (or expected file) changes")
	f.StringVar(&replayIDs, "ids", repo.SchemeSequential, "Id scheme (sequential|random|uuid|content)")
	f.Int64Var(&replaySeed, "seed", 1, "Seed for ids and branch colours, 0 for time-seeded")
}

func runReplay(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := cfg.Logger(os.Stderr)
	script := args[0]

	if !replayWatch {
		ok, err := replayOnce(script, cfg.Tool, logger)
		if err != nil {
			exitError("%v", err)
		}
		if !ok {
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := watchReplay(ctx, script, cfg.Tool, logger); err != nil {
		exitError("%v", err)
	}
}

// replayOnce runs the script, prints the transcript and, with --expect,
// the diff. It reports whether the transcript matched.
func replayOnce(script, tool string, logger *slog.Logger) (bool, error) {
	f, err := os.Open(script)
	if err != nil {
		return false, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	in, err := freshInterpreter(tool, logger)
	if err != nil {
		return false, err
	}
	lines, err := runScript(in, f)
	if err != nil {
		return false, fmt.Errorf("failed to read script: %w", err)
	}

	if replayExpect == "" {
		for _, l := range lines {
			fmt.Fprintln(stdout, l)
		}
		return true, nil
	}

	want, err := os.ReadFile(replayExpect)
	if err != nil {
		return false, fmt.Errorf("failed to read expected transcript: %w", err)
	}
	diff, err := diffTranscript(string(want), lines, replayExpect)
	if err != nil {
		return false, err
	}
	if diff == "" {
		green.Fprintf(stdout, "transcript matches %s (%d lines)\n", replayExpect, len(lines))
		return true, nil
	}
	printDiff(stdout, diff)
	return false, nil
}

func freshInterpreter(tool string, logger *slog.Logger) (*interp.Interpreter, error) {
	opts, err := app.RepoOptions(replayIDs, replaySeed)
	if err != nil {
		return nil, err
	}
	return interp.New(interp.Config{Tool: tool, Repo: opts, Logger: logger})
}

// runScript executes every non-blank, non-comment line of r and returns
// the transcript.
func runScript(in *interp.Interpreter, r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, transcript(line, in.Execute(line))...)
	}
	return out, sc.Err()
}

// diffTranscript returns a unified diff between want and got, or "" when
// they are equal. Trailing newlines in want are ignored.
func diffTranscript(want string, got []string, name string) (string, error) {
	wantLines := difflib.SplitLines(strings.TrimRight(want, "\n") + "\n")
	gotLines := difflib.SplitLines(strings.Join(got, "\n") + "\n")
	if len(got) == 0 {
		gotLines = nil
	}
	if strings.TrimSpace(want) == "" {
		wantLines = nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        wantLines,
		B:        gotLines,
		FromFile: name,
		ToFile:   "transcript",
		Context:  3,
	})
}

func printDiff(w io.Writer, diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			green.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			red.Fprint(w, line)
		case strings.HasPrefix(line, "@@"):
			cyan.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
}

// watchReplay re-runs the script whenever it or the expected file changes.
// Editors often replace files on save, so the parent directories are
// watched rather than the files themselves.
func watchReplay(ctx context.Context, script, tool string, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()

	targets := map[string]bool{}
	for _, p := range []string{script, replayExpect} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}

	rerun := func() {
		fmt.Fprintf(stdout, "\n--- %s (%s) ---\n", script, time.Now().Format(time.TimeOnly))
		if _, err := replayOnce(script, tool, logger); err != nil {
			red.Fprintf(stdout, "error: %v\n", err)
		}
	}
	rerun()

	var debounce *time.Timer
	trigger := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, _ := filepath.Abs(ev.Name)
			if !targets[abs] {
				continue
			}
			logger.Debug("fsnotify event", "op", ev.Op.String(), "path", ev.Name)
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(replayDebounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case <-trigger:
			rerun()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("fsnotify error", "error", err)
		}
	}
}
