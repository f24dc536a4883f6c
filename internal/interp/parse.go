package interp

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kilupskalvis/gitsim/internal/models"
)

// DefaultTool is the command-family token that prefixes every command except help.
const DefaultTool = "git"

// Parse turns one command line into a Command. A blank line yields (nil, nil).
// Errors wrap models.ErrUnknownCommand or models.ErrBadSyntax.
func Parse(line, tool string) (Command, error) {
	if tool == "" {
		tool = DefaultTool
	}

	args := strings.Fields(line)
	if len(args) == 0 {
		return nil, nil
	}
	if args[0] == "help" {
		return Help{}, nil
	}
	if args[0] != tool {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownCommand, args[0])
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: %s (missing subcommand)", models.ErrUnknownCommand, tool)
	}

	rest := args[2:]
	switch args[1] {
	case "help":
		return Help{}, nil
	case "init":
		return Init{}, nil
	case "status":
		return Status{}, nil
	case "log":
		return Log{}, nil

	case "commit":
		msg, ok := messageAfter(rest)
		if !ok {
			return nil, usage(tool, `commit -m "message"`)
		}
		return Commit{Message: msg}, nil

	case "branch":
		if len(rest) == 0 {
			return ListBranches{}, nil
		}
		if strings.HasPrefix(rest[0], "-") {
			return nil, usage(tool, "branch [<name>]")
		}
		return CreateBranch{Name: rest[0]}, nil

	case "checkout":
		if len(rest) == 0 {
			return nil, usage(tool, "checkout <branch|tag>")
		}
		return Checkout{Ref: rest[0]}, nil

	case "merge":
		if len(rest) == 0 {
			return nil, usage(tool, "merge <branch>")
		}
		return Merge{Source: rest[0]}, nil

	case "reset":
		if len(rest) < 2 || rest[0] != "--hard" {
			return nil, usage(tool, "reset --hard <commit>")
		}
		return ResetHard{Target: rest[1]}, nil

	case "tag":
		return parseTag(tool, rest)

	default:
		return nil, fmt.Errorf("%w: %s %s", models.ErrUnknownCommand, tool, args[1])
	}
}

func parseTag(tool string, rest []string) (Command, error) {
	if len(rest) == 0 {
		return ListTags{}, nil
	}

	switch rest[0] {
	case "-d":
		if len(rest) < 2 {
			return nil, usage(tool, "tag -d <name>")
		}
		return DeleteTag{Name: rest[1]}, nil

	case "-a":
		if len(rest) < 2 || strings.HasPrefix(rest[1], "-") {
			return nil, usage(tool, `tag -a <name> -m "message"`)
		}
		msg, ok := messageAfter(rest[2:])
		if !ok {
			return nil, usage(tool, `tag -a <name> -m "message"`)
		}
		return CreateTag{Name: rest[1], Annotated: true, Message: msg}, nil
	}

	if strings.HasPrefix(rest[0], "-") {
		return nil, usage(tool, "tag [-a <name> -m \"message\" | -d <name> | <name>]")
	}
	return CreateTag{Name: rest[0]}, nil
}

// messageAfter joins every token after the first -m and strips one
// leading and one trailing double quote. An empty result is not a message.
func messageAfter(args []string) (string, bool) {
	i := slices.Index(args, "-m")
	if i < 0 || i+1 >= len(args) {
		return "", false
	}
	msg := strings.Join(args[i+1:], " ")
	msg = strings.TrimPrefix(msg, `"`)
	msg = strings.TrimSuffix(msg, `"`)
	if msg == "" {
		return "", false
	}
	return msg, true
}

func usage(tool, form string) error {
	return fmt.Errorf("%w: usage: %s %s", models.ErrBadSyntax, tool, form)
}
