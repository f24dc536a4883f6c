package interp

import "fmt"

var helpEntries = []struct{ form, desc string }{
	{"init", "Initialize the repository"},
	{"status", "Show the current branch and HEAD"},
	{`commit -m "msg"`, "Create a commit on the current branch"},
	{"branch [<name>]", "List branches, or create one at HEAD"},
	{"checkout <ref>", "Switch to a branch, or detach at a tag or commit"},
	{"merge <branch>", "Merge a branch into the current one"},
	{"log", "Show commit history"},
	{"reset --hard <commit>", "Move HEAD (and the current branch) to a commit"},
	{"tag", "List tags"},
	{"tag <name>", "Create a lightweight tag at HEAD"},
	{`tag -a <name> -m "msg"`, "Create an annotated tag at HEAD"},
	{"tag -d <name>", "Delete a tag"},
}

func helpLines(tool string) []string {
	out := []string{"Available commands:"}
	for _, e := range helpEntries {
		out = append(out, fmt.Sprintf("  %-30s %s", tool+" "+e.form, e.desc))
	}
	out = append(out, fmt.Sprintf("  %-30s %s", "help", "Show this help"))
	return out
}
