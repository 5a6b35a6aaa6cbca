// Package coach explains a rejected command next to the one the step asked for.
// It never decides whether a command is accepted; that is engine.Matches.
package coach

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	shlex "github.com/anmitsu/go-shlex"
)

const closeDistance = 2

type Report struct {
	Command    string
	Stages     []Stage
	Distance   int
	Close      bool
	Mismatches []string
}

type Stage struct {
	Text        string
	Name        string
	Description string
}

// Review compares a submitted command with the expected one.
func Review(submitted, expected string) Report {
	trimmed := strings.TrimSpace(submitted)
	r := Report{Command: trimmed}
	if trimmed == "" {
		return r
	}

	for _, words := range pipeline(trimmed) {
		r.Stages = append(r.Stages, Stage{
			Text:        strings.Join(words, " "),
			Name:        commandName(words),
			Description: describeCommand(words),
		})
	}

	r.Distance = levenshtein.ComputeDistance(strings.ToLower(trimmed), strings.ToLower(strings.TrimSpace(expected)))
	r.Close = r.Distance > 0 && r.Distance <= closeDistance
	r.Mismatches = compareTokens(trimmed, expected)
	return r
}

func (r Report) Text() string {
	if r.Command == "" {
		return "No command to explain."
	}
	var b strings.Builder
	b.WriteString("You typed\n")
	b.WriteString(r.Command)
	b.WriteString("\n\nWhat this does\n")
	for i, st := range r.Stages {
		desc := st.Description
		if desc == "" {
			desc = "Not part of this lesson's command set."
		}
		b.WriteString(fmt.Sprintf("%d. `%s` - %s\n", i+1, st.Text, desc))
	}
	if len(r.Mismatches) > 0 || r.Close {
		b.WriteString("\nCompared with the task\n")
		for _, m := range r.Mismatches {
			b.WriteString("- " + m + "\n")
		}
		if r.Close {
			b.WriteString(fmt.Sprintf("- Only %d character(s) off; check spelling and spacing.\n", r.Distance))
		}
	}
	return strings.TrimSpace(b.String())
}

func compareTokens(submitted, expected string) []string {
	got := tokenize(submitted)
	want := tokenize(expected)
	if len(got) == 0 || len(want) == 0 {
		return nil
	}
	if !strings.EqualFold(got[0], want[0]) {
		return []string{fmt.Sprintf("This step uses `%s`, not `%s`.", want[0], got[0])}
	}

	var out []string
	if len(want) > 1 && len(got) > 1 && want[0] == "docker" && !strings.EqualFold(got[1], want[1]) {
		out = append(out, fmt.Sprintf("Use the `docker %s` subcommand.", want[1]))
	}
	remaining := map[string]int{}
	for _, tok := range got[1:] {
		remaining[strings.ToLower(tok)]++
	}
	for _, tok := range want[1:] {
		key := strings.ToLower(tok)
		if remaining[key] > 0 {
			remaining[key]--
			continue
		}
		out = append(out, fmt.Sprintf("Missing argument `%s`.", tok))
	}
	for _, tok := range got[1:] {
		key := strings.ToLower(tok)
		if remaining[key] > 0 {
			remaining[key]--
			out = append(out, fmt.Sprintf("Unexpected argument `%s`.", tok))
		}
	}
	if len(out) == 0 && !strings.EqualFold(strings.Join(got, " "), strings.Join(want, " ")) {
		out = append(out, "Same words as the task, but in a different order or spacing.")
	}
	return out
}

func tokenize(command string) []string {
	toks, err := shlex.Split(command, true)
	if err != nil {
		return strings.Fields(command)
	}
	return toks
}

// pipeline groups the words of a command into stages separated by "|".
// Quoted words are left whole so a quoted pipe stays in its stage.
func pipeline(command string) [][]string {
	words, err := shlex.Split(command, false)
	if err != nil {
		words = strings.Fields(command)
	}
	var stages [][]string
	var cur []string
	for _, w := range words {
		if strings.ContainsAny(w, `'"`) {
			cur = append(cur, w)
			continue
		}
		for i, part := range strings.Split(w, "|") {
			if i > 0 && len(cur) > 0 {
				stages = append(stages, cur)
				cur = nil
			}
			if part != "" {
				cur = append(cur, part)
			}
		}
	}
	if len(cur) > 0 {
		stages = append(stages, cur)
	}
	return stages
}

// commandIndex finds the program word of a stage, past any NAME=value
// assignments and a sudo prefix.
func commandIndex(words []string) int {
	i := 0
	for i < len(words) {
		name, _, ok := strings.Cut(words[i], "=")
		if !ok || name == "" || strings.HasPrefix(name, "-") || strings.Contains(name, "/") {
			break
		}
		i++
	}
	if i < len(words) && words[i] == "sudo" {
		i++
	}
	return i
}

func commandName(words []string) string {
	i := commandIndex(words)
	if i >= len(words) {
		return ""
	}
	return strings.ToLower(words[i])
}

func describeCommand(words []string) string {
	switch commandName(words) {
	case "docker":
		return describeDocker(words[commandIndex(words)+1:])
	case "pwd":
		return "Prints the working directory."
	case "ls":
		return "Lists directory contents; `-l` adds details and `-a` includes hidden entries."
	case "cd":
		return "Changes the current directory."
	case "touch":
		return "Creates an empty file or updates its timestamp."
	case "mkdir":
		return "Creates directories; `-p` creates parents as needed."
	case "cp":
		return "Copies files: `cp SOURCE DEST`."
	case "mv":
		return "Moves or renames files."
	case "rm":
		return "Removes files; `-r` removes directories recursively."
	case "cat":
		return "Prints file contents."
	case "grep":
		return "Filters lines that match a pattern."
	case "find":
		return "Walks directories and emits matching paths."
	case "sort":
		return "Sorts lines; use `-n` for numeric sort and `-r` for descending."
	case "head":
		return "Keeps only the first N lines."
	case "tail":
		return "Keeps only the last N lines."
	case "wc":
		return "Counts lines, words, or bytes."
	default:
		return ""
	}
}

func describeDocker(args []string) string {
	sub := ""
	for _, f := range args {
		if f == "--version" || f == "-v" {
			sub = "--version"
			break
		}
		if !strings.HasPrefix(f, "-") {
			sub = strings.ToLower(f)
			break
		}
	}
	switch sub {
	case "--version":
		return "Prints the installed Docker version."
	case "pull":
		return "Downloads an image from a registry."
	case "images":
		return "Lists locally available images."
	case "run":
		return "Starts a container; `-d` detaches and `-p HOST:CONTAINER` publishes a port."
	case "ps":
		return "Lists running containers."
	case "":
		return "Runs the Docker CLI."
	default:
		return fmt.Sprintf("Runs the `docker %s` subcommand.", sub)
	}
}
