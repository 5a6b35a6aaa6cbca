// Package replay drives a session from a plain-text script, without a terminal UI.
//
// Each non-blank line is submitted as a command. Lines starting with '#' are
// comments. Directives start with ':':
//
//	:lesson N   select lesson N (1-based)
//	:reset      clear the transcript
package replay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"devopsplayground/internal/engine"
)

type Summary struct {
	Submitted int
	Correct   int
	Ignored   int
}

func Run(ctx context.Context, s *engine.Session, script io.Reader, out io.Writer) (Summary, error) {
	var sum Summary
	p := printer{w: out}
	p.line(engine.WelcomeText)
	p.lessonHeader(s)

	sc := bufio.NewScanner(script)
	lineNo := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		lineNo++
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if err := applyDirective(s, line, &p); err != nil {
				return sum, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		wasComplete := s.Complete()
		entry, ok := s.Submit(raw)
		if !ok {
			sum.Ignored++
			p.line(fmt.Sprintf("%s %s", engine.Prompt, line))
			p.line("(nothing to do: lesson already complete)")
			continue
		}
		sum.Submitted++
		if entry.Correct {
			sum.Correct++
		}
		p.entry(entry)
		if !wasComplete && s.Complete() {
			p.line(engine.CompletionText)
		}
	}
	if err := sc.Err(); err != nil {
		return sum, err
	}
	p.progress(s)
	return sum, p.err
}

func applyDirective(s *engine.Session, line string, p *printer) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":lesson":
		if len(fields) != 2 {
			return fmt.Errorf(":lesson takes exactly one argument")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid lesson number %q", fields[1])
		}
		if err := s.SelectLesson(n - 1); err != nil {
			return fmt.Errorf("lesson %d: %w", n, err)
		}
		p.lessonHeader(s)
		return nil
	case ":reset":
		s.Reset()
		p.line("-- transcript cleared --")
		return nil
	default:
		return fmt.Errorf("unknown directive %q", fields[0])
	}
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(text string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, text)
}

func (p *printer) entry(e engine.TranscriptEntry) {
	p.line(fmt.Sprintf("%s %s", engine.Prompt, strings.TrimSpace(e.Command)))
	if e.Response != "" {
		p.line(e.Response)
	}
}

func (p *printer) lessonHeader(s *engine.Session) {
	lesson, ok := s.CurrentLesson()
	if !ok {
		return
	}
	p.line("")
	p.line(fmt.Sprintf("== %s (%d/%d)", lesson.Title, s.Progress(), s.TotalSteps()))
	if step, ok := s.CurrentStep(); ok {
		p.line("Task: " + step.Instruction)
	}
}

func (p *printer) progress(s *engine.Session) {
	p.line("")
	p.line("Progress")
	for _, l := range s.Catalog().Lessons {
		done := s.ProgressFor(l.ID)
		mark := ""
		if done >= len(l.Steps) {
			mark = "  complete"
		}
		p.line(fmt.Sprintf("  %-20s %d/%d%s", l.ID, done, len(l.Steps), mark))
	}
}
