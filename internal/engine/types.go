package engine

import (
	"errors"
	"time"
)

const DefaultRevealDelay = time.Second

var ErrLessonOutOfRange = errors.New("lesson index out of range")

// TranscriptEntry is one submission outcome. Entries are never mutated.
type TranscriptEntry struct {
	Command   string
	Response  string
	Correct   bool
	LessonID  string
	Timestamp time.Time
}

// Timer is the subset of *time.Timer the session needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arms fn to run once after d.
type AfterFunc func(d time.Duration, fn func()) Timer

type Options struct {
	RevealDelay time.Duration
	// OnReveal is called outside the session lock whenever the reveal flag changes.
	OnReveal  func(revealing bool)
	Now       func() time.Time
	AfterFunc AfterFunc
}

func realAfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

const (
	Prompt         = "devops-user@playground:~$"
	WelcomeText    = "Welcome to DevOps Playground!\nComplete the tasks step by step to learn essential commands."
	CompletionText = "Lesson completed! Great job mastering these commands.\nSelect the next lesson to continue learning."
)
