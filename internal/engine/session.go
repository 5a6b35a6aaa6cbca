// Package engine tracks lesson progress for one playground session.
//
// Progress is never stored: the current step of a lesson is the number of
// correct transcript entries recorded for it.
package engine

import (
	"strings"
	"sync"
	"time"

	"devopsplayground/internal/lessons"
)

const notRecognizedPrefix = "Command not recognized. "

type Session struct {
	catalog *lessons.Catalog

	revealDelay time.Duration
	onReveal    func(bool)
	now         func() time.Time
	afterFunc   AfterFunc

	mu         sync.Mutex
	lessonIdx  int
	input      string
	transcript []TranscriptEntry
	revealing  bool
	revealGen  uint64
	revealStop Timer
}

func NewSession(catalog *lessons.Catalog, opts Options) *Session {
	s := &Session{
		catalog:     catalog,
		revealDelay: opts.RevealDelay,
		onReveal:    opts.OnReveal,
		now:         opts.Now,
		afterFunc:   opts.AfterFunc,
	}
	if s.revealDelay <= 0 {
		s.revealDelay = DefaultRevealDelay
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.afterFunc == nil {
		s.afterFunc = realAfterFunc
	}
	return s
}

func (s *Session) Catalog() *lessons.Catalog { return s.catalog }

func (s *Session) LessonIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lessonIdx
}

func (s *Session) CurrentLesson() (lessons.Lesson, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Lesson(s.lessonIdx)
}

// SelectLesson switches the active lesson. The transcript is kept, so
// progress resumes where it was left.
func (s *Session) SelectLesson(idx int) error {
	if idx < 0 || idx >= s.catalog.Len() {
		return ErrLessonOutOfRange
	}
	s.mu.Lock()
	s.lessonIdx = idx
	cleared := s.cancelRevealLocked()
	s.mu.Unlock()
	if cleared {
		s.notifyReveal(false)
	}
	return nil
}

func (s *Session) CurrentStep() (lessons.Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentStepLocked()
}

func (s *Session) currentStepLocked() (lessons.Step, bool) {
	lesson, ok := s.catalog.Lesson(s.lessonIdx)
	if !ok {
		return lessons.Step{}, false
	}
	n := s.progressLocked(lesson.ID)
	if n >= len(lesson.Steps) {
		return lessons.Step{}, false
	}
	return lesson.Steps[n], true
}

func (s *Session) progressLocked(lessonID string) int {
	n := 0
	for _, e := range s.transcript {
		if e.Correct && e.LessonID == lessonID {
			n++
		}
	}
	return n
}

func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *Session) SubmitInput() (TranscriptEntry, bool) {
	return s.Submit(s.Input())
}

// Submit checks text against the current step. It returns false without
// recording anything when text is blank or the lesson has no step left.
func (s *Session) Submit(text string) (TranscriptEntry, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return TranscriptEntry{}, false
	}

	s.mu.Lock()
	step, ok := s.currentStepLocked()
	if !ok {
		s.mu.Unlock()
		return TranscriptEntry{}, false
	}
	lesson, _ := s.catalog.Lesson(s.lessonIdx)

	correct := Matches(trimmed, step.ExpectedCommand)
	entry := TranscriptEntry{
		Command:   text,
		Correct:   correct,
		LessonID:  lesson.ID,
		Timestamp: s.now(),
	}
	if correct {
		entry.Response = step.Response
	} else {
		entry.Response = notRecognizedPrefix + step.Hint
	}
	s.transcript = append(s.transcript, entry)
	s.input = ""

	revealed := false
	if correct && step.Response != "" {
		s.armRevealLocked()
		revealed = true
	}
	s.mu.Unlock()

	if revealed {
		s.notifyReveal(true)
	}
	return entry, true
}

// Matches reports whether submitted equals expected after trimming and case
// folding. Argument order and spelling must match exactly.
func Matches(submitted, expected string) bool {
	return strings.ToLower(strings.TrimSpace(submitted)) == strings.ToLower(expected)
}

// Reset drops the transcript and the input buffer for every lesson.
func (s *Session) Reset() {
	s.mu.Lock()
	s.transcript = nil
	s.input = ""
	cleared := s.cancelRevealLocked()
	s.mu.Unlock()
	if cleared {
		s.notifyReveal(false)
	}
}

func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	lesson, ok := s.catalog.Lesson(s.lessonIdx)
	if !ok {
		return 0
	}
	return s.progressLocked(lesson.ID)
}

func (s *Session) ProgressFor(lessonID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked(lessonID)
}

func (s *Session) TotalSteps() int {
	lesson, ok := s.CurrentLesson()
	if !ok {
		return 0
	}
	return len(lesson.Steps)
}

func (s *Session) Complete() bool {
	return s.Progress() >= s.TotalSteps()
}

func (s *Session) Transcript() []TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TranscriptEntry(nil), s.transcript...)
}

func (s *Session) Revealing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealing
}

func (s *Session) armRevealLocked() {
	if s.revealStop != nil {
		s.revealStop.Stop()
	}
	s.revealGen++
	gen := s.revealGen
	s.revealing = true
	s.revealStop = s.afterFunc(s.revealDelay, func() { s.expireReveal(gen) })
}

func (s *Session) expireReveal(gen uint64) {
	s.mu.Lock()
	if gen != s.revealGen || !s.revealing {
		s.mu.Unlock()
		return
	}
	s.revealing = false
	s.revealStop = nil
	s.mu.Unlock()
	s.notifyReveal(false)
}

func (s *Session) cancelRevealLocked() bool {
	if s.revealStop != nil {
		s.revealStop.Stop()
		s.revealStop = nil
	}
	s.revealGen++
	was := s.revealing
	s.revealing = false
	return was
}

func (s *Session) notifyReveal(revealing bool) {
	if s.onReveal != nil {
		s.onReveal(revealing)
	}
}
