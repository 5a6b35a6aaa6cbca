package ui

type Controller interface {
	OnInputChanged(text string)
	OnSubmit()
	OnSelectLesson(index int)
	OnNextLesson()
	OnPrevLesson()
	OnReset()
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetPlaygroundState(PlaygroundState)
	SetRevealing(revealing bool)
	SetInput(text string)
	FlashStatus(msg string)
}

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutNarrow
	LayoutTooSmall
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutWide:
		return "wide"
	case LayoutNarrow:
		return "narrow"
	default:
		return "too_small"
	}
}

// LessonSummary is one sidebar row.
type LessonSummary struct {
	ID          string
	Title       string
	Description string
	Steps       int
	Done        int
}

type TranscriptLine struct {
	Command  string
	Response string
	Correct  bool
}

// PlaygroundState is a full snapshot pushed by the controller after every
// change to the session. The reveal indicator is not part of it; only
// SetRevealing moves that.
type PlaygroundState struct {
	CatalogName  string
	Lessons      []LessonSummary
	Current      int
	Instruction  string
	Hint         string
	Coaching     string
	HasStep      bool
	Complete     bool
	Progress     int
	Total        int
	Transcript   []TranscriptLine
	Prompt       string
	WelcomeText  string
	CompleteText string
}

func (s PlaygroundState) CurrentLesson() (LessonSummary, bool) {
	if s.Current < 0 || s.Current >= len(s.Lessons) {
		return LessonSummary{}, false
	}
	return s.Lessons[s.Current], true
}
