package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"devopsplayground/internal/engine"
	"devopsplayground/internal/lessons"
	"devopsplayground/internal/state"
	"devopsplayground/internal/ui"
)

type fakeView struct {
	mu        sync.Mutex
	ctrl      ui.Controller
	states    []ui.PlaygroundState
	revealing []bool
	inputs    []string
	flashes   []string
	stops     int
}

func (f *fakeView) Run() error { return nil }
func (f *fakeView) Stop()      { f.mu.Lock(); f.stops++; f.mu.Unlock() }

func (f *fakeView) SetController(c ui.Controller) { f.ctrl = c }

func (f *fakeView) SetPlaygroundState(s ui.PlaygroundState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, s)
}

func (f *fakeView) SetRevealing(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revealing = append(f.revealing, b)
}

func (f *fakeView) SetInput(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
}

func (f *fakeView) FlashStatus(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flashes = append(f.flashes, msg)
}

func (f *fakeView) last() ui.PlaygroundState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[len(f.states)-1]
}

func (f *fakeView) lastFlash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.flashes) == 0 {
		return ""
	}
	return f.flashes[len(f.flashes)-1]
}

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

type timers struct {
	mu    sync.Mutex
	armed []func()
}

func (t *timers) afterFunc(_ time.Duration, fn func()) engine.Timer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = append(t.armed, fn)
	return stubTimer{}
}

func newTestApp(t *testing.T) (*App, *fakeView, *timers) {
	t.Helper()
	catalog, err := lessons.NewLoader().LoadDefault()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	view := &fakeView{}
	tm := &timers{}
	cfg := DefaultConfig()
	a := assemble(cfg, nil, nil, catalog, view, engine.Options{AfterFunc: tm.afterFunc})
	return a, view, tm
}

func submit(a *App, text string) {
	a.OnInputChanged(text)
	a.OnSubmit()
}

func TestAssembleRegistersControllerAndPushesInitialState(t *testing.T) {
	a, view, _ := newTestApp(t)
	if view.ctrl != a {
		t.Fatalf("expected app to register itself as controller")
	}
	st := view.last()
	if len(st.Lessons) != 3 {
		t.Fatalf("expected 3 lessons, got %d", len(st.Lessons))
	}
	if !st.HasStep || st.Instruction != "Type 'pwd' to see your current directory" {
		t.Fatalf("unexpected first step: %+v", st)
	}
	if st.Prompt != engine.Prompt || st.WelcomeText == "" {
		t.Fatalf("expected prompt and welcome text in state")
	}
	if st.Progress != 0 || st.Total != 3 || st.Complete {
		t.Fatalf("unexpected progress %d/%d complete=%v", st.Progress, st.Total, st.Complete)
	}
}

func TestCorrectSubmitAdvancesAndReveals(t *testing.T) {
	a, view, tm := newTestApp(t)

	submit(a, "  PWD ")

	st := view.last()
	if st.Progress != 1 || st.Lessons[0].Done != 1 {
		t.Fatalf("expected progress 1, got %d", st.Progress)
	}
	if len(st.Transcript) != 1 || st.Transcript[0].Command != "  PWD " || st.Transcript[0].Response != "/home/devops-user" {
		t.Fatalf("unexpected transcript: %+v", st.Transcript)
	}
	if st.Coaching != "" {
		t.Fatalf("expected no coaching after a correct submit")
	}
	if a.session.Input() != "" {
		t.Fatalf("expected input buffer cleared")
	}
	if len(view.revealing) != 1 || !view.revealing[0] {
		t.Fatalf("expected reveal notification, got %v", view.revealing)
	}

	tm.armed[0]()
	if len(view.revealing) != 2 || view.revealing[1] {
		t.Fatalf("expected reveal to clear after the timer fires, got %v", view.revealing)
	}
}

func TestWrongSubmitCoachesWithoutAdvancing(t *testing.T) {
	a, view, tm := newTestApp(t)

	submit(a, "pwdd")

	st := view.last()
	if st.Progress != 0 {
		t.Fatalf("expected no progress, got %d", st.Progress)
	}
	want := "Command not recognized. pwd stands for 'print working directory'"
	if len(st.Transcript) != 1 || st.Transcript[0].Response != want || st.Transcript[0].Correct {
		t.Fatalf("unexpected transcript: %+v", st.Transcript)
	}
	if !strings.Contains(st.Coaching, "Only 1 character(s) off") {
		t.Fatalf("expected near-miss coaching, got %q", st.Coaching)
	}
	if len(tm.armed) != 0 || len(view.revealing) != 0 {
		t.Fatalf("expected no reveal for a failed submit")
	}

	submit(a, "pwd")
	if got := view.last().Coaching; got != "" {
		t.Fatalf("expected coaching cleared after a correct submit, got %q", got)
	}
}

func TestBlankSubmitIsIgnored(t *testing.T) {
	a, view, _ := newTestApp(t)

	submit(a, "   ")

	if got := len(view.last().Transcript); got != 0 {
		t.Fatalf("expected empty transcript, got %d entries", got)
	}
	if a.session.Input() != "   " {
		t.Fatalf("expected ignored submit to keep the buffer")
	}
}

func TestLessonNavigation(t *testing.T) {
	a, view, _ := newTestApp(t)

	a.OnPrevLesson()
	if got := view.lastFlash(); got != "Already on the first lesson" {
		t.Fatalf("unexpected flash %q", got)
	}

	a.OnNextLesson()
	if got := view.last().Current; got != 1 {
		t.Fatalf("expected lesson 1, got %d", got)
	}
	if got := view.last().Instruction; got != "Create a new file called 'test.txt' using touch" {
		t.Fatalf("unexpected instruction %q", got)
	}

	a.OnSelectLesson(2)
	a.OnNextLesson()
	if got := view.lastFlash(); got != "Already on the last lesson" {
		t.Fatalf("unexpected flash %q", got)
	}

	a.OnSelectLesson(9)
	if got := view.lastFlash(); got != "No lesson 10 in this catalog" {
		t.Fatalf("unexpected flash %q", got)
	}
	if got := a.session.LessonIndex(); got != 2 {
		t.Fatalf("expected out-of-range select to keep lesson 2, got %d", got)
	}
}

func TestSelectingLessonKeepsTranscriptAndProgress(t *testing.T) {
	a, view, _ := newTestApp(t)

	submit(a, "pwd")
	a.OnSelectLesson(1)
	submit(a, "touch test.txt")
	a.OnSelectLesson(0)

	st := view.last()
	if len(st.Transcript) != 2 {
		t.Fatalf("expected shared transcript of 2 entries, got %d", len(st.Transcript))
	}
	if st.Progress != 1 || st.Instruction != "List all files and directories with 'ls'" {
		t.Fatalf("expected lesson 0 to resume at step 2, got %d %q", st.Progress, st.Instruction)
	}
	if st.Lessons[1].Done != 1 {
		t.Fatalf("expected lesson 1 progress 1, got %d", st.Lessons[1].Done)
	}
}

func TestCompletingLessonAndReset(t *testing.T) {
	a, view, _ := newTestApp(t)

	for _, cmd := range []string{"pwd", "ls", "ls -la"} {
		submit(a, cmd)
	}
	st := view.last()
	if !st.Complete || st.HasStep {
		t.Fatalf("expected lesson complete, got %+v", st)
	}

	submit(a, "pwd")
	if got := len(view.last().Transcript); got != 3 {
		t.Fatalf("expected submit on a complete lesson to be ignored, got %d entries", got)
	}

	a.OnReset()
	st = view.last()
	if len(st.Transcript) != 0 || st.Progress != 0 || st.Complete {
		t.Fatalf("expected reset to clear progress, got %+v", st)
	}
	if len(view.inputs) == 0 || view.inputs[len(view.inputs)-1] != "" {
		t.Fatalf("expected reset to clear the view input")
	}
	if a.session.Input() != "" {
		t.Fatalf("expected reset to clear the input buffer")
	}
}

func TestQuitStopsView(t *testing.T) {
	a, view, _ := newTestApp(t)
	a.OnQuit()
	if view.stops != 1 {
		t.Fatalf("expected view stop, got %d", view.stops)
	}
}

func TestRunStopsViewOnContextCancel(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestNewAppliesStoredSettings(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := state.NewSQLite(dir + "/settings.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	ascii := true
	if err := store.SavePreferences(ctx, state.Preferences{StyleVariant: "retro_terminal", ASCIIOnly: &ascii}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	cfg := DefaultConfig()
	cfg.DataDir = dir
	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if a.cfg.UI.StyleVariant != "retro_terminal" {
		t.Fatalf("expected stored style, got %q", a.cfg.UI.StyleVariant)
	}
	if !a.cfg.ASCIIOnly {
		t.Fatalf("expected stored ascii setting to apply")
	}
	if a.catalog.Len() != 3 {
		t.Fatalf("expected builtin catalog, got %d lessons", a.catalog.Len())
	}
}

func TestNewFlagStyleBeatsStoredSetting(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.UI.StyleVariant = "cozy_clean"

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	if a.cfg.UI.StyleVariant != "cozy_clean" {
		t.Fatalf("expected explicit style to win, got %q", a.cfg.UI.StyleVariant)
	}
}

func TestNewRejectsMissingCatalog(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.CatalogPath = cfg.DataDir + "/missing.yaml"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for missing catalog")
	}
}

// orderedView applies pushes in arrival order the way ui.Root does and lets a
// test run code just before a state push lands.
type orderedView struct {
	fakeView
	shown       bool
	beforeState func()
}

func (v *orderedView) SetPlaygroundState(s ui.PlaygroundState) {
	if hook := v.beforeState; hook != nil {
		v.beforeState = nil
		hook()
	}
	v.fakeView.SetPlaygroundState(s)
}

func (v *orderedView) SetRevealing(b bool) {
	v.fakeView.SetRevealing(b)
	v.mu.Lock()
	v.shown = b
	v.mu.Unlock()
}

func TestRevealClearedDuringStatePushStaysCleared(t *testing.T) {
	catalog, err := lessons.NewLoader().LoadDefault()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	view := &orderedView{}
	tm := &timers{}
	a := assemble(DefaultConfig(), nil, nil, catalog, view, engine.Options{AfterFunc: tm.afterFunc})

	submit(a, "pwd")
	if !view.shown {
		t.Fatalf("expected reveal indicator after a correct submit")
	}

	view.beforeState = tm.armed[0]
	submit(a, "nope")

	if a.session.Revealing() {
		t.Fatalf("expected session reveal to have finished")
	}
	if view.shown {
		t.Fatalf("view still revealing after the session cleared it")
	}
}

func TestLateRevealNotificationForwardsCurrentFlag(t *testing.T) {
	a, view, tm := newTestApp(t)

	submit(a, "pwd")
	tm.armed[0]()
	a.onReveal(true)

	view.mu.Lock()
	defer view.mu.Unlock()
	if got := view.revealing[len(view.revealing)-1]; got {
		t.Fatalf("expected a late notification to forward the cleared flag")
	}
}
