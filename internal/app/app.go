package app

import (
	"context"
	"fmt"
	"sync"

	"devopsplayground/internal/coach"
	"devopsplayground/internal/engine"
	"devopsplayground/internal/lessons"
	"devopsplayground/internal/state"
	"devopsplayground/internal/telemetry"
	"devopsplayground/internal/ui"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type App struct {
	cfg Config

	logger  *telemetry.Logger
	log     *log.Logger
	store   Store
	catalog *lessons.Catalog
	session *engine.Session
	view    ui.View

	sessionID string

	mu       sync.Mutex
	coaching string

	revealMu sync.Mutex
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := telemetry.New(cfg.LogPath, cfg.Level())
	if err != nil {
		return nil, err
	}

	store, err := state.NewSQLite(cfg.SettingsPath())
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}
	prefs, err := store.LoadPreferences(ctx)
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}
	cfg.applyPreferences(prefs)

	catalog, err := lessons.NewLoader().Load(ctx, cfg.CatalogPath)
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.Debug,
		StyleVariant: cfg.UI.StyleVariant,
		Logger:       logger.Logger,
	})
	return assemble(cfg, logger, store, catalog, view, engine.Options{RevealDelay: cfg.RevealDelay}), nil
}

// assemble wires a loaded catalog to a view. opts.OnReveal is always replaced.
func assemble(cfg Config, logger *telemetry.Logger, store Store, catalog *lessons.Catalog, view ui.View, opts engine.Options) *App {
	if logger == nil {
		logger = telemetry.Discard()
	}
	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		catalog:   catalog,
		view:      view,
		sessionID: uuid.NewString(),
	}
	a.log = logger.With("session", a.sessionID)
	opts.OnReveal = a.onReveal
	a.session = engine.NewSession(catalog, opts)
	view.SetController(a)
	a.log.Info("catalog.loaded", "path", catalog.Path, "name", catalog.Name, "lessons", catalog.Len())
	a.sync()
	return a
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("app.start",
		"style", a.cfg.UI.StyleVariant,
		"ascii", a.cfg.ASCIIOnly,
		"reveal_delay", a.cfg.RevealDelay.String(),
	)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			a.view.Stop()
		case <-done:
		}
	}()

	if err := a.view.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.logger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (a *App) Session() *engine.Session { return a.session }

func (a *App) OnInputChanged(text string) {
	a.session.SetInput(text)
}

func (a *App) OnSubmit() {
	lesson, _ := a.session.CurrentLesson()
	step, _ := a.session.CurrentStep()

	entry, ok := a.session.SubmitInput()
	if !ok {
		a.sync()
		return
	}

	if entry.Correct {
		a.setCoaching("")
		a.log.Info("submit.accepted",
			"lesson", lesson.ID,
			"command", entry.Command,
			"progress", a.session.Progress(),
			"total", a.session.TotalSteps(),
		)
		if a.session.Complete() {
			a.log.Info("lesson.completed", "lesson", lesson.ID)
		}
	} else {
		report := coach.Review(entry.Command, step.ExpectedCommand)
		a.setCoaching(report.Text())
		a.log.Info("submit.rejected",
			"lesson", lesson.ID,
			"command", entry.Command,
			"distance", report.Distance,
			"close", report.Close,
		)
	}
	a.sync()
}

func (a *App) OnSelectLesson(index int) {
	if err := a.session.SelectLesson(index); err != nil {
		a.log.Debug("lesson.select_rejected", "index", index, "error", err)
		a.view.FlashStatus(fmt.Sprintf("No lesson %d in this catalog", index+1))
		return
	}
	a.setCoaching("")
	lesson, _ := a.session.CurrentLesson()
	a.log.Info("lesson.selected", "index", index, "lesson", lesson.ID, "progress", a.session.Progress())
	a.view.FlashStatus("")
	a.sync()
}

func (a *App) OnNextLesson() {
	next := a.session.LessonIndex() + 1
	if next >= a.catalog.Len() {
		a.view.FlashStatus("Already on the last lesson")
		return
	}
	a.OnSelectLesson(next)
}

func (a *App) OnPrevLesson() {
	prev := a.session.LessonIndex() - 1
	if prev < 0 {
		a.view.FlashStatus("Already on the first lesson")
		return
	}
	a.OnSelectLesson(prev)
}

func (a *App) OnReset() {
	a.session.Reset()
	a.setCoaching("")
	a.log.Info("session.reset", "lesson_index", a.session.LessonIndex())
	a.view.SetInput("")
	a.view.FlashStatus("Transcript cleared")
	a.sync()
}

func (a *App) OnQuit() {
	a.log.Info("app.quit")
	a.view.Stop()
}

// onReveal forwards the session's current flag rather than the notified
// value, holding revealMu across the read and the push so the last value
// delivered to the view is never older than the session's.
func (a *App) onReveal(bool) {
	a.revealMu.Lock()
	defer a.revealMu.Unlock()
	a.view.SetRevealing(a.session.Revealing())
}

func (a *App) setCoaching(text string) {
	a.mu.Lock()
	a.coaching = text
	a.mu.Unlock()
}

func (a *App) sync() {
	a.view.SetPlaygroundState(a.snapshot())
}

func (a *App) snapshot() ui.PlaygroundState {
	a.mu.Lock()
	coaching := a.coaching
	a.mu.Unlock()

	st := ui.PlaygroundState{
		CatalogName:  a.catalog.Name,
		Current:      a.session.LessonIndex(),
		Coaching:     coaching,
		Progress:     a.session.Progress(),
		Total:        a.session.TotalSteps(),
		Prompt:       engine.Prompt,
		WelcomeText:  engine.WelcomeText,
		CompleteText: engine.CompletionText,
	}
	for i := 0; i < a.catalog.Len(); i++ {
		l, _ := a.catalog.Lesson(i)
		st.Lessons = append(st.Lessons, ui.LessonSummary{
			ID:          l.ID,
			Title:       l.Title,
			Description: l.Description,
			Steps:       len(l.Steps),
			Done:        a.session.ProgressFor(l.ID),
		})
	}
	if step, ok := a.session.CurrentStep(); ok {
		st.HasStep = true
		st.Instruction = step.Instruction
		st.Hint = step.Hint
	}
	st.Complete = st.Total > 0 && !st.HasStep
	for _, e := range a.session.Transcript() {
		st.Transcript = append(st.Transcript, ui.TranscriptLine{
			Command:  e.Command,
			Response: e.Response,
			Correct:  e.Correct,
		})
	}
	return st
}

var _ ui.Controller = (*App)(nil)
