package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type applyMsg struct {
	fn func(*Root)
}

type playKeyMap struct {
	Submit key.Binding
	Next   key.Binding
	Prev   key.Binding
	Select key.Binding
	Reset  key.Binding
	Up     key.Binding
	Down   key.Binding
	Quit   key.Binding
}

func (k playKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Next, k.Prev, k.Select, k.Reset, k.Up, k.Quit}
}

func (k playKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Submit, k.Reset, k.Quit}, {k.Next, k.Prev, k.Select}, {k.Up, k.Down}}
}

type Root struct {
	theme        Theme
	ascii        bool
	styleVariant string
	queue        *controllerQueue

	mu      sync.Mutex
	program *tea.Program
	running bool

	layout LayoutMode
	cols   int
	rows   int

	state       PlaygroundState
	statusFlash string
	// scroll counts transcript lines hidden below the visible window.
	scroll    int
	revealing bool

	input      textinput.Model
	help       help.Model
	keymap     playKeyMap
	bar        progress.Model
	revealSpin spinner.Model
	markdown   *glamour.TermRenderer
	described  map[string][]string
	logger     *clog.Logger

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	Logger       *clog.Logger
}

func New(opts Options) *Root {
	logger := opts.Logger
	if logger == nil {
		logger = clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "playground-ui", Level: clog.WarnLevel})
		if opts.Debug {
			logger.SetLevel(clog.DebugLevel)
		}
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(sidebarWidth-6),
	)
	if err != nil {
		renderer = nil
	}

	styleVariant := NormalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)

	h := help.New()
	h.Styles = help.DefaultDarkStyles()

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "type a command and press enter"
	in.CharLimit = 256
	in.Focus()

	bar := progress.New(
		progress.WithWidth(20),
		progress.WithColors(theme.Bar...),
		progress.WithScaled(true),
	)
	revealSpin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		styleVariant: styleVariant,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		input:        in,
		help:         h,
		bar:          bar,
		revealSpin:   revealSpin,
		markdown:     renderer,
		described:    map[string][]string{},
		logger:       logger,
	}
	r.keymap = playKeyMap{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
		Next:   key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "next lesson")),
		Prev:   key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "prev lesson")),
		Select: key.NewBinding(
			key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9"),
			key.WithHelp("alt+1..9", "jump"),
		),
		Reset: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		Up:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup/pgdn", "scroll")),
		Down:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+q", "quit")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return spinnerTickCmd(r.revealSpin)
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.revealSpin, cmd = r.revealSpin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))
		return r.handlePaste(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			view = tea.NewView(r.theme.Fail.Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	v := tea.NewView(r.render())
	v.AltScreen = true
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	if r.queue != nil {
		r.queue.close()
		r.queue = nil
	}
	if c != nil {
		r.queue = newControllerQueue(c, r.logger)
	}
}

func (r *Root) SetPlaygroundState(s PlaygroundState) {
	s.Lessons = append([]LessonSummary(nil), s.Lessons...)
	s.Transcript = append([]TranscriptLine(nil), s.Transcript...)
	r.apply(func(m *Root) {
		if len(s.Transcript) != len(m.state.Transcript) || s.Current != m.state.Current {
			m.scroll = 0
		}
		m.state = s
	})
}

func (r *Root) SetRevealing(revealing bool) {
	r.apply(func(m *Root) {
		m.revealing = revealing
	})
}

func (r *Root) SetInput(text string) {
	r.apply(func(m *Root) {
		m.input.SetValue(text)
		m.input.CursorEnd()
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

// dispatchController hands fn to the controller goroutine. Calls run one at a
// time in the order they were dispatched.
func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.queue == nil {
		return
	}
	r.queue.push(fn)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	switch {
	case key.Matches(msg, r.keymap.Quit):
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	case key.Matches(msg, r.keymap.Submit):
		return r.submit()
	case key.Matches(msg, r.keymap.Next):
		r.statusFlash = ""
		r.dispatchController(func(c Controller) { c.OnNextLesson() })
		return r, nil
	case key.Matches(msg, r.keymap.Prev):
		r.statusFlash = ""
		r.dispatchController(func(c Controller) { c.OnPrevLesson() })
		return r, nil
	case key.Matches(msg, r.keymap.Select):
		s := msg.String()
		idx := int(s[len(s)-1] - '1')
		r.statusFlash = ""
		r.dispatchController(func(c Controller) { c.OnSelectLesson(idx) })
		return r, nil
	case key.Matches(msg, r.keymap.Reset):
		r.scroll = 0
		r.statusFlash = ""
		r.input.Reset()
		r.dispatchController(func(c Controller) { c.OnReset() })
		return r, nil
	case key.Matches(msg, r.keymap.Up):
		r.scroll += r.pageSize()
		return r, nil
	case key.Matches(msg, r.keymap.Down):
		r.scroll = max(0, r.scroll-r.pageSize())
		return r, nil
	}
	return r.updateInput(msg)
}

func (r *Root) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	before := r.input.Value()
	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	if after := r.input.Value(); after != before {
		r.dispatchController(func(c Controller) { c.OnInputChanged(after) })
	}
	return r, cmd
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	clean := sanitizePaste(msg.Content)
	if clean == "" {
		return r, nil
	}
	before := r.input.Value()
	r.input.SetValue(before + clean)
	r.input.CursorEnd()
	if after := r.input.Value(); after != before {
		r.dispatchController(func(c Controller) { c.OnInputChanged(after) })
	}
	return r, nil
}

func (r *Root) submit() (tea.Model, tea.Cmd) {
	text := r.input.Value()
	if strings.TrimSpace(text) == "" {
		return r, nil
	}
	if !r.state.HasStep {
		r.statusFlash = "Lesson complete. Pick another lesson or press ctrl+l to start over."
		return r, nil
	}
	r.statusFlash = ""
	r.scroll = 0
	r.input.Reset()
	r.dispatchController(func(c Controller) { c.OnSubmit() })
	return r, nil
}

func (r *Root) pageSize() int {
	return max(1, r.rows/2)
}

func (r *Root) render() string {
	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}
	r.layout = DetermineLayoutMode(r.cols, r.rows)
	switch r.layout {
	case LayoutTooSmall:
		return r.renderTooSmall()
	case LayoutNarrow:
		return r.renderNarrow()
	default:
		return r.renderWide()
	}
}

func (r *Root) renderTooSmall() string {
	lines := []string{
		"Terminal too small.",
		fmt.Sprintf("Need at least %dx%d, have %dx%d.", minCols, minRows, r.cols, r.rows),
		"Resize the window or press ctrl+q to quit.",
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, r.theme.Fail.Render(trimForWidth(line, max(1, r.cols))))
	}
	return strings.Join(out, "\n")
}

func (r *Root) renderWide() string {
	bodyH := r.rows - 2
	rightW := r.cols - sidebarWidth

	lessonsH := min(bodyH/2, len(r.state.Lessons)*2+2)
	lessonsH = max(4, lessonsH)
	left := lipgloss.JoinVertical(lipgloss.Left,
		r.drawPanel("Lessons", r.lessonLines(sidebarWidth-2), sidebarWidth, lessonsH),
		r.drawPanel("Current Task", r.taskLines(sidebarWidth-2), sidebarWidth, bodyH-lessonsH),
	)

	helpH := min(8, max(4, bodyH/4))
	right := lipgloss.JoinVertical(lipgloss.Left,
		r.renderTerminalPanel(rightW, bodyH-helpH),
		r.drawPanel("Need Help?", r.helpLines(rightW-2), rightW, helpH),
	)

	return strings.Join([]string{
		r.headerText(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		r.statusText(),
	}, "\n")
}

func (r *Root) renderNarrow() string {
	task := "Task: " + r.state.Instruction
	if !r.state.HasStep {
		task = "Task: lesson complete"
	}
	hint := ""
	if r.state.HasStep && r.state.Hint != "" {
		hint = "Hint: " + r.state.Hint
	}
	bodyH := r.rows - 4
	return strings.Join([]string{
		r.headerText(),
		r.theme.Accent.Render(fitLine(task, r.cols)),
		r.renderTerminalPanel(r.cols, bodyH),
		r.theme.Muted.Render(fitLine(hint, r.cols)),
		r.statusText(),
	}, "\n")
}

func (r *Root) renderTerminalPanel(width, height int) string {
	innerW := max(1, width-2)
	viewH := max(1, height-3)

	lines := r.terminalLines(innerW)
	maxScroll := max(0, len(lines)-viewH)
	if r.scroll > maxScroll {
		r.scroll = maxScroll
	}
	end := len(lines) - r.scroll
	start := max(0, end-viewH)
	visible := append([]string(nil), lines[start:end]...)
	for len(visible) < viewH {
		visible = append(visible, "")
	}

	prompt := r.theme.Prompt.Render(r.prompt())
	r.input.SetWidth(max(1, innerW-ansi.StringWidth(r.prompt())-2))
	visible = append(visible, prompt+" "+r.input.View())
	return r.drawPanel("Terminal", visible, width, height)
}

func (r *Root) terminalLines(width int) []string {
	var lines []string
	for _, line := range wrapLines(r.state.WelcomeText, width) {
		lines = append(lines, r.theme.Muted.Render(line))
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}
	for _, entry := range r.state.Transcript {
		cmd := r.theme.Prompt.Render(r.prompt()) + " " + r.theme.Command.Render(entry.Command)
		lines = append(lines, wrapLines(cmd, width)...)
		style := r.theme.PanelBody
		if !entry.Correct {
			style = r.theme.Fail
		}
		if entry.Response != "" {
			for _, line := range wrapLines(entry.Response, width) {
				lines = append(lines, style.Render(line))
			}
		}
	}
	if r.revealing {
		lines = append(lines, r.revealSpin.View())
	}
	if r.state.Complete && r.state.CompleteText != "" {
		lines = append(lines, "")
		for _, line := range wrapLines(r.state.CompleteText, width) {
			lines = append(lines, r.theme.Banner.Render(line))
		}
	}
	return lines
}

func (r *Root) lessonLines(width int) []string {
	if len(r.state.Lessons) == 0 {
		return []string{r.theme.Muted.Render("No lessons loaded.")}
	}
	mark, done, cursor := "○", "●", "▶"
	if r.ascii {
		mark, done, cursor = "o", "*", ">"
	}
	out := make([]string, 0, len(r.state.Lessons)*2)
	for i, l := range r.state.Lessons {
		m := mark
		if l.Steps > 0 && l.Done >= l.Steps {
			m = done
		}
		prefix := " "
		if i == r.state.Current {
			prefix = cursor
		}
		count := fmt.Sprintf("%d/%d", l.Done, l.Steps)
		title := fmt.Sprintf("%s %d. %s %s", prefix, i+1, m, l.Title)
		title = padRight(fitLine(title, width-len(count)-1), width-len(count)) + count
		style := r.theme.PanelBody
		if i == r.state.Current {
			style = r.theme.Selected
		}
		out = append(out, style.Render(title))
		if l.Description != "" && i == r.state.Current {
			out = append(out, r.theme.Muted.Render("    "+fitLine(l.Description, width-4)))
		}
	}
	return out
}

func (r *Root) taskLines(width int) []string {
	lesson, ok := r.state.CurrentLesson()
	if !ok {
		return []string{r.theme.Muted.Render("Select a lesson to begin.")}
	}
	out := []string{r.theme.PanelTitle.Render(fitLine(lesson.Title, width))}
	out = append(out, r.describe(lesson)...)
	out = append(out, "")
	if r.state.HasStep {
		out = append(out, r.theme.Accent.Render(fmt.Sprintf("Step %d of %d", r.state.Progress+1, r.state.Total)))
		out = append(out, wrapLines(r.state.Instruction, width)...)
	} else {
		out = append(out, r.theme.Pass.Render("All steps complete."))
	}
	out = append(out, "")
	out = append(out, r.progressBar(width-8)+fmt.Sprintf(" %d/%d", r.state.Progress, r.state.Total))
	return out
}

func (r *Root) helpLines(width int) []string {
	var out []string
	if r.state.HasStep && r.state.Hint != "" {
		out = append(out, wrapLines(r.theme.Accent.Render("Hint: ")+r.state.Hint, width)...)
	}
	if r.state.Coaching != "" {
		if len(out) > 0 {
			out = append(out, "")
		}
		for _, line := range wrapLines(r.state.Coaching, width) {
			out = append(out, r.theme.Muted.Render(line))
		}
	}
	if len(out) == 0 {
		out = append(out, r.theme.Muted.Render("Type the command the task asks for and press enter."))
	}
	return out
}

// describe renders a lesson description as markdown once per lesson.
func (r *Root) describe(lesson LessonSummary) []string {
	if lesson.Description == "" {
		return nil
	}
	if cached, ok := r.described[lesson.ID]; ok {
		return cached
	}
	var lines []string
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(lesson.Description); err == nil {
			for _, line := range strings.Split(rendered, "\n") {
				if strings.TrimSpace(ansi.Strip(line)) == "" {
					continue
				}
				lines = append(lines, line)
			}
		}
	}
	if len(lines) == 0 {
		lines = wrapLines(lesson.Description, sidebarWidth-2)
	}
	r.described[lesson.ID] = lines
	return lines
}

func (r *Root) progressBar(width int) string {
	b := r.bar
	b.SetWidth(max(8, width))
	if r.state.Total <= 0 {
		return b.ViewAs(0)
	}
	return b.ViewAs(float64(r.state.Progress) / float64(r.state.Total))
}

func (r *Root) headerText() string {
	title := "DevOps CLI Playground"
	if r.state.CatalogName != "" {
		title += " · " + r.state.CatalogName
	}
	right := ""
	if lesson, ok := r.state.CurrentLesson(); ok {
		right = fmt.Sprintf("Lesson %d/%d · %s", r.state.Current+1, len(r.state.Lessons), lesson.Title)
	}
	width := max(1, r.cols-2)
	gap := width - ansi.StringWidth(title) - ansi.StringWidth(right)
	line := title
	if gap > 0 {
		line = title + strings.Repeat(" ", gap) + right
	}
	return r.theme.Header.Render(fitLine(line, width))
}

func (r *Root) statusText() string {
	left := r.statusFlash
	if left == "" {
		left = r.help.View(r.keymap)
	}
	if r.scroll > 0 {
		left = fmt.Sprintf("[scrolled %d] ", r.scroll) + left
	}
	return r.theme.Status.Render(fitLine(left, max(1, r.cols-2)))
}

func (r *Root) prompt() string {
	if r.state.Prompt == "" {
		return "$"
	}
	return r.state.Prompt
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := r.theme.PanelBorder.Render(tl + strings.Repeat(h, innerW) + tr)
	if t := " " + title + " "; title != "" && ansi.StringWidth(t) < innerW-1 {
		rest := innerW - 1 - ansi.StringWidth(t)
		top = r.theme.PanelBorder.Render(tl+h) + r.theme.PanelTitle.Render(t) + r.theme.PanelBorder.Render(strings.Repeat(h, rest)+tr)
	}

	out := make([]string, 0, height)
	out = append(out, top)
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, r.theme.PanelBorder.Render(v)+padRight(fitLine(line, innerW), innerW)+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func wrapLines(s string, width int) []string {
	if s == "" {
		return nil
	}
	width = max(1, width)
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\t", "    "), "\n") {
		out = append(out, strings.Split(ansi.Wrap(line, width, ""), "\n")...)
	}
	return out
}

func fitLine(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	r.statusFlash = "Recovered UI panic"

	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"layout", r.layout.String(),
		"cols", r.cols,
		"rows", r.rows,
		"lesson", r.state.Current,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
