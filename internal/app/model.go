package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/wpm/internal/db"
	"github.com/jwulff/wpm/internal/session"
	"github.com/jwulff/wpm/internal/ui"
	"github.com/sirupsen/logrus"

	tea "github.com/charmbracelet/bubbletea"
)

// Screen selects what the root model renders.
type Screen int

const (
	ScreenMain Screen = iota
	ScreenSettings
	ScreenResult
)

// inbox collects controller notifications between updates. It is shared by
// every copy of the model.
type inbox struct {
	results []session.Result
}

// Model is the root bubbletea model for the wpm TUI.
type Model struct {
	ctx   context.Context
	ctrl  *session.Controller
	store *db.Store
	log   logrus.FieldLogger
	keys  KeyMap
	inbox *inbox

	// Settings
	settings db.Settings
	theme    ui.Theme
	form     *huh.Form
	draft    *SettingsDraft

	screen Screen
	result *session.Result

	// Transcript panel
	transcript     viewport.Model
	transcriptLive bool
	shownText      string

	width  int
	height int

	// Errors
	errorMessage   string
	errorTransient bool
}

// New creates a model driving ctrl. store may be nil, in which case settings
// live only for the lifetime of the program.
func New(ctx context.Context, ctrl *session.Controller, store *db.Store, log logrus.FieldLogger) Model {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}

	in := &inbox{}
	ctrl.Subscribe(session.ObserverFuncs{
		OnResult: func(r session.Result) { in.results = append(in.results, r) },
	})

	vp := viewport.New(0, 0)
	vp.KeyMap = transcriptKeyMap()

	settings := db.DefaultSettings()
	settings.TimerLength = ctrl.Config().Duration

	return Model{
		ctx:            ctx,
		ctrl:           ctrl,
		store:          store,
		log:            log.WithField("component", "tui"),
		keys:           DefaultKeyMap(),
		inbox:          in,
		settings:       settings,
		theme:          ui.NewTheme(settings.RingColor, settings.RingCardColor, settings.TranscriptCardColor),
		transcript:     vp,
		transcriptLive: true,
	}
}

// Init asks for permissions and loads saved settings.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return requestAccessMsg{} },
		loadSettingsCmd(m.ctx, m.store),
	)
}

// loadSettingsCmd reads settings from SQLite.
func loadSettingsCmd(ctx context.Context, store *db.Store) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return SettingsLoadedMsg{Settings: db.DefaultSettings()}
		}
		s, err := store.Settings(ctx)
		return SettingsLoadedMsg{Settings: s, Err: err}
	}
}

// saveSettingsCmd stores the completed form.
func saveSettingsCmd(ctx context.Context, store *db.Store, d *SettingsDraft) tea.Cmd {
	return func() tea.Msg {
		s, err := d.Save(ctx, store)
		return SettingsSavedMsg{Settings: s, Err: err}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case DispatchMsg:
		msg.Fn()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case requestAccessMsg:
		m.ctrl.RequestAccess(m.ctx)

	case SettingsLoadedMsg:
		s := msg.Settings
		if msg.Err != nil {
			m.log.WithError(msg.Err).Warn("loading settings")
			s = db.DefaultSettings()
			cmd = m.setError("could not load settings: "+msg.Err.Error(), true)
		}
		if err := m.applySettings(s); err != nil {
			cmd = m.setError(err.Error(), true)
		}

	case SettingsSavedMsg:
		if msg.Err != nil {
			m.log.WithError(msg.Err).Warn("saving settings")
			cmd = m.setError("could not save settings: "+msg.Err.Error(), true)
			break
		}
		if err := m.applySettings(msg.Settings); err != nil {
			cmd = m.setError(err.Error(), true)
		}

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}

	default:
		switch m.screen {
		case ScreenSettings:
			cmd = m.updateSettings(msg)
		case ScreenResult:
			cmd = m.updateResult(msg)
		default:
			cmd = m.updateMain(msg)
		}
	}

	m.drainInbox()
	m.syncTranscript()
	return m, cmd
}

func (m *Model) updateMain(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.ctrl.Interrupt()
		return tea.Quit

	case key.Matches(keyMsg, m.keys.Toggle):
		return m.toggle()

	case key.Matches(keyMsg, m.keys.Settings):
		if m.ctrl.State().Status == session.StatusRunning {
			return nil
		}
		m.draft = NewSettingsDraft(m.settings)
		m.form = SettingsForm(m.draft)
		m.screen = ScreenSettings
		return m.form.Init()

	case key.Matches(keyMsg, m.keys.Retry):
		if m.ctrl.State().Status != session.StatusRunning {
			m.ctrl.RequestAccess(m.ctx)
		}
		return nil
	}

	var cmd tea.Cmd
	m.transcript, cmd = m.transcript.Update(keyMsg)
	m.transcriptLive = m.transcript.AtBottom()
	return cmd
}

// toggle is the play/pause button: it starts from Idle and stops a run.
func (m *Model) toggle() tea.Cmd {
	switch m.ctrl.State().Status {
	case session.StatusRunning:
		m.ctrl.Stop()
	case session.StatusIdle:
		m.transcriptLive = true
		err := m.ctrl.Start(m.ctx)
		switch {
		case err == nil, errors.Is(err, session.ErrPermissionDenied):
			// Permission problems are shown in the transcript panel.
		default:
			return m.setError(err.Error(), true)
		}
	}
	return nil
}

func (m *Model) updateSettings(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case keyMsg.String() == "ctrl+c":
			return tea.Quit
		case key.Matches(keyMsg, m.keys.Cancel):
			m.closeSettings()
			return nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		draft := m.draft
		m.closeSettings()
		return saveSettingsCmd(m.ctx, m.store, draft)
	case huh.StateAborted:
		m.closeSettings()
		return nil
	}
	return cmd
}

func (m *Model) closeSettings() {
	m.closeForm()
	m.screen = ScreenMain
}

func (m *Model) updateResult(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return tea.Quit
	case key.Matches(keyMsg, m.keys.Dismiss):
		if err := m.ctrl.Reset(); err != nil {
			m.log.WithError(err).Warn("reset after result")
		}
		m.result = nil
		m.screen = ScreenMain
	}
	return nil
}

func (m *Model) applySettings(s db.Settings) error {
	m.settings = s
	m.theme = ui.NewTheme(s.RingColor, s.RingCardColor, s.TranscriptCardColor)
	cfg := m.ctrl.Config()
	cfg.Duration = s.TimerLength
	if err := m.ctrl.Configure(cfg); err != nil {
		return fmt.Errorf("applying settings: %w", err)
	}
	m.log.WithField("duration", s.TimerLength).Debug("settings applied")
	return nil
}

func (m *Model) setError(msg string, transient bool) tea.Cmd {
	m.errorMessage = msg
	m.errorTransient = transient
	if transient {
		return clearTransientErrorCmd()
	}
	return nil
}

func (m *Model) drainInbox() {
	if len(m.inbox.results) == 0 {
		return
	}
	r := m.inbox.results[len(m.inbox.results)-1]
	m.inbox.results = m.inbox.results[:0]
	if r.Reason == session.ReasonInterrupted {
		return
	}
	m.result = &r
	m.screen = ScreenResult
	m.closeForm()
}

func (m *Model) closeForm() {
	m.form = nil
	m.draft = nil
}

// transcriptText is the panel body: the live transcript, or the status
// message when there is nothing to show yet.
func (m Model) transcriptText() string {
	st := m.ctrl.State()
	if st.Transcript != "" {
		return st.Transcript
	}
	return st.Message
}

func (m *Model) syncTranscript() {
	text := m.transcriptText()
	if text == m.shownText {
		return
	}
	m.shownText = text
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	m.transcript.SetContent(strings.Join(wrapText(m.shownText, m.transcript.Width), "\n"))
	if m.transcriptLive {
		m.transcript.GotoBottom()
	}
}

// layout describes how the two cards share the screen.
type layout struct {
	radius      int
	sideBySide  bool
	transcriptW int
	transcriptH int
}

const (
	// header, two dividers, error bar and footer
	chromeLines = 5
	// border and padding around card content
	cardFrameW = 4
	cardFrameH = 2
)

func (m Model) layout() layout {
	contentH := max(8, m.height-chromeLines)

	radius := min(8, max(3, (contentH-cardFrameH-1)/2))
	ringW := 4*radius + 1 + cardFrameW

	l := layout{radius: radius}
	if m.width-ringW-1 >= 30 {
		l.sideBySide = true
		l.transcriptW = m.width - ringW - 1 - cardFrameW
		l.transcriptH = 2*radius + 1 - 1 // minus the panel header
	} else {
		// Stack the cards and give the ring a smaller share.
		l.radius = min(radius, max(3, (contentH/2-cardFrameH-1)/2))
		ringH := 2*l.radius + 1 + cardFrameH
		l.transcriptW = max(10, m.width-cardFrameW)
		l.transcriptH = max(3, contentH-ringH-cardFrameH-1)
	}
	return l
}

func (m *Model) resize() {
	l := m.layout()
	m.transcript.Width = l.transcriptW
	m.transcript.Height = l.transcriptH
	m.refreshTranscript()
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	switch m.screen {
	case ScreenSettings:
		sections = append(sections, m.renderSettings())
	case ScreenResult:
		sections = append(sections, m.renderResult())
	default:
		sections = append(sections, m.renderMainContent())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("WPM")
	st := m.ctrl.State()

	var dot string
	switch st.Status {
	case session.StatusRunning:
		dot = ui.RecordingDotStyle.Render("● REC")
	case session.StatusFinished:
		dot = ui.IdleDotStyle.Render("■ DONE")
	default:
		dot = ui.IdleDotStyle.Render("○ IDLE")
	}

	timer := ui.DimStyle.Render(fmt.Sprintf(" — %ds timer", int(st.Duration/time.Second)))
	return title + "  " + dot + timer
}

func (m Model) renderMainContent() string {
	l := m.layout()
	ring := m.renderRingCard(l.radius)
	transcript := m.renderTranscriptCard(l)

	if l.sideBySide {
		return lipgloss.JoinHorizontal(lipgloss.Top, ring, " ", transcript)
	}
	return lipgloss.JoinVertical(lipgloss.Left, ring, transcript)
}

func (m Model) renderRingCard(radius int) string {
	st := m.ctrl.State()

	glyph := "▶"
	if st.Status == session.StatusRunning {
		glyph = "❚❚"
	}
	label := []string{glyph, fmt.Sprintf("%.2f", st.Elapsed.Seconds())}

	ring := ui.RenderRing(st.Progress(), radius, ui.CardText, m.theme.Ring, label)
	return ui.CardStyle(m.theme.RingCard).Render(ring)
}

func (m Model) renderTranscriptCard(l layout) string {
	st := m.ctrl.State()

	var mic string
	switch {
	case st.Recording:
		mic = ui.RecordingDotStyle.Render("● MIC")
	case !st.MicAuthorized:
		mic = ui.ErrorStyle.Render("⊘ MIC OFF")
	default:
		mic = ui.IdleDotStyle.Render("○ MIC")
	}
	header := mic
	if !m.transcriptLive {
		header += ui.DimStyle.Render("  SCROLL")
	}

	body := m.transcript.View()
	if m.shownText == "" {
		body = ui.DimStyle.Render("Press Space and start reading aloud.")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, body)
	return ui.CardStyle(m.theme.TranscriptCard).
		Width(l.transcriptW + cardFrameW - 2).
		Height(l.transcriptH + 1).
		Render(content)
}

func (m Model) renderResult() string {
	if m.result == nil {
		return ""
	}
	r := m.result

	title := "Time's up!"
	switch r.Reason {
	case session.ReasonStopped:
		title = "Nice reading!"
	case session.ReasonDeviceError:
		title = "Transcription stopped"
	}

	lines := []string{
		ui.DialogTitleStyle.Render(title),
		"",
		r.Summary(),
		ui.DimStyle.Render(fmt.Sprintf("%.0f words per minute", r.WordsPerMinute())),
	}
	if r.Err != nil {
		lines = append(lines, "", ui.ErrorTextStyle.Render(r.Err.Error()))
	}
	lines = append(lines, "", ui.DialogButtonStyle.Render("[ Got it! ]"))

	dialog := ui.DialogStyle.Render(strings.Join(lines, "\n"))
	h := max(lipgloss.Height(dialog), m.height-chromeLines)
	return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, dialog)
}

func (m Model) renderSettings() string {
	if m.form == nil {
		return ""
	}
	return ui.TitleStyle.Render("Settings") + "\n\n" + m.form.View()
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string
	hint := func(b key.Binding) {
		h := b.Help()
		parts = append(parts, ui.FooterKeyStyle.Render(h.Key)+ui.FooterDescStyle.Render(" "+h.Desc))
	}

	switch m.screen {
	case ScreenSettings:
		parts = append(parts, ui.FooterKeyStyle.Render("enter")+ui.FooterDescStyle.Render(" next"))
		hint(m.keys.Cancel)
	case ScreenResult:
		hint(m.keys.Dismiss)
		hint(m.keys.Quit)
	default:
		st := m.ctrl.State()
		if st.Status == session.StatusRunning {
			parts = append(parts, ui.FooterKeyStyle.Render("space")+ui.FooterDescStyle.Render(" stop"))
		} else {
			parts = append(parts, ui.FooterKeyStyle.Render("space")+ui.FooterDescStyle.Render(" start"))
			hint(m.keys.Settings)
			if !st.MicAuthorized {
				hint(m.keys.Retry)
			}
		}
		parts = append(parts, ui.FooterKeyStyle.Render("↑↓")+ui.FooterDescStyle.Render(" scroll"))
		hint(m.keys.Quit)
	}

	return strings.Join(parts, "  ")
}

// Helpers

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if lipgloss.Width(current)+1+lipgloss.Width(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
