package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/wpm/internal/db"
	"github.com/jwulff/wpm/internal/session"
	"github.com/jwulff/wpm/internal/ui"
)

// SettingsDraft holds the values edited by the settings form.
type SettingsDraft struct {
	Seconds        string
	Ring           string
	RingCard       string
	TranscriptCard string
	Reset          bool
}

// NewSettingsDraft seeds a draft from saved settings.
func NewSettingsDraft(s db.Settings) *SettingsDraft {
	return &SettingsDraft{
		Seconds:        strconv.Itoa(int(s.TimerLength / time.Second)),
		Ring:           s.RingColor,
		RingCard:       s.RingCardColor,
		TranscriptCard: s.TranscriptCardColor,
	}
}

// Settings converts the draft back to settings. A draft with Reset set
// yields the defaults.
func (d *SettingsDraft) Settings() (db.Settings, error) {
	if d.Reset {
		return db.DefaultSettings(), nil
	}
	if err := ValidateSeconds(d.Seconds); err != nil {
		return db.Settings{}, err
	}
	n, _ := strconv.Atoi(strings.TrimSpace(d.Seconds))
	return db.Settings{
		TimerLength:         time.Duration(n) * time.Second,
		RingColor:           d.Ring,
		RingCardColor:       d.RingCard,
		TranscriptCardColor: d.TranscriptCard,
	}, nil
}

// ValidateSeconds accepts whole seconds between the session minimum and
// maximum.
func ValidateSeconds(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number of seconds")
	}
	lo := int(session.MinDuration / time.Second)
	hi := int(session.MaxDuration / time.Second)
	if n < lo || n > hi {
		return fmt.Errorf("must be between %d and %d seconds", lo, hi)
	}
	return nil
}

// SettingsForm builds the settings form over d.
func SettingsForm(d *SettingsDraft) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Timer Length (seconds)").
				Description("1 to 60").
				Placeholder("60").
				Value(&d.Seconds).
				Validate(ValidateSeconds),
		),
		huh.NewGroup(
			colorSelect("Ring Color", &d.Ring),
			colorSelect("Ring Card Color", &d.RingCard),
			colorSelect("Transcript Card Color", &d.TranscriptCard),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reset to defaults?").
				Description("60 seconds, blue ring on green, blue transcript").
				Affirmative("Reset").
				Negative("Keep").
				Value(&d.Reset),
		),
	).WithTheme(huhTheme()).WithShowHelp(false)
}

func colorSelect(title string, value *string) *huh.Select[string] {
	options := make([]huh.Option[string], 0, len(ui.Palette))
	for _, c := range ui.Palette {
		label := lipgloss.NewStyle().Foreground(c.Color).Render("●") + " " + c.Name
		options = append(options, huh.NewOption(label, c.Name))
	}
	return huh.NewSelect[string]().
		Title(title).
		Options(options...).
		Value(value)
}

func huhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ui.ColorCyan).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(ui.ColorCyan)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ui.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ui.ColorWhite)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(ui.ColorWhite).Background(ui.ColorCyan).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(ui.ColorGray).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(ui.ColorCyan)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(ui.ColorCyan)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ui.ColorGray)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ui.ColorGray)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(ui.ColorGray)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(ui.ColorGray)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(ui.ColorGray)

	return t
}

// Save persists the draft, or restores the defaults when Reset is set. A nil
// store keeps settings in memory only.
func (d *SettingsDraft) Save(ctx context.Context, store *db.Store) (db.Settings, error) {
	s, err := d.Settings()
	if err != nil {
		return db.Settings{}, err
	}
	if store == nil {
		return s, nil
	}
	if d.Reset {
		return store.ResetSettings(ctx)
	}
	return store.SaveSettings(ctx, s)
}
