package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jwulff/wpm/internal/app"
	"github.com/jwulff/wpm/internal/db"
	"github.com/jwulff/wpm/internal/ui"
	"github.com/spf13/cobra"
)

func newSettingsCmd(a *App) *cobra.Command {
	var (
		seconds        int
		ring           string
		ringCard       string
		transcriptCard string
		reset          bool
		interactive    bool
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the timer length and colors",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore()
			if err != nil {
				return err
			}

			if reset {
				st, err := store.ResetSettings(ctx)
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), st)
				return nil
			}

			st, err := store.Settings(ctx)
			if err != nil {
				return err
			}

			if interactive {
				draft := app.NewSettingsDraft(st)
				if err := app.SettingsForm(draft).Run(); err != nil {
					return err
				}
				saved, err := draft.Save(ctx, store)
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), saved)
				return nil
			}

			changed := false
			if cmd.Flags().Changed("duration") {
				st.TimerLength = time.Duration(seconds) * time.Second
				changed = true
			}
			for _, c := range []struct {
				flag  string
				value string
				dst   *string
			}{
				{"ring", ring, &st.RingColor},
				{"ring-card", ringCard, &st.RingCardColor},
				{"transcript-card", transcriptCard, &st.TranscriptCardColor},
			} {
				if !cmd.Flags().Changed(c.flag) {
					continue
				}
				if _, ok := ui.LookupColor(c.value); !ok {
					return fmt.Errorf("--%s: unknown color %q (choose from %s)",
						c.flag, c.value, strings.Join(ui.PaletteNames(), ", "))
				}
				*c.dst = c.value
				changed = true
			}

			if changed {
				if st, err = store.SaveSettings(ctx, st); err != nil {
					return err
				}
			}
			printSettings(cmd.OutOrStdout(), st)
			return nil
		},
	}

	cmd.Flags().IntVar(&seconds, "duration", 60, "Timer length in seconds (1-60)")
	cmd.Flags().StringVar(&ring, "ring", "", "Ring color")
	cmd.Flags().StringVar(&ringCard, "ring-card", "", "Ring card color")
	cmd.Flags().StringVar(&transcriptCard, "transcript-card", "", "Transcript card color")
	cmd.Flags().BoolVar(&reset, "reset", false, "Restore the defaults")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Edit settings in a form")
	cmd.MarkFlagsMutuallyExclusive("reset", "interactive")

	return cmd
}

func printSettings(w io.Writer, st db.Settings) {
	fmt.Fprintf(w, "Timer length:     %d seconds\n", int(st.TimerLength/time.Second))
	fmt.Fprintf(w, "Ring color:       %s\n", st.RingColor)
	fmt.Fprintf(w, "Ring card:        %s\n", st.RingCardColor)
	fmt.Fprintf(w, "Transcript card:  %s\n", st.TranscriptCardColor)
	if !st.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated:          %s\n", st.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}
