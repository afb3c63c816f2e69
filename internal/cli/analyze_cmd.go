package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jwulff/wpm/internal/session"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var seconds float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Count words and unique words in a transcript",
		Long: `Count words and unique words in a transcript read from a file, or from
stdin when no file is given. Words are separated by single spaces and
compared case-insensitively; each line break counts as one space.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if seconds < 0 {
				return fmt.Errorf("--seconds must not be negative")
			}

			var r io.Reader = app.in()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening transcript: %w", err)
				}
				defer f.Close()
				r = f
			}
			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("reading transcript: %w", err)
			}

			res := session.Result{
				Counts:  session.Analyze(joinLines(string(data))),
				Elapsed: time.Duration(seconds * float64(time.Second)),
			}
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(analyzeOutput{
					Words:          res.WordCount,
					UniqueWords:    res.UniqueWordCount,
					Seconds:        seconds,
					WordsPerMinute: res.WordsPerMinute(),
				})
			}

			if seconds > 0 {
				fmt.Fprintln(out, res.Summary())
				fmt.Fprintf(out, "%.0f words per minute\n", res.WordsPerMinute())
				return nil
			}
			fmt.Fprintf(out, "%d Words\n%d Unique Words\n", res.WordCount, res.UniqueWordCount)
			return nil
		},
	}

	cmd.Flags().Float64Var(&seconds, "seconds", 0, "Reading time in seconds, to report words per minute")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

type analyzeOutput struct {
	Words          int     `json:"words"`
	UniqueWords    int     `json:"unique_words"`
	Seconds        float64 `json:"seconds,omitempty"`
	WordsPerMinute float64 `json:"words_per_minute,omitempty"`
}

// joinLines drops trailing line endings and turns each remaining line break
// into a single space.
func joinLines(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return strings.Join(lines, " ")
}
