package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jwulff/wpm/internal/session"
)

// runPlain runs one session without the full-screen UI, for pipes and
// terminals where the TUI can't take over. Enter stops the run early.
func (a *App) runPlain(ctx context.Context, out io.Writer, seconds int) error {
	store, err := a.openStore()
	if err != nil {
		a.Log.WithError(err).Warn("using default settings")
		store = nil
	}
	cfg, err := a.sessionConfig(ctx, store, seconds)
	if err != nil {
		return err
	}

	src := a.source(a.Log)
	access, err := src.RequestAccess(ctx)
	if err != nil {
		return fmt.Errorf("requesting access: %w", err)
	}
	if err := access.Err(); err != nil {
		var pe *session.PermissionError
		if errors.As(err, &pe) {
			fmt.Fprintln(out, pe.Message())
		}
		return err
	}

	loop := session.NewLoop(256)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	ctrl, err := session.New(cfg, session.Options{
		Source:     src,
		Authorizer: src,
		Dispatch:   loop.Dispatch,
		Logger:     a.Log,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	results := make(chan session.Result, 1)
	ctrl.Subscribe(session.ObserverFuncs{
		OnResult: func(r session.Result) {
			results <- r
			stopLoop()
		},
	})

	startErr := make(chan error, 1)
	loop.Post(func() {
		ctrl.SetAccess(access)
		err := ctrl.Start(ctx)
		startErr <- err
		if err != nil {
			stopLoop()
			return
		}
		fmt.Fprintf(out, "Recording for %.0f seconds. Read aloud; press Enter to stop early.\n",
			cfg.Duration.Seconds())
	})

	go func() {
		select {
		case <-ctx.Done():
			loop.Post(ctrl.Interrupt)
		case <-loopCtx.Done():
		}
	}()
	go waitForEnter(a.in(), func() { loop.Post(ctrl.Stop) })

	loop.Run(loopCtx)

	// The loop has exited, so the controller can be read from here.
	if err := <-startErr; err != nil {
		if msg := ctrl.State().Message; msg != "" {
			fmt.Fprintln(out, msg)
		}
		return err
	}
	r := <-results

	if t := ctrl.State().Transcript; t != "" {
		fmt.Fprintf(out, "\n%s\n", t)
	}
	fmt.Fprintf(out, "\n%s\n%.0f words per minute\n", r.Summary(), r.WordsPerMinute())
	if r.Err != nil {
		return r.Err
	}
	if r.Reason == session.ReasonInterrupted {
		return ctx.Err()
	}
	return nil
}

// waitForEnter calls fn when a line is read from r. EOF leaves the run to
// the timer.
func waitForEnter(r io.Reader, fn func()) {
	if _, err := bufio.NewReader(r).ReadString('\n'); err != nil {
		return
	}
	fn()
}

