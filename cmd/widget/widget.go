package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"skycast/internal/presenter"
	"skycast/internal/view"
)

const quitCommand = ":q"

// widget connects a view.Controller to a line-oriented terminal.
type widget struct {
	ctrl   *view.Controller
	opts   presenter.Options
	logger *slog.Logger
	now    func() time.Time

	mu  sync.Mutex
	out io.Writer
}

func newWidgetWithController(ctrl *view.Controller, opts presenter.Options, out io.Writer, logger *slog.Logger) *widget {
	return &widget{ctrl: ctrl, opts: opts, logger: logger, now: time.Now, out: out}
}

// render draws st. Listeners fire from several goroutines, so output is
// serialized.
func (w *widget) render(st view.State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out, strings.Repeat("-", 40))
	if err := presenter.RenderText(w.out, view.PageFor(st, w.now(), w.opts)); err != nil {
		w.logger.Error("render failed", "error", err)
	}
}

// run starts the widget and blocks until input ends, ":q" is read or ctx is
// cancelled. With a non-empty city it searches immediately instead of
// auto-locating. Each search runs concurrently so a newer one can supersede
// a slow one. Lookup failures are rendered, not returned.
func (w *widget) run(ctx context.Context, city string, in io.Reader) error {
	unsubscribe := w.ctrl.Subscribe(w.render)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	w.render(w.ctrl.Snapshot())
	if city != "" {
		g.Go(func() error {
			w.ctrl.MountWithoutLocate()
			_ = w.ctrl.Search(gctx, city)
			return nil
		})
	} else {
		g.Go(func() error {
			_ = w.ctrl.Mount(gctx)
			return nil
		})
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			w.logger.Warn("reading input failed", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case line, ok := <-lines:
			if !ok {
				// EOF: let in-flight lookups finish rendering.
				return g.Wait()
			}
			if strings.TrimSpace(line) == quitCommand {
				cancel()
				return g.Wait()
			}
			g.Go(func() error {
				_ = w.ctrl.Search(gctx, line)
				return nil
			})
		}
	}
}
