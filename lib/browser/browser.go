package browser

import (
	"context"
	"fmt"
	"log/slog"
	"mensa-scraper/lib/telemetry"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("mensa.lib.browser")

var ErrNavigation = fmt.Errorf("navigation failed")

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

type Options struct {
	Headless  bool
	UserAgent string
}

// Page is a single browser tab.
type Page interface {
	// Goto navigates to url and waits until the network has been idle,
	// failing with ErrNavigation when that does not happen within timeout.
	Goto(ctx context.Context, url string, timeout time.Duration) error
	WaitForTimeout(ctx context.Context, d time.Duration) error
	// Content returns the serialized DOM of the current document.
	Content(ctx context.Context) (string, error)
}

// Session owns a browser process. Close must be called once the session
// is no longer needed.
type Session struct {
	ctx    context.Context
	cancel func()
	once   sync.Once
}

func Launch(ctx context.Context, opts Options) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Launch")
	defer span.End()

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	// the browser has to outlive the launch span's context
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// chromedp only starts the browser on the first Run
	err := chromedp.Run(browserCtx)
	if err != nil {
		browserCancel()
		allocCancel()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to launch browser")
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	slog.DebugContext(ctx, "browser launched", "headless", opts.Headless)

	return &Session{
		ctx: browserCtx,
		cancel: func() {
			err := chromedp.Cancel(browserCtx)
			if err != nil {
				slog.Warn("failed to close browser gracefully", "err", err)
			}
			browserCancel()
			allocCancel()
		},
	}, nil
}

// NewPage opens a new tab in the session's browser.
func (s *Session) NewPage() (Page, error) {
	tabCtx, cancel := chromedp.NewContext(s.ctx)
	err := chromedp.Run(tabCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &chromePage{ctx: tabCtx}, nil
}

func (s *Session) Close() {
	s.once.Do(s.cancel)
}

type chromePage struct {
	ctx context.Context
}

func (p *chromePage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, "Goto")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	// chromedp actions must run on a context derived from the tab, the
	// caller's context is only used for cancellation.
	navCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var mainFrame cdp.FrameID
	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		mainFrame = tree.Frame.ID
		return nil
	}))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read frame tree")
		return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}

	watcher := newIdleWatcher(mainFrame)
	chromedp.ListenTarget(navCtx, func(ev any) {
		lifecycle, ok := ev.(*page.EventLifecycleEvent)
		if ok {
			watcher.observe(lifecycle)
		}
	})

	err = chromedp.Run(
		navCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-watcher.idle:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
		return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	return nil
}

// idleWatcher closes idle once the main frame reaches network idle after
// a new document started loading in it. Lifecycle events of iframes are
// ignored.
type idleWatcher struct {
	frame   cdp.FrameID
	started bool
	idle    chan struct{}
	once    sync.Once
}

func newIdleWatcher(frame cdp.FrameID) *idleWatcher {
	return &idleWatcher{frame: frame, idle: make(chan struct{})}
}

// observe is called from a single listener goroutine.
func (w *idleWatcher) observe(ev *page.EventLifecycleEvent) {
	if ev.FrameID != w.frame {
		return
	}
	switch ev.Name {
	case "init":
		w.started = true
	case "networkIdle":
		if w.started {
			w.once.Do(func() { close(w.idle) })
		}
	}
}

func (p *chromePage) WaitForTimeout(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "Content")
	defer span.End()

	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var markup string
	err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read page content")
		return "", err
	}
	return markup, nil
}
