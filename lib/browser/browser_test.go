package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/stretchr/testify/require"
)

func launchOrSkip(t *testing.T) *Session {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	session, err := Launch(ctx, Options{Headless: true})
	if err != nil {
		t.Skipf("no usable chrome installation: %s", err)
	}
	return session
}

func TestPageContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><h2>Mensa %s</h2></body></html>`, r.URL.Query().Get("date"))
	}))
	defer server.Close()

	session := launchOrSkip(t)
	defer session.Close()

	page, err := session.NewPage()
	require.NoError(t, err)

	ctx := context.Background()
	for _, day := range []string{"2024-05-06", "2024-05-07"} {
		err = page.Goto(ctx, server.URL+"/?date="+day, time.Second*20)
		require.NoError(t, err)
		require.NoError(t, page.WaitForTimeout(ctx, time.Millisecond*50))

		content, err := page.Content(ctx)
		require.NoError(t, err)
		require.True(t, strings.Contains(content, "Mensa "+day), content)
	}
}

func TestGotoUnreachable(t *testing.T) {
	session := launchOrSkip(t)
	defer session.Close()

	page, err := session.NewPage()
	require.NoError(t, err)

	err = page.Goto(context.Background(), "http://127.0.0.1:1/", time.Second*5)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNavigation))
}

func TestWaitForTimeoutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := &chromePage{}
	err := page.WaitForTimeout(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCloseTwice(t *testing.T) {
	calls := 0
	session := &Session{cancel: func() { calls++ }}
	session.Close()
	session.Close()
	require.Equal(t, 1, calls)
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestIdleWatcher(t *testing.T) {
	const main cdp.FrameID = "MAIN"
	const iframe cdp.FrameID = "ADS"

	cases := []struct {
		name     string
		events   []*page.EventLifecycleEvent
		expected bool
	}{
		{
			name: "main frame idle after init",
			events: []*page.EventLifecycleEvent{
				{FrameID: main, Name: "init"},
				{FrameID: main, Name: "load"},
				{FrameID: main, Name: "networkIdle"},
			},
			expected: true,
		},
		{
			name: "idle of the previous document",
			events: []*page.EventLifecycleEvent{
				{FrameID: main, Name: "networkIdle"},
			},
			expected: false,
		},
		{
			name: "iframe idle does not count",
			events: []*page.EventLifecycleEvent{
				{FrameID: main, Name: "init"},
				{FrameID: iframe, Name: "init"},
				{FrameID: iframe, Name: "networkIdle"},
			},
			expected: false,
		},
		{
			name: "iframe init does not start the main frame",
			events: []*page.EventLifecycleEvent{
				{FrameID: iframe, Name: "init"},
				{FrameID: main, Name: "networkIdle"},
			},
			expected: false,
		},
		{
			name: "repeated idle",
			events: []*page.EventLifecycleEvent{
				{FrameID: main, Name: "init"},
				{FrameID: main, Name: "networkIdle"},
				{FrameID: main, Name: "networkIdle"},
			},
			expected: true,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			watcher := newIdleWatcher(main)
			for _, ev := range test.events {
				watcher.observe(ev)
			}
			require.Equal(t, test.expected, isClosed(watcher.idle))
		})
	}
}
