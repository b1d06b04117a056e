// coinwatch is a terminal dashboard for the coinboard API.
//
// Usage: go run ./cmd/coinwatch [-api http://localhost:5000] [-follow]
//
// Commands (one per line on stdin):
//
//	/term    search coins by name or symbol ("/" alone clears the search)
//	s <key>  sort by name, symbol, price, marketCap or change24h (repeat to reverse)
//	r        refresh now
//	q        quit
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rickgao/coinboard/internal/feed"
	"github.com/rickgao/coinboard/internal/version"
	"github.com/rickgao/coinboard/internal/viewer"
)

func main() {
	apiURL := flag.String("api", "http://localhost:5000", "coinboard API base URL")
	interval := flag.Duration("interval", 30*time.Minute, "auto-refresh interval")
	follow := flag.Bool("follow", false, "also apply snapshots pushed over the websocket feed")
	verbose := flag.Bool("verbose", false, "log to stderr")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("coinwatch", version.String())
		return
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	state := viewer.NewState()
	out := &screen{w: os.Stdout, state: state}

	cfg := viewer.DefaultPollerConfig()
	cfg.Interval = *interval
	cfg.OnUpdate = out.draw
	poller := viewer.NewPoller(cfg, viewer.NewClient(*apiURL, nil, logger), state, logger)

	if err := poller.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}
	defer poller.Stop(context.Background())

	if *follow {
		wsURL, err := streamURL(*apiURL)
		if err != nil {
			logger.Error("invalid api url", "error", err)
			os.Exit(1)
		}
		go followFeed(ctx, wsURL, state, out, logger)
	}

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleCommand(ctx, strings.TrimSpace(line), state, poller, out); quit {
				return
			}
		}
	}
}

// handleCommand applies one input line. It reports whether to quit.
func handleCommand(ctx context.Context, line string, state *viewer.State, poller *viewer.Poller, out *screen) bool {
	switch {
	case line == "":
		out.draw()
	case line == "q":
		return true
	case line == "r":
		go func() {
			if err := poller.Refresh(ctx); errors.Is(err, viewer.ErrRefreshInFlight) {
				out.notice("refresh already in progress")
			}
		}()
	case strings.HasPrefix(line, "/"):
		state.SetSearch(strings.TrimPrefix(line, "/"))
		out.draw()
	case strings.HasPrefix(line, "s "):
		key, err := viewer.ParseSortKey(strings.TrimSpace(strings.TrimPrefix(line, "s ")))
		if err != nil {
			out.notice(err.Error())
			return false
		}
		state.ClickSort(key)
		out.draw()
	default:
		out.notice(fmt.Sprintf("unknown command %q (try /term, s <key>, r, q)", line))
	}
	return false
}

// followFeed applies pushed snapshots until ctx is done, reconnecting with
// a fixed delay.
func followFeed(ctx context.Context, wsURL string, state *viewer.State, out *screen, logger *slog.Logger) {
	for {
		client := feed.NewClient(wsURL, feed.DefaultConfig(), logger)
		if err := client.Connect(ctx); err != nil {
			logger.Debug("feed connect failed", "error", err)
		} else {
			consumeFeed(ctx, client, state, out, logger)
		}
		client.Close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func consumeFeed(ctx context.Context, client *feed.Client, state *viewer.State, out *screen, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-client.Errors():
			logger.Debug("feed disconnected", "error", err)
			return
		case msg := <-client.Messages():
			if msg.Type != feed.MessageTypeSnapshot {
				continue
			}
			state.SetData(msg.Coins, time.Now())
			out.draw()
		}
	}
}

// streamURL derives the websocket feed URL from the API base URL.
func streamURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/coins/stream"
	return u.String(), nil
}

func readLines(r io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}

// screen serializes redraws from the poller, the feed and the command loop.
type screen struct {
	mu    sync.Mutex
	w     io.Writer
	state *viewer.State
}

func (s *screen) draw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.w, "\033[H\033[2J")
	viewer.Render(s.w, s.state)
	fmt.Fprint(s.w, "\n> ")
}

func (s *screen) notice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s\n> ", msg)
}
