package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/coinboard/internal/model"
)

// ErrRefreshInFlight is returned by Refresh while another fetch is running.
var ErrRefreshInFlight = errors.New("refresh already in progress")

// Fetcher returns the current coin list.
type Fetcher interface {
	FetchCoins(ctx context.Context) ([]model.CoinRecord, error)
}

// PollerConfig holds poller configuration.
type PollerConfig struct {
	Interval time.Duration // Auto-refresh interval (default: 30m)
	Timeout  time.Duration // Per-fetch timeout, 0 = none
	OnUpdate func()        // Called after every fetch attempt, optional
}

// DefaultPollerConfig returns sensible defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval: 30 * time.Minute,
		Timeout:  2 * time.Minute,
	}
}

// Poller fetches on start and at every interval, and serves manual refreshes.
type Poller struct {
	cfg     PollerConfig
	fetcher Fetcher
	state   *State
	logger  *slog.Logger
	now     func() time.Time

	inFlight atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a Poller that writes into state.
func NewPoller(cfg PollerConfig, fetcher Fetcher, state *State, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollerConfig().Interval
	}
	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		state:   state,
		logger:  logger,
		now:     time.Now,
	}
}

// Start fetches once and begins the refresh loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Debug("viewer poller started", "interval", p.cfg.Interval)
	return nil
}

// Stop ends the refresh loop and waits for it to exit.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.refreshLogged()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.refreshLogged()
		}
	}
}

func (p *Poller) refreshLogged() {
	if err := p.Refresh(p.ctx); err != nil && !errors.Is(err, ErrRefreshInFlight) {
		p.logger.Debug("refresh failed", "error", err)
	}
}

// Refresh fetches now. It returns ErrRefreshInFlight without fetching when
// another fetch is running. A failed fetch sets the state's error and keeps
// the previous dataset.
func (p *Poller) Refresh(ctx context.Context) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	defer p.inFlight.Store(false)

	p.state.setLoading(true)
	defer p.notify()
	defer p.state.setLoading(false)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	records, err := p.fetcher.FetchCoins(ctx)
	if err != nil {
		p.state.SetError(err)
		return err
	}

	p.state.SetData(records, p.now())
	return nil
}

func (p *Poller) notify() {
	if p.cfg.OnUpdate != nil {
		p.cfg.OnUpdate()
	}
}
