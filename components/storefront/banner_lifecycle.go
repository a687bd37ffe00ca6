package storefront

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultBannerTick is the countdown refresh cadence.
const DefaultBannerTick = time.Second

// BannerState is the lifecycle position of the promotional banner.
type BannerState int

const (
	BannerNotFetched BannerState = iota
	BannerVisible
	BannerHidden
)

func (s BannerState) String() string {
	switch s {
	case BannerVisible:
		return "visible"
	case BannerHidden:
		return "hidden"
	default:
		return "not_fetched"
	}
}

// HideReason explains why the banner is hidden.
type HideReason string

const (
	HideNone             HideReason = ""
	HideNoBanner         HideReason = "no_banner"
	HideAlreadyDismissed HideReason = "already_dismissed"
	HideUserDismissed    HideReason = "user_dismissed"
	HideExpired          HideReason = "expired"
)

// Clock abstracts wall time so countdowns can be driven deterministically.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// BannerView is what a renderer needs to draw the banner.
type BannerView struct {
	State       BannerState
	Reason      HideReason
	Banner      *Banner
	HasDeadline bool
	Remaining   time.Duration
	Countdown   string
	CTA         *CallToAction
}

// BannerOptions configures a BannerLifecycle.
type BannerOptions struct {
	Source       BannerSource
	Dismissals   DismissalStore
	Clock        Clock
	TickInterval time.Duration
	// OnTick receives the view after every countdown tick.
	OnTick    func(BannerView)
	Telemetry Telemetry
	Logger    *slog.Logger
}

// BannerLifecycle fetches the latest banner once, decides its visibility
// against persisted dismissals, counts down to its deadline and hides it
// for good when dismissed or expired.
type BannerLifecycle struct {
	mu        sync.Mutex
	opts      BannerOptions
	clock     Clock
	store     DismissalStore
	telemetry Telemetry
	logger    *slog.Logger

	state     BannerState
	reason    HideReason
	banner    *Banner
	fetchedAt time.Time

	fetching chan struct{}

	ticking bool
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

// NewBannerLifecycle builds a lifecycle in the NotFetched state.
func NewBannerLifecycle(opts BannerOptions) *BannerLifecycle {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultBannerTick
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	store := opts.Dismissals
	if store == nil {
		store = NewDismissalSet(nil)
	}
	return &BannerLifecycle{
		opts:      opts,
		clock:     clock,
		store:     store,
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    normalizeLogger(opts.Logger),
		stop:      make(chan struct{}),
	}
}

// Fetch retrieves the latest banner. It runs at most once per lifecycle;
// later calls return the current view. A failed fetch leaves the lifecycle
// in NotFetched and renders nothing.
func (l *BannerLifecycle) Fetch(ctx context.Context) (BannerView, error) {
	l.mu.Lock()
	if l.state != BannerNotFetched || l.closed {
		view := l.viewLocked(l.clock.Now())
		l.mu.Unlock()
		return view, nil
	}
	if wait := l.fetching; wait != nil {
		l.mu.Unlock()
		select {
		case <-wait:
			return l.View(), nil
		case <-ctx.Done():
			return l.View(), ctx.Err()
		}
	}
	done := make(chan struct{})
	l.fetching = done
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.fetching = nil
		l.mu.Unlock()
		close(done)
	}()
	return l.fetch(ctx)
}

func (l *BannerLifecycle) fetch(ctx context.Context) (BannerView, error) {
	if l.opts.Source == nil {
		return l.View(), ErrNoClient
	}
	banner, err := l.opts.Source.LatestBanner(ctx)
	if err != nil {
		l.logger.Warn("banner fetch failed", slog.Any("error", err))
		return l.View(), err
	}

	if !banner.Present() {
		l.transition(ctx, nil, BannerHidden, HideNoBanner)
		return l.View(), nil
	}

	dismissed, err := l.store.Contains(ctx, banner.DismissKey())
	if err != nil {
		l.logger.Warn("banner dismissal lookup failed", slog.Any("error", err))
	}
	if dismissed {
		l.transition(ctx, banner, BannerHidden, HideAlreadyDismissed)
		return l.View(), nil
	}

	l.transition(ctx, banner, BannerVisible, HideNone)
	return l.Evaluate(ctx, l.clock.Now()), nil
}

func (l *BannerLifecycle) transition(ctx context.Context, banner *Banner, state BannerState, reason HideReason) {
	l.mu.Lock()
	if l.state != BannerNotFetched {
		l.mu.Unlock()
		return
	}
	l.banner = banner
	l.state = state
	l.reason = reason
	l.fetchedAt = l.clock.Now()
	l.mu.Unlock()

	payload := map[string]any{"state": state.String()}
	if reason != HideNone {
		payload["reason"] = string(reason)
	}
	if banner != nil {
		payload["banner_id"] = banner.ID
	}
	l.telemetry.Record(ctx, "storefront.banner.fetched", payload)
}

// Evaluate recomputes the countdown at now. Reaching zero hides the banner
// and persists its dismissal so it never reappears.
func (l *BannerLifecycle) Evaluate(ctx context.Context, now time.Time) BannerView {
	l.mu.Lock()
	if l.state != BannerVisible {
		view := l.viewLocked(now)
		l.mu.Unlock()
		return view
	}
	remaining, ok := l.banner.Remaining(now, l.fetchedAt)
	if !ok || remaining > 0 {
		view := l.viewLocked(now)
		l.mu.Unlock()
		return view
	}
	banner := l.hideLocked(HideExpired)
	view := l.viewLocked(now)
	l.mu.Unlock()

	l.persist(ctx, banner, HideExpired)
	return view
}

// Dismiss hides a visible banner and records the dismissal.
func (l *BannerLifecycle) Dismiss(ctx context.Context) (BannerView, error) {
	l.mu.Lock()
	if l.state != BannerVisible {
		view := l.viewLocked(l.clock.Now())
		l.mu.Unlock()
		return view, nil
	}
	banner := l.hideLocked(HideUserDismissed)
	view := l.viewLocked(l.clock.Now())
	l.mu.Unlock()

	return view, l.persist(ctx, banner, HideUserDismissed)
}

func (l *BannerLifecycle) hideLocked(reason HideReason) *Banner {
	l.state = BannerHidden
	l.reason = reason
	l.stopTickerLocked()
	return l.banner
}

func (l *BannerLifecycle) persist(ctx context.Context, banner *Banner, reason HideReason) error {
	if banner == nil {
		return nil
	}
	err := l.store.Add(ctx, banner.DismissKey())
	if err != nil {
		l.logger.Error("banner dismissal not persisted",
			slog.Int64("banner_id", banner.ID),
			slog.Any("error", err),
		)
	}
	l.telemetry.Record(ctx, "storefront.banner.hidden", map[string]any{
		"banner_id": banner.ID,
		"reason":    string(reason),
		"persisted": err == nil,
	})
	return err
}

// Start runs the countdown ticker until the banner hides, ctx ends or the
// lifecycle closes. It is a no-op when there is nothing to count down.
func (l *BannerLifecycle) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ticking || l.closed || l.state != BannerVisible {
		return
	}
	if _, ok := l.banner.Deadline(l.fetchedAt); !ok {
		return
	}
	l.ticking = true
	l.done = make(chan struct{})
	go l.run(ctx, l.stop, l.done)
}

func (l *BannerLifecycle) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.ticking = false
			l.mu.Unlock()
			return
		case <-stop:
			return
		case <-ticker.C:
			view := l.Evaluate(ctx, l.clock.Now())
			if l.opts.OnTick != nil {
				l.opts.OnTick(view)
			}
			if view.State != BannerVisible {
				return
			}
		}
	}
}

// Done is closed when the running ticker exits. It is nil before Start.
func (l *BannerLifecycle) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *BannerLifecycle) stopTickerLocked() {
	if !l.ticking {
		return
	}
	l.ticking = false
	close(l.stop)
	l.stop = make(chan struct{})
}

// View returns the banner view at the current clock time.
func (l *BannerLifecycle) View() BannerView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked(l.clock.Now())
}

// State returns the current lifecycle state and hide reason.
func (l *BannerLifecycle) State() (BannerState, HideReason) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.reason
}

// Close stops the ticker. Subsequent fetches are ignored.
func (l *BannerLifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.stopTickerLocked()
}

func (l *BannerLifecycle) viewLocked(now time.Time) BannerView {
	view := BannerView{State: l.state, Reason: l.reason}
	if l.state != BannerVisible || l.banner == nil {
		return view
	}
	copied := *l.banner
	view.Banner = &copied
	if remaining, ok := copied.Remaining(now, l.fetchedAt); ok {
		view.HasDeadline = true
		view.Remaining = remaining
		if remaining > 0 {
			view.Countdown = FormatCountdown(remaining)
		}
	}
	if cta, ok := copied.CallToAction(); ok {
		view.CTA = &cta
	}
	return view
}
