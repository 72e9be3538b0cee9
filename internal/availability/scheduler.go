package availability

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
	"github.com/bakehouse-labs/bakehouse-backend/pkg/logger"
)

const defaultRefreshInterval = time.Minute

// Window describes the daily ordering hours. Times are "HH:MM" in the
// window's timezone; a close before the open wraps past midnight. A disabled
// window means ordering is always open.
type Window struct {
	Enabled  bool   `json:"enabled"`
	Open     string `json:"open"`
	Close    string `json:"close"`
	Timezone string `json:"timezone"`
}

// Service owns the ordering-window lifecycle. The window lives in the
// settings table so every instance observes the same schedule; the scheduler
// keeps a cached copy refreshed on an interval.
type Service interface {
	Start(ctx context.Context) error
	Stop()
	Reschedule(ctx context.Context, window Window) error
	Window(ctx context.Context) (Window, error)
	IsOpen(ctx context.Context) (bool, error)
}

type scheduler struct {
	repo    Repository
	logg    *logger.Logger
	refresh time.Duration
	now     func() time.Time

	mu     sync.RWMutex
	cached *Window

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewScheduler builds the ordering-window scheduler. Logger is optional.
func NewScheduler(repo Repository, logg *logger.Logger, refresh time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("availability repository required")
	}
	if refresh <= 0 {
		refresh = defaultRefreshInterval
	}
	return &scheduler{
		repo:    repo,
		logg:    logg,
		refresh: refresh,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start loads the persisted window and begins the refresh loop.
func (s *scheduler) Start(ctx context.Context) error {
	if err := s.reload(ctx); err != nil {
		return err
	}
	go s.loop(ctx)
	return nil
}

// Stop halts the refresh loop. Safe to call more than once.
func (s *scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// Reschedule validates and persists a new window, updating the cache so the
// change is effective immediately on this instance.
func (s *scheduler) Reschedule(ctx context.Context, window Window) error {
	if err := validateWindow(window); err != nil {
		return err
	}
	if err := s.repo.SaveWindow(ctx, window); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist ordering window")
	}
	s.mu.Lock()
	s.cached = &window
	s.mu.Unlock()
	if s.logg != nil {
		s.logg.Info(ctx, "ordering window rescheduled")
	}
	return nil
}

// Window returns the effective window, reading through to storage when the
// scheduler has not been started.
func (s *scheduler) Window(ctx context.Context) (Window, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}
	stored, err := s.repo.GetWindow(ctx)
	if err != nil {
		return Window{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ordering window")
	}
	if stored == nil {
		return Window{}, nil
	}
	return *stored, nil
}

// IsOpen evaluates the window against the current time.
func (s *scheduler) IsOpen(ctx context.Context) (bool, error) {
	window, err := s.Window(ctx)
	if err != nil {
		return false, err
	}
	return windowOpenAt(window, s.now()), nil
}

func (s *scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.reload(ctx); err != nil && s.logg != nil {
				s.logg.Error(ctx, "ordering window refresh failed", err)
			}
		}
	}
}

func (s *scheduler) reload(ctx context.Context) error {
	stored, err := s.repo.GetWindow(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cached = stored
	if stored == nil {
		s.cached = &Window{}
	}
	s.mu.Unlock()
	return nil
}

func validateWindow(window Window) error {
	if !window.Enabled {
		return nil
	}
	if _, err := parseClock(window.Open); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "open time must be HH:MM")
	}
	if _, err := parseClock(window.Close); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "close time must be HH:MM")
	}
	if window.Timezone != "" {
		if _, err := time.LoadLocation(window.Timezone); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown timezone")
		}
	}
	return nil
}

// windowOpenAt reports whether the window admits orders at the given instant.
func windowOpenAt(window Window, at time.Time) bool {
	if !window.Enabled {
		return true
	}
	open, err := parseClock(window.Open)
	if err != nil {
		return true
	}
	closeAt, err := parseClock(window.Close)
	if err != nil {
		return true
	}
	if open == closeAt {
		return true
	}

	loc := time.UTC
	if window.Timezone != "" {
		if parsed, err := time.LoadLocation(window.Timezone); err == nil {
			loc = parsed
		}
	}
	local := at.In(loc)
	minute := local.Hour()*60 + local.Minute()

	if open < closeAt {
		return minute >= open && minute < closeAt
	}
	// Overnight window, e.g. 22:00 to 06:00.
	return minute >= open || minute < closeAt
}

func parseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute %q", parts[1])
	}
	return hour*60 + minute, nil
}
