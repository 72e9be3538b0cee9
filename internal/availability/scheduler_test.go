package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/bakehouse-labs/bakehouse-backend/pkg/errors"
)

func newSettingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:availability_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ddl := `
CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME
);`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func atClock(t *testing.T, clock string) time.Time {
	t.Helper()
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	return time.Date(2026, 3, 10, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
}

func TestWindowOpenAt(t *testing.T) {
	t.Parallel()

	day := Window{Enabled: true, Open: "07:00", Close: "22:00"}
	overnight := Window{Enabled: true, Open: "22:00", Close: "06:00"}
	disabled := Window{Enabled: false}

	cases := []struct {
		name   string
		window Window
		clock  string
		want   bool
	}{
		{"day window open", day, "12:00", true},
		{"day window at open boundary", day, "07:00", true},
		{"day window at close boundary", day, "22:00", false},
		{"day window before open", day, "06:59", false},
		{"overnight open late", overnight, "23:30", true},
		{"overnight open early", overnight, "05:59", true},
		{"overnight closed midday", overnight, "12:00", false},
		{"disabled always open", disabled, "03:00", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := windowOpenAt(tc.window, atClock(t, tc.clock))
			if got != tc.want {
				t.Fatalf("windowOpenAt(%+v, %s) = %v, want %v", tc.window, tc.clock, got, tc.want)
			}
		})
	}
}

func TestReschedulePersistsWindow(t *testing.T) {
	t.Parallel()

	db := newSettingsTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)

	svc, err := NewScheduler(repo, nil, time.Hour)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	window := Window{Enabled: true, Open: "07:00", Close: "22:00", Timezone: "UTC"}
	if err := svc.Reschedule(ctx, window); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	stored, err := repo.GetWindow(ctx)
	if err != nil {
		t.Fatalf("get window: %v", err)
	}
	if stored == nil || stored.Open != "07:00" || stored.Close != "22:00" {
		t.Fatalf("unexpected stored window: %+v", stored)
	}

	// A fresh scheduler reading the same store sees the change.
	other, err := NewScheduler(NewRepository(db), nil, time.Hour)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	got, err := other.Window(ctx)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if got.Open != "07:00" {
		t.Fatalf("expected shared window, got %+v", got)
	}

	// Rescheduling overwrites the single settings row.
	if err := svc.Reschedule(ctx, Window{Enabled: true, Open: "08:00", Close: "20:00"}); err != nil {
		t.Fatalf("reschedule again: %v", err)
	}
	stored, err = repo.GetWindow(ctx)
	if err != nil {
		t.Fatalf("get window: %v", err)
	}
	if stored.Open != "08:00" {
		t.Fatalf("expected updated window, got %+v", stored)
	}
}

func TestRescheduleRejectsBadClock(t *testing.T) {
	t.Parallel()

	svc, err := NewScheduler(NewRepository(newSettingsTestDB(t)), nil, time.Hour)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	err = svc.Reschedule(context.Background(), Window{Enabled: true, Open: "25:00", Close: "22:00"})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestIsOpenWithoutStoredWindow(t *testing.T) {
	t.Parallel()

	svc, err := NewScheduler(NewRepository(newSettingsTestDB(t)), nil, time.Hour)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	open, err := svc.IsOpen(context.Background())
	if err != nil {
		t.Fatalf("is open: %v", err)
	}
	if !open {
		t.Fatal("missing window must default to open")
	}
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()

	db := newSettingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	if err := repo.SaveWindow(ctx, Window{Enabled: true, Open: "00:00", Close: "23:59"}); err != nil {
		t.Fatalf("seed window: %v", err)
	}

	svc, err := NewScheduler(repo, nil, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	open, err := svc.IsOpen(ctx)
	if err != nil {
		t.Fatalf("is open: %v", err)
	}
	if !open {
		t.Fatal("expected open window after start")
	}
	svc.Stop()
	svc.Stop()
}
