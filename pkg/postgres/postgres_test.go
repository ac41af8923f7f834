package postgres

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

func TestRunUpWaitsForUpAfterCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan bool, 1)
	started := make(chan struct{})
	var finished atomic.Bool

	up := func() error {
		close(started)
		<-stop
		finished.Store(true)
		return nil
	}

	go func() {
		<-started
		cancel()
	}()

	if err := runUp(ctx, up, stop); !errors.Is(err, context.Canceled) {
		t.Fatalf("runUp() error = %v, want context.Canceled", err)
	}
	if !finished.Load() {
		t.Fatal("runUp returned before up finished")
	}
}

func TestRunUpTreatsNoChangeAsSuccess(t *testing.T) {
	t.Parallel()

	stop := make(chan bool, 1)
	if err := runUp(context.Background(), func() error { return migrate.ErrNoChange }, stop); err != nil {
		t.Fatalf("runUp() error = %v", err)
	}
	if err := runUp(context.Background(), func() error { return errors.New("boom") }, stop); err == nil {
		t.Fatal("runUp() error = nil, want failure")
	}
}
