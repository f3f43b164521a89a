package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingRepo struct{ calls int }

func (f *failingRepo) Record(ctx context.Context, view View) error {
	f.calls++
	return errors.New("db down")
}

func (f *failingRepo) ListByDeck(ctx context.Context, deckID string) ([]View, error) {
	return nil, nil
}

type blockingRepo struct {
	*MemoryRepo
	release chan struct{}
}

func (b blockingRepo) Record(ctx context.Context, view View) error {
	<-b.release
	return b.MemoryRepo.Record(ctx, view)
}

func TestRecordAsyncPersistsView(t *testing.T) {
	repo := NewMemoryRepo()
	rec := NewRecorder(repo)
	rec.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	rec.RecordAsync(View{DeckID: "d1", ViewerIP: "203.0.113.7", UserAgent: "curl"})
	rec.Wait()

	views, err := repo.ListByDeck(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotEmpty(t, views[0].ID)
	require.Equal(t, "203.0.113.7", views[0].ViewerIP)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), views[0].CreatedAt)
}

func TestRecordAsyncSwallowsFailures(t *testing.T) {
	repo := &failingRepo{}
	rec := NewRecorder(repo)

	require.NotPanics(t, func() {
		rec.RecordAsync(View{DeckID: "d1"})
		rec.Wait()
	})
	require.Equal(t, 1, repo.calls)
}

func TestWaitDrainsInFlightWrites(t *testing.T) {
	repo := blockingRepo{MemoryRepo: NewMemoryRepo(), release: make(chan struct{})}
	rec := NewRecorder(repo)

	for i := 0; i < 3; i++ {
		rec.RecordAsync(View{DeckID: "d1"})
	}

	done := make(chan struct{})
	go func() {
		rec.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before writes finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(repo.release)
	<-done

	views, err := repo.ListByDeck(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, views, 3)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.RecordAsync(View{DeckID: "d1"})
	rec.Wait()
}
