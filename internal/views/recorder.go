package views

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/somacore/roledeck/internal/shared/metrics"
	"github.com/somacore/roledeck/internal/shared/telemetry"
)

const defaultRecordTimeout = 5 * time.Second

// Recorder writes views off the request path. Writes run on a detached
// context so a finished request never cancels them.
type Recorder struct {
	Repo    Repo
	Timeout time.Duration
	Now     func() time.Time

	wg sync.WaitGroup
}

func NewRecorder(repo Repo) *Recorder {
	return &Recorder{Repo: repo, Timeout: defaultRecordTimeout}
}

// RecordAsync stores the view in the background. Failures are logged and
// counted, never returned.
func (r *Recorder) RecordAsync(view View) {
	if r == nil || r.Repo == nil {
		return
	}
	if view.ID == "" {
		view.ID = uuid.NewString()
	}
	if view.CreatedAt.IsZero() {
		view.CreatedAt = r.now()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		timeout := r.Timeout
		if timeout <= 0 {
			timeout = defaultRecordTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := r.Repo.Record(ctx, view); err != nil {
			metrics.IncViewFailed()
			telemetry.Warn("view.record_failed", map[string]any{
				"deck_id":   view.DeckID,
				"viewer_ip": view.ViewerIP,
				"error":     err.Error(),
			})
			return
		}
		metrics.IncViewRecorded()
	}()
}

// Wait blocks until every in-flight write has finished.
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

func (r *Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
