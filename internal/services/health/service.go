package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB          Pinger
	StoreType   string
	LLMProvider string
	Timeout     time.Duration
	// SchemaVersion reports the applied migration version when set.
	SchemaVersion func(ctx context.Context) (int64, error)
}

// NewService constructs a new health service. db may be nil when the app
// runs on in-memory repositories.
func NewService(db Pinger, storeType, llmProvider string) *Service {
	return &Service{DB: db, StoreType: storeType, LLMProvider: llmProvider, Timeout: 2 * time.Second}
}

// Status reports component state. ok is false only when a configured
// database does not answer.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	payload := map[string]any{
		"ok":          true,
		"database":    "memory",
		"objectStore": s.StoreType,
		"llm":         s.LLMProvider,
	}
	if s.DB == nil {
		return payload, true
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		payload["ok"] = false
		payload["database"] = "unreachable"
		return payload, false
	}
	payload["database"] = "postgres"
	if s.SchemaVersion != nil {
		if version, err := s.SchemaVersion(ctx); err == nil {
			payload["schemaVersion"] = version
		}
	}
	return payload, true
}
