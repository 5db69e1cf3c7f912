package journal

import "time"

// Status is the lifecycle state of a recorded session.
type Status string

const (
	StatusRunning Status = "running"
	// StatusCompleted sessions ended with every feature working.
	StatusCompleted Status = "completed"
	// StatusDegraded sessions ran with audio or content disabled.
	StatusDegraded Status = "degraded"
	// StatusInterrupted sessions never recorded an end, e.g. after a crash.
	StatusInterrupted Status = "interrupted"
)

// Session is one recorded run.
type Session struct {
	ID           string
	StartedAt    time.Time
	EndedAt      time.Time
	Status       Status
	ContentTitle string
	ItemCount    int
	AudioSource  string
	Seed         uint64
	ErrorMessage string
	// SpawnCount is filled by list queries.
	SpawnCount int
}

// Duration returns how long the session ran, or zero while running.
func (s Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Spawn is one recorded entity.
type Spawn struct {
	ID        string
	SessionID string
	Kind      string
	Label     string
	Section   string
	X         float64
	Y         float64
	RMS       float64
	CreatedAt time.Time
	ExpiredAt time.Time
}

// Summary aggregates a session's spawns.
type Summary struct {
	Total   int
	ByKind  map[string]int
	PeakRMS float64
}
