package entities

import "time"

// PersistedTask records a finished run of a scheduled job.
type PersistedTask struct {
	ExecutedAt time.Time
	Name       string
}
