package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageJobSubmitted Stage = "JOB_SUBMITTED"
	StageJobStart     Stage = "JOB_START"
	StageJobDone      Stage = "JOB_DONE"
	StageJobError     Stage = "JOB_ERROR"
	StageProviderDone Stage = "PROVIDER_DONE"
)

// Event captures a single milestone in an analysis job's lifecycle.
type Event struct {
	// JobID uniquely identifies a job using the 16-byte UUID form.
	JobID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Provider names the upstream service that produced the analysis.
	Provider string
	// Label carries the sentiment label once the provider has answered.
	Label string
	// Confidence is the provider's score for the label, in [0, 1].
	Confidence float64
	// Dur captures provider latency or total job runtime.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.JobID == [16]byte{} {
		return errors.New("job id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageJobSubmitted, StageJobStart, StageJobDone, StageJobError:
	case StageProviderDone:
		if e.Provider == "" {
			return errors.New("provider done requires provider")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return errors.New("confidence must be within [0, 1]")
	}
	return nil
}

// JobUUID converts the binary job ID to uuid.UUID for repositories.
func (e Event) JobUUID() uuid.UUID {
	return uuid.UUID(e.JobID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
