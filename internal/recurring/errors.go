package recurring

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/fundwise/internal/model"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrInvalidFrequency is wrapped by every FrequencyError.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrNegativeWindow is returned when the upcoming window is below zero.
	ErrNegativeWindow = errors.New("upcoming window must not be negative")
)

// FrequencyError reports an obligation whose frequency tag is not recognized.
type FrequencyError struct {
	Obligation string
	Frequency  model.Frequency
}

func (e *FrequencyError) Error() string {
	if e.Obligation == "" {
		return fmt.Sprintf("%v %q", ErrInvalidFrequency, string(e.Frequency))
	}
	return fmt.Sprintf("obligation %s: %v %q", e.Obligation, ErrInvalidFrequency, string(e.Frequency))
}

func (e *FrequencyError) Unwrap() error {
	return ErrInvalidFrequency
}

func frequencyError(o model.Obligation) error {
	name := o.Name
	if name == "" && o.ID != (ulid.ULID{}) {
		name = o.ID.String()
	}
	return &FrequencyError{Obligation: name, Frequency: o.Frequency}
}
