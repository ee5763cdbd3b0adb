package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/eslsoft/finquest/internal/entity"
)

// TimeSource supplies the current instant. Calendar days are taken in the
// location of the returned time.
type TimeSource interface {
	Now() time.Time
}

// TimeSourceFunc adapts a function to TimeSource.
type TimeSourceFunc func() time.Time

func (f TimeSourceFunc) Now() time.Time { return f() }

// SystemTimeSource reads the wall clock in a fixed location.
type SystemTimeSource struct {
	Location *time.Location
}

func (s SystemTimeSource) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// NewTimeSource builds a wall-clock source for an IANA zone name. An empty
// name or "Local" uses the process's local zone.
func NewTimeSource(timezone string) (TimeSource, error) {
	name := strings.TrimSpace(timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return SystemTimeSource{Location: time.Local}, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return SystemTimeSource{Location: loc}, nil
}

// Today returns the current calendar day of ts as YYYY-MM-DD.
func Today(ts TimeSource) string {
	return entity.FormatDay(ts.Now())
}
