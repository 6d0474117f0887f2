package domain

import (
	"strconv"
	"strings"
	"time"
)

// ImportSchedule is a persisted recurring import, surviving process
// restarts.
type ImportSchedule struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	EntityType EntityType `json:"entity_type" gorm:"not null"`

	// Frequency is "<n><unit>" with unit m/h/d/w, e.g. "12h".
	Frequency string `json:"frequency" gorm:"not null;default:'12h'"`

	// StartTime is the daily anchor "HH:MM" for frequencies of a day
	// or longer.
	StartTime string `json:"start_time" gorm:"default:'02:00'"`

	FullImport bool `json:"full_import" gorm:"default:false"`
	Active     bool `json:"active" gorm:"default:false"`

	LastRun *time.Time `json:"last_run,omitempty"`
	NextRun *time.Time `json:"next_run,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Due reports whether the schedule should fire now.
func (s *ImportSchedule) Due(now time.Time) bool {
	return s.Active && s.NextRun != nil && !s.NextRun.After(now)
}

// ComputeNextRun returns the next execution time after from. Frequencies
// of a day or longer snap to the daily start time; shorter ones repeat
// from the reference point.
func ComputeNextRun(from time.Time, frequency, startTime string) time.Time {
	interval := parseFrequency(frequency)
	next := from.Add(interval)

	if interval >= 24*time.Hour {
		hour, minute := parseStartTime(startTime)
		next = time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, next.Location())
		if !next.After(from) {
			next = next.Add(24 * time.Hour)
		}
	}
	return next
}

func parseFrequency(frequency string) time.Duration {
	frequency = strings.TrimSpace(strings.ToLower(frequency))
	if frequency == "" {
		return 12 * time.Hour
	}
	unit := frequency[len(frequency)-1]
	value, err := strconv.Atoi(frequency[:len(frequency)-1])
	if err != nil || value <= 0 {
		return 12 * time.Hour
	}
	switch unit {
	case 'm':
		return time.Duration(value) * time.Minute
	case 'h':
		return time.Duration(value) * time.Hour
	case 'd':
		return time.Duration(value) * 24 * time.Hour
	case 'w':
		return time.Duration(value) * 7 * 24 * time.Hour
	}
	return 12 * time.Hour
}

func parseStartTime(startTime string) (hour, minute int) {
	parts := strings.SplitN(startTime, ":", 2)
	if len(parts) != 2 {
		return 2, 0
	}
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	if hour < 0 || hour > 23 {
		hour = 2
	}
	if minute < 0 || minute > 59 {
		minute = 0
	}
	return hour, minute
}
