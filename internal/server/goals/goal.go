// Package goals holds the per-user goal documents the service reads
// deadlines and reminders from, and the stores that persist them.
package goals

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DefaultReminderText is delivered for a due goal that carries no reminder.
const DefaultReminderText = "No reminder set."

// ErrNoDeadline is returned by DeadlineTime when the goal has no deadline
// or its deadline text cannot be parsed.
var ErrNoDeadline = errors.New("goal has no valid deadline")

// deadlineLayouts are tried in order. Layouts without a zone are read in
// the location passed to DeadlineTime.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 3:04 PM",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006",
}

var knownKeys = []string{"goalName", "Deadline", "Reminders", "reminderSent"}

// Goal is one entry of a user's goal document.
//
// Keys the service does not understand are kept in Extra and written back
// unchanged, so other tools sharing the document do not lose data.
type Goal struct {
	Name         string                     `json:"goalName"`
	Deadline     string                     `json:"Deadline,omitempty"`
	Reminders    string                     `json:"Reminders,omitempty"`
	ReminderSent bool                       `json:"reminderSent"`
	Extra        map[string]json.RawMessage `json:"-"`
}

type plainGoal Goal

// UnmarshalJSON decodes the known keys and stashes the rest in Extra.
func (g *Goal) UnmarshalJSON(b []byte) error {
	var p plainGoal
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range knownKeys {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Extra = all
	}

	*g = Goal(p)
	return nil
}

// MarshalJSON encodes the known keys merged with Extra.
func (g Goal) MarshalJSON() ([]byte, error) {
	if len(g.Extra) == 0 {
		return json.Marshal(plainGoal(g))
	}

	known, err := json.Marshal(plainGoal(g))
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range g.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// DeadlineTime parses the goal's deadline. Zone-less layouts are
// interpreted in loc; a nil loc means time.Local.
func (g Goal) DeadlineTime(loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(g.Deadline)
	if s == "" {
		return time.Time{}, ErrNoDeadline
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrNoDeadline
}

// ReminderText returns the reminder to deliver, or DefaultReminderText
// when the goal has none.
func (g Goal) ReminderText() string {
	if strings.TrimSpace(g.Reminders) == "" {
		return DefaultReminderText
	}
	return g.Reminders
}
