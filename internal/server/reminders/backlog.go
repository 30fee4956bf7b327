// Package reminders delivers due goal reminders one at a time and waits
// for the client to acknowledge each before sending the next.
package reminders

import (
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/server/goals"
)

// Item is one reminder waiting to be delivered.
type Item struct {
	GoalName string
	Deadline time.Time
	Text     string
}

// Backlog returns the reminders due at now in storage order: goals whose
// deadline parses, is not after now, and whose reminder was not sent yet.
// Goals with an unusable deadline are reported to skip, which may be nil.
func Backlog(list []goals.Goal, now time.Time, loc *time.Location, skip func(goals.Goal)) []Item {
	var items []Item
	for _, g := range list {
		if g.ReminderSent {
			continue
		}
		t, err := g.DeadlineTime(loc)
		if err != nil {
			if g.Deadline != "" && skip != nil {
				skip(g)
			}
			continue
		}
		if t.After(now) {
			continue
		}
		items = append(items, Item{GoalName: g.Name, Deadline: t, Text: g.ReminderText()})
	}
	return items
}
