// Package deadlines renders a user's goals as the HTML fragment returned
// for SEND_DEADLINES.
package deadlines

import (
	"html"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/goalkeeper/internal/server/goals"
)

const (
	// BlockSize is the number of items per <ul> block.
	BlockSize = 10
	// Empty is returned when no goal has a usable deadline.
	Empty = "<p>No valid goals available.</p>"

	itemLayout = "1/2/2006 03:04 PM"
)

// Item is a goal with a parsed deadline.
type Item struct {
	Name     string
	Deadline time.Time
}

// Collect returns the goals with a parsable deadline sorted ascending by
// deadline; ties keep storage order. Goals without one are reported to
// skip, which may be nil.
func Collect(list []goals.Goal, loc *time.Location, skip func(goals.Goal)) []Item {
	items := make([]Item, 0, len(list))
	for _, g := range list {
		t, err := g.DeadlineTime(loc)
		if err != nil {
			if skip != nil {
				skip(g)
			}
			continue
		}
		items = append(items, Item{Name: g.Name, Deadline: t})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Deadline.Before(items[j].Deadline)
	})
	return items
}

// Render formats items, which must already be sorted, as
//
//	<h1>Deadlines</h1>
//	<ul>
//	<li>3/5/2024 02:30 PM: name</li>
//	...
//	</ul>
//	<br>
//	<ul>
//	...
//
// with at most BlockSize items per list. Times are shown in loc.
func Render(items []Item, loc *time.Location) string {
	if len(items) == 0 {
		return Empty
	}
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	b.WriteString("<h1>Deadlines</h1>\n")

	for start := 0; start < len(items); start += BlockSize {
		if start > 0 {
			b.WriteString("<br>\n")
		}
		end := min(start+BlockSize, len(items))

		b.WriteString("<ul>\n")
		for _, it := range items[start:end] {
			b.WriteString("<li>")
			b.WriteString(it.Deadline.In(loc).Format(itemLayout))
			b.WriteString(": ")
			b.WriteString(html.EscapeString(it.Name))
			b.WriteString("</li>\n")
		}
		b.WriteString("</ul>\n")
	}

	return b.String()
}
