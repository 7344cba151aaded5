// internal/service/dates.go
package service

import (
	"fmt"
	"time"
)

const dayFormat = "2006-01-02"

// Window is an inclusive calendar-date range in the caller's location.
// Either bound may be open. Bounds convert to store timestamps at
// day-start and day-end so a metric timestamp anywhere inside the last
// day still matches.
type Window struct {
	Start *time.Time
	End   *time.Time
	Loc   *time.Location
}

// NewWindow parses optional YYYY-MM-DD bounds in the given location.
func NewWindow(startDate, endDate string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	w := Window{Loc: loc}

	if startDate != "" {
		day, err := time.ParseInLocation(dayFormat, startDate, loc)
		if err != nil {
			return Window{}, err
		}
		w.Start = &day
	}
	if endDate != "" {
		day, err := time.ParseInLocation(dayFormat, endDate, loc)
		if err != nil {
			return Window{}, err
		}
		end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		w.End = &end
	}
	if w.Closed() && w.Start.After(*w.End) {
		return Window{}, fmt.Errorf("window start %s is after end %s", startDate, endDate)
	}
	return w, nil
}

// Closed reports whether both bounds are set; only closed windows get
// dense zero-filled day series.
func (w Window) Closed() bool {
	return w.Start != nil && w.End != nil
}

// Days enumerates every calendar day of a closed window. An inverted
// window yields no days; it can only be built by hand since NewWindow
// rejects one.
func (w Window) Days() []string {
	if !w.Closed() {
		return nil
	}
	days := []string{}
	for d := *w.Start; !d.After(*w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(dayFormat))
	}
	return days
}

// Timezone names the window's location for store-side day bucketing.
func (w Window) Timezone() string {
	if w.Loc == nil {
		return "UTC"
	}
	return w.Loc.String()
}
