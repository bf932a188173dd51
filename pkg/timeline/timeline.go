package timeline

import (
	"sort"
	"time"

	"github.com/crewcal/crewcal/pkg/event"
)

// DefaultSlotHeight is the pixel height of one hour in the day view.
const DefaultSlotHeight = 64

// Block is a single event positioned inside a day column. Top and Height are
// pixel offsets derived from the event times at DefaultSlotHeight per hour.
type Block struct {
	EventId string    `json:"eventId"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Top     float64   `json:"top"`
	Height  float64   `json:"height"`
}

// UserColumn holds one user's positioned blocks for a day.
type UserColumn struct {
	Email    string  `json:"email"`
	UserName string  `json:"userName,omitempty"`
	Blocks   []Block `json:"blocks"`
}

// DayLayout positions the events that touch the given day into per-user
// columns. Events are clamped to the day's bounds so multi-day and all-day
// events render as full-height blocks. The computation is pure; callers pick
// the day in whatever timezone they resolved the date in.
func DayLayout(events []event.CalendarEvent, day time.Time, slotHeight float64) []UserColumn {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	columns := make(map[string]*UserColumn)
	for _, calendarEvent := range events {
		if !calendarEvent.StartTime.Before(dayEnd) || !calendarEvent.EndTime.After(dayStart) {
			continue
		}

		start := calendarEvent.StartTime
		if start.Before(dayStart) {
			start = dayStart
		}
		end := calendarEvent.EndTime
		if end.After(dayEnd) {
			end = dayEnd
		}

		column, ok := columns[calendarEvent.Email]
		if !ok {
			column = &UserColumn{Email: calendarEvent.Email, UserName: calendarEvent.UserName}
			columns[calendarEvent.Email] = column
		}
		column.Blocks = append(column.Blocks, Block{
			EventId: calendarEvent.Id.String(),
			Title:   calendarEvent.Title,
			Start:   start,
			End:     end,
			Top:     start.Sub(dayStart).Hours() * slotHeight,
			Height:  end.Sub(start).Hours() * slotHeight,
		})
	}

	layout := make([]UserColumn, 0, len(columns))
	for _, column := range columns {
		sort.Slice(column.Blocks, func(i, j int) bool { return column.Blocks[i].Start.Before(column.Blocks[j].Start) })
		layout = append(layout, *column)
	}
	sort.Slice(layout, func(i, j int) bool { return layout[i].Email < layout[j].Email })
	return layout
}
