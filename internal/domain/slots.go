package domain

import "time"

// SlotLayout is the canonical text form for slot start times. The fixed-width
// layout keeps lexical order identical to chronological order, so stored
// values sort and range-compare correctly as plain text.
const SlotLayout = "2006-01-02T15:04:05"

// DayLayout and TimeLayout are the user-facing input forms a slot is split
// into: a calendar date and a 24-hour time of day.
const (
	DayLayout  = "2006-01-02"
	TimeLayout = "15:04"
)

// SlotInterval is the booking grid: appointments start on the half hour.
const SlotInterval = 30 * time.Minute

func FormatSlot(t time.Time) string {
	return t.Format(SlotLayout)
}

// ParseSlot reads slot text back into a time. Slot text carries no zone; the
// clinic runs on local wall-clock time, so values parse in time.Local to keep
// round trips exact.
func ParseSlot(s string) (time.Time, error) {
	return time.ParseInLocation(SlotLayout, s, time.Local)
}

// DaySlots returns every slot start on the calendar day of day for a business
// window of [openHour, closeHour). The half-hour grid makes closeHour-1:30
// the last start of the day.
func DaySlots(day time.Time, openHour, closeHour int) []time.Time {
	if closeHour <= openHour {
		return nil
	}

	open := time.Date(day.Year(), day.Month(), day.Day(), openHour, 0, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), closeHour, 0, 0, 0, day.Location())

	out := make([]time.Time, 0, (closeHour-openHour)*2)
	for t := open; t.Before(end); t = t.Add(SlotInterval) {
		out = append(out, t)
	}
	return out
}
