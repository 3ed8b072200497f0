package models

import "time"

// ContentCalendarSlot is one recurring entry of the weekly content
// calendar. Slots are static configuration; only the posts generated
// from them have a lifecycle.
type ContentCalendarSlot struct {
	Weekday     time.Weekday `json:"weekday"`
	TimeOfDay   string       `json:"time_of_day"` // HH:MM, 24h
	ContentType string       `json:"content_type"`
	ToneHint    string       `json:"tone_hint"`
}

// NextOccurrence returns the first time strictly after now that falls on
// the slot's weekday at the slot's time of day. If today matches the
// weekday but the time has already passed, the slot rolls to next week.
func (s ContentCalendarSlot) NextOccurrence(now time.Time) time.Time {
	t, err := time.Parse("15:04", s.TimeOfDay)
	if err != nil {
		t = time.Date(0, 1, 1, 12, 0, 0, 0, time.UTC)
	}

	daysUntil := (int(s.Weekday) - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()).
		AddDate(0, 0, daysUntil)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// DefaultWeeklyCalendar is the fixed six-slot posting rhythm used by the
// auto scheduler.
func DefaultWeeklyCalendar() []ContentCalendarSlot {
	return []ContentCalendarSlot{
		{Weekday: time.Monday, TimeOfDay: "09:00", ContentType: "event-recap", ToneHint: "fun and energetic"},
		{Weekday: time.Tuesday, TimeOfDay: "18:00", ContentType: "behind-the-scenes", ToneHint: "casual and personal"},
		{Weekday: time.Wednesday, TimeOfDay: "12:00", ContentType: "booth-feature", ToneHint: "polished and professional"},
		{Weekday: time.Thursday, TimeOfDay: "17:00", ContentType: "testimonial", ToneHint: "warm and grateful"},
		{Weekday: time.Friday, TimeOfDay: "10:00", ContentType: "weekend-promo", ToneHint: "upbeat with a call to action"},
		{Weekday: time.Sunday, TimeOfDay: "19:00", ContentType: "inspiration", ToneHint: "dreamy and aspirational"},
	}
}
