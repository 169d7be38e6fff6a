package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ParseDate turns a natural-language date into a day-precision local time.
// Accepted forms include ISO dates ("2026-01-25"), human dates ("Jan 25",
// "25 January 2026", "01/25"), relative words ("today", "tomorrow"),
// weekdays ("friday", "next monday"), and offsets ("in 3 days", "in 2
// weeks"). Yearless dates that have already passed roll to next year.
func ParseDate(input string) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	today := dateOf(time.Now())

	if date, ok := parseRelative(input, today); ok {
		return date, nil
	}
	if date, ok := parseWeekday(input, today); ok {
		return date, nil
	}
	if date, ok := parseOffset(input, today); ok {
		return date, nil
	}

	if date, err := time.ParseInLocation("2006-01-02", input, time.Local); err == nil {
		return dateOf(date), nil
	}

	// Month names need their case restored for the stdlib parser.
	capitalized := capitalizeWords(input)
	withYear := []string{
		"Jan 2 2006",
		"January 2 2006",
		"2 Jan 2006",
		"2 January 2006",
		"01/02/2006",
	}
	for _, layout := range withYear {
		if date, err := time.ParseInLocation(layout, capitalized, time.Local); err == nil {
			return dateOf(date), nil
		}
	}
	yearless := []string{
		"Jan 2",
		"January 2",
		"01/02",
	}
	for _, layout := range yearless {
		date, err := time.ParseInLocation(layout, capitalized, time.Local)
		if err != nil {
			continue
		}
		date = time.Date(today.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.Local)
		if date.Before(today) {
			date = date.AddDate(1, 0, 0)
		}
		return date, nil
	}

	return time.Time{}, fmt.Errorf("could not parse date %q. Try formats like: 'tomorrow', 'Jan 25', '2026-01-25', 'next monday', 'in 3 days'", input)
}

func parseRelative(input string, today time.Time) (time.Time, bool) {
	switch input {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}
	return time.Time{}, false
}

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

func parseWeekday(input string, today time.Time) (time.Time, bool) {
	name := strings.TrimPrefix(input, "next ")
	target, ok := weekdayNames[name]
	if !ok {
		return time.Time{}, false
	}

	days := (int(target) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days), true
}

func parseOffset(input string, today time.Time) (time.Time, bool) {
	rest, found := strings.CutPrefix(input, "in ")
	if !found {
		return time.Time{}, false
	}
	parts := strings.Fields(rest)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil || n < 0 {
		return time.Time{}, false
	}
	switch parts[1] {
	case "day", "days":
		return today.AddDate(0, 0, n), true
	case "week", "weeks":
		return today.AddDate(0, 0, n*7), true
	}
	return time.Time{}, false
}

func capitalizeWords(input string) string {
	words := strings.Fields(input)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// FormatDate renders a date for display. With relative set, nearby dates
// become "Today", "Tomorrow", or a short weekday form, and past dates show
// how long ago they were due.
func FormatDate(date time.Time, relative bool) string {
	date = dateOf(date)
	if !relative {
		return date.Format("2006-01-02")
	}

	diff := daysBetween(dateOf(time.Now()), date)

	switch {
	case diff == 0:
		return "Today"
	case diff == 1:
		return "Tomorrow"
	case diff == -1:
		return "Yesterday"
	case diff >= 2 && diff <= 6:
		return date.Format("Mon Jan 02")
	case diff >= 7 && diff <= 365:
		return date.Format("Jan 02")
	case diff < 0:
		return fmt.Sprintf("Overdue (%d days ago)", -diff)
	}
	return date.Format("2006-01-02")
}

// daysBetween counts calendar days from a to b, immune to DST-length days.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
