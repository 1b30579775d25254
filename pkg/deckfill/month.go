// Package deckfill generates the monthly report deck: it reads tabular data
// from the month's spreadsheet inputs and writes it into the fixed table
// cells of a pre-built PowerPoint template.
package deckfill

import (
	"regexp"
	"strings"
	"time"
)

// MonthToken matches the month/year shorthand used on the title slide,
// e.g. "Sep'25" (older template revisions used "Sep|25").
var MonthToken = regexp.MustCompile(`[A-Za-z]{3}['|]\d{2}`)

var monthNames = map[string]string{
	"Jan": "January", "Feb": "February", "Mar": "March", "Apr": "April",
	"May": "May", "Jun": "June", "Jul": "July", "Aug": "August",
	"Sep": "September", "Oct": "October", "Nov": "November", "Dec": "December",
}

// MonthLabel is the report month as a full name plus four-digit year.
type MonthLabel struct {
	Name string
	Year string
}

// ParseMonth accepts "Sep'25", "September 2025" or "Sep 2025" and falls back
// to the current month when the input has no usable month/year pair.
func ParseMonth(input string, now time.Time) MonthLabel {
	input = strings.TrimSpace(input)

	if strings.Contains(input, "'") {
		parts := strings.SplitN(input, "'", 2)
		name := expandMonth(strings.TrimSpace(parts[0]))
		year := strings.TrimSpace(parts[1])
		if len(year) == 2 {
			year = "20" + year
		}
		if name != "" && year != "" {
			return MonthLabel{Name: name, Year: year}
		}
	}

	if parts := strings.Fields(input); len(parts) >= 2 {
		if name := expandMonth(parts[0]); name != "" {
			return MonthLabel{Name: name, Year: parts[1]}
		}
	}

	return MonthLabel{Name: now.Month().String(), Year: now.Format("2006")}
}

// Short renders the title-slide form, e.g. "Sep'25".
func (m MonthLabel) Short() string {
	abbr := m.Name
	if len(abbr) > 3 {
		abbr = abbr[:3]
	}
	year := m.Year
	if len(year) > 2 {
		year = year[len(year)-2:]
	}
	return abbr + "'" + year
}

// String renders the full form, e.g. "September 2025".
func (m MonthLabel) String() string {
	return m.Name + " " + m.Year
}

// expandMonth maps an abbreviation to the full month name. Full names pass
// through; anything unrecognized returns "".
func expandMonth(s string) string {
	if s == "" {
		return ""
	}
	if len(s) >= 3 {
		key := strings.ToUpper(s[:1]) + strings.ToLower(s[1:2]) + strings.ToLower(s[2:3])
		if full, ok := monthNames[key]; ok {
			if len(s) == 3 || strings.EqualFold(s, full) {
				return full
			}
		}
	}
	return ""
}
