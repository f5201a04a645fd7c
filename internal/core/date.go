// Package core provides the bill-payment domain types.
//
// This file contains the parser for dates typed by users. Dates are always
// dd/MM/yyyy with zero-padded day and month and a four-digit year.
package core

import (
	"time"
)

// DateLayout is the time layout matching dd/MM/yyyy.
const DateLayout = "02/01/2006"

// ParseDate parses a dd/MM/yyyy string into a Date.
//
// The layout is strict: exactly two digits for day and month, four for the
// year, slashes as separators and no surrounding whitespace. The day must
// exist in the given month. Any violation returns a *DateFormatError.
//
// Examples:
//
//	ParseDate("20/10/2020") -> 2020-10-20, nil
//	ParseDate("2/10/2020")  -> error (day not zero-padded)
//	ParseDate("31/02/2020") -> error (no such day)
func ParseDate(text string) (Date, error) {
	if len(text) != len(DateLayout) {
		return Date{}, &DateFormatError{Text: text}
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if i == 2 || i == 5 {
			if c != '/' {
				return Date{}, &DateFormatError{Text: text}
			}
			continue
		}
		if c < '0' || c > '9' {
			return Date{}, &DateFormatError{Text: text}
		}
	}
	t, err := time.ParseInLocation(DateLayout, text, time.UTC)
	if err != nil {
		return Date{}, &DateFormatError{Text: text, Err: err}
	}
	return Date{Time: t}, nil
}
