package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/tbxark/formwizard/types"
)

// Age returns the number of whole years between dob and today using calendar
// dates. Someone born on Feb 29 turns a year older on Mar 1 in non-leap years.
func Age(dob, today time.Time) int {
	dy, dm, dd := dob.Date()
	ty, tm, td := today.Date()
	age := ty - dy
	if tm < dm || (tm == dm && td < dd) {
		age--
	}
	return age
}

// AgeGate rejects dates of birth younger than minAge on now(). It only runs
// when advancing; unparseable dates are left to the Date rule.
func AgeGate(minAge int, now func() time.Time) Rule {
	if now == nil {
		now = time.Now
	}
	return Rule{
		Name:      "age_gate",
		OnAdvance: true,
		Check: func(value any, _ types.Fields) string {
			dob, err := time.Parse(DateLayout, strings.TrimSpace(stringValue(value)))
			if err != nil {
				return ""
			}
			today := now()
			if dob.After(today) {
				return "Date of birth cannot be in the future"
			}
			if Age(dob, today) < minAge {
				return fmt.Sprintf("You must be at least %d years old to register", minAge)
			}
			return ""
		},
	}
}
