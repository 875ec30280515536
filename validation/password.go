package validation

import (
	"unicode"
	"unicode/utf8"

	"github.com/tbxark/formwizard/types"
)

const minPasswordLength = 8

// Requirement is one line of the live password checklist.
type Requirement struct {
	Label   string `json:"label"`
	Message string `json:"-"`
	Met     bool   `json:"met"`
}

// PasswordChecklist evaluates every password requirement, in the order the
// Password rule reports them.
func PasswordChecklist(password string) []Requirement {
	return []Requirement{
		{
			Label:   "At least 8 characters",
			Message: "Password must be at least 8 characters",
			Met:     utf8.RuneCountInString(password) >= minPasswordLength,
		},
		{
			Label:   "One uppercase letter",
			Message: "Password must contain an uppercase letter",
			Met:     containsFunc(password, unicode.IsUpper),
		},
		{
			Label:   "One lowercase letter",
			Message: "Password must contain a lowercase letter",
			Met:     containsFunc(password, unicode.IsLower),
		},
		{
			Label:   "One number",
			Message: "Password must contain a number",
			Met:     containsFunc(password, unicode.IsDigit),
		},
		{
			Label:   "One special character",
			Message: "Password must contain a special character",
			Met:     containsFunc(password, isSymbol),
		},
	}
}

// Password reports the first unmet requirement only.
func Password() Rule {
	return Rule{
		Name: "password",
		Check: func(value any, _ types.Fields) string {
			for _, req := range PasswordChecklist(stringValue(value)) {
				if !req.Met {
					return req.Message
				}
			}
			return ""
		},
	}
}
