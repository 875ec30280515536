package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/tbxark/formwizard/types"
)

// Check returns an error message for value, or "" when it passes.
type Check func(value any, fields types.Fields) string

// Rule is one ordered check on a field. OnAdvance rules run only when the
// user tries to leave the step, never on keystrokes.
type Rule struct {
	Name      string
	Check     Check
	OnAdvance bool
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func isEmpty(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case bool:
		return false
	case string:
		return strings.TrimSpace(s) == ""
	default:
		return strings.TrimSpace(fmt.Sprint(s)) == ""
	}
}

func Required(label string) Rule {
	return Rule{
		Name: "required",
		Check: func(value any, _ types.Fields) string {
			if isEmpty(value) {
				return label + " is required"
			}
			return ""
		},
	}
}

func FullName() Rule {
	return Rule{
		Name: "full_name",
		Check: func(value any, _ types.Fields) string {
			if len(strings.Fields(stringValue(value))) < 2 {
				return "Please enter your first and last name"
			}
			return ""
		},
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func Email() Rule {
	return Rule{
		Name: "email",
		Check: func(value any, _ types.Fields) string {
			if !emailPattern.MatchString(strings.TrimSpace(stringValue(value))) {
				return "Please enter a valid email address"
			}
			return ""
		},
	}
}

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func Phone(minDigits int) Rule {
	return Rule{
		Name: "phone",
		Check: func(value any, _ types.Fields) string {
			if len(Digits(stringValue(value))) < minDigits {
				return fmt.Sprintf("Phone number must have at least %d digits", minDigits)
			}
			return ""
		},
	}
}

func Confirmation(sibling, label string) Rule {
	return Rule{
		Name: "confirmation",
		Check: func(value any, fields types.Fields) string {
			if stringValue(value) != fields.String(sibling) {
				return label + " do not match"
			}
			return ""
		},
	}
}

func Checked(message string) Rule {
	return Rule{
		Name: "checked",
		Check: func(value any, _ types.Fields) string {
			if b, ok := value.(bool); ok && b {
				return ""
			}
			return message
		},
	}
}

func MaxLength(n int) Rule {
	return Rule{
		Name: "max_length",
		Check: func(value any, _ types.Fields) string {
			if len([]rune(stringValue(value))) > n {
				return fmt.Sprintf("Must be at most %d characters", n)
			}
			return ""
		},
	}
}

func Pattern(re *regexp.Regexp, message string) Rule {
	return Rule{
		Name: "pattern",
		Check: func(value any, _ types.Fields) string {
			if !re.MatchString(strings.TrimSpace(stringValue(value))) {
				return message
			}
			return ""
		},
	}
}

// OneOf accepts only the values of options, for selects whose choices are
// fixed in the form definition.
func OneOf(options []types.Option, message string) Rule {
	allowed := make(map[string]bool, len(options))
	for _, o := range options {
		allowed[o.Value] = true
	}
	return Rule{
		Name: "one_of",
		Check: func(value any, _ types.Fields) string {
			if !allowed[strings.TrimSpace(stringValue(value))] {
				return message
			}
			return ""
		},
	}
}

const DateLayout = "2006-01-02"

func Date(layout string) Rule {
	return Rule{
		Name: "date",
		Check: func(value any, _ types.Fields) string {
			if _, err := time.Parse(layout, strings.TrimSpace(stringValue(value))); err != nil {
				return "Please enter a valid date"
			}
			return ""
		},
	}
}

func containsFunc(s string, f func(rune) bool) bool {
	for _, r := range s {
		if f(r) {
			return true
		}
	}
	return false
}

func isSymbol(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
