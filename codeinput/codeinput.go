// Package codeinput implements a fixed-length, one-digit-per-slot entry
// control for PIN and OTP codes. It owns slot contents and focus; the host
// forwards key events and renders Slots and Focus.
package codeinput

import "strings"

// CompleteFunc receives the full code when every slot holds a digit.
type CompleteFunc func(code string)

// Input is ephemeral UI state and is never persisted.
//
// onComplete fires on every change that leaves all slots filled with a code
// different from the last one reported. Clearing any slot re-arms it, so
// deleting and retyping the same digit reports the code again, while
// overwriting a digit with itself does not.
type Input struct {
	slots      []rune
	focus      int
	onComplete CompleteFunc
	reported   string
}

func New(length int, onComplete CompleteFunc) *Input {
	if length < 1 {
		length = 1
	}
	return &Input{
		slots:      make([]rune, length),
		onComplete: onComplete,
	}
}

func (in *Input) Len() int   { return len(in.slots) }
func (in *Input) Focus() int { return in.focus }

// Slots returns the slot contents; empty slots are "".
func (in *Input) Slots() []string {
	out := make([]string, len(in.slots))
	for i, r := range in.slots {
		if r != 0 {
			out[i] = string(r)
		}
	}
	return out
}

func (in *Input) Value() string {
	var b strings.Builder
	for _, r := range in.slots {
		if r != 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (in *Input) IsComplete() bool {
	for _, r := range in.slots {
		if r == 0 {
			return false
		}
	}
	return true
}

// SetFocus moves focus to i, clamped to the slot range.
func (in *Input) SetFocus(i int) {
	in.focus = in.clamp(i)
}

// Type handles text arriving in slot i. When several characters arrive at
// once the last digit wins; input with no digit is ignored. Focus advances
// to the next slot unless i is the last one.
func (in *Input) Type(i int, text string) {
	i = in.clamp(i)
	digit, ok := lastDigit(text)
	if !ok {
		return
	}
	in.slots[i] = digit
	if i+1 < len(in.slots) {
		in.focus = i + 1
	} else {
		in.focus = i
	}
	in.changed()
}

// Backspace clears slot i, or moves focus back one slot when it is already
// empty. It never deletes outside slot i.
func (in *Input) Backspace(i int) {
	i = in.clamp(i)
	if in.slots[i] != 0 {
		in.slots[i] = 0
		in.focus = i
		in.changed()
		return
	}
	if i > 0 {
		in.focus = i - 1
	}
}

func (in *Input) Left()  { in.focus = in.clamp(in.focus - 1) }
func (in *Input) Right() { in.focus = in.clamp(in.focus + 1) }

// Paste fills slots from the first one with up to Len digits of text,
// ignoring everything else. Slots past the pasted digits keep their value.
func (in *Input) Paste(text string) {
	digits := make([]rune, 0, len(in.slots))
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
			if len(digits) == len(in.slots) {
				break
			}
		}
	}
	if len(digits) == 0 {
		return
	}
	copy(in.slots, digits)
	in.focus = min(len(digits), len(in.slots)-1)
	in.changed()
}

// Clear empties every slot and returns focus to the first one.
func (in *Input) Clear() {
	for i := range in.slots {
		in.slots[i] = 0
	}
	in.focus = 0
	in.reported = ""
}

func (in *Input) changed() {
	if !in.IsComplete() {
		in.reported = ""
		return
	}
	code := in.Value()
	if code == in.reported {
		return
	}
	in.reported = code
	if in.onComplete != nil {
		in.onComplete(code)
	}
}

func (in *Input) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(in.slots) {
		return len(in.slots) - 1
	}
	return i
}

func lastDigit(text string) (rune, bool) {
	var digit rune
	found := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digit, found = r, true
		}
	}
	return digit, found
}
