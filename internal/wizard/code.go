package wizard

import "strings"

// CodeLength is the number of single-digit boxes of the verification code.
const CodeLength = 6

// Code holds the verification code input, one digit per box.
type Code [CodeLength]string

// SetDigit stores the value typed into box i and returns the box that should
// receive focus next. Only the last digit of v is kept; clearing a box keeps
// focus where it is.
func (c *Code) SetDigit(i int, v string) int {
	if i < 0 || i >= CodeLength {
		return 0
	}
	digits := onlyDigits(v)
	if digits == "" {
		c[i] = ""
		return i
	}
	c[i] = digits[len(digits)-1:]
	if i == CodeLength-1 {
		return i
	}
	return i + 1
}

// Paste fills boxes from the first one with the digits found in s and returns
// the focus index. Six or more digits fill every box and focus the last.
func (c *Code) Paste(s string) int {
	digits := onlyDigits(s)
	if digits == "" {
		return 0
	}
	if len(digits) > CodeLength {
		digits = digits[:CodeLength]
	}
	c.Reset()
	for i := 0; i < len(digits); i++ {
		c[i] = digits[i : i+1]
	}
	if len(digits) == CodeLength {
		return CodeLength - 1
	}
	return len(digits)
}

// Complete reports whether all six boxes hold a digit.
func (c Code) Complete() bool {
	for _, d := range c {
		if len(d) != 1 || d[0] < '0' || d[0] > '9' {
			return false
		}
	}
	return true
}

// Reset empties every box and returns focus index 0.
func (c *Code) Reset() int {
	*c = Code{}
	return 0
}

func (c Code) String() string {
	return strings.Join(c[:], "")
}

// ParseCode builds a Code from the individual box values. A single value holding
// the whole code (autofill, paste without script) is spread over the boxes.
func ParseCode(values []string) Code {
	var c Code
	if len(values) == 1 {
		c.Paste(values[0])
		return c
	}
	for i, v := range values {
		if i >= CodeLength {
			break
		}
		c.SetDigit(i, v)
	}
	return c
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
