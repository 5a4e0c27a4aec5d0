// Package isbn validates and normalizes ISBN-10 and ISBN-13 identifiers.
package isbn

import (
	"fmt"
	"strings"
)

// Reason classifies why an ISBN failed validation.
type Reason string

const (
	ReasonEmpty     Reason = "empty"
	ReasonLength    Reason = "length"
	ReasonCharacter Reason = "character"
	ReasonChecksum  Reason = "checksum"
)

// InvalidError reports a string that is not a valid ISBN.
type InvalidError struct {
	Raw    string
	Reason Reason
}

func (e *InvalidError) Error() string {
	switch e.Reason {
	case ReasonEmpty:
		return "isbn: empty input"
	case ReasonLength:
		return fmt.Sprintf("isbn: invalid length %d, must be 10 or 13 characters", len(Clean(e.Raw)))
	case ReasonCharacter:
		return "isbn: contains invalid characters"
	case ReasonChecksum:
		return "isbn: checksum verification failed"
	default:
		return "isbn: invalid"
	}
}

// Clean strips hyphens and spaces and uppercases a raw ISBN string.
func Clean(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	return strings.ToUpper(cleaned)
}

// Normalize validates raw as ISBN-10 or ISBN-13 and returns the normalized
// 13-digit form. A valid ISBN-10 is converted by prefixing "978" and
// recomputing the check digit.
func Normalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &InvalidError{Raw: raw, Reason: ReasonEmpty}
	}

	cleaned := Clean(raw)
	switch len(cleaned) {
	case 13:
		if err := validate13(cleaned); err != nil {
			return "", &InvalidError{Raw: raw, Reason: err.Reason}
		}
		return cleaned, nil
	case 10:
		if err := validate10(cleaned); err != nil {
			return "", &InvalidError{Raw: raw, Reason: err.Reason}
		}
		return convert10to13(cleaned), nil
	default:
		return "", &InvalidError{Raw: raw, Reason: ReasonLength}
	}
}

// Valid reports whether raw is a valid ISBN-10 or ISBN-13.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

func validate10(isbn string) *InvalidError {
	// 9 digits followed by a digit or X.
	for i := 0; i < 9; i++ {
		if isbn[i] < '0' || isbn[i] > '9' {
			return &InvalidError{Raw: isbn, Reason: ReasonCharacter}
		}
	}
	last := isbn[9]
	if (last < '0' || last > '9') && last != 'X' {
		return &InvalidError{Raw: isbn, Reason: ReasonCharacter}
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(isbn[i]-'0') * (10 - i)
	}
	if last == 'X' {
		sum += 10
	} else {
		sum += int(last - '0')
	}
	if sum%11 != 0 {
		return &InvalidError{Raw: isbn, Reason: ReasonChecksum}
	}
	return nil
}

func validate13(isbn string) *InvalidError {
	for i := 0; i < 13; i++ {
		if isbn[i] < '0' || isbn[i] > '9' {
			return &InvalidError{Raw: isbn, Reason: ReasonCharacter}
		}
	}
	// Bookland prefixes only.
	if !strings.HasPrefix(isbn, "978") && !strings.HasPrefix(isbn, "979") {
		return &InvalidError{Raw: isbn, Reason: ReasonChecksum}
	}
	if checkDigit13(isbn[:12]) != isbn[12] {
		return &InvalidError{Raw: isbn, Reason: ReasonChecksum}
	}
	return nil
}

// checkDigit13 computes the ISBN-13 check digit for the first 12 digits.
func checkDigit13(prefix string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		sum += int(prefix[i]-'0') * weight
	}
	return byte((10-sum%10)%10) + '0'
}

// convert10to13 assumes a validated ISBN-10. 979-prefixed books have no
// ISBN-10 form, so the 978 prefix covers all convertible inputs.
func convert10to13(isbn10 string) string {
	prefix := "978" + isbn10[:9]
	return prefix + string(checkDigit13(prefix))
}
