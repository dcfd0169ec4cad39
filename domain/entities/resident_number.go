package entities

import (
	"fmt"
	"strings"
	"unicode"
)

// ResidentNumberLength is the digit count of a resident registration number
const ResidentNumberLength = 13

// ResidentNumber is a resident registration number with separators removed
type ResidentNumber string

// NormalizeResidentNumber strips hyphens and whitespace from input
func NormalizeResidentNumber(input string) ResidentNumber {
	var b strings.Builder
	for _, r := range input {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return ResidentNumber(b.String())
}

// ParseResidentNumber normalizes input and validates it
func ParseResidentNumber(input string) (ResidentNumber, error) {
	n := NormalizeResidentNumber(input)
	if err := n.Validate(); err != nil {
		return n, err
	}
	return n, nil
}

// Validate checks that the number is exactly 13 digits
func (n ResidentNumber) Validate() error {
	for _, r := range string(n) {
		if r < '0' || r > '9' {
			return ErrResidentNumberFormat
		}
	}
	if len(n) != ResidentNumberLength {
		return fmt.Errorf("%w (got %d)", ErrResidentNumberLength, len(n))
	}
	return nil
}

// Front returns the birth-date part (first 6 digits)
func (n ResidentNumber) Front() string {
	if len(n) < 6 {
		return string(n)
	}
	return string(n[:6])
}

// Back returns everything after the first 6 digits
func (n ResidentNumber) Back() string {
	if len(n) < 6 {
		return ""
	}
	return string(n[6:])
}

// Masked returns the front part followed by asterisks
func (n ResidentNumber) Masked() string {
	return n.Front() + strings.Repeat("*", len(n.Back()))
}

func (n ResidentNumber) String() string {
	return n.Masked()
}
