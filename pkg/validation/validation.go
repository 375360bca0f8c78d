package validation

import (
	"errors"
	"regexp"
	"strings"
)

// CountryCode is prefixed to every accepted mobile number.
const CountryCode = "57"

var (
	nonDigitPattern = regexp.MustCompile(`\D`)
	// Colombian mobile numbers: 10 digits, always starting with 3.
	mobilePattern = regexp.MustCompile(`^3\d{9}$`)
)

var (
	ErrNoPhoneNumberProvided = errors.New("No se proporcionó número de teléfono")
	ErrInvalidPhoneNumber    = errors.New("Número de teléfono inválido. Debe ser un celular colombiano (10 dígitos, empieza en 3).")
)

// DigitsOnly strips every non-digit character.
func DigitsOnly(phone string) string {
	return nonDigitPattern.ReplaceAllString(phone, "")
}

// NormalizePhone validates a local mobile number and returns it in
// international form (country code + 10 digits).
func NormalizePhone(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrNoPhoneNumberProvided
	}
	digits := DigitsOnly(phone)
	if !mobilePattern.MatchString(digits) {
		return "", ErrInvalidPhoneNumber
	}
	return CountryCode + digits, nil
}
