package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone_Valid(t *testing.T) {
	cases := map[string]string{
		"3001234567":       "573001234567",
		"300 123 4567":     "573001234567",
		"(300) 123-4567":   "573001234567",
		"+3 0 0-1234567\t": "573001234567",
	}
	for in, want := range cases {
		got, err := NormalizePhone(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizePhone_Invalid(t *testing.T) {
	for _, in := range []string{
		"2001234567",    // wrong leading digit
		"300123456",     // 9 digits
		"30012345678",   // 11 digits
		"573001234567",  // already prefixed
		"abc",           // no digits
		"３００１２３４５６７", // full-width digits are not ASCII digits
	} {
		_, err := NormalizePhone(in)
		assert.ErrorIs(t, err, ErrInvalidPhoneNumber, in)
	}
}

func TestNormalizePhone_Missing(t *testing.T) {
	for _, in := range []string{"", "   "} {
		_, err := NormalizePhone(in)
		assert.ErrorIs(t, err, ErrNoPhoneNumberProvided)
	}
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "3001234567", DigitsOnly("+300-123.4567"))
	assert.Equal(t, "", DigitsOnly("---"))
}
