package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResidentNumberHyphenated(t *testing.T) {
	withHyphen, err := ParseResidentNumber("880616-1074616")
	require.NoError(t, err)

	plain, err := ParseResidentNumber("8806161074616")
	require.NoError(t, err)

	assert.Equal(t, plain, withHyphen)
	assert.Equal(t, ResidentNumber("8806161074616"), plain)
	assert.Equal(t, "880616", plain.Front())
	assert.Equal(t, "1074616", plain.Back())
}

func TestParseResidentNumberWhitespace(t *testing.T) {
	n, err := ParseResidentNumber(" 880616 - 1074616\n")
	require.NoError(t, err)
	assert.Equal(t, ResidentNumber("8806161074616"), n)
}

func TestParseResidentNumberWrongLength(t *testing.T) {
	n, err := ParseResidentNumber("880616-107461")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResidentNumberLength))
	assert.Len(t, string(n), 12, "normalized value is returned for override")
}

func TestParseResidentNumberNonDigit(t *testing.T) {
	_, err := ParseResidentNumber("88061a-1074616")
	assert.ErrorIs(t, err, ErrResidentNumberFormat)
}

func TestResidentNumberMasked(t *testing.T) {
	n := NormalizeResidentNumber("880616-1074616")
	assert.Equal(t, "880616*******", n.Masked())
	assert.Equal(t, n.Masked(), n.String())
}

func TestResidentNumberShortParts(t *testing.T) {
	n := NormalizeResidentNumber("8806")
	assert.Equal(t, "8806", n.Front())
	assert.Equal(t, "", n.Back())
}
