package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	assert.EqualValues(t, 123456789012345678, Parse("123456789012345678"))
	assert.EqualValues(t, 0, Parse(""))
	assert.EqualValues(t, 0, Parse("abc"))
	assert.EqualValues(t, 0, Parse("12.5"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "42", Format(42))
	assert.Equal(t, "123456789012345678", Format(123456789012345678))
}
