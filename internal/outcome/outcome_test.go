package outcome

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttempt(t *testing.T) {
	ok := Attempt(func() error { return nil }, nil)
	assert.True(t, ok.OK)
	assert.Equal(t, "OK", ok.Status())

	plain := Attempt(func() error { return errors.New("boom") }, nil)
	assert.False(t, plain.OK)
	assert.Equal(t, "FAIL", plain.Status())

	detailed := Attempt(func() error { return errors.New("boom") }, func(error) string {
		return "member_not_found"
	})
	assert.False(t, detailed.OK)
	assert.Equal(t, "FAIL:member_not_found", detailed.Status())
}

func TestSkipped(t *testing.T) {
	assert.True(t, Skipped.OK)
	assert.Equal(t, "SKIP", Skipped.Status())
}
