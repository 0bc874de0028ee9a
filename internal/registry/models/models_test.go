package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
)

const creator = id.Address("0x1111111111111111111111111111111111111111")

func TestNewCredentialTypeTrimsAndValidates(t *testing.T) {
	now := time.Now()

	ct, err := NewCredentialType("  Degree  ", "  BSc in CS  ", creator, 0, 0, 0, now)
	require.NoError(t, err)
	assert.Equal(t, "Degree", ct.Name)
	assert.Equal(t, "BSc in CS", ct.Description)
	assert.Equal(t, creator, ct.Creator)
	assert.Equal(t, now, ct.RegisteredAt)
}

func TestNewCredentialTypeRejectsBlankName(t *testing.T) {
	_, err := NewCredentialType("   ", "", creator, 0, 0, 0, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestNewCredentialTypeRejectsNegativeBounds(t *testing.T) {
	_, err := NewCredentialType("Degree", "", creator, -1, 0, 0, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewCredentialType("Degree", "", creator, 0, -1, 0, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestNewCredentialTypeRejectsInvertedWindow(t *testing.T) {
	_, err := NewCredentialType("Degree", "", creator, 100, 100, 0, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewCredentialType("Degree", "", creator, 100, 50, 0, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	// EndTime 0 means unbounded, any start is fine.
	_, err = NewCredentialType("Degree", "", creator, 100, 0, 0, time.Now())
	assert.NoError(t, err)
}

func TestWindowBoundaries(t *testing.T) {
	ct := &CredentialType{StartTime: 100, EndTime: 200}

	// The window is [StartTime, EndTime).
	assert.False(t, ct.WindowStarted(99))
	assert.True(t, ct.WindowStarted(100))
	assert.False(t, ct.WindowEnded(199))
	assert.True(t, ct.WindowEnded(200))
}

func TestWindowUnbounded(t *testing.T) {
	ct := &CredentialType{StartTime: 0, EndTime: 0}

	assert.True(t, ct.WindowStarted(0))
	assert.False(t, ct.WindowEnded(1<<62), "zero end time never closes")
}
