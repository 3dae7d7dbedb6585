package errdef_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/classroom-sre/hub-manager/internal/errdef"

	"github.com/stretchr/testify/assert"
)

func TestIsConflict(t *testing.T) {
	assert.False(t, errdef.IsConflict(errors.New("some error")))
	assert.True(t, errdef.IsConflict(errdef.NewConflict("some error")))
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, errdef.IsNotFound(errors.New("some error")))
	assert.True(t, errdef.IsNotFound(errdef.NewNotFound("some error")))
}

func TestIsBadRequest(t *testing.T) {
	assert.False(t, errdef.IsBadRequest(errors.New("some error")))
	assert.True(t, errdef.IsBadRequest(errdef.NewBadRequest("some error")))
}

func TestIsMalformed(t *testing.T) {
	assert.False(t, errdef.IsMalformed(errors.New("some error")))
	assert.True(t, errdef.IsMalformed(errdef.NewMalformed("some error")))
}

func TestIsDomain(t *testing.T) {
	assert.False(t, errdef.IsDomain(errors.New("some error")))
	assert.True(t, errdef.IsDomain(errdef.NewConflict("some error")))
	assert.True(t, errdef.IsDomain(errdef.NewNotFound("some error")))
	assert.True(t, errdef.IsDomain(errdef.NewBadRequest("some error")))
	assert.True(t, errdef.IsDomain(errdef.NewMalformed("some error")))
}

func TestClassSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("adding course: %w", errdef.NewConflict("course %q already exists", "calc101"))
	assert.True(t, errdef.IsConflict(err))
	assert.False(t, errdef.IsNotFound(err))
}
