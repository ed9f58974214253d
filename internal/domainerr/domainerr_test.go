package domainerr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindCategories(t *testing.T) {
	assert.Equal(t, CategoryValidation, ReasonRequired.Category())
	assert.Equal(t, CategoryValidation, InvalidToStatus.Category())
	assert.Equal(t, CategoryConflict, Locked.Category())
	assert.Equal(t, CategoryConflict, AlreadyCancelled.Category())
	assert.Equal(t, CategoryNotFound, ContractNotFound.Category())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(New(ReasonRequired, "contract", "reason is required")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(WithState(Locked, "contract", "SIGNED", "locked")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(New(NotFound, "handover", "not found")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("connection refused")))
}

func TestKindOfWrapped(t *testing.T) {
	err := errors.Wrap(Transition("contract", "DRAFT", "IN_PROGRESS"), "transition")
	require.True(t, Is(err, InvalidTransition))

	de, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "DRAFT", de.Current)
	assert.Equal(t, "IN_PROGRESS", de.Requested)
	assert.Contains(t, de.Error(), "current=DRAFT")

	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.False(t, Is(nil, NotFound))
}
