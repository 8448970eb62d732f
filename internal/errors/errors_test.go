package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golook/internal/calibration"
	"golook/internal/dataset"
	"golook/internal/look"
	"golook/pkg/calc"
	"golook/pkg/units"
)

func TestAPIErrorInterface(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	assert.Equal(t, "Invalid request format", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
}

func TestFromDomainMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"index out of range", fmt.Errorf("zero: %w", calc.ErrIndexOutOfRange), http.StatusBadRequest, "INDEX_OUT_OF_RANGE"},
		{"invalid mode", fmt.Errorf("zero: %w", calc.ErrInvalidMode), http.StatusBadRequest, "INVALID_PARAMETER"},
		{"unit mismatch", fmt.Errorf("friction: %w", units.ErrUnitMismatch), http.StatusUnprocessableEntity, "UNIT_MISMATCH"},
		{"unknown unit", fmt.Errorf("parse: %w", units.ErrUnknownUnit), http.StatusBadRequest, "UNKNOWN_UNIT"},
		{"length mismatch", fmt.Errorf("add: %w", units.ErrLengthMismatch), http.StatusUnprocessableEntity, "LENGTH_MISMATCH"},
		{"channel not found", fmt.Errorf("plan: %w", dataset.ErrChannelNotFound), http.StatusBadRequest, "CHANNEL_NOT_FOUND"},
		{"ragged dataset", fmt.Errorf("export: %w", dataset.ErrRaggedDataset), http.StatusUnprocessableEntity, "RAGGED_DATASET"},
		{"invalid plan", fmt.Errorf("load: %w", calibration.ErrInvalidPlan), http.StatusBadRequest, "INVALID_PLAN"},
		{"bad magic", fmt.Errorf("read: %w", look.ErrBadMagic), http.StatusUnprocessableEntity, "BAD_RECORDING"},
		{"unknown error", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromDomain(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestFromDomainPassesThroughAPIError(t *testing.T) {
	orig := ErrReductionNotFound
	mapped := FromDomain(fmt.Errorf("lookup: %w", orig))
	assert.Same(t, orig, mapped)
}

func TestRenderErrorWritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/reductions/xyz", nil)

	RenderError(w, r, ErrReductionNotFound)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"REDUCTION_NOT_FOUND"`)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
