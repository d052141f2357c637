package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devfolio/internal/apperror"
	"github.com/sakif/devfolio/internal/auth"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperror.ValidationFailed("title", "title is required"), http.StatusBadRequest, "validation_error"},
		{"self reference", apperror.SelfReference("cannot follow yourself"), http.StatusUnprocessableEntity, "self_reference"},
		{"unauthorized", apperror.Unauthorized("login required"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperror.Forbidden("not your project"), http.StatusForbidden, "forbidden"},
		{"not found", apperror.NotFound("project", 42), http.StatusNotFound, "not_found"},
		{"conflict", apperror.Conflict("star", 1), http.StatusConflict, "conflict"},
		{"unavailable", apperror.Unavailable(errors.New("database is locked")), http.StatusServiceUnavailable, "unavailable"},
		{"wrapped", fmt.Errorf("service/social: starring: %w", apperror.NotFound("project", 7)), http.StatusNotFound, "not_found"},
		{"plain error", errors.New("sql: no rows in result set"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("open /var/lib/devfolio.db: permission denied"))

	assert.NotContains(t, rec.Body.String(), "/var/lib")
	assert.Contains(t, rec.Body.String(), "an internal error occurred")
}

func TestWriteError_UnavailableHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apperror.Unavailable(errors.New("SQLITE_BUSY on table stars")))

	assert.NotContains(t, rec.Body.String(), "SQLITE_BUSY")
}

func TestWriteError_CarriesField(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apperror.ValidationFailed("language", "language is required"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "language", body.Field)
}

func TestDecodeJSON(t *testing.T) {
	type input struct {
		Title string `json:"title"`
	}

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`))
		var in input
		require.NoError(t, decodeJSON(httptest.NewRecorder(), r, &in))
		assert.Equal(t, "x", in.Title)
	})

	t.Run("unknown field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x","owner":1}`))
		var in input
		err := decodeJSON(httptest.NewRecorder(), r, &in)
		assert.True(t, errors.Is(err, apperror.ErrValidation))
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"title":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		var in input
		err := decodeJSON(httptest.NewRecorder(), r, &in)
		assert.True(t, errors.Is(err, apperror.ErrValidation))
	})
}

func TestPathID(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

			got, err := pathID(r, "id")
			if !tt.ok {
				assert.True(t, errors.Is(err, apperror.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=5&offset=x", nil)

	limit, err := queryInt(r, "limit", 20)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)

	def, err := queryInt(r, "missing", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, def)

	_, err = queryInt(r, "offset", 0)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestActingUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := actingUser(r)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
	assert.Zero(t, viewer(r))

	r = r.WithContext(auth.WithUserID(r.Context(), 7))
	id, err := actingUser(r)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)
	assert.EqualValues(t, 7, viewer(r))
}
