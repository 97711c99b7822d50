package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", ErrUnauthorized), http.StatusUnauthorized},
		{NewError(ErrForbidden, "Access denied"), http.StatusForbidden},
		{NewValidationError(nil), http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{ErrTooManyRequest, http.StatusTooManyRequests},
		{&pgconn.PgError{Code: "23505"}, http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatusFromError(tc.err), "err=%v", tc.err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("x")))
}

type registerInput struct {
	Name     string  `json:"name" validate:"required,min=2,max=50"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Website  *string `json:"website" validate:"omitempty,url"`
	Level    string  `json:"level" validate:"omitempty,oneof=Beginner Expert"`
	Start    string  `json:"startDate" validate:"omitempty,isodate"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(registerInput{Name: "Ada", Email: "ada@x.com", Password: "secret1"}))

	bad := "not a url"
	err := Validate(registerInput{Name: "A", Email: "nope", Password: "123", Website: &bad, Level: "Guru", Start: "yesterday"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	fields := map[string]string{}
	for _, d := range appErr.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "name must be at least 2 characters", fields["name"])
	assert.Equal(t, "Please enter a valid email", fields["email"])
	assert.Equal(t, "password must be at least 6 characters", fields["password"])
	assert.Equal(t, "Please enter a valid URL", fields["website"])
	assert.Equal(t, "level must be one of: Beginner, Expert", fields["level"])
	assert.Equal(t, "startDate must be a valid ISO 8601 date", fields["startDate"])
}

func TestParseISODate(t *testing.T) {
	d, err := ParseISODate("2021-03-04")
	require.NoError(t, err)
	assert.Equal(t, 2021, d.Year())

	_, err = ParseISODate("2021-03-04T10:00:00Z")
	require.NoError(t, err)

	_, err = ParseISODate("03/04/2021")
	assert.Error(t, err)

	p, err := ParseOptionalISODate("")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRespondWithSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithSuccess(rec, http.StatusCreated, "done", Envelope{"token": "abc", "success": false})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "done", body["message"])
	assert.Equal(t, "abc", body["token"])
}

func TestResponder_Error(t *testing.T) {
	rp := Responder{Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	rec := httptest.NewRecorder()
	rp.Error(rec, req, NewError(ErrNotFound, "User not found"), "Server error")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"User not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	rp.Error(rec, req, errors.New("connection refused"), "Server error")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Server error"}`, rec.Body.String())

	rp.ExposeErrors = true
	rec = httptest.NewRecorder()
	rp.Error(rec, req, errors.New("connection refused"), "Server error")
	assert.JSONEq(t, `{"success":false,"message":"Server error","error":"connection refused"}`, rec.Body.String())
}
