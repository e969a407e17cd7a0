package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-builder/internal/enhance"
	"github.com/jonathan/resume-builder/internal/schemas"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"email exists", &ErrEmailAlreadyExists{Email: "a@b.c"}, http.StatusConflict},
		{"invalid credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"user not found", &ErrUserNotFound{UserID: uuid.New()}, http.StatusNotFound},
		{"resume not found", &ErrResumeNotFound{ResumeID: uuid.New()}, http.StatusNotFound},
		{"validation", &ErrValidation{Field: "name", Message: "required"}, http.StatusBadRequest},
		{"schema", &schemas.ValidationError{}, http.StatusBadRequest},
		{"enhance input", &enhance.InputError{Message: "empty"}, http.StatusBadRequest},
		{"wrapped input", fmt.Errorf("outer: %w", &enhance.InputError{Message: "empty"}), http.StatusBadRequest},
		{"config", &enhance.ConfigError{Message: "no key"}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	assert.Equal(t, "email already registered: a@b.c", (&ErrEmailAlreadyExists{Email: "a@b.c"}).Error())
	assert.Equal(t, "invalid email or password", (&ErrInvalidCredentials{}).Error())
	assert.Equal(t, "resume not found: "+id.String(), (&ErrResumeNotFound{ResumeID: id}).Error())
	assert.Equal(t, "validation error: name - required", (&ErrValidation{Field: "name", Message: "required"}).Error())
}
