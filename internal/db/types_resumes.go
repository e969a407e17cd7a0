package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-builder/internal/types"
)

// Resume defaults applied on create.
const (
	DefaultResumeTitle    = "Untitled Resume"
	DefaultResumeTemplate = "classic"
)

// Resume represents a stored resume document
type Resume struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	Title        string        `json:"title"`
	Template     string        `json:"template"`
	Data         *types.Resume `json:"data"`
	ShowBranding bool          `json:"show_branding"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ResumeCreateInput holds the fields for a new resume
type ResumeCreateInput struct {
	Title        string        `json:"title"`
	Template     string        `json:"template"`
	Data         *types.Resume `json:"data"`
	ShowBranding *bool         `json:"show_branding"`
}

// ResumeUpdate holds a partial update; nil fields are left unchanged
type ResumeUpdate struct {
	Title        *string       `json:"title,omitempty"`
	Template     *string       `json:"template,omitempty"`
	Data         *types.Resume `json:"data,omitempty"`
	ShowBranding *bool         `json:"show_branding,omitempty"`
}

// Empty reports whether the update changes nothing
func (u *ResumeUpdate) Empty() bool {
	return u.Title == nil && u.Template == nil && u.Data == nil && u.ShowBranding == nil
}
