package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/types"
)

// ResumeStore is the persistence surface for stored resumes. *db.DB implements it.
type ResumeStore interface {
	CreateResume(ctx context.Context, userID uuid.UUID, input *db.ResumeCreateInput) (*db.Resume, error)
	GetResume(ctx context.Context, userID, id uuid.UUID) (*db.Resume, error)
	ListResumesByUser(ctx context.Context, userID uuid.UUID) ([]db.Resume, error)
	UpdateResume(ctx context.Context, userID, id uuid.UUID, update *db.ResumeUpdate) (*db.Resume, error)
	DuplicateResume(ctx context.Context, userID, id uuid.UUID) (*db.Resume, error)
	DeleteResume(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

// ResumeWriteRequest is the body of POST and PATCH /api/resumes. Absent fields are left unchanged on PATCH.
type ResumeWriteRequest struct {
	Title        *string         `json:"title,omitempty"`
	Template     *string         `json:"template,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	ShowBranding *bool           `json:"show_branding,omitempty"`
}

// StoredEnhanceRequest is the body of POST /api/resumes/{id}/enhance
type StoredEnhanceRequest struct {
	Section  string `json:"section"`
	JobTitle string `json:"jobTitle,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// ResumeListResponse is the body of GET /api/resumes
type ResumeListResponse struct {
	Resumes []db.Resume `json:"resumes"`
	Count   int         `json:"count"`
}

// handleListResumes lists the caller's resumes
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	resumes, err := s.resumes.ListResumesByUser(r.Context(), userID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ResumeListResponse{Resumes: resumes, Count: len(resumes)})
}

// handleCreateResume stores a new resume
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req ResumeWriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	input := &db.ResumeCreateInput{ShowBranding: req.ShowBranding}
	if req.Title != nil {
		input.Title = *req.Title
	}
	if req.Template != nil {
		input.Template = *req.Template
	}
	if len(req.Data) > 0 {
		data, err := parseResumeDocument(req.Data)
		if err != nil {
			s.resumeDocumentError(w, err)
			return
		}
		input.Data = data
	}

	resume, err := s.resumes.CreateResume(r.Context(), userID, input)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, resume)
}

// handleGetResume returns one resume
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	userID, resumeID, ok := s.resumeRoute(w, r)
	if !ok {
		return
	}
	resume, err := s.resumes.GetResume(r.Context(), userID, resumeID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if resume == nil {
		s.errorResponse(w, http.StatusNotFound, (&ErrResumeNotFound{ResumeID: resumeID}).Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

// handleUpdateResume applies a partial update
func (s *Server) handleUpdateResume(w http.ResponseWriter, r *http.Request) {
	userID, resumeID, ok := s.resumeRoute(w, r)
	if !ok {
		return
	}
	var req ResumeWriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	update := &db.ResumeUpdate{Title: req.Title, Template: req.Template, ShowBranding: req.ShowBranding}
	if len(req.Data) > 0 {
		data, err := parseResumeDocument(req.Data)
		if err != nil {
			s.resumeDocumentError(w, err)
			return
		}
		update.Data = data
	}

	resume, err := s.resumes.UpdateResume(r.Context(), userID, resumeID, update)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if resume == nil {
		s.errorResponse(w, http.StatusNotFound, (&ErrResumeNotFound{ResumeID: resumeID}).Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

// handleDeleteResume deletes a resume
func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	userID, resumeID, ok := s.resumeRoute(w, r)
	if !ok {
		return
	}
	deleted, err := s.resumes.DeleteResume(r.Context(), userID, resumeID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if !deleted {
		s.errorResponse(w, http.StatusNotFound, (&ErrResumeNotFound{ResumeID: resumeID}).Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDuplicateResume copies a resume
func (s *Server) handleDuplicateResume(w http.ResponseWriter, r *http.Request) {
	userID, resumeID, ok := s.resumeRoute(w, r)
	if !ok {
		return
	}
	resume, err := s.resumes.DuplicateResume(r.Context(), userID, resumeID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if resume == nil {
		s.errorResponse(w, http.StatusNotFound, (&ErrResumeNotFound{ResumeID: resumeID}).Error())
		return
	}
	s.jsonResponse(w, http.StatusCreated, resume)
}

// handleEnhanceStoredResume loads a resume, enhances it and saves whatever was written
func (s *Server) handleEnhanceStoredResume(w http.ResponseWriter, r *http.Request) {
	userID, resumeID, ok := s.resumeRoute(w, r)
	if !ok {
		return
	}
	var req StoredEnhanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	section, err := types.ParseSectionType(req.Section)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := s.resumes.GetResume(r.Context(), userID, resumeID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if stored == nil {
		s.errorResponse(w, http.StatusNotFound, (&ErrResumeNotFound{ResumeID: resumeID}).Error())
		return
	}
	resume := stored.Data
	if resume == nil {
		resume = &types.Resume{}
	}

	jobTitle := req.JobTitle
	if jobTitle == "" {
		jobTitle = resume.Title
	}

	persist := func(ctx context.Context, enhanced *types.Resume) error {
		_, err := s.resumes.UpdateResume(ctx, userID, resumeID, &db.ResumeUpdate{Data: enhanced})
		return err
	}
	s.dispatch(w, r, section, resume, pipeline.Options{JobTitle: jobTitle, Industry: req.Industry}, persist)
}

// requireUser returns the authenticated user ID or writes 401.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// resumeRoute resolves the caller and the {id} path value.
func (s *Server) resumeRoute(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	resumeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid resume ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, resumeID, true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	log.Printf("[resumes] store error: %v", err)
	s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
}
