package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jonathan/resume-builder/internal/enhance"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
)

// persistTimeout bounds the save after a stored-resume enhancement.
const persistTimeout = 10 * time.Second

// APIInfo reports which key tier produced a result.
type APIInfo struct {
	UsedKey     types.Endpoint    `json:"usedKey"`
	SectionType types.SectionType `json:"sectionType"`
}

// EnhanceResponse is the success body of POST /api/enhance
type EnhanceResponse struct {
	EnhancedText string  `json:"enhancedText"`
	APIInfo      APIInfo `json:"apiInfo"`
}

// EnhanceErrorResponse is the failure body of POST /api/enhance
type EnhanceErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Details enhance.ErrorDetail `json:"details"`
}

// EnhanceResumeRequest is the body of POST /api/enhance/resume
type EnhanceResumeRequest struct {
	Resume   json.RawMessage `json:"resume"`
	Section  string          `json:"section"`
	JobTitle string          `json:"jobTitle,omitempty"`
	Industry string          `json:"industry,omitempty"`
}

// EnhanceResumeResponse is the success body of a resume enhancement
type EnhanceResumeResponse struct {
	Resume           *types.Resume       `json:"resume"`
	EnhancedSections []types.SectionType `json:"enhancedSections"`
}

// EnhanceResumeErrorResponse reports the failing section together with the
// resume as it stands, including fields written before the failure.
type EnhanceResumeErrorResponse struct {
	Error            string              `json:"error"`
	Message          string              `json:"message"`
	Section          types.SectionType   `json:"section,omitempty"`
	Details          enhance.ErrorDetail `json:"details"`
	Resume           *types.Resume       `json:"resume"`
	EnhancedSections []types.SectionType `json:"enhancedSections"`
}

// InvalidResumeResponse is returned when a resume document fails schema validation
type InvalidResumeResponse struct {
	Error   string               `json:"error"`
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []schemas.FieldError `json:"fields,omitempty"`
}

// handleEnhance enhances one unit of text
func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	if s.keys.Primary == "" {
		s.enhanceError(w, &enhance.ConfigError{Message: "primary API key is not configured"})
		return
	}

	var req types.EnhancementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.enhanceError(w, &enhance.InputError{Message: "Invalid request body: " + err.Error()})
		return
	}
	section, err := types.ParseSectionType(string(req.SectionType))
	if err != nil {
		s.enhanceError(w, &enhance.InputError{Message: err.Error()})
		return
	}
	req.SectionType = section

	result, err := s.enhancer.EnhanceText(r.Context(), req, nil)
	if err != nil {
		s.enhanceError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, EnhanceResponse{
		EnhancedText: result.Text,
		APIInfo:      APIInfo{UsedKey: result.UsedKey, SectionType: section},
	})
}

// enhanceError maps an enhancement failure onto the error body.
func (s *Server) enhanceError(w http.ResponseWriter, err error) {
	var (
		inputErr  *enhance.InputError
		configErr *enhance.ConfigError
	)
	title := "Gemini API Error"
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &inputErr):
		title = "Invalid request"
		status = http.StatusBadRequest
	case errors.As(err, &configErr):
		title = "Configuration Error"
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[enhance] request failed: %v", err)
	}
	s.jsonResponse(w, status, EnhanceErrorResponse{
		Error:   title,
		Message: err.Error(),
		Details: enhance.DetailFor(err),
	})
}

// handleEnhanceResume enhances one section, or the full sequence, of a posted resume
func (s *Server) handleEnhanceResume(w http.ResponseWriter, r *http.Request) {
	var req EnhanceResumeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	section, err := types.ParseSectionType(req.Section)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	resume, err := parseEnhanceDocument(req.Resume)
	if err != nil {
		s.resumeDocumentError(w, err)
		return
	}

	s.dispatch(w, r, section, resume, pipeline.Options{JobTitle: req.JobTitle, Industry: req.Industry}, nil)
}

// dispatch runs the dispatcher and answers with JSON or, when asked, an event stream.
// persist, when set, receives the resume after the run whatever its outcome.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, section types.SectionType, resume *types.Resume, opts pipeline.Options, persist func(context.Context, *types.Resume) error) {
	if s.keys.Primary == "" {
		s.enhanceError(w, &enhance.ConfigError{Message: "primary API key is not configured"})
		return
	}

	var stream *SSEWriter
	if wantsEventStream(r) {
		var err error
		if stream, err = NewSSEWriter(w); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		opts.Observer = enhance.StatusFunc(func(status types.APIStatus) {
			stream.WriteEvent("status", status) //nolint:errcheck
		})
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			stream.WriteEvent("progress", event) //nolint:errcheck
		}
	}

	result, err := s.dispatcher.Enhance(r.Context(), section, resume, opts)

	if persist != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), persistTimeout)
		if perr := persist(ctx, resume); perr != nil {
			log.Printf("[dispatch] failed to save resume: %v", perr)
			if err == nil {
				err = perr
			}
		}
		cancel()
	}

	if err != nil {
		if r.Context().Err() != nil {
			log.Printf("[dispatch] client went away: %v", err)
			return
		}
		body := EnhanceResumeErrorResponse{
			Error:            "Enhancement failed",
			Message:          err.Error(),
			Details:          enhance.DetailFor(err),
			Resume:           resume,
			EnhancedSections: result.EnhancedSections,
		}
		var sectionErr *pipeline.SectionError
		if errors.As(err, &sectionErr) {
			body.Section = sectionErr.Section
			body.Error = fmt.Sprintf("Failed to enhance %s", sectionErr.Label)
		}
		if stream != nil {
			stream.WriteError(body)
			return
		}
		s.jsonResponse(w, http.StatusInternalServerError, body)
		return
	}

	body := EnhanceResumeResponse{Resume: resume, EnhancedSections: result.EnhancedSections}
	if stream != nil {
		stream.WriteComplete(body)
		return
	}
	s.jsonResponse(w, http.StatusOK, body)
}

// parseResumeDocument validates raw against the resume schema and decodes it.
func parseResumeDocument(raw json.RawMessage) (*types.Resume, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, &ErrValidation{Field: "resume", Message: "required"}
	}
	if err := schemas.ValidateResume(raw); err != nil {
		return nil, err
	}
	var resume types.Resume
	if err := json.Unmarshal(raw, &resume); err != nil {
		return nil, &ErrValidation{Field: "resume", Message: err.Error()}
	}
	return &resume, nil
}

// parseEnhanceDocument decodes a resume posted for enhancement. Unlike parseResumeDocument it
// accepts a malformed skills structure, which then fails the skills section alone.
func parseEnhanceDocument(raw json.RawMessage) (*types.Resume, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, &ErrValidation{Field: "resume", Message: "required"}
	}
	resume, err := pipeline.DecodeResume(raw)
	if err != nil {
		var schemaErr *schemas.ValidationError
		if errors.As(err, &schemaErr) {
			return nil, err
		}
		return nil, &ErrValidation{Field: "resume", Message: err.Error()}
	}
	return resume, nil
}

// resumeDocumentError reports a resume that failed validation.
func (s *Server) resumeDocumentError(w http.ResponseWriter, err error) {
	var schemaErr *schemas.ValidationError
	if !errors.As(err, &schemaErr) {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	code := "INVALID_RESUME"
	message := "resume does not match the document schema"
	if schemaErr.InSkills() {
		code = "SKILLS_STRUCTURE"
		message = "skills must be a list of {category, items} groups"
	}
	s.jsonResponse(w, http.StatusBadRequest, InvalidResumeResponse{
		Error:   "Invalid resume",
		Code:    code,
		Message: message,
		Fields:  schemaErr.Errors,
	})
}

// decodeJSON decodes a bounded request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
