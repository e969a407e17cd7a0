package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/types"
)

func TestHandleEnhance_Success(t *testing.T) {
	for _, path := range []string{"/api/enhance", "/enhance"} {
		t.Run(path, func(t *testing.T) {
			caller := succeed("Enhanced text: **Led** a team of five engineers.")
			s, _ := newTestServer(t, caller)

			w := do(t, s, http.MethodPost, path, map[string]string{
				"text":        "led team",
				"sectionType": "experience",
				"jobTitle":    "Engineering Manager",
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			resp := decode[EnhanceResponse](t, w)
			assert.Equal(t, "Led a team of five engineers.", resp.EnhancedText)
			assert.Equal(t, types.EndpointPrimary, resp.APIInfo.UsedKey)
			assert.Equal(t, types.SectionExperience, resp.APIInfo.SectionType)
			assert.Equal(t, 1, caller.count(testPrimaryKey))
		})
	}
}

func TestHandleEnhance_Fallback(t *testing.T) {
	caller := newFakeCaller(func(call llm.Call) llm.Outcome {
		if call.APIKey == testPrimaryKey {
			return llm.TransportError{HTTPStatus: 429, Code: "RESOURCE_EXHAUSTED", Message: "quota"}
		}
		return llm.Success{Text: "Delivered measurable results."}
	})
	s, _ := newTestServer(t, caller)

	w := do(t, s, http.MethodPost, "/api/enhance", map[string]string{"text": "did work", "sectionType": "summary"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[EnhanceResponse](t, w)
	assert.Equal(t, "Delivered measurable results.", resp.EnhancedText)
	assert.Equal(t, types.EndpointFallback, resp.APIInfo.UsedKey)
	assert.Equal(t, 1, caller.count(testPrimaryKey))
	assert.Equal(t, 1, caller.count(testFallbackKey))
}

func TestHandleEnhance_BothTiersFail(t *testing.T) {
	caller := newFakeCaller(func(call llm.Call) llm.Outcome {
		if call.APIKey == testPrimaryKey {
			return llm.TransportError{HTTPStatus: 503, Code: "UNAVAILABLE", Message: "primary down"}
		}
		return llm.EmptyResponse{Reason: llm.ReasonSafetyBlock}
	})
	s, _ := newTestServer(t, caller)

	w := do(t, s, http.MethodPost, "/api/enhance", map[string]string{"text": "did work", "sectionType": "summary"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decode[EnhanceErrorResponse](t, w)
	assert.Equal(t, "Gemini API Error", resp.Error)
	assert.Contains(t, resp.Message, "primary down")
	assert.Contains(t, resp.Message, "safety")
	assert.Equal(t, "both_tiers_failed", resp.Details.Type)
	assert.Equal(t, string(llm.ReasonSafetyBlock), resp.Details.Code)
	assert.NotContains(t, w.Body.String(), testPrimaryKey)
	assert.NotContains(t, w.Body.String(), testFallbackKey)
}

func TestHandleEnhance_NoFallbackKey(t *testing.T) {
	caller := newFakeCaller(func(llm.Call) llm.Outcome {
		return llm.TransportError{HTTPStatus: 500, Code: "INTERNAL", Message: "boom"}
	})
	s, _ := newTestServer(t, caller, func(c *config.ServerConfig) { c.GeminiSecondaryKey = "" })

	w := do(t, s, http.MethodPost, "/api/enhance", map[string]string{"text": "did work", "sectionType": "summary"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, caller.total())

	resp := decode[EnhanceErrorResponse](t, w)
	assert.Equal(t, "INTERNAL", resp.Details.Code)
}

func TestHandleEnhance_MissingPrimaryKey(t *testing.T) {
	caller := succeed("never")
	s, _ := newTestServer(t, caller, func(c *config.ServerConfig) {
		c.GeminiAPIKey = ""
		c.GeminiPrimaryKey = ""
	})

	w := do(t, s, http.MethodPost, "/api/enhance", map[string]string{"text": "did work", "sectionType": "summary"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, caller.total())

	resp := decode[EnhanceErrorResponse](t, w)
	assert.Equal(t, "Configuration Error", resp.Error)
	assert.Equal(t, "MISSING_API_KEY", resp.Details.Code)
}

func TestHandleEnhance_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"invalid json", "{not json"},
		{"empty text and job title", map[string]string{"text": "  ", "sectionType": "summary"}},
		{"unknown section", map[string]string{"text": "x", "sectionType": "hobbies"}},
		{"missing section", map[string]string{"text": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := succeed("never")
			s, _ := newTestServer(t, caller)

			w := do(t, s, http.MethodPost, "/api/enhance", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Zero(t, caller.total())

			resp := decode[EnhanceErrorResponse](t, w)
			assert.Equal(t, "INVALID_REQUEST", resp.Details.Code)
		})
	}
}

func TestHandleEnhance_JobTitleOnly(t *testing.T) {
	var prompt string
	caller := newFakeCaller(func(call llm.Call) llm.Outcome {
		prompt = call.Prompt
		return llm.Success{Text: "Seasoned data engineer."}
	})
	s, _ := newTestServer(t, caller)

	w := do(t, s, http.MethodPost, "/api/enhance", map[string]string{"sectionType": "summary", "jobTitle": "Data Engineer"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, prompt, "Generate content for the professional summary section")
	assert.Contains(t, prompt, "Data Engineer")
}

func sampleResume() map[string]any {
	return map[string]any{
		"title":   "Backend Engineer",
		"summary": "builds services",
		"experience": []map[string]string{
			{"title": "Engineer", "company": "Acme", "accomplishment": "wrote code"},
		},
		"achievements": []map[string]string{},
		"education":    []map[string]string{},
		"projects":     []map[string]string{},
		"skills": []map[string]any{
			{"category": "Languages", "items": []string{"Go", ""}},
		},
	}
}

func TestHandleEnhanceResume_Summary(t *testing.T) {
	s, _ := newTestServer(t, succeed("Builds reliable services."))

	w := do(t, s, http.MethodPost, "/api/enhance/resume", map[string]any{
		"resume":  sampleResume(),
		"section": "summary",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[EnhanceResumeResponse](t, w)
	assert.Equal(t, "Builds reliable services.", resp.Resume.Summary)
	assert.Equal(t, "wrote code", resp.Resume.Experience[0].Accomplishment)
	assert.Equal(t, []types.SectionType{types.SectionSummary}, resp.EnhancedSections)
}

func TestHandleEnhanceResume_FullAbortsOnFirstFailure(t *testing.T) {
	caller := newFakeCaller(func(llm.Call) llm.Outcome {
		return llm.TransportError{HTTPStatus: 503, Code: "UNAVAILABLE", Message: "down"}
	})
	s, _ := newTestServer(t, caller)

	w := do(t, s, http.MethodPost, "/api/enhance/resume", map[string]any{
		"resume":  sampleResume(),
		"section": "full",
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decode[EnhanceResumeErrorResponse](t, w)
	assert.Equal(t, types.SectionSummary, resp.Section)
	assert.Contains(t, resp.Error, "Professional Summary")
	assert.Equal(t, "builds services", resp.Resume.Summary)
	assert.Empty(t, resp.EnhancedSections)
	// Summary failed on both tiers; no later section was attempted
	assert.Equal(t, 2, caller.total())
}

func TestHandleEnhanceResume_InvalidDocuments(t *testing.T) {
	badTitle := sampleResume()
	badTitle["title"] = 42

	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{"wrong field type", map[string]any{"resume": badTitle, "section": "summary"}, "INVALID_RESUME"},
		{"not an object", map[string]any{"resume": []int{1, 2}, "section": "summary"}, "INVALID_RESUME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := succeed("never")
			s, _ := newTestServer(t, caller)

			w := do(t, s, http.MethodPost, "/api/enhance/resume", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := decode[InvalidResumeResponse](t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Fields)
			assert.Zero(t, caller.total())
		})
	}

	s, _ := newTestServer(t, succeed("never"))
	w := do(t, s, http.MethodPost, "/api/enhance/resume", map[string]any{"section": "summary"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodPost, "/api/enhance/resume", map[string]any{"resume": sampleResume(), "section": "hobbies"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEnhanceResume_MalformedSkillsFailOnlySkills(t *testing.T) {
	tests := []struct {
		name   string
		skills any
	}{
		{"category without items", []map[string]any{{"category": "Languages"}}},
		{"flat list", []string{"Go", "SQL"}},
		{"object", map[string]any{"Languages": []string{"Go"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/full", func(t *testing.T) {
			doc := sampleResume()
			doc["skills"] = tt.skills
			caller := newFakeCaller(func(call llm.Call) llm.Outcome {
				return llm.Success{Text: "Polished text."}
			})
			s, _ := newTestServer(t, caller)

			w := do(t, s, http.MethodPost, "/api/enhance/resume", map[string]any{"resume": doc, "section": "full"})
			require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())

			resp := decode[EnhanceResumeErrorResponse](t, w)
			assert.Equal(t, types.SectionSkills, resp.Section)
			assert.Contains(t, resp.Error, "Skills")
			assert.Equal(t, []types.SectionType{types.SectionSummary, types.SectionExperience, types.SectionAchievements}, resp.EnhancedSections)
			require.NotNil(t, resp.Resume)
			assert.Equal(t, "Polished text.", resp.Resume.Summary)
			assert.Equal(t, "Polished text.", resp.Resume.Experience[0].Accomplishment)
		})
		t.Run(tt.name+"/summary", func(t *testing.T) {
			doc := sampleResume()
			doc["skills"] = tt.skills
			s, _ := newTestServer(t, succeed("Builds reliable services."))

			w := do(t, s, http.MethodPost, "/api/enhance/resume", map[string]any{"resume": doc, "section": "summary"})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			resp := decode[EnhanceResumeResponse](t, w)
			assert.Equal(t, "Builds reliable services.", resp.Resume.Summary)
			assert.Equal(t, []types.SectionType{types.SectionSummary}, resp.EnhancedSections)
		})
	}
}

func TestHandleEnhanceResume_EventStream(t *testing.T) {
	s, _ := newTestServer(t, succeed("Builds reliable services."))

	w := do(t, s, http.MethodPost, "/api/enhance/resume", map[string]any{
		"resume":  sampleResume(),
		"section": "summary",
	}, "Accept", "text/event-stream")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "event: status\n")
	assert.Contains(t, body, "event: progress\n")
	assert.Contains(t, body, "event: complete\n")
	assert.NotContains(t, body, "event: error\n")
	assert.Less(t, strings.Index(body, "event: status"), strings.Index(body, "event: complete"))
	assert.Contains(t, body, `"phase":"success"`)
	assert.Contains(t, body, "Builds reliable services.")
}

func TestHandleEnhanceResume_EventStreamError(t *testing.T) {
	caller := newFakeCaller(func(llm.Call) llm.Outcome {
		return llm.EmptyResponse{Reason: llm.ReasonQuotaExhausted}
	})
	s, _ := newTestServer(t, caller)

	w := do(t, s, http.MethodPost, "/api/enhance/resume", map[string]any{
		"resume":  sampleResume(),
		"section": "summary",
	}, "Accept", "text/event-stream")

	body := w.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, `"isSwitchingToFallback":true`)
	assert.NotContains(t, body, "event: complete\n")
}
