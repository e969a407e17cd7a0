package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/skills"
	"github.com/jonathan/resume-builder/internal/types"
)

// DecodeResume validates raw against the resume schema and decodes it for enhancement.
// Schema errors confined to the skills field do not reject the document: the skills are
// left in a shape the skills section refuses, so only that section fails.
func DecodeResume(raw []byte) (*types.Resume, error) {
	err := schemas.ValidateResume(raw)
	var schemaErr *schemas.ValidationError
	if err != nil && (!errors.As(err, &schemaErr) || !schemaErr.InSkills()) {
		return nil, err
	}

	if err == nil {
		var resume types.Resume
		if err := json.Unmarshal(raw, &resume); err != nil {
			return nil, fmt.Errorf("failed to decode resume: %w", err)
		}
		return &resume, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode resume: %w", err)
	}
	rawSkills := fields["skills"]
	delete(fields, "skills")

	rest, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode resume: %w", err)
	}
	var resume types.Resume
	if err := json.Unmarshal(rest, &resume); err != nil {
		return nil, fmt.Errorf("failed to decode resume: %w", err)
	}

	// Keep a decodable skills value only when the structure check will still reject it
	var decoded []types.SkillCategory
	if json.Unmarshal(rawSkills, &decoded) == nil && skills.ValidateStructure(decoded) != nil {
		resume.Skills = decoded
	}
	log.Printf("[dispatch] resume has %d skills structure error(s); the skills section will fail", len(schemaErr.Errors))
	return &resume, nil
}
