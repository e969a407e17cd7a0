package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-builder/internal/types"
)

// -----------------------------------------------------------------------------
// Resume Methods
// -----------------------------------------------------------------------------

const resumeColumns = `id, user_id, title, template, data, show_branding, created_at, updated_at`

func scanResume(row pgx.Row) (*Resume, error) {
	var r Resume
	var data []byte
	if err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Template, &data, &r.ShowBranding, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Data = &types.Resume{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, r.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal resume data: %w", err)
		}
	}
	return &r, nil
}

func marshalResumeData(data *types.Resume) ([]byte, error) {
	if data == nil {
		data = &types.Resume{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume data: %w", err)
	}
	return b, nil
}

// CreateResume inserts a resume for a user
func (db *DB) CreateResume(ctx context.Context, userID uuid.UUID, input *ResumeCreateInput) (*Resume, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = DefaultResumeTitle
	}
	template := strings.TrimSpace(input.Template)
	if template == "" {
		template = DefaultResumeTemplate
	}
	showBranding := true
	if input.ShowBranding != nil {
		showBranding = *input.ShowBranding
	}
	data, err := marshalResumeData(input.Data)
	if err != nil {
		return nil, err
	}

	r, err := scanResume(db.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, title, template, data, show_branding)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+resumeColumns,
		userID, title, template, data, showBranding,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}
	return r, nil
}

// GetResume retrieves a resume owned by userID. Returns nil if not found.
func (db *DB) GetResume(ctx context.Context, userID, id uuid.UUID) (*Resume, error) {
	r, err := scanResume(db.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return r, nil
}

// ListResumesByUser returns a user's resumes, most recently updated first
func (db *DB) ListResumesByUser(ctx context.Context, userID uuid.UUID) ([]Resume, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	resumes := []Resume{}
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resumes: %w", err)
	}
	return resumes, nil
}

// UpdateResume applies a partial update. Returns nil if the resume does not exist.
func (db *DB) UpdateResume(ctx context.Context, userID, id uuid.UUID, update *ResumeUpdate) (*Resume, error) {
	if update == nil || update.Empty() {
		return db.GetResume(ctx, userID, id)
	}

	setClauses := []string{}
	args := []any{}
	argNum := 1

	if update.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argNum))
		args = append(args, *update.Title)
		argNum++
	}
	if update.Template != nil {
		setClauses = append(setClauses, fmt.Sprintf("template = $%d", argNum))
		args = append(args, *update.Template)
		argNum++
	}
	if update.Data != nil {
		data, err := marshalResumeData(update.Data)
		if err != nil {
			return nil, err
		}
		setClauses = append(setClauses, fmt.Sprintf("data = $%d", argNum))
		args = append(args, data)
		argNum++
	}
	if update.ShowBranding != nil {
		setClauses = append(setClauses, fmt.Sprintf("show_branding = $%d", argNum))
		args = append(args, *update.ShowBranding)
		argNum++
	}
	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(
		`UPDATE resumes SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argNum, argNum+1, resumeColumns,
	)
	args = append(args, id, userID)

	r, err := scanResume(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update resume: %w", err)
	}
	return r, nil
}

// DuplicateResume copies a resume under a new title. Returns nil if the source does not exist.
func (db *DB) DuplicateResume(ctx context.Context, userID, id uuid.UUID) (*Resume, error) {
	r, err := scanResume(db.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, title, template, data, show_branding)
		 SELECT user_id, title || ' (Copy)', template, data, show_branding
		 FROM resumes WHERE id = $1 AND user_id = $2
		 RETURNING `+resumeColumns,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to duplicate resume: %w", err)
	}
	return r, nil
}

// DeleteResume removes a resume. Returns false if nothing was deleted.
func (db *DB) DeleteResume(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM resumes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete resume: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
