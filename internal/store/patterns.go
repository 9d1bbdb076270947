package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomerlv/outreach-be/internal/domain"
)

const patternColumns = `
	id, domain, site_type, company_name, platform_name, url_pattern,
	example_url, last_used_at, created_at
`

// GetSitePattern finds the learned pattern for a domain, touching its
// last_used_at. Returns nil when the domain is unknown.
func (s *Storage) GetSitePattern(ctx context.Context, siteDomain string) (*domain.SitePattern, error) {
	var pattern domain.SitePattern
	query := `
		UPDATE site_patterns SET last_used_at = NOW()
		WHERE domain = $1
		RETURNING ` + patternColumns

	err := s.db.QueryRowxContext(ctx, query, siteDomain).StructScan(&pattern)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get site pattern: %w", err)
	}
	return &pattern, nil
}

// LearnSitePattern stores or replaces the extraction rule for a domain so
// future URLs from the same site resolve without user input.
func (s *Storage) LearnSitePattern(ctx context.Context, pattern *domain.SitePattern) error {
	query := `
		INSERT INTO site_patterns (
			domain, site_type, company_name, platform_name, url_pattern,
			example_url, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (domain) DO UPDATE SET
			site_type = EXCLUDED.site_type,
			company_name = EXCLUDED.company_name,
			platform_name = EXCLUDED.platform_name,
			url_pattern = EXCLUDED.url_pattern,
			example_url = EXCLUDED.example_url
	`

	_, err := s.db.ExecContext(ctx, query,
		pattern.Domain,
		pattern.SiteType,
		pattern.CompanyName,
		pattern.PlatformName,
		pattern.URLPattern,
		pattern.ExampleURL,
	)
	if err != nil {
		return fmt.Errorf("failed to learn site pattern: %w", err)
	}
	return nil
}

// GetTemplate returns the template by ID, or the default template (falling
// back to any template) when templateID is empty.
func (s *Storage) GetTemplate(ctx context.Context, templateID string) (*domain.Template, error) {
	var template domain.Template
	var err error

	if templateID != "" {
		err = s.db.GetContext(ctx, &template,
			`SELECT template_id, name, content, is_default, created_at FROM templates WHERE template_id = $1`,
			templateID,
		)
	} else {
		err = s.db.GetContext(ctx, &template,
			`SELECT template_id, name, content, is_default, created_at FROM templates ORDER BY is_default DESC, created_at LIMIT 1`,
		)
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}

// SaveActivity appends one activity-log row.
func (s *Storage) SaveActivity(ctx context.Context, entry *domain.ActivityEntry) error {
	query := `
		INSERT INTO activity_log (action_type, description, details, job_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ActionType, entry.Description, entry.Details, entry.JobID,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

// ListActivity returns recent activity entries, optionally scoped to a job.
func (s *Storage) ListActivity(ctx context.Context, jobID string, limit int) ([]domain.ActivityEntry, error) {
	query := `SELECT id, action_type, description, details, job_id, created_at FROM activity_log`
	args := []interface{}{}

	if jobID != "" {
		query += ` WHERE job_id = $1`
		args = append(args, jobID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	var entries []domain.ActivityEntry
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}
