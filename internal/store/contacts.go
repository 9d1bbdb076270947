package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomerlv/outreach-be/internal/domain"
	"github.com/tomerlv/outreach-be/internal/workflow"
)

const contactColumns = `
	id, linkedin_url, name, company, position, is_connection,
	connection_requested_at, message_sent_at, message_content,
	reply_received_at, job_id, created_at
`

// SaveMessagedContacts upserts people that were messaged during a search run.
// Contacts are keyed by LinkedIn URL; an existing row gets its message
// timestamp set only if it was not already messaged (one active outreach
// attempt per contact).
func (s *Storage) SaveMessagedContacts(ctx context.Context, jobID, company string, people []workflow.Person) ([]domain.Contact, error) {
	return s.upsertContacts(ctx, jobID, company, people, true)
}

// SaveRequestedContacts upserts people that received a connection request.
func (s *Storage) SaveRequestedContacts(ctx context.Context, jobID, company string, people []workflow.Person) ([]domain.Contact, error) {
	return s.upsertContacts(ctx, jobID, company, people, false)
}

func (s *Storage) upsertContacts(ctx context.Context, jobID, company string, people []workflow.Person, messaged bool) ([]domain.Contact, error) {
	query := `
		INSERT INTO contacts (
			linkedin_url, name, company, position, is_connection,
			connection_requested_at, message_sent_at, message_content,
			job_id, created_at
		) VALUES (
			$1, $2, $3, NULLIF($4, ''), $5,
			CASE WHEN $6 THEN NULL ELSE NOW() END,
			CASE WHEN $6 THEN NOW() ELSE NULL END,
			NULLIF($7, ''),
			$8, NOW()
		)
		ON CONFLICT (linkedin_url) DO UPDATE SET
			job_id = COALESCE(contacts.job_id, EXCLUDED.job_id),
			message_sent_at = COALESCE(contacts.message_sent_at, EXCLUDED.message_sent_at),
			message_content = COALESCE(contacts.message_content, EXCLUDED.message_content),
			connection_requested_at = COALESCE(contacts.connection_requested_at, EXCLUDED.connection_requested_at)
		RETURNING ` + contactColumns

	saved := make([]domain.Contact, 0, len(people))
	for _, p := range people {
		if p.LinkedInURL == "" {
			continue
		}

		var contact domain.Contact
		err := s.db.QueryRowxContext(ctx, query,
			p.LinkedInURL,
			p.Name,
			company,
			p.Headline,
			messaged, // messaged people are 1st degree connections
			messaged,
			p.Message,
			jobID,
		).StructScan(&contact)
		if err != nil {
			return saved, fmt.Errorf("failed to save contact %s: %w", p.LinkedInURL, err)
		}
		saved = append(saved, contact)
	}
	return saved, nil
}

// ContactsAwaitingReply returns this job's messaged contacts that have not
// replied yet.
func (s *Storage) ContactsAwaitingReply(ctx context.Context, jobID string) ([]domain.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE job_id = $1
		  AND message_sent_at IS NOT NULL
		  AND reply_received_at IS NULL
		ORDER BY message_sent_at
	`

	var contacts []domain.Contact
	if err := s.db.SelectContext(ctx, &contacts, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to load contacts awaiting reply: %w", err)
	}
	return contacts, nil
}

// ContactsAwaitingAccept returns this job's contacts with a pending
// connection request.
func (s *Storage) ContactsAwaitingAccept(ctx context.Context, jobID string) ([]domain.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE job_id = $1
		  AND connection_requested_at IS NOT NULL
		  AND is_connection = FALSE
		ORDER BY connection_requested_at
	`

	var contacts []domain.Contact
	if err := s.db.SelectContext(ctx, &contacts, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to load contacts awaiting accept: %w", err)
	}
	return contacts, nil
}

// ListContacts returns all contacts for a job, newest first.
func (s *Storage) ListContacts(ctx context.Context, jobID string) ([]domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE job_id = $1 ORDER BY created_at DESC`

	var contacts []domain.Contact
	if err := s.db.SelectContext(ctx, &contacts, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// MarkContactReplied records a detected reply.
func (s *Storage) MarkContactReplied(ctx context.Context, linkedinURL string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET reply_received_at = NOW() WHERE linkedin_url = $1 AND reply_received_at IS NULL`,
		linkedinURL,
	)
	if err != nil {
		return fmt.Errorf("failed to mark contact replied: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		s.logger.Warn("Reply mark matched no contact", "linkedin_url", linkedinURL)
	}
	return nil
}

// MarkContactAccepted promotes a requested contact to a 1st-degree connection.
func (s *Storage) MarkContactAccepted(ctx context.Context, linkedinURL string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET is_connection = TRUE WHERE linkedin_url = $1`,
		linkedinURL,
	)
	if err != nil {
		return fmt.Errorf("failed to mark contact accepted: %w", err)
	}
	return nil
}

// LookupTranslation finds a user-provided Hebrew translation for an English
// name. Returns "" when none is stored.
func (s *Storage) LookupTranslation(ctx context.Context, englishName string) (string, error) {
	var hebrew string
	err := s.db.GetContext(ctx, &hebrew,
		`SELECT hebrew_name FROM name_translations WHERE english_name = $1`,
		englishName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up translation: %w", err)
	}
	return hebrew, nil
}

// SaveTranslation stores or replaces a user-provided name translation.
func (s *Storage) SaveTranslation(ctx context.Context, englishName, hebrewName string) error {
	query := `
		INSERT INTO name_translations (english_name, hebrew_name, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (english_name) DO UPDATE SET hebrew_name = EXCLUDED.hebrew_name
	`
	if _, err := s.db.ExecContext(ctx, query, strings.ToLower(strings.TrimSpace(englishName)), hebrewName); err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}
	return nil
}
