package domain

import "time"

// Contact is a LinkedIn person discovered for a job.
// Uniquely keyed by LinkedInURL; at most one outstanding outreach attempt
// (message or connection request) is active per contact at a time.
type Contact struct {
	ID                    int64      `db:"id"`
	LinkedInURL           string     `db:"linkedin_url"`
	Name                  string     `db:"name"`
	Company               *string    `db:"company"`
	Position              *string    `db:"position"`
	IsConnection          bool       `db:"is_connection"`
	ConnectionRequestedAt *time.Time `db:"connection_requested_at"`
	MessageSentAt         *time.Time `db:"message_sent_at"`
	MessageContent        *string    `db:"message_content"`
	ReplyReceivedAt       *time.Time `db:"reply_received_at"`
	JobID                 *string    `db:"job_id"`
	CreatedAt             time.Time  `db:"created_at"`
}

// NameTranslation maps an English transliteration to its Hebrew script form.
type NameTranslation struct {
	ID          int64     `db:"id"`
	EnglishName string    `db:"english_name"`
	HebrewName  string    `db:"hebrew_name"`
	CreatedAt   time.Time `db:"created_at"`
}

// Template is a reusable outreach message with {name} and {company} placeholders.
type Template struct {
	ID        string    `db:"template_id"`
	Name      string    `db:"name"`
	Content   string    `db:"content"`
	IsDefault bool      `db:"is_default"`
	CreatedAt time.Time `db:"created_at"`
}

// SitePattern is a learned rule for extracting a company name from URLs of a
// given domain. site_type "company" means the domain belongs to one company;
// "platform" means the company is embedded in the URL and URLPattern extracts it.
type SitePattern struct {
	ID           int64      `db:"id"`
	Domain       string     `db:"domain"`
	SiteType     string     `db:"site_type"`
	CompanyName  *string    `db:"company_name"`
	PlatformName *string    `db:"platform_name"`
	URLPattern   *string    `db:"url_pattern"`
	ExampleURL   *string    `db:"example_url"`
	LastUsedAt   *time.Time `db:"last_used_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

// Site types for SitePattern.
const (
	SiteTypeCompany  = "company"
	SiteTypePlatform = "platform"
)
