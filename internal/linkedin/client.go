// Package linkedin drives the browser-automation sidecar over HTTP. The
// sidecar owns the logged-in LinkedIn session; this client sequences searches,
// messages, and connection requests on top of it and renders outreach
// messages from templates.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tomerlv/outreach-be/internal/domain"
	"github.com/tomerlv/outreach-be/internal/names"
	"github.com/tomerlv/outreach-be/internal/workflow"
)

// Config holds the automation sidecar settings.
type Config struct {
	BaseURL        string
	SearchLimit    int
	RequestTimeout time.Duration
}

// Client implements the automation gateway against the sidecar's HTTP API.
// The orchestrator guarantees single-flight, so Client keeps no run state.
type Client struct {
	config     *Config
	httpClient *http.Client
	translator *names.Translator
	logger     *slog.Logger
}

// NewClient creates a gateway client. The translator resolves English first
// names to Hebrew for templates written in Hebrew script.
func NewClient(config *Config, translator *names.Translator, logger *slog.Logger) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		translator: translator,
		logger:     logger,
	}
}

type searchPayload struct {
	Company         string `json:"company"`
	Limit           int    `json:"limit"`
	Degrees         []int  `json:"degrees"`
	ExcludeMessaged bool   `json:"exclude_messaged"`
}

type searchResponse struct {
	People []sidecarPerson `json:"people"`
}

type sidecarPerson struct {
	Name            string `json:"name"`
	ProfileURL      string `json:"profile_url"`
	Headline        string `json:"headline"`
	Degree          int    `json:"degree"`
	AlreadyMessaged bool   `json:"already_messaged"`
}

type messagePayload struct {
	ProfileURL string `json:"profile_url"`
	Message    string `json:"message"`
}

type connectPayload struct {
	ProfileURL string `json:"profile_url"`
}

type checkPayload struct {
	ProfileURLs []string `json:"profile_urls"`
}

type checkResponse struct {
	Matches []sidecarPerson `json:"matches"`
}

// SearchAllDegrees runs one combined search pass: find people at the company,
// message reachable 1st-degree connections, and send connection requests to
// everyone else. Messaging pauses the whole pass when the template needs a
// Hebrew name that is not translatable yet.
func (c *Client) SearchAllDegrees(ctx context.Context, req workflow.SearchRequest) (*workflow.SearchResult, error) {
	degrees := []int{1, 2, 3}
	if req.FirstDegreeOnly {
		degrees = []int{1}
	}

	var resp searchResponse
	err := c.post(ctx, "/search", searchPayload{
		Company:         req.Company,
		Limit:           c.config.SearchLimit,
		Degrees:         degrees,
		ExcludeMessaged: req.ExcludeMessaged,
	}, &resp)
	if err != nil {
		return nil, err
	}

	var firstDegree, others []sidecarPerson
	for _, p := range resp.People {
		if p.ProfileURL == "" {
			continue
		}
		// A contact with a sent message is never contacted again, whatever
		// the sidecar reports and whatever triggered this pass.
		if p.AlreadyMessaged {
			continue
		}
		if p.Degree == 1 {
			firstDegree = append(firstDegree, p)
		} else {
			others = append(others, p)
		}
	}

	c.logger.Info("Search pass complete",
		slog.String("company", req.Company),
		slog.Int("first_degree", len(firstDegree)),
		slog.Int("others", len(others)),
	)

	if len(firstDegree) > 0 {
		return c.messagePeople(ctx, req, firstDegree)
	}
	if len(others) > 0 && !req.FirstDegreeOnly {
		return c.requestPeople(ctx, others)
	}
	return &workflow.SearchResult{Outcome: workflow.SearchNoneFound}, nil
}

// messagePeople renders the template for each 1st-degree person and sends the
// messages one by one. All names are resolved before the first message goes
// out, so a missing translation pauses the run without partial sends.
func (c *Client) messagePeople(ctx context.Context, req workflow.SearchRequest, people []sidecarPerson) (*workflow.SearchResult, error) {
	needsHebrew := names.HasHebrew(req.Template)

	rendered := make([]workflow.Person, 0, len(people))
	var missing []string
	for _, p := range people {
		first := names.FirstName(p.Name)
		display := first

		if needsHebrew && !names.HasHebrew(first) {
			hebrew, ok, err := c.translator.Translate(ctx, first)
			if err != nil {
				return nil, fmt.Errorf("failed to translate name %q: %w", first, err)
			}
			if !ok {
				missing = append(missing, first)
				continue
			}
			display = hebrew
		}

		message := strings.ReplaceAll(req.Template, "{name}", display)
		message = strings.ReplaceAll(message, "{company}", req.Company)

		rendered = append(rendered, workflow.Person{
			Name:        p.Name,
			LinkedInURL: p.ProfileURL,
			Headline:    p.Headline,
			Degree:      p.Degree,
			Message:     message,
		})
	}

	if len(missing) > 0 {
		return &workflow.SearchResult{
			Outcome:      workflow.SearchTranslationMissing,
			MissingNames: dedupe(missing),
		}, nil
	}

	sent := make([]workflow.Person, 0, len(rendered))
	for _, p := range rendered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := c.post(ctx, "/message", messagePayload{
			ProfileURL: p.LinkedInURL,
			Message:    p.Message,
		}, nil)
		if err != nil {
			if len(sent) > 0 {
				// Partial progress still counts as a messaged pass.
				c.logger.Error("Message send failed mid-pass",
					slog.String("profile_url", p.LinkedInURL),
					slog.Any("error", err),
				)
				return &workflow.SearchResult{Outcome: workflow.SearchMessaged, Messaged: sent}, nil
			}
			return nil, err
		}
		sent = append(sent, p)
	}
	return &workflow.SearchResult{Outcome: workflow.SearchMessaged, Messaged: sent}, nil
}

func (c *Client) requestPeople(ctx context.Context, people []sidecarPerson) (*workflow.SearchResult, error) {
	requested := make([]workflow.Person, 0, len(people))
	for _, p := range people {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := c.post(ctx, "/connect", connectPayload{ProfileURL: p.ProfileURL}, nil)
		if err != nil {
			if len(requested) > 0 {
				c.logger.Error("Connection request failed mid-pass",
					slog.String("profile_url", p.ProfileURL),
					slog.Any("error", err),
				)
				return &workflow.SearchResult{Outcome: workflow.SearchRequestsSent, Requested: requested}, nil
			}
			return nil, err
		}
		requested = append(requested, workflow.Person{
			Name:        p.Name,
			LinkedInURL: p.ProfileURL,
			Headline:    p.Headline,
			Degree:      p.Degree,
		})
	}
	if len(requested) == 0 {
		return &workflow.SearchResult{Outcome: workflow.SearchNoneFound}, nil
	}
	return &workflow.SearchResult{Outcome: workflow.SearchRequestsSent, Requested: requested}, nil
}

// CheckReplies asks the sidecar which of the messaged contacts replied.
func (c *Client) CheckReplies(ctx context.Context, contacts []domain.Contact) (*workflow.ReplyResult, error) {
	var resp checkResponse
	err := c.post(ctx, "/check-replies", checkPayload{ProfileURLs: contactURLs(contacts)}, &resp)
	if err != nil {
		return nil, err
	}
	return &workflow.ReplyResult{Replied: toPeople(resp.Matches)}, nil
}

// CheckAccepts asks the sidecar which pending connection requests were
// accepted.
func (c *Client) CheckAccepts(ctx context.Context, contacts []domain.Contact) (*workflow.AcceptResult, error) {
	var resp checkResponse
	err := c.post(ctx, "/check-accepts", checkPayload{ProfileURLs: contactURLs(contacts)}, &resp)
	if err != nil {
		return nil, err
	}
	return &workflow.AcceptResult{Accepted: toPeople(resp.Matches)}, nil
}

// post sends one sidecar request and decodes the JSON response into out (when
// non-nil). Sidecar failures surface as automation errors so the orchestrator
// can tell them apart from aborts.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.NewAutomationError("automation sidecar unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.NewAutomationError(
			fmt.Sprintf("automation call %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw))),
			nil,
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewAutomationError("invalid automation response", err)
	}
	return nil
}

func contactURLs(contacts []domain.Contact) []string {
	urls := make([]string, 0, len(contacts))
	for _, c := range contacts {
		urls = append(urls, c.LinkedInURL)
	}
	return urls
}

func toPeople(people []sidecarPerson) []workflow.Person {
	out := make([]workflow.Person, 0, len(people))
	for _, p := range people {
		out = append(out, workflow.Person{
			Name:        p.Name,
			LinkedInURL: p.ProfileURL,
			Headline:    p.Headline,
			Degree:      p.Degree,
		})
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
