package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomerlv/outreach-be/internal/domain"
	"github.com/tomerlv/outreach-be/internal/names"
	"github.com/tomerlv/outreach-be/internal/workflow"
)

// fakeSidecar records every request the client makes and replies from a
// scripted response table keyed by path.
type fakeSidecar struct {
	mu        sync.Mutex
	responses map[string]any
	statuses  map[string]int
	requests  map[string][]json.RawMessage
}

func newFakeSidecar() *fakeSidecar {
	return &fakeSidecar{
		responses: make(map[string]any),
		statuses:  make(map[string]int),
		requests:  make(map[string][]json.RawMessage),
	}
}

func (f *fakeSidecar) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.requests[r.URL.Path] = append(f.requests[r.URL.Path], json.RawMessage(body))
		status, hasStatus := f.statuses[r.URL.Path]
		response := f.responses[r.URL.Path]
		f.mu.Unlock()

		if hasStatus {
			http.Error(w, "sidecar error", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if response == nil {
			response = map[string]any{}
		}
		_ = json.NewEncoder(w).Encode(response)
	})
}

func (f *fakeSidecar) calls(path string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func newTestClient(t *testing.T, sidecar *fakeSidecar) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(sidecar.handler())
	t.Cleanup(srv.Close)

	client := NewClient(&Config{
		BaseURL:        srv.URL,
		SearchLimit:    10,
		RequestTimeout: 5 * time.Second,
	}, names.NewTranslator(nil), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return client, srv
}

func person(name, url string, degree int) map[string]any {
	return map[string]any{
		"name":        name,
		"profile_url": url,
		"degree":      degree,
	}
}

func TestClient_SearchAllDegrees_MessagesFirstDegree(t *testing.T) {
	sidecar := newFakeSidecar()
	sidecar.responses["/search"] = map[string]any{"people": []any{
		person("Dana Levi", "https://linkedin.com/in/dana", 1),
		person("Tal Shapira", "https://linkedin.com/in/tal", 1),
		person("John Smith", "https://linkedin.com/in/john", 2),
	}}
	client, _ := newTestClient(t, sidecar)

	result, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
		Company:  "Initech",
		Template: "Hi {name}, I saw an opening at {company}.",
	})
	require.NoError(t, err)

	// 1st-degree connections take priority over connection requests.
	assert.Equal(t, workflow.SearchMessaged, result.Outcome)
	require.Len(t, result.Messaged, 2)
	assert.Equal(t, "Dana Levi", result.Messaged[0].Name)
	assert.Equal(t, "Hi Dana, I saw an opening at Initech.", result.Messaged[0].Message)
	assert.Equal(t, "Hi Tal, I saw an opening at Initech.", result.Messaged[1].Message)
	assert.Len(t, sidecar.calls("/message"), 2)
	assert.Empty(t, sidecar.calls("/connect"))
}

func TestClient_SearchAllDegrees_HebrewTemplate(t *testing.T) {
	t.Run("builtin translation renders in Hebrew", func(t *testing.T) {
		sidecar := newFakeSidecar()
		sidecar.responses["/search"] = map[string]any{"people": []any{
			person("Dana Levi", "https://linkedin.com/in/dana", 1),
		}}
		client, _ := newTestClient(t, sidecar)

		result, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
			Company:  "Initech",
			Template: "שלום {name}, ראיתי משרה ב-{company}.",
		})
		require.NoError(t, err)

		assert.Equal(t, workflow.SearchMessaged, result.Outcome)
		require.Len(t, result.Messaged, 1)
		assert.Equal(t, "שלום דנה, ראיתי משרה ב-Initech.", result.Messaged[0].Message)
	})

	t.Run("unknown name pauses before any send", func(t *testing.T) {
		sidecar := newFakeSidecar()
		sidecar.responses["/search"] = map[string]any{"people": []any{
			person("Dana Levi", "https://linkedin.com/in/dana", 1),
			person("Xanthe Quill", "https://linkedin.com/in/xanthe", 1),
			person("xanthe brown", "https://linkedin.com/in/xanthe2", 1),
		}}
		client, _ := newTestClient(t, sidecar)

		result, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
			Company:  "Initech",
			Template: "שלום {name}",
		})
		require.NoError(t, err)

		assert.Equal(t, workflow.SearchTranslationMissing, result.Outcome)
		assert.Equal(t, []string{"Xanthe"}, result.MissingNames)
		// One unresolvable name holds back the whole batch.
		assert.Empty(t, sidecar.calls("/message"))
	})

	t.Run("name already in Hebrew needs no translation", func(t *testing.T) {
		sidecar := newFakeSidecar()
		sidecar.responses["/search"] = map[string]any{"people": []any{
			person("דנה לוי", "https://linkedin.com/in/dana", 1),
		}}
		client, _ := newTestClient(t, sidecar)

		result, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
			Company:  "Initech",
			Template: "שלום {name}",
		})
		require.NoError(t, err)

		assert.Equal(t, workflow.SearchMessaged, result.Outcome)
		require.Len(t, result.Messaged, 1)
		assert.Equal(t, "שלום דנה", result.Messaged[0].Message)
	})
}

func TestClient_SearchAllDegrees_RequestsOthers(t *testing.T) {
	sidecar := newFakeSidecar()
	sidecar.responses["/search"] = map[string]any{"people": []any{
		person("John Smith", "https://linkedin.com/in/john", 2),
		person("Jane Roe", "https://linkedin.com/in/jane", 3),
	}}
	client, _ := newTestClient(t, sidecar)

	result, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
		Company:  "Initech",
		Template: "Hi {name}",
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.SearchRequestsSent, result.Outcome)
	require.Len(t, result.Requested, 2)
	assert.Equal(t, "https://linkedin.com/in/john", result.Requested[0].LinkedInURL)
	assert.Len(t, sidecar.calls("/connect"), 2)
	assert.Empty(t, sidecar.calls("/message"))
}

func TestClient_SearchAllDegrees_NoneFound(t *testing.T) {
	sidecar := newFakeSidecar()
	sidecar.responses["/search"] = map[string]any{"people": []any{}}
	client, _ := newTestClient(t, sidecar)

	result, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
		Company:  "Initech",
		Template: "Hi {name}",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.SearchNoneFound, result.Outcome)
}

func TestClient_SearchAllDegrees_Filters(t *testing.T) {
	t.Run("first_degree_only narrows the search and skips requests", func(t *testing.T) {
		sidecar := newFakeSidecar()
		sidecar.responses["/search"] = map[string]any{"people": []any{
			person("John Smith", "https://linkedin.com/in/john", 2),
		}}
		client, _ := newTestClient(t, sidecar)

		result, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
			Company:         "Initech",
			Template:        "Hi {name}",
			FirstDegreeOnly: true,
		})
		require.NoError(t, err)
		assert.Equal(t, workflow.SearchNoneFound, result.Outcome)
		assert.Empty(t, sidecar.calls("/connect"))

		var payload searchPayload
		calls := sidecar.calls("/search")
		require.Len(t, calls, 1)
		require.NoError(t, json.Unmarshal(calls[0], &payload))
		assert.Equal(t, []int{1}, payload.Degrees)
		assert.Equal(t, "Initech", payload.Company)
		assert.Equal(t, 10, payload.Limit)
	})

	t.Run("already-messaged people are never re-messaged", func(t *testing.T) {
		sidecar := newFakeSidecar()
		sidecar.responses["/search"] = map[string]any{"people": []any{
			map[string]any{
				"name":             "Dana Levi",
				"profile_url":      "https://linkedin.com/in/dana",
				"degree":           1,
				"already_messaged": true,
			},
			person("Tal Shapira", "https://linkedin.com/in/tal", 1),
		}}
		client, _ := newTestClient(t, sidecar)

		// A plain search, after a workflow reset for example, must skip
		// contacts that already have a sent message.
		result, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
			Company:  "Initech",
			Template: "Hi {name}",
		})
		require.NoError(t, err)

		assert.Equal(t, workflow.SearchMessaged, result.Outcome)
		require.Len(t, result.Messaged, 1)
		assert.Equal(t, "Tal Shapira", result.Messaged[0].Name)
		assert.Len(t, sidecar.calls("/message"), 1)
	})

	t.Run("forced search forwards exclude_messaged to the sidecar", func(t *testing.T) {
		sidecar := newFakeSidecar()
		sidecar.responses["/search"] = map[string]any{"people": []any{}}
		client, _ := newTestClient(t, sidecar)

		_, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
			Company:         "Initech",
			Template:        "Hi {name}",
			ExcludeMessaged: true,
		})
		require.NoError(t, err)

		var payload searchPayload
		calls := sidecar.calls("/search")
		require.Len(t, calls, 1)
		require.NoError(t, json.Unmarshal(calls[0], &payload))
		assert.True(t, payload.ExcludeMessaged)
	})
}

func TestClient_SidecarFailures(t *testing.T) {
	t.Run("non-200 surfaces as an automation error", func(t *testing.T) {
		sidecar := newFakeSidecar()
		sidecar.statuses["/search"] = http.StatusBadGateway
		client, _ := newTestClient(t, sidecar)

		_, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
			Company:  "Initech",
			Template: "Hi {name}",
		})
		require.Error(t, err)

		var autoErr *domain.AutomationError
		require.ErrorAs(t, err, &autoErr)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("cancelled context passes through unchanged", func(t *testing.T) {
		sidecar := newFakeSidecar()
		client, _ := newTestClient(t, sidecar)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.SearchAllDegrees(ctx, workflow.SearchRequest{
			Company:  "Initech",
			Template: "Hi {name}",
		})
		require.ErrorIs(t, err, context.Canceled)

		var autoErr *domain.AutomationError
		assert.False(t, errors.As(err, &autoErr))
	})

	t.Run("unreachable sidecar is an automation error", func(t *testing.T) {
		client := NewClient(&Config{
			BaseURL:        "http://127.0.0.1:1",
			SearchLimit:    10,
			RequestTimeout: time.Second,
		}, names.NewTranslator(nil), slog.New(slog.NewTextHandler(io.Discard, nil)))

		_, err := client.SearchAllDegrees(context.Background(), workflow.SearchRequest{
			Company:  "Initech",
			Template: "Hi {name}",
		})
		require.Error(t, err)

		var autoErr *domain.AutomationError
		require.ErrorAs(t, err, &autoErr)
	})
}

func TestClient_CheckReplies(t *testing.T) {
	sidecar := newFakeSidecar()
	sidecar.responses["/check-replies"] = map[string]any{"matches": []any{
		person("Dana Levi", "https://linkedin.com/in/dana", 1),
	}}
	client, _ := newTestClient(t, sidecar)

	result, err := client.CheckReplies(context.Background(), []domain.Contact{
		{LinkedInURL: "https://linkedin.com/in/dana"},
		{LinkedInURL: "https://linkedin.com/in/tal"},
	})
	require.NoError(t, err)

	require.Len(t, result.Replied, 1)
	assert.Equal(t, "https://linkedin.com/in/dana", result.Replied[0].LinkedInURL)

	var payload checkPayload
	calls := sidecar.calls("/check-replies")
	require.Len(t, calls, 1)
	require.NoError(t, json.Unmarshal(calls[0], &payload))
	assert.Equal(t, []string{"https://linkedin.com/in/dana", "https://linkedin.com/in/tal"}, payload.ProfileURLs)
}

func TestClient_CheckAccepts(t *testing.T) {
	sidecar := newFakeSidecar()
	sidecar.responses["/check-accepts"] = map[string]any{"matches": []any{
		person("John Smith", "https://linkedin.com/in/john", 1),
	}}
	client, _ := newTestClient(t, sidecar)

	result, err := client.CheckAccepts(context.Background(), []domain.Contact{
		{LinkedInURL: "https://linkedin.com/in/john"},
	})
	require.NoError(t, err)

	require.Len(t, result.Accepted, 1)
	assert.Equal(t, "John Smith", result.Accepted[0].Name)
}
