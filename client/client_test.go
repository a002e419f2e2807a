package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:    server.URL,
		Token:      "test-token",
		UserAgent:  "issuestore-test",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNew_HTTPSEnforcement(t *testing.T) {
	_, err := New(Config{BaseURL: "http://api.github.com", Token: "test"})
	if err == nil {
		t.Fatal("expected error for HTTP URL")
	}
	if got := err.Error(); got != `github: API client requires HTTPS (got "http://api.github.com")` {
		t.Errorf("unexpected error: %s", got)
	}
}

func TestNew_RequiresToken(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestClient_Headers(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "issuestore-test" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("X-GitHub-Api-Version"); got != apiVersion {
			t.Errorf("X-GitHub-Api-Version = %q", got)
		}
		fmt.Fprint(w, `{"id":1,"body":"[]"}`)
	}))
	defer server.Close()

	comment, err := newTestClient(t, server).GetComment(context.Background(), "wiki", "data", 1)
	if err != nil {
		t.Fatalf("GetComment: %v", err)
	}
	if comment.Body != "[]" {
		t.Errorf("Body = %q", comment.Body)
	}
}

func TestListIssues_PaginatesAndSkipsPullRequests(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/wiki/data/issues" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"number":3,"title":"c","labels":[{"name":"skill-builds"}]}]`)
			return
		}
		if got := r.URL.Query().Get("labels"); got != "skill-builds,user-id:7" {
			t.Errorf("labels = %q", got)
		}
		if got := r.URL.Query().Get("state"); got != "all" {
			t.Errorf("state = %q", got)
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/wiki/data/issues?page=2>; rel="next", <%s/repos/wiki/data/issues?page=2>; rel="last"`, server.URL, server.URL))
		fmt.Fprint(w, `[{"number":1,"title":"a"},{"number":2,"title":"pr","pull_request":{}}]`)
	}))
	defer server.Close()

	issues, err := newTestClient(t, server).ListIssues(context.Background(), "wiki", "data", ListIssuesOptions{
		Labels: []string{"skill-builds", "user-id:7"},
	})
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("len(issues) = %d, want 2", len(issues))
	}
	if issues[0].Number != 1 || issues[1].Number != 3 {
		t.Errorf("numbers = %d,%d", issues[0].Number, issues[1].Number)
	}
	if names := issues[1].LabelNames(); len(names) != 1 || names[0] != "skill-builds" {
		t.Errorf("labels = %v", names)
	}
}

func TestCreateIssue(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var req CreateIssueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Title != "[Skill Builds] alice" || len(req.Labels) != 3 {
			t.Errorf("request = %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Issue{Number: 12, Title: req.Title, Body: req.Body})
	}))
	defer server.Close()

	issue, err := newTestClient(t, server).CreateIssue(context.Background(), "wiki", "data", CreateIssueRequest{
		Title:  "[Skill Builds] alice",
		Body:   "[]",
		Labels: []string{"skill-builds", "user-id:7", "automated"},
	})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if issue.Number != 12 {
		t.Errorf("Number = %d", issue.Number)
	}
}

func TestUpdateIssue_OmitsUnsetFields(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{"body":"[]"}` {
			t.Errorf("body = %s", raw)
		}
		fmt.Fprint(w, `{"number":5,"body":"[]"}`)
	}))
	defer server.Close()

	body := "[]"
	if _, err := newTestClient(t, server).UpdateIssue(context.Background(), "wiki", "data", 5, UpdateIssueRequest{Body: &body}); err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
}

func TestLockIssue(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/repos/wiki/data/issues/5/lock" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{"lock_reason":"resolved"}` {
			t.Errorf("body = %s", raw)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := newTestClient(t, server).LockIssue(context.Background(), "wiki", "data", 5); err != nil {
		t.Fatalf("LockIssue: %v", err)
	}
}

func TestDeleteComment_NotFound(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))
	defer server.Close()

	err := newTestClient(t, server).DeleteComment(context.Background(), "wiki", "data", 99)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "github: HTTP 404: Not Found" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestServerErrorIsNotNotFound(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>bad gateway</html>")
	}))
	defer server.Close()

	_, err := newTestClient(t, server).GetComment(context.Background(), "wiki", "data", 1)
	if err == nil || IsNotFound(err) {
		t.Fatalf("err = %v", err)
	}
	if err.Error() != "github: HTTP 502: Bad Gateway" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestGetComment_ETag(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		fmt.Fprint(w, `{"id":4,"body":"cached"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	for i := 0; i < 2; i++ {
		comment, err := client.GetComment(context.Background(), "wiki", "data", 4)
		if err != nil {
			t.Fatalf("GetComment #%d: %v", i, err)
		}
		if comment.Body != "cached" {
			t.Errorf("GetComment #%d body = %q", i, comment.Body)
		}
	}
	if requests.Load() != 2 {
		t.Errorf("requests = %d", requests.Load())
	}
}

func TestGetComment_ETagExpiresDuringRequest(t *testing.T) {
	var c *Client
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			// the entry expires while the request is in flight
			c.cache.Flush()
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		fmt.Fprint(w, `{"id":4,"body":"cached"}`)
	}))
	defer server.Close()

	c = newTestClient(t, server)
	for i := 0; i < 2; i++ {
		comment, err := c.GetComment(context.Background(), "wiki", "data", 4)
		if err != nil {
			t.Fatalf("GetComment #%d: %v", i, err)
		}
		if comment.Body != "cached" {
			t.Errorf("GetComment #%d body = %q", i, comment.Body)
		}
	}
}

func TestGetAuthenticatedUser_TokenOverride(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("If-None-Match") != "" {
			t.Error("user requests must not be conditional")
		}
		w.Header().Set("ETag", `"u"`)
		fmt.Fprint(w, `{"id":7,"login":"alice"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	for i := 0; i < 2; i++ {
		user, err := client.GetAuthenticatedUser(context.Background(), "user-token")
		if err != nil {
			t.Fatalf("GetAuthenticatedUser: %v", err)
		}
		if user.ID != 7 || user.Login != "alice" {
			t.Errorf("user = %+v", user)
		}
	}
}

func TestParseLinkNext(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{`<https://x/issues?page=2>; rel="next"`, "https://x/issues?page=2"},
		{`<https://x/issues?page=1>; rel="prev", <https://x/issues?page=3>; rel="next"`, "https://x/issues?page=3"},
		{`<https://x/issues?page=5>; rel="last"`, ""},
		{`garbage`, ""},
	}
	for _, test := range tests {
		if got := parseLinkNext(test.header); got != test.want {
			t.Errorf("parseLinkNext(%q) = %q, want %q", test.header, got, test.want)
		}
	}
}
