package notion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/harrisonrobin/schooltasks/pkg/upstream"
	"github.com/pkg/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("secret", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestSearchDatabasesFollowsCursor(t *testing.T) {
	var cursors []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got != APIVersion {
			t.Errorf("Notion-Version = %q", got)
		}

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode search body: %v", err)
		}
		if req.Query != "School Tasks" || req.Filter.Value != "database" || req.Filter.Property != "object" {
			t.Errorf("Unexpected search request %+v", req)
		}
		cursors = append(cursors, req.StartCursor)

		if req.StartCursor == "" {
			io.WriteString(w, `{"results":[{"object":"database","id":"db1","title":[{"plain_text":"School Tasks"}],"properties":{}}],"has_more":true,"next_cursor":"c2"}`)
			return
		}
		io.WriteString(w, `{"results":[{"object":"database","id":"db2","title":[{"plain_text":"School Tasks 2"}],"properties":{}}],"has_more":false,"next_cursor":null}`)
	})

	dbs, err := c.SearchDatabases(context.Background(), "School Tasks")
	if err != nil {
		t.Fatalf("SearchDatabases failed: %v", err)
	}
	if len(dbs) != 2 || dbs[0].ID != "db1" || dbs[1].PlainTitle() != "School Tasks 2" {
		t.Errorf("Unexpected databases %+v", dbs)
	}
	if diff := cmp.Diff([]string{"", "c2"}, cursors); diff != "" {
		t.Errorf("Unexpected cursors (-want +got):\n%s", diff)
	}
}

func TestUpdateDatabaseDecodesSelectOptions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/databases/db1" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		want := `{"properties":{"Course":{"select":{"options":[{"name":"Art"}]}},"Name":{"title":{}}}}`
		if string(body) != want {
			t.Errorf("Body = %s\nwant %s", body, want)
		}
		io.WriteString(w, `{"object":"database","id":"db1","title":[],"properties":{
			"Name":{"id":"title","name":"Name","type":"title","title":{}},
			"Course":{"id":"abc","name":"Course","type":"select","select":{"options":[{"id":"o1","name":"Art","color":"blue"}]}}}}`)
	})

	db, err := c.UpdateDatabase(context.Background(), "db1", UpdateDatabaseRequest{
		Properties: map[string]Property{
			"Name":   {Type: TypeTitle},
			"Course": {Type: TypeSelect, Select: &SelectConfig{Options: []Option{{Name: "Art"}}}},
		},
	})
	if err != nil {
		t.Fatalf("UpdateDatabase failed: %v", err)
	}

	course := db.Properties["Course"]
	if course.Type != TypeSelect || course.ID != "abc" {
		t.Errorf("Unexpected Course property %+v", course)
	}
	want := []Option{{ID: "o1", Name: "Art", Color: "blue"}}
	if diff := cmp.Diff(want, course.Select.Options); diff != "" {
		t.Errorf("Unexpected options (-want +got):\n%s", diff)
	}
	if db.Properties["Name"].Type != TypeTitle {
		t.Errorf("Expected Name to be a title property, got %q", db.Properties["Name"].Type)
	}
}

func TestPropertyDecodesWriteForm(t *testing.T) {
	var p Property
	if err := json.Unmarshal([]byte(`{"select":{"options":[{"name":"Math"}]}}`), &p); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if p.Type != TypeSelect || p.Select == nil || p.Select.Options[0].Name != "Math" {
		t.Errorf("Unexpected property %+v", p)
	}
}

func TestQueryDatabaseDecodesRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/databases/db1/query" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"results":[{"object":"page","id":"p1","properties":{
			"Canvas-Assignment-ID":{"type":"rich_text","rich_text":[{"type":"text","text":{"content":"42"},"plain_text":"42"}]},
			"Status":{"type":"select","select":{"name":"Submitted","color":"blue"}},
			"Due Date":{"type":"date","date":{"start":"2099-01-01T00:00:00.000+00:00","end":null,"time_zone":null}},
			"Link":{"type":"url","url":null}}}],"has_more":false,"next_cursor":null}`)
	})

	rows, next, err := c.QueryDatabase(context.Background(), "db1", "")
	if err != nil {
		t.Fatalf("QueryDatabase failed: %v", err)
	}
	if next != "" {
		t.Errorf("Expected no next cursor, got %q", next)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if got := row.Text("Canvas-Assignment-ID"); got != "42" {
		t.Errorf("external id = %q, want 42", got)
	}
	if got := row.SelectName("Status"); got != "Submitted" {
		t.Errorf("status = %q", got)
	}
	if got := row.DateStart("Due Date"); got != "2099-01-01T00:00:00.000+00:00" {
		t.Errorf("due = %q", got)
	}
	if got := row.URL("Link"); got != "" {
		t.Errorf("link = %q, want empty", got)
	}
}

func TestCreatePageEncodesExplicitNullDates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		for _, want := range []string{
			`"parent":{"database_id":"db1"}`,
			`"date":{"start":"2099-01-01T00:00:00.000+00:00","end":null,"time_zone":null}`,
		} {
			if !strings.Contains(string(body), want) {
				t.Errorf("Expected body to contain %s, got %s", want, body)
			}
		}
		io.WriteString(w, `{"object":"page","id":"p1","properties":{}}`)
	})

	page, err := c.CreatePage(context.Background(), "db1", map[string]PropertyValue{
		"Due Date": {Date: &DateValue{Start: "2099-01-01T00:00:00.000+00:00"}},
	})
	if err != nil {
		t.Fatalf("CreatePage failed: %v", err)
	}
	if page.ID != "p1" {
		t.Errorf("page id = %q", page.ID)
	}
}

func TestNonSuccessReturnsRequestError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"object":"error","status":400,"code":"validation_error","message":"bad"}`)
	})

	_, err := c.UpdatePage(context.Background(), "p1", map[string]PropertyValue{
		"Link": {URL: strPtr("https://example.com")},
	})

	var reqErr *upstream.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected *upstream.RequestError, got %v", err)
	}
	if reqErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", reqErr.StatusCode)
	}
	if !strings.Contains(reqErr.Body, "validation_error") {
		t.Errorf("Body = %q", reqErr.Body)
	}
	if !strings.Contains(reqErr.Payload, "https://example.com") {
		t.Errorf("Payload = %q", reqErr.Payload)
	}
}

func strPtr(s string) *string { return &s }
