package schema

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/harrisonrobin/schooltasks/pkg/notion"
	"github.com/harrisonrobin/schooltasks/pkg/upstream"
	"github.com/pkg/errors"
)

type fakeClient struct {
	databases []notion.Database
	created   []notion.CreateDatabaseRequest
	updated   map[string]notion.UpdateDatabaseRequest
	createErr error
	updateErr error
}

func (f *fakeClient) SearchDatabases(_ context.Context, query string) ([]notion.Database, error) {
	return f.databases, nil
}

func (f *fakeClient) CreateDatabase(_ context.Context, req notion.CreateDatabaseRequest) (*notion.Database, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &notion.Database{ID: "new-db", Title: req.Title, Properties: req.Properties}, nil
}

func (f *fakeClient) UpdateDatabase(_ context.Context, id string, req notion.UpdateDatabaseRequest) (*notion.Database, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updated == nil {
		f.updated = make(map[string]notion.UpdateDatabaseRequest)
	}
	f.updated[id] = req
	return &notion.Database{ID: id, Properties: req.Properties}, nil
}

func optionNames(opts []notion.Option) []string {
	var names []string
	for _, o := range opts {
		names = append(names, o.Name)
	}
	return names
}

func remoteDB(id, title string, courses ...string) notion.Database {
	var opts []notion.Option
	for _, c := range courses {
		opts = append(opts, notion.Option{ID: "id-" + c, Name: c, Color: "pink"})
	}
	return notion.Database{
		ID:    id,
		Title: notion.NewText(title),
		Properties: map[string]notion.Property{
			"Course": {Type: notion.TypeSelect, Select: &notion.SelectConfig{Options: opts}},
		},
	}
}

func TestMergeOptionsUnion(t *testing.T) {
	desired := []notion.Option{{Name: "Math"}}
	remote := []notion.Option{{ID: "x", Name: "Art", Color: "red"}}

	got := MergeOptions(desired, remote)

	want := []notion.Option{{Name: "Math"}, {Name: "Art"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeOptions mismatch (-want +got):\n%s", diff)
	}
	if len(desired) != 1 || desired[0].Color != "" {
		t.Errorf("MergeOptions modified desired: %+v", desired)
	}
}

func TestMergeOptionsKeepsRemoteColorForSharedNames(t *testing.T) {
	desired := []notion.Option{{Name: "Graded", Color: "green"}, {Name: "Graded", Color: "blue"}}
	remote := []notion.Option{{Name: "Graded", Color: "purple"}}

	got := MergeOptions(desired, remote)

	want := []notion.Option{{Name: "Graded", Color: "purple"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeOptions mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileUpdatesWithUnionOfOptions(t *testing.T) {
	fc := &fakeClient{databases: []notion.Database{remoteDB("db1", "School Tasks", "Art")}}
	r := NewReconciler(fc, "parent", nil)
	tmpl := NewTemplate("Course", "Canvas-Assignment-ID")

	db, err := r.Reconcile(context.Background(), "School Tasks", tmpl, map[string][]notion.Option{
		"Course": {{Name: "Math"}},
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if db.ID != "db1" {
		t.Errorf("database id = %q, want db1", db.ID)
	}
	if len(fc.created) != 0 {
		t.Errorf("Expected no create, got %d", len(fc.created))
	}

	req, ok := fc.updated["db1"]
	if !ok {
		t.Fatal("Expected an update of db1")
	}
	course := req.Properties["Course"].Select.Options
	if diff := cmp.Diff([]string{"Math", "Art"}, optionNames(course)); diff != "" {
		t.Errorf("Course options mismatch (-want +got):\n%s", diff)
	}
	if course[1].Color != "" {
		t.Errorf("Expected remote-only option without colour, got %q", course[1].Color)
	}
	if course[0].Color == "" {
		t.Errorf("Expected new option Math to get a colour")
	}
	if len(req.Properties) != len(tmpl.Fields) {
		t.Errorf("Expected full schema of %d properties, got %d", len(tmpl.Fields), len(req.Properties))
	}
}

func TestReconcileCreatesWhenMissing(t *testing.T) {
	fc := &fakeClient{databases: []notion.Database{remoteDB("other", "School Tasks (old)")}}
	r := NewReconciler(fc, "parent-page", nil)

	db, err := r.Reconcile(context.Background(), "School Tasks", NewTemplate("Course", "Canvas-Assignment-ID"),
		map[string][]notion.Option{
			PropStatus: {{Name: "Not started", Color: "red"}},
			"Course":   {{Name: "Math"}},
		})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if db.ID != "new-db" {
		t.Errorf("database id = %q", db.ID)
	}
	if len(fc.created) != 1 {
		t.Fatalf("Expected 1 create, got %d", len(fc.created))
	}

	req := fc.created[0]
	if req.Parent.PageID != "parent-page" || req.Parent.Type != "page_id" {
		t.Errorf("Unexpected parent %+v", req.Parent)
	}
	if notion.PlainText(req.Title) != "School Tasks" {
		t.Errorf("Unexpected title %q", notion.PlainText(req.Title))
	}
	status := req.Properties[PropStatus].Select.Options
	if diff := cmp.Diff([]notion.Option{{Name: "Not started", Color: "red"}}, status); diff != "" {
		t.Errorf("Status options mismatch (-want +got):\n%s", diff)
	}
	if err := NewTemplate("Course", "Canvas-Assignment-ID").Validate(db.Properties); err != nil {
		t.Errorf("Validate created schema: %v", err)
	}
}

func TestReconcileUsesFirstOfDuplicateTitles(t *testing.T) {
	fc := &fakeClient{databases: []notion.Database{
		remoteDB("first", "School Tasks"),
		remoteDB("second", "School Tasks"),
	}}
	r := NewReconciler(fc, "parent", nil)

	db, err := r.Reconcile(context.Background(), "School Tasks", NewTemplate("Course", "id"), nil)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if db.ID != "first" {
		t.Errorf("database id = %q, want first", db.ID)
	}
}

func TestReconcileErrors(t *testing.T) {
	apiErr := &upstream.RequestError{StatusCode: 400, Body: "bad schema"}

	fc := &fakeClient{updateErr: apiErr, databases: []notion.Database{remoteDB("db1", "T")}}
	_, err := NewReconciler(fc, "p", nil).Reconcile(context.Background(), "T", NewTemplate("Course", "id"), nil)
	var updateErr *UpdateError
	if !errors.As(err, &updateErr) {
		t.Fatalf("Expected *UpdateError, got %v", err)
	}
	var reqErr *upstream.RequestError
	if !errors.As(err, &reqErr) || reqErr.Body != "bad schema" {
		t.Errorf("Expected wrapped request error, got %v", err)
	}

	fc = &fakeClient{createErr: apiErr}
	_, err = NewReconciler(fc, "p", nil).Reconcile(context.Background(), "T", NewTemplate("Course", "id"), nil)
	var createErr *CreateError
	if !errors.As(err, &createErr) {
		t.Fatalf("Expected *CreateError, got %v", err)
	}
	if createErr.Schema == "" {
		t.Errorf("Expected attempted schema in CreateError")
	}
}

func TestValidateReportsMismatches(t *testing.T) {
	tmpl := NewTemplate("Course", "Canvas-Assignment-ID")
	props := tmpl.Properties(nil)
	delete(props, PropLink)
	props[PropDue] = notion.Property{Type: notion.TypeRichText}

	if err := tmpl.Validate(props); err == nil {
		t.Error("Expected Validate to fail")
	}
}
