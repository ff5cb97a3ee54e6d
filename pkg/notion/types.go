package notion

import (
	"encoding/json"
	"strings"
)

// PropertyType is the kind of a database property.
type PropertyType string

const (
	TypeTitle    PropertyType = "title"
	TypeRichText PropertyType = "rich_text"
	TypeDate     PropertyType = "date"
	TypeURL      PropertyType = "url"
	TypeSelect   PropertyType = "select"
)

var knownTypes = []PropertyType{TypeTitle, TypeRichText, TypeDate, TypeURL, TypeSelect}

// Option is one value of a select property.
type Option struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// SelectConfig lists the options of a select property.
type SelectConfig struct {
	Options []Option `json:"options"`
}

// Property is a database property definition.
//
// On the wire a definition is written as {"<type>": {...}} while the API
// answers with {"id", "name", "type", "<type>": {...}}; both forms decode.
type Property struct {
	ID     string
	Name   string
	Type   PropertyType
	Select *SelectConfig
}

func (p Property) MarshalJSON() ([]byte, error) {
	var body any = struct{}{}
	if p.Type == TypeSelect {
		cfg := SelectConfig{Options: []Option{}}
		if p.Select != nil && p.Select.Options != nil {
			cfg.Options = p.Select.Options
		}
		body = cfg
	}
	return json.Marshal(map[string]any{string(p.Type): body})
}

func (p *Property) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	for key, dst := range map[string]*string{"id": &p.ID, "name": &p.Name} {
		if v, ok := raw[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return err
			}
		}
	}
	if v, ok := raw["type"]; ok {
		if err := json.Unmarshal(v, &p.Type); err != nil {
			return err
		}
	}
	if p.Type == "" {
		for _, t := range knownTypes {
			if _, ok := raw[string(t)]; ok {
				p.Type = t
				break
			}
		}
	}

	if v, ok := raw["select"]; ok && string(v) != "null" {
		p.Select = &SelectConfig{}
		if err := json.Unmarshal(v, p.Select); err != nil {
			return err
		}
	}
	return nil
}

// Text is the content of a text rich text object.
type Text struct {
	Content string `json:"content"`
}

// RichText is a single rich text segment.
type RichText struct {
	Type      string `json:"type,omitempty"`
	Text      *Text  `json:"text,omitempty"`
	PlainText string `json:"plain_text,omitempty"`
}

// NewText returns a rich text array holding s.
func NewText(s string) []RichText {
	return []RichText{{Type: "text", Text: &Text{Content: s}}}
}

// PlainText joins the text of every segment.
func PlainText(rt []RichText) string {
	var sb strings.Builder
	for _, r := range rt {
		switch {
		case r.PlainText != "":
			sb.WriteString(r.PlainText)
		case r.Text != nil:
			sb.WriteString(r.Text.Content)
		}
	}
	return sb.String()
}

// Parent references the container of a database or page.
type Parent struct {
	Type       string `json:"type,omitempty"`
	PageID     string `json:"page_id,omitempty"`
	DatabaseID string `json:"database_id,omitempty"`
}

// PageParent returns a parent reference to a page.
func PageParent(pageID string) Parent {
	return Parent{Type: "page_id", PageID: pageID}
}

// Database is a remote database.
type Database struct {
	Object     string              `json:"object,omitempty"`
	ID         string              `json:"id"`
	Title      []RichText          `json:"title"`
	Properties map[string]Property `json:"properties"`
}

// PlainTitle returns the title as plain text.
func (d Database) PlainTitle() string {
	return PlainText(d.Title)
}

// DateValue is the value of a date property. End and TimeZone are always
// encoded, as null when unset.
type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone"`
}

// PropertyValue is the value of one property on a page.
type PropertyValue struct {
	ID       string       `json:"id,omitempty"`
	Type     PropertyType `json:"type,omitempty"`
	Title    []RichText   `json:"title,omitempty"`
	RichText []RichText   `json:"rich_text,omitempty"`
	Date     *DateValue   `json:"date,omitempty"`
	Select   *Option      `json:"select,omitempty"`
	URL      *string      `json:"url,omitempty"`
}

// Page is a database row.
type Page struct {
	Object     string                   `json:"object,omitempty"`
	ID         string                   `json:"id"`
	Properties map[string]PropertyValue `json:"properties"`
}

// Text returns the plain text of a title or rich text property.
func (p Page) Text(name string) string {
	v, ok := p.Properties[name]
	if !ok {
		return ""
	}
	if len(v.Title) > 0 {
		return PlainText(v.Title)
	}
	return PlainText(v.RichText)
}

// SelectName returns the selected option name, or "" when unset.
func (p Page) SelectName(name string) string {
	v, ok := p.Properties[name]
	if !ok || v.Select == nil {
		return ""
	}
	return v.Select.Name
}

// DateStart returns the start of a date property, or "" when unset.
func (p Page) DateStart(name string) string {
	v, ok := p.Properties[name]
	if !ok || v.Date == nil {
		return ""
	}
	return v.Date.Start
}

// URL returns the value of a url property, or "" when unset.
func (p Page) URL(name string) string {
	v, ok := p.Properties[name]
	if !ok || v.URL == nil {
		return ""
	}
	return *v.URL
}

// CreateDatabaseRequest is the body of a create database call.
type CreateDatabaseRequest struct {
	Parent     Parent              `json:"parent"`
	Title      []RichText          `json:"title"`
	Properties map[string]Property `json:"properties"`
}

// UpdateDatabaseRequest is the body of an update database call. Properties
// overwrite the remote definitions of the same name.
type UpdateDatabaseRequest struct {
	Properties map[string]Property `json:"properties"`
}

type searchFilter struct {
	Value    string `json:"value"`
	Property string `json:"property"`
}

type searchRequest struct {
	Query       string       `json:"query"`
	Filter      searchFilter `json:"filter"`
	StartCursor string       `json:"start_cursor,omitempty"`
	PageSize    int          `json:"page_size,omitempty"`
}

type searchResponse struct {
	Results    []Database `json:"results"`
	HasMore    bool       `json:"has_more"`
	NextCursor string     `json:"next_cursor"`
}

type queryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type pageRequest struct {
	Parent     *Parent                  `json:"parent,omitempty"`
	Properties map[string]PropertyValue `json:"properties"`
}
