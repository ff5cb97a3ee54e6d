// Package schema describes the shape of a mirror database and reconciles it
// with the remote database without ever dropping an existing select option.
package schema

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/schooltasks/pkg/notion"
	"github.com/pkg/errors"
)

// Property names shared by every mirror database. They are matched exactly.
const (
	PropName        = "Name"
	PropDue         = "Due Date"
	PropDescription = "Description"
	PropStatus      = "Status"
	PropLink        = "Link"
)

// Field is one property of a template.
type Field struct {
	Name string
	Type notion.PropertyType
}

// Template is the desired shape of a mirror database.
type Template struct {
	Fields     []Field
	Category   string // select property holding the course
	ExternalID string // rich text property holding the upstream id
}

// NewTemplate returns the mirror template using the given category and
// external id property names.
func NewTemplate(category, externalID string) Template {
	return Template{
		Fields: []Field{
			{Name: PropName, Type: notion.TypeTitle},
			{Name: PropDue, Type: notion.TypeDate},
			{Name: PropDescription, Type: notion.TypeRichText},
			{Name: PropStatus, Type: notion.TypeSelect},
			{Name: category, Type: notion.TypeSelect},
			{Name: externalID, Type: notion.TypeRichText},
			{Name: PropLink, Type: notion.TypeURL},
		},
		Category:   category,
		ExternalID: externalID,
	}
}

// Enumerable returns the names of the select properties.
func (t Template) Enumerable() []string {
	var names []string
	for _, f := range t.Fields {
		if f.Type == notion.TypeSelect {
			names = append(names, f.Name)
		}
	}
	return names
}

// Properties renders the template with the given options for each select
// property.
func (t Template) Properties(options map[string][]notion.Option) map[string]notion.Property {
	props := make(map[string]notion.Property, len(t.Fields))
	for _, f := range t.Fields {
		p := notion.Property{Type: f.Type}
		if f.Type == notion.TypeSelect {
			opts := options[f.Name]
			if opts == nil {
				opts = []notion.Option{}
			}
			p.Select = &notion.SelectConfig{Options: opts}
		}
		props[f.Name] = p
	}
	return props
}

// Validate checks that props contains every template property with the
// expected type.
func (t Template) Validate(props map[string]notion.Property) error {
	var problems []string
	for _, f := range t.Fields {
		p, ok := props[f.Name]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%q is missing", f.Name))
		case p.Type != f.Type:
			problems = append(problems, fmt.Sprintf("%q is %s, want %s", f.Name, p.Type, f.Type))
		}
	}
	if len(problems) > 0 {
		return errors.Errorf("database schema mismatch: %s", strings.Join(problems, "; "))
	}
	return nil
}
