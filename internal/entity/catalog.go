// Package entity describes the administrative resources managed through the
// console. The same definitions drive the backend's SQL and the console's
// record normalization, so server column names and local field names are
// declared side by side.
package entity

import "strings"

type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// Field maps one local record field onto its server column.
type Field struct {
	Name       string
	Column     string
	Label      string
	Kind       Kind
	Key        bool
	Required   bool
	Searchable bool
	Sortable   bool
	MaxLen     int
}

type Definition struct {
	Name     string
	Title    string
	Singular string
	Table    string
	PageSize int
	Fields   []Field
}

// Endpoint is the collection path relative to the API base.
func (d Definition) Endpoint() string {
	return "/" + d.Name
}

func (d Definition) KeyField() Field {
	for _, f := range d.Fields {
		if f.Key {
			return f
		}
	}
	return Field{}
}

func (d Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (d Definition) FieldByColumn(column string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}

// DisplayField is the field used to name a record in confirmations.
func (d Definition) DisplayField() Field {
	for _, f := range d.Fields {
		if !f.Key && f.Required && f.Kind == KindText {
			return f
		}
	}
	return d.KeyField()
}

// SearchFields returns the local names matched by the free-text filter. When
// no field is marked searchable every field is searched.
func (d Definition) SearchFields() []string {
	names := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.Searchable {
			names = append(names, f.Name)
		}
	}
	if len(names) > 0 {
		return names
	}

	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Editable returns the fields a create/update form submits.
func (d Definition) Editable() []Field {
	out := make([]Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		if !f.Key {
			out = append(out, f)
		}
	}
	return out
}

var catalog = []Definition{
	{
		Name:     "companies",
		Title:    "Companies",
		Singular: "Company",
		Table:    "companies",
		PageSize: 10,
		Fields: []Field{
			{Name: "id", Column: "company_id", Label: "ID", Kind: KindInteger, Key: true, Sortable: true},
			{Name: "name", Column: "company_name", Label: "Name", Kind: KindText, Required: true, Searchable: true, Sortable: true, MaxLen: 150},
			{Name: "tax_id", Column: "tax_id", Label: "Tax ID", Kind: KindText, Searchable: true, Sortable: true, MaxLen: 30},
			{Name: "active", Column: "is_active", Label: "Active", Kind: KindBool, Sortable: true},
		},
	},
	{
		Name:     "node-types",
		Title:    "Node types",
		Singular: "Node type",
		Table:    "node_types",
		PageSize: 10,
		Fields: []Field{
			{Name: "id", Column: "node_type_id", Label: "ID", Kind: KindInteger, Key: true, Sortable: true},
			{Name: "name", Column: "node_type_name", Label: "Name", Kind: KindText, Required: true, Searchable: true, Sortable: true, MaxLen: 100},
			{Name: "description", Column: "description", Label: "Description", Kind: KindText, Searchable: true, MaxLen: 500},
		},
	},
	{
		Name:     "operational-states",
		Title:    "Operational states",
		Singular: "Operational state",
		Table:    "operational_states",
		PageSize: 15,
		Fields: []Field{
			{Name: "id", Column: "state_id", Label: "ID", Kind: KindInteger, Key: true, Sortable: true},
			{Name: "name", Column: "state_name", Label: "Name", Kind: KindText, Required: true, Searchable: true, Sortable: true, MaxLen: 100},
			{Name: "description", Column: "description", Label: "Description", Kind: KindText, Searchable: true, MaxLen: 500},
		},
	},
	{
		Name:     "failure-modes",
		Title:    "Failure modes",
		Singular: "Failure mode",
		Table:    "failure_modes",
		PageSize: 10,
		Fields: []Field{
			{Name: "id", Column: "failure_mode_id", Label: "ID", Kind: KindInteger, Key: true, Sortable: true},
			{Name: "name", Column: "failure_mode_name", Label: "Name", Kind: KindText, Required: true, Searchable: true, Sortable: true, MaxLen: 150},
			{Name: "severity", Column: "severity", Label: "Severity", Kind: KindInteger, Sortable: true},
			{Name: "description", Column: "description", Label: "Description", Kind: KindText, Searchable: true, MaxLen: 500},
		},
	},
	{
		Name:     "lists",
		Title:    "Lists",
		Singular: "List entry",
		Table:    "lists",
		PageSize: 15,
		Fields: []Field{
			{Name: "id", Column: "list_id", Label: "ID", Kind: KindInteger, Key: true, Sortable: true},
			{Name: "name", Column: "list_name", Label: "List", Kind: KindText, Required: true, Searchable: true, Sortable: true, MaxLen: 100},
			{Name: "value", Column: "item_value", Label: "Value", Kind: KindText, Required: true, Searchable: true, Sortable: true, MaxLen: 200},
			{Name: "position", Column: "sort_order", Label: "Order", Kind: KindInteger, Sortable: true},
		},
	},
	{
		Name:     "node-details",
		Title:    "Node details",
		Singular: "Node detail",
		Table:    "node_details",
		PageSize: 10,
		Fields: []Field{
			{Name: "id", Column: "node_detail_id", Label: "ID", Kind: KindInteger, Key: true, Sortable: true},
			{Name: "name", Column: "detail_name", Label: "Detail", Kind: KindText, Required: true, Searchable: true, Sortable: true, MaxLen: 150},
			{Name: "node_type_id", Column: "node_type_id", Label: "Node type", Kind: KindInteger, Required: true, Sortable: true},
			{Name: "value", Column: "detail_value", Label: "Value", Kind: KindText, Searchable: true, Sortable: true, MaxLen: 500},
		},
	},
}

func All() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(name string) (Definition, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}
