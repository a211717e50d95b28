package ddl

import (
	"fmt"
	"slices"
	"strings"

	"recordkit/internal/tree"
)

// ColumnDef describes a single column in a table definition. It intentionally
// uses simple, database-agnostic fields.
//
// Fields:
//   - Name: logical column name (unquoted)
//   - SQLType: target SQL type (e.g., INTEGER, VARCHAR(255), TIMESTAMP)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'anon', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name and an ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Entity is one named type of a schema document, with its fields in
// declaration order.
type Entity struct {
	Name   string
	Fields []FieldDef
}

// FieldDef is a field of a schema entity. Type is the schema type name (int,
// str, float, bool, datetime); unknown names are kept and mapped to a
// fallback at render time. NotNull, Default and PrimaryKey only affect SQL
// output.
type FieldDef struct {
	Name       string
	Type       string
	NotNull    bool
	Default    string
	PrimaryKey bool
}

// ParseSchema reads a schema document of the form
//
//	{"User": {"fields": {"id": "int", "email": "str"}}, ...}
//
// A field may also be a mapping with the type and column options:
//
//	"created_at": {"type": "datetime", "nullable": false, "default": "CURRENT_TIMESTAMP"}
//	"tenant_id":  {"type": "int", "primary_key": true}
//
// Entities and fields keep document order.
func ParseSchema(doc *tree.Node) ([]Entity, error) {
	if !doc.IsMapping() {
		return nil, fmt.Errorf("ddl: schema must be a mapping of entity names, got %s", doc.Kind())
	}
	out := make([]Entity, 0, doc.Len())
	for _, name := range doc.Keys() {
		cfg, _ := doc.Get(name)
		fields, ok := cfg.Get("fields")
		if !ok || !fields.IsMapping() {
			return nil, fmt.Errorf("ddl: entity %q: missing fields mapping", name)
		}
		e := Entity{Name: name, Fields: make([]FieldDef, 0, fields.Len())}
		for _, fname := range fields.Keys() {
			ft, _ := fields.Get(fname)
			f, err := parseField(fname, ft)
			if err != nil {
				return nil, fmt.Errorf("ddl: entity %q field %q: %w", name, fname, err)
			}
			e.Fields = append(e.Fields, f)
		}
		out = append(out, e)
	}
	return out, nil
}

func parseField(name string, n *tree.Node) (FieldDef, error) {
	f := FieldDef{Name: name}
	if !n.IsMapping() {
		typ, ok := n.Value().(string)
		if !ok {
			return f, fmt.Errorf("type must be a string")
		}
		f.Type = strings.TrimSpace(typ)
		return f, nil
	}

	typ, _ := n.Get("type")
	s, ok := typ.Value().(string)
	if !ok {
		return f, fmt.Errorf("type must be a string")
	}
	f.Type = strings.TrimSpace(s)
	if v, ok := n.Get("nullable"); ok {
		b, ok := v.Value().(bool)
		if !ok {
			return f, fmt.Errorf("nullable must be a boolean")
		}
		f.NotNull = !b
	}
	if v, ok := n.Get("default"); ok {
		d, ok := v.Value().(string)
		if !ok {
			return f, fmt.Errorf("default must be a string SQL expression")
		}
		f.Default = d
	}
	if v, ok := n.Get("primary_key"); ok {
		b, ok := v.Value().(bool)
		if !ok {
			return f, fmt.Errorf("primary_key must be a boolean")
		}
		f.PrimaryKey = b
	}
	return f, nil
}

// sqlTypes maps schema type names to SQL column types. Anything else is TEXT.
var sqlTypes = map[string]string{
	"int":      "INTEGER",
	"str":      "VARCHAR(255)",
	"float":    "DECIMAL(10,2)",
	"bool":     "BOOLEAN",
	"datetime": "TIMESTAMP",
}

// SQLType returns the column type for a schema type name.
func SQLType(schemaType string) string {
	if t, ok := sqlTypes[schemaType]; ok {
		return t
	}
	return "TEXT"
}

// TableFor derives a table definition from an entity: the table name is the
// lowercased entity name plus "s" and columns are nullable unless the field
// says otherwise. The primary key is the fields marked primary_key, or the
// field named "id" when none is marked.
func TableFor(e Entity) TableDef {
	marked := slices.ContainsFunc(e.Fields, func(f FieldDef) bool { return f.PrimaryKey })
	t := TableDef{FQN: strings.ToLower(e.Name) + "s", Columns: make([]ColumnDef, len(e.Fields))}
	for i, f := range e.Fields {
		t.Columns[i] = ColumnDef{
			Name:       f.Name,
			SQLType:    SQLType(f.Type),
			Nullable:   !f.NotNull,
			PrimaryKey: f.PrimaryKey || (!marked && f.Name == "id"),
			Default:    f.Default,
		}
	}
	return t
}
