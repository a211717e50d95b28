package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordkit/internal/tree"
)

const schemaJSON = `{
  "User": {"fields": {"id": "int", "email": "str", "created_at": "datetime", "active": "bool"}},
  "Order": {"fields": {"id": "int", "user_id": "int", "total": "float", "meta": "json"}}
}`

func parseSchema(t *testing.T) []Entity {
	t.Helper()
	doc, err := tree.Parse([]byte(schemaJSON))
	require.NoError(t, err)
	entities, err := ParseSchema(doc)
	require.NoError(t, err)
	return entities
}

// TestParseSchema verifies that entities and fields keep document order.
func TestParseSchema(t *testing.T) {
	t.Parallel()

	entities := parseSchema(t)
	require.Len(t, entities, 2)
	assert.Equal(t, "User", entities[0].Name)
	assert.Equal(t, []FieldDef{
		{Name: "id", Type: "int"},
		{Name: "email", Type: "str"},
		{Name: "created_at", Type: "datetime"},
		{Name: "active", Type: "bool"},
	}, entities[0].Fields)

	for _, bad := range []string{
		`[1]`,
		`{"User": {}}`,
		`{"User": {"fields": {"id": 1}}}`,
		`{"User": {"fields": {"id": {"nullable": false}}}}`,
		`{"User": {"fields": {"id": {"type": "int", "nullable": "no"}}}}`,
		`{"User": {"fields": {"id": {"type": "int", "default": 0}}}}`,
	} {
		doc, err := tree.Parse([]byte(bad))
		require.NoError(t, err)
		_, err = ParseSchema(doc)
		assert.Error(t, err, bad)
	}
}

/*
TestCreateTables verifies pluralized table names, the type mapping with its
TEXT fallback, and the inline id primary key.
*/
func TestCreateTables(t *testing.T) {
	t.Parallel()

	got, err := CreateTables(parseSchema(t))
	require.NoError(t, err)

	want := "CREATE TABLE users (\n" +
		"    id INTEGER PRIMARY KEY,\n" +
		"    email VARCHAR(255),\n" +
		"    created_at TIMESTAMP,\n" +
		"    active BOOLEAN\n" +
		");\n\n" +
		"CREATE TABLE orders (\n" +
		"    id INTEGER PRIMARY KEY,\n" +
		"    user_id INTEGER,\n" +
		"    total DECIMAL(10,2),\n" +
		"    meta TEXT\n" +
		");\n\n"
	assert.Equal(t, want, got)

	_, err = CreateTables([]Entity{{Name: "Empty"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity Empty")
}

func TestExportedName(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"id":          "ID",
		"user_id":     "UserID",
		"created_at":  "CreatedAt",
		"UserProfile": "UserProfile",
		"avatar-url":  "AvatarURL",
		"9":           "F9",
		"__":          "Field",
	} {
		assert.Equal(t, want, ExportedName(in), in)
	}
}

// TestGoStructs verifies the generated file declares the structs with tags
// and imports time only when a datetime field exists.
func TestGoStructs(t *testing.T) {
	t.Parallel()

	src, err := GoStructs("", parseSchema(t))
	require.NoError(t, err)
	out := string(src)

	assert.True(t, strings.HasPrefix(out, "package models\n\nimport \"time\"\n"), out)
	assert.Contains(t, out, "type User struct {")
	assert.Contains(t, out, "CreatedAt time.Time `json:\"created_at\"`")
	assert.Contains(t, out, "Meta   any     `json:\"meta\"`")
	assert.Contains(t, out, "UserID int64   `json:\"user_id\"`")

	src, err = GoStructs("dto", []Entity{{Name: "tag", Fields: []FieldDef{{Name: "name", Type: "str"}}}})
	require.NoError(t, err)
	assert.NotContains(t, string(src), "import")
	assert.Contains(t, string(src), "type Tag struct {")
}
