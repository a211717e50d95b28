package ddl

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// goTypes maps schema type names to Go field types. Anything else is any.
var goTypes = map[string]string{
	"int":      "int64",
	"str":      "string",
	"float":    "float64",
	"bool":     "bool",
	"datetime": "time.Time",
}

// GoType returns the Go field type for a schema type name.
func GoType(schemaType string) string {
	if t, ok := goTypes[schemaType]; ok {
		return t
	}
	return "any"
}

var initialisms = map[string]struct{}{
	"ID": {}, "URL": {}, "API": {}, "HTTP": {}, "JSON": {}, "SQL": {}, "UUID": {}, "IP": {},
}

var titler = cases.Title(language.Und, cases.NoLower)

// ExportedName turns a schema name such as "created_at" into an exported Go
// identifier ("CreatedAt"). Common initialisms are upper-cased ("user_id" is
// "UserID").
func ExportedName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		if _, ok := initialisms[strings.ToUpper(p)]; ok {
			b.WriteString(strings.ToUpper(p))
			continue
		}
		b.WriteString(titler.String(p))
	}
	name := b.String()
	if name == "" {
		return "Field"
	}
	if r := []rune(name)[0]; unicode.IsDigit(r) {
		name = "F" + name
	}
	return name
}

// GoStructs renders a gofmt'ed Go file declaring one struct per entity, with
// json tags carrying the schema field names.
func GoStructs(pkg string, entities []Entity) ([]byte, error) {
	if pkg == "" {
		pkg = "models"
	}
	needTime := false
	for _, e := range entities {
		for _, f := range e.Fields {
			if GoType(f.Type) == "time.Time" {
				needTime = true
			}
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	if needTime {
		buf.WriteString("import \"time\"\n\n")
	}
	for _, e := range entities {
		fmt.Fprintf(&buf, "type %s struct {\n", ExportedName(e.Name))
		for _, f := range e.Fields {
			fmt.Fprintf(&buf, "\t%s %s `json:%q`\n", ExportedName(f.Name), GoType(f.Type), f.Name)
		}
		buf.WriteString("}\n\n")
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("ddl: format generated structs: %w", err)
	}
	return src, nil
}
