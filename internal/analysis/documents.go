package analysis

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"recordkit/internal/aggregate"
	"recordkit/internal/ddl"
	"recordkit/internal/extract"
	"recordkit/internal/merge"
	"recordkit/internal/metrics"
	"recordkit/internal/tree"
	"recordkit/pkg/records"
)

// postsSpec flattens data.users[].posts[] into user × post rows.
var postsSpec = merge.FlattenSpec{
	Name:     "posts",
	Parents:  "data.users[]",
	Children: "posts",
	ParentFields: []extract.Field{
		{Name: "user_id", From: "id"},
		{Name: "user_name", From: "name"},
	},
	ChildFields: []extract.Field{
		{Name: "post_id", From: "id"},
		{Name: "post_title", From: "title"},
	},
}

// MergeReport holds a merged document.
type MergeReport struct {
	Merged *tree.Node `json:"merged"`
	text   []byte
}

func (r MergeReport) Lines() []string {
	return append([]string{"Merged production config:"}, strings.Split(string(r.text), "\n")...)
}

// MergeConfig deep-merges override onto base: nested mappings merge key by
// key, anything else in override replaces the base value.
func (r *Runner) MergeConfig(base, override *tree.Node) (MergeReport, error) {
	var rep MergeReport
	err := r.step("merge", func() error {
		rep.Merged = merge.Merge(base, override)
		var err error
		rep.text, err = tree.Indent(rep.Merged)
		return err
	})
	return rep, err
}

// FlattenReport holds user × post rows.
type FlattenReport struct {
	Rows []records.Record `json:"rows"`
}

func (r FlattenReport) Lines() []string {
	out := []string{fmt.Sprintf("Flattened %d records:", len(r.Rows))}
	for _, row := range r.Rows {
		info := "No posts"
		if id := row.Value("post_id"); id != nil {
			info = fmt.Sprintf("Post #%s: %s", records.AsString(id), records.AsString(row.Value("post_title")))
		}
		out = append(out, fmt.Sprintf("  User %s: %s", row.String("user_name"), info))
	}
	return out
}

// FlattenPosts emits one row per post carrying its user, and one row with
// null post fields for every user without posts.
func (r *Runner) FlattenPosts(doc *tree.Node) (FlattenReport, error) {
	var res extract.Result
	err := r.step("flatten", func() error {
		var err error
		res, err = merge.Flatten(doc, postsSpec)
		return err
	})
	if err != nil {
		return FlattenReport{}, err
	}
	r.observe(postsSpec.Name, res)
	return FlattenReport{Rows: res.Records}, nil
}

// APIStatsReport summarizes a paginated users response.
type APIStatsReport struct {
	Status         string          `json:"status"`
	Users          int             `json:"users"`
	UsersWithPosts int             `json:"users_with_posts"`
	TotalPosts     int             `json:"total_posts"`
	AvgPosts       float64         `json:"avg_posts"`
	Page           string          `json:"page"`
	TotalPages     string          `json:"total_pages"`
	TotalItems     string          `json:"total_items"`
}

func (r APIStatsReport) Lines() []string {
	return []string{
		"API Response Statistics:",
		"  Status: " + r.Status,
		fmt.Sprintf("  Users in response: %d", r.Users),
		fmt.Sprintf("  Users with posts: %d", r.UsersWithPosts),
		fmt.Sprintf("  Total posts: %d", r.TotalPosts),
		fmt.Sprintf("  Average posts per user: %.1f", r.AvgPosts),
		fmt.Sprintf("  Page: %s of %s", r.Page, r.TotalPages),
		"  Total items: " + r.TotalItems,
	}
}

// APIStats counts users and posts in a response and copies its status and
// pagination fields. Every element of data.users counts as a user, and every
// element of its posts sequence as a post, whatever their ids.
func (r *Runner) APIStats(doc *tree.Node) (APIStatsReport, error) {
	var users []records.Record
	_ = r.step("extract", func() error {
		users = userPosts(doc)
		return nil
	})
	r.rec.RecordRows(metrics.KindExtracted, len(users))

	rep := APIStatsReport{
		Status:     scalar(doc, "status"),
		Users:      len(users),
		Page:       scalar(doc, "data.pagination.page"),
		TotalPages: scalar(doc, "data.pagination.total_pages"),
		TotalItems: scalar(doc, "data.pagination.total_items"),
	}
	_ = r.step("aggregate", func() error {
		rep.TotalPosts = int(aggregate.Stats(users, "posts").Sum.IntPart())
		rep.UsersWithPosts = aggregate.Having(users, func(rec records.Record) bool {
			n, _ := rec.Value("posts").(int64)
			return n > 0
		})
		if rep.Users > 0 {
			rep.AvgPosts = float64(rep.TotalPosts) / float64(rep.Users)
		}
		return nil
	})
	return rep, nil
}

// userPosts returns one record per data.users element with the length of its
// posts sequence. A missing or non-sequence posts value counts as none.
func userPosts(doc *tree.Node) []records.Record {
	list, ok := tree.Lookup(doc, "data.users")
	if !ok || !list.IsSequence() {
		return nil
	}
	out := make([]records.Record, 0, list.Len())
	for i, u := range list.Items() {
		posts, _ := u.Get("posts")
		n := 0
		if posts.IsSequence() {
			n = posts.Len()
		}
		out = append(out, records.New(records.F("user", int64(i)), records.F("posts", int64(n))))
	}
	return out
}

// scalar renders the scalar at path, or "" when it is missing or not a scalar.
func scalar(doc *tree.Node, path string) string {
	n, ok := tree.Lookup(doc, path)
	if !ok || n.IsMapping() || n.IsSequence() {
		return ""
	}
	return records.AsString(tree.Normalize(n.Value()))
}

var roleRule = extract.MustPathRule(extract.PathSpec{
	Name: "roles",
	Path: "[]",
	Fields: []extract.Field{
		{Name: "name", From: "[].name", Type: extract.TypeString},
		{Name: "role", From: "[].role", Type: extract.TypeString},
	},
	Empty: extract.EmptySkip,
})

// RoleReport lists the users of a JSON array that have a given role.
type RoleReport struct {
	Role    string           `json:"role"`
	Total   int              `json:"total"`
	Matches []records.Record `json:"matches"`
}

func (r RoleReport) Lines() []string {
	title := cases.Title(language.Und).String(r.Role)
	names := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		names[i] = m.String("name")
	}
	return []string{
		fmt.Sprintf("Total users: %d", r.Total),
		fmt.Sprintf("%s users: %d", title, len(r.Matches)),
		fmt.Sprintf("%s names: %s", title, strings.Join(names, ", ")),
	}
}

// FilterRole selects the users whose role equals role exactly.
func (r *Runner) FilterRole(doc *tree.Node, role string) RoleReport {
	res := r.doc(roleRule, doc)
	rep := RoleReport{Role: role, Total: len(res.Records)}
	_ = r.step("filter", func() error {
		rep.Matches = aggregate.Where(res.Records, func(rec records.Record) bool {
			return rec.String("role") == role
		})
		return nil
	})
	return rep
}

// Codegen targets.
const (
	TargetSQL = "sql"
	TargetGo  = "go"
)

// CodegenReport holds generated source text.
type CodegenReport struct {
	Target string `json:"target"`
	Source string `json:"source"`
}

func (r CodegenReport) Lines() []string {
	return strings.Split(strings.TrimSuffix(r.Source, "\n"), "\n")
}

// Codegen renders a schema document as CREATE TABLE statements (TargetSQL) or
// as Go struct declarations in package pkg (TargetGo).
func (r *Runner) Codegen(doc *tree.Node, target, pkg string) (CodegenReport, error) {
	rep := CodegenReport{Target: target}
	err := r.step("codegen", func() error {
		entities, err := ddl.ParseSchema(doc)
		if err != nil {
			return err
		}
		switch target {
		case TargetSQL:
			rep.Source, err = ddl.CreateTables(entities)
		case TargetGo:
			var src []byte
			src, err = ddl.GoStructs(pkg, entities)
			rep.Source = string(src)
		default:
			err = fmt.Errorf("unknown codegen target %q (sql, go)", target)
		}
		return err
	})
	return rep, err
}
