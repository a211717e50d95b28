package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"recordkit/internal/aggregate"
	"recordkit/internal/extract"
	"recordkit/pkg/records"
)

var peopleRule = extract.MustKVRule(extract.KVSpec{
	Name:   "people",
	Fields: []extract.Field{{Name: "age", Type: extract.TypeInt}},
})

// KVReport holds one record per key-value document.
type KVReport struct {
	Records []records.Record `json:"records"`
	Skipped []extract.Skip   `json:"skipped,omitempty"`
}

func (r KVReport) Lines() []string {
	recs := r.Records
	if recs == nil {
		recs = []records.Record{}
	}
	out, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return []string{err.Error()}
	}
	return strings.Split(string(out), "\n")
}

// KVRecords turns each "key: value" document into a record, with age as an
// integer. Documents whose age is not an integer are skipped.
func (r *Runner) KVRecords(docs [][]string) KVReport {
	res := r.kv(peopleRule, docs)
	return KVReport{Records: res.Records, Skipped: res.Skips}
}

// PeopleReport lists people older than a threshold.
type PeopleReport struct {
	MinAge int64            `json:"min_age"`
	People []records.Record `json:"people"`
}

func (r PeopleReport) Lines() []string {
	out := []string{fmt.Sprintf("People over %d:", r.MinAge)}
	for _, p := range r.People {
		out = append(out, fmt.Sprintf("  %s (%s) - %s in %s",
			p.String("name"), p.String("age"), p.String("occupation"), p.String("city")))
	}
	return append(out, "", fmt.Sprintf("Total: %d", len(r.People)))
}

// PeopleOver keeps the key-value documents whose age is greater than minAge.
// Documents without an age never match.
func (r *Runner) PeopleOver(docs [][]string, minAge int64) PeopleReport {
	res := r.kv(peopleRule, docs)
	rep := PeopleReport{MinAge: minAge}
	_ = r.step("filter", func() error {
		rep.People = aggregate.Where(res.Records, func(rec records.Record) bool {
			age, ok := rec.Value("age").(int64)
			return ok && age > minAge
		})
		return nil
	})
	return rep
}
