package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"recordkit/internal/aggregate"
	"recordkit/internal/extract"
	"recordkit/internal/validate"
)

// Compiled is a Ruleset turned into engine values. Exactly one of Line, Path,
// Row and KV is set, matching Kind.
type Compiled struct {
	Name string
	Kind string

	Line *extract.LineRule
	Path *extract.PathRule
	Row  *extract.RowRule
	KV   *extract.KVRule

	// IDField and Rules are empty when the rule file has no validate block.
	IDField string
	Rules   []validate.Rule

	Steps []Aggregation
}

// Aggregation is a compiled aggregation step. Only the fields relevant to Kind
// are set.
type Aggregation struct {
	Kind  string
	Name  string
	Order string

	Key       aggregate.KeySpec
	Canonical []string
	Limit     int

	Sum   aggregate.SumSpec
	Span  aggregate.SpanSpec
	Field string
	Pick  aggregate.PickPolicy
}

// Compile lints rs and builds the engine rules. Lint errors are returned
// joined; rule construction errors wrap extract.ErrConfig.
func Compile(rs Ruleset) (*Compiled, error) {
	if errs := Errors(Lint(rs)); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, iss := range errs {
			joined[i] = iss
		}
		return nil, fmt.Errorf("rules %q: %w", rs.Name, errors.Join(joined...))
	}

	c := &Compiled{Name: rs.Name, Kind: rs.Extract.Kind}
	if err := c.compileExtract(rs.Extract); err != nil {
		return nil, fmt.Errorf("rules %q: %w", rs.Name, err)
	}
	if rs.Validate != nil {
		c.IDField = rs.Validate.ID
		for i, chk := range rs.Validate.Rules {
			r, err := compileCheck(chk)
			if err != nil {
				return nil, fmt.Errorf("rules %q: validate.rules[%d]: %w", rs.Name, i, err)
			}
			c.Rules = append(c.Rules, r)
		}
	}
	for _, s := range rs.Aggregate {
		a, err := compileStep(s)
		if err != nil {
			return nil, fmt.Errorf("rules %q: aggregate %q: %w", rs.Name, s.Label(), err)
		}
		c.Steps = append(c.Steps, a)
	}
	return c, nil
}

func (c *Compiled) compileExtract(e Extract) error {
	fields := make([]extract.Field, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = extract.Field{
			Name:   f.Name,
			From:   f.From,
			Type:   extract.FieldType(strings.ToLower(f.Type)),
			Layout: f.Layout,
			Truthy: f.Truthy,
			Falsy:  f.Falsy,
		}
	}
	var err error
	switch e.Kind {
	case "line":
		c.Line, err = extract.NewLineRule(extract.LineSpec{
			Name:    e.Name,
			Pattern: e.Pattern,
			Mode:    extract.MatchMode(e.Mode),
			Fields:  fields,
		})
	case "path":
		c.Path, err = extract.NewPathRule(extract.PathSpec{
			Name:   e.Name,
			Path:   e.Path,
			Fields: fields,
			Empty:  extract.EmptyPolicy(e.Empty),
		})
	case "row":
		c.Row, err = extract.NewRowRule(extract.RowSpec{Name: e.Name, Fields: fields, Normalize: e.Normalize})
	case "kv":
		c.KV, err = extract.NewKVRule(extract.KVSpec{Name: e.Name, Separator: e.Separator, Fields: fields})
	default:
		err = &extract.ConfigError{Rule: e.Name, Msg: fmt.Sprintf("unknown extract kind %q", e.Kind)}
	}
	return err
}

func compileCheck(chk Check) (validate.Rule, error) {
	var r validate.Rule
	if strings.EqualFold(chk.Check, "pattern") {
		re, err := regexp.Compile(chk.Pattern)
		if err != nil {
			return validate.Rule{}, err
		}
		r = validate.Pattern(chk.Field, re)
	} else {
		var err error
		if r, err = validate.Builtin(chk.Check, chk.Field); err != nil {
			return validate.Rule{}, err
		}
	}
	if chk.Message != "" {
		check, field, tmpl := r.Check, chk.Field, chk.Message
		r.Check = func(v any) (string, string) {
			reason, _ := check(v)
			if reason == "" {
				return "", ""
			}
			return reason, validate.Render(tmpl, field, v)
		}
	}
	if chk.Label != "" {
		r = r.Labeled(chk.Label)
	}
	return r, nil
}

func compileStep(s Step) (Aggregation, error) {
	a := Aggregation{Kind: s.Kind, Name: s.Label(), Order: s.Options.String("order", "first-seen")}
	switch s.Kind {
	case "count":
		a.Key = aggregate.By(s.Options.StringSlice("key")...)
		a.Canonical = s.Options.StringSlice("canonical")
		a.Limit = s.Options.Int("limit", 0)
	case "sum":
		a.Sum = aggregate.SumSpec{
			Group:  aggregate.By(s.Options.StringSlice("group")...),
			Value:  s.Options.String("value", ""),
			Weight: s.Options.String("weight", ""),
		}
	case "span":
		p, err := aggregate.ParseOrderPolicy(s.Options.String("policy", ""))
		if err != nil {
			return Aggregation{}, err
		}
		a.Span = aggregate.SpanSpec{Field: s.Options.String("field", ""), Policy: p}
	case "stats":
		a.Field = s.Options.String("field", "")
	case "pick":
		p, err := aggregate.ParsePickPolicy(s.Options.String("policy", ""))
		if err != nil {
			return Aggregation{}, err
		}
		a.Key = aggregate.By(s.Options.StringSlice("key")...)
		a.Pick = p
	default:
		return Aggregation{}, fmt.Errorf("unknown aggregate kind %q", s.Kind)
	}
	return a, nil
}
