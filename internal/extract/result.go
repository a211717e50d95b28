// Package extract turns raw input units into flat records. Rules are
// declarative: a pattern or path, a field mapping, and optional coercions.
//
// Four rule kinds share one contract:
//
//   - LineRule: a regular expression applied to each text line
//   - PathRule: a dotted path walked through a parsed JSON/YAML tree
//   - RowRule:  column mapping over parsed CSV rows
//   - KVRule:   "key: value" documents folded into one record each
//
// Every rule exposes Records, a lazy iter.Seq2 that yields either a record or
// a *Skip, and Extract, which materializes both into a Result. Units that do
// not match are dropped silently. Units whose values fail coercion are dropped
// and reported as Skips. Only rule construction returns errors.
package extract

import (
	"iter"

	"recordkit/pkg/records"
)

// Result is a fully materialized extraction.
type Result struct {
	Records []records.Record
	Skips   []Skip
}

// Collect drains a record/skip sequence into a Result.
func Collect(seq iter.Seq2[records.Record, *Skip]) Result {
	var res Result
	for rec, skip := range seq {
		if skip != nil {
			res.Skips = append(res.Skips, *skip)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// One adapts a single value into a one-element sequence.
func One[T any](v T) iter.Seq[T] {
	return func(yield func(T) bool) { yield(v) }
}
