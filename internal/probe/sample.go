package probe

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"unicode/utf8"

	"recordkit/internal/extract"
)

// DefaultMaxRows bounds the number of data rows a sample keeps.
const DefaultMaxRows = 10000

// Sample is a CSV header plus the aligned data rows read after it.
type Sample struct {
	Header []string
	Rows   [][]string
	// Dropped counts malformed, empty and misaligned rows that were left out.
	Dropped int
}

// ReadSample reads a best-effort CSV sample from r. The first parseable line
// is the header (BOM stripped from its first column). Rows whose width differs
// from the header are dropped so they cannot skew inference. maxRows <= 0
// selects DefaultMaxRows.
func ReadSample(r io.Reader, delim rune, maxRows int) (Sample, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // width is enforced below

	var s Sample
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return s, err
		}
		if len(rec) == 0 {
			continue
		}
		s.Header = make([]string, len(rec))
		for i, h := range rec {
			s.Header[i] = extract.NormalizeHeader(h, i == 0)
		}
		break
	}

	want := len(s.Header)
	for len(s.Rows) < maxRows {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				s.Dropped++
				continue
			}
			return s, err
		}
		if len(rec) != want {
			s.Dropped++
			continue
		}
		s.Rows = append(s.Rows, rec)
	}
	return s, nil
}

// SampleRows builds a sample from rows that are already parsed, applying the
// same header normalization and width filter as ReadSample.
func SampleRows(header []string, rows [][]string, maxRows int) Sample {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	s := Sample{Header: make([]string, len(header))}
	for i, h := range header {
		s.Header[i] = extract.NormalizeHeader(h, i == 0)
	}
	for _, rec := range rows {
		if len(s.Rows) == maxRows {
			break
		}
		if len(rec) != len(header) {
			s.Dropped++
			continue
		}
		s.Rows = append(s.Rows, rec)
	}
	return s
}

// ReadSampleBytes is ReadSample over an in-memory buffer. A trailing partial
// line (no final newline) is cut off first, as happens with byte-limited
// reads.
func ReadSampleBytes(data []byte, delim rune, maxRows int) (Sample, error) {
	if i := bytes.LastIndexByte(data, '\n'); i > 0 && i < len(data)-1 {
		data = data[:i+1]
	}
	return ReadSample(bytes.NewReader(data), delim, maxRows)
}

// DecodeDelimiter converts a user-supplied string into a single rune delimiter.
func DecodeDelimiter(s string) rune {
	if s == "" {
		return ','
	}
	if s == `\t` {
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return ','
	}
	return r
}
