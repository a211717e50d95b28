package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"recordkit/internal/analysis"
	"recordkit/internal/tree"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 4 << 20

// open returns the named file, or stdin for "-".
func open(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// readLines reads path as lines without their line endings.
func readLines(cmd *cobra.Command, path string) ([]string, error) {
	rc, err := open(cmd, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	lines := []string{}
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// readText reads path whole.
func readText(cmd *cobra.Command, path string) (string, error) {
	rc, err := open(cmd, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

// readTable parses path as CSV. Rows keep their width as read so that the
// extraction rules can skip mismatched rows; an empty file is an empty table.
func readTable(cmd *cobra.Command, path string, delim rune) (analysis.Table, error) {
	rc, err := open(cmd, path)
	if err != nil {
		return analysis.Table{}, err
	}
	defer rc.Close()

	r := csv.NewReader(bufio.NewReader(rc))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var t analysis.Table
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return analysis.Table{}, fmt.Errorf("read %s: %w", path, err)
		}
		if t.Header == nil {
			t.Header = rec
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
}

// readDoc decodes path as YAML when its extension says so, as JSON otherwise.
func readDoc(cmd *cobra.Command, path string) (*tree.Node, error) {
	rc, err := open(cmd, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var n *tree.Node
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		n, err = tree.DecodeYAML(rc)
	default:
		n, err = tree.Decode(rc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return n, nil
}

// readDocs reads key-value documents, one per file. A directory argument
// contributes its *.txt files in name order; "-" is stdin.
func readDocs(cmd *cobra.Command, paths []string) ([][]string, error) {
	var files []string
	for _, p := range paths {
		if p == "-" {
			files = append(files, p)
			continue
		}
		fi, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		if !fi.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.txt"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}

	docs := make([][]string, 0, len(files))
	for _, f := range files {
		lines, err := readLines(cmd, f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, lines)
	}
	return docs, nil
}
