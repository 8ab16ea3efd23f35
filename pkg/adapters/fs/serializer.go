package fs

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/glossa/pkg/core"
)

// Serializer defines how to read and write a dictionary in a specific file format.
type Serializer interface {
	// Parse reads a dictionary from r. Empty input is an empty dictionary.
	Parse(r io.Reader) (core.Dictionary, error)
	// Serialize converts the dictionary to bytes.
	Serialize(d core.Dictionary) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers keyed by extension.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": JSONSerializer{},
		".yaml": YAMLSerializer{},
		".yml":  YAMLSerializer{},
		".csv":  CSVSerializer{},
	}
}

// SerializerFor returns the serializer registered for ext.
func SerializerFor(ext string) (Serializer, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	s, ok := DefaultSerializers()[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q", ext)
	}
	return s, nil
}

// --- JSON Serializer ---

// JSONSerializer reads and writes the stored wire shape: a JSON array of terms.
type JSONSerializer struct{}

func (JSONSerializer) Parse(r io.Reader) (core.Dictionary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return core.Dictionary{}, nil
	}

	var d core.Dictionary
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return d.Clone(), nil
}

func (JSONSerializer) Serialize(d core.Dictionary) ([]byte, error) {
	return json.MarshalIndent(d.Clone(), "", "  ")
}

// --- YAML Serializer ---

// YAMLSerializer keeps the JSON field names so files convert losslessly.
type YAMLSerializer struct{}

type yamlTerm struct {
	ID        int64     `yaml:"id"`
	Term      string    `yaml:"term"`
	Comment   string    `yaml:"comment"`
	DateAdded time.Time `yaml:"dateAdded"`
}

func (YAMLSerializer) Parse(r io.Reader) (core.Dictionary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rows []yamlTerm
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	d := make(core.Dictionary, 0, len(rows))
	for _, row := range rows {
		d = append(d, core.Term{ID: row.ID, Term: row.Term, Comment: row.Comment, DateAdded: row.DateAdded})
	}
	return d, nil
}

func (YAMLSerializer) Serialize(d core.Dictionary) ([]byte, error) {
	rows := make([]yamlTerm, 0, len(d))
	for _, t := range d {
		rows = append(rows, yamlTerm{ID: t.ID, Term: t.Term, Comment: t.Comment, DateAdded: t.DateAdded})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- CSV Serializer ---

// CSVSerializer maps one term per row. The header row is required on read;
// only the term column is mandatory.
type CSVSerializer struct{}

var csvHeader = []string{"id", "term", "comment", "dateAdded"}

func (CSVSerializer) Parse(r io.Reader) (core.Dictionary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return core.Dictionary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	termCol, ok := cols["term"]
	if !ok {
		return nil, fmt.Errorf("csv header has no %q column", "term")
	}

	field := func(record []string, name string) string {
		i, ok := cols[strings.ToLower(name)]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	d := core.Dictionary{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if termCol >= len(record) {
			continue
		}

		t := core.Term{Term: record[termCol], Comment: field(record, "comment")}
		if raw := strings.TrimSpace(field(record, "id")); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid id %q: %w", line, raw, err)
			}
			t.ID = id
		}
		if raw := strings.TrimSpace(field(record, "dateAdded")); raw != "" {
			ts, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid date %q: %w", line, raw, err)
			}
			t.DateAdded = ts
		}
		d = append(d, t)
	}
	return d, nil
}

func (CSVSerializer) Serialize(d core.Dictionary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range d {
		date := ""
		if !t.DateAdded.IsZero() {
			date = t.DateAdded.Format(time.RFC3339Nano)
		}
		if err := w.Write([]string{strconv.FormatInt(t.ID, 10), t.Term, t.Comment, date}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
