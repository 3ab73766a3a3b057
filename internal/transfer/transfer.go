// Package transfer reads and writes the shopping list export files.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"shoplist/internal/core"
	"shoplist/internal/store"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// MaxImportBytes caps how much of an import file is read.
const MaxImportBytes = 10 << 20

// CSVHeader is the first line of every CSV export.
const CSVHeader = "Name,Price,Category,Purchased,Created At"

// ErrInvalidImport marks files that are not a usable export document.
var ErrInvalidImport = errors.New("invalid import file")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q: must be json or csv", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// Filename returns shopping-list-<YYYY-MM-DD>.<ext> for the given date.
func Filename(f Format, date time.Time) string {
	return "shopping-list-" + date.Format("2006-01-02") + "." + string(f)
}

// Write encodes the payload in the given format.
func Write(w io.Writer, f Format, p store.ExportPayload) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, p)
	case FormatCSV:
		return WriteCSV(w, p.Items)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

type jsonExport struct {
	Items      []core.Item `json:"items"`
	Categories []string    `json:"categories"`
	ExportDate string      `json:"exportDate"`
}

// WriteJSON writes the indented export document.
func WriteJSON(w io.Writer, p store.ExportPayload) error {
	doc := jsonExport{
		Items:      p.Items,
		Categories: p.Categories,
		ExportDate: core.FormatTimestamp(p.ExportDate),
	}
	if doc.Items == nil {
		doc.Items = []core.Item{}
	}
	if doc.Categories == nil {
		doc.Categories = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}

// WriteCSV writes one row per item in storage order. Text fields are
// always quoted.
func WriteCSV(w io.Writer, items []core.Item) error {
	var b strings.Builder
	b.WriteString(CSVHeader)
	for _, it := range items {
		b.WriteByte('\n')
		b.WriteString(quote(it.Name))
		b.WriteByte(',')
		b.WriteString(it.Price.String())
		b.WriteByte(',')
		b.WriteString(quote(it.Category))
		b.WriteByte(',')
		b.WriteString(strconv.FormatBool(it.Purchased))
		b.WriteByte(',')
		b.WriteString(quote(core.FormatTimestamp(it.CreatedAt)))
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write csv export: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// DecodeImport parses an export document. Malformed JSON and documents
// without an items array wrap ErrInvalidImport.
func DecodeImport(r io.Reader) (store.ImportPayload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportBytes+1))
	if err != nil {
		return store.ImportPayload{}, fmt.Errorf("read import: %w", err)
	}
	if len(data) > MaxImportBytes {
		return store.ImportPayload{}, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImport, MaxImportBytes)
	}

	var p store.ImportPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return store.ImportPayload{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if p.Items == nil {
		return store.ImportPayload{}, fmt.Errorf("%w: missing items array", ErrInvalidImport)
	}
	return p, nil
}
