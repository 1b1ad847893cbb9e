package bank

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pavelanni/examsim/internal/model"
	"github.com/pavelanni/examsim/internal/store"
)

// Format is the on-disk encoding of a bank file.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// FormatFor picks a format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Decode reads the raw records of a JSON or YAML bank.
func Decode(r io.Reader, format Format) ([]any, error) {
	var v any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode json bank: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&v); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml bank: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	records, ok := v.([]any)
	if !ok {
		return nil, ErrNotAList
	}
	return records, nil
}

// Load decodes and validates a JSON or YAML bank.
func Load(r io.Reader, format Format) ([]model.Question, error) {
	records, err := Decode(r, format)
	if err != nil {
		return nil, err
	}
	return Parse(records)
}

// LoadFile loads and validates a bank file in any supported format.
func LoadFile(path string) ([]model.Question, error) {
	records, err := ReadRecords(path)
	if err != nil {
		return nil, err
	}
	questions, err := Parse(records)
	if err != nil {
		return nil, err
	}
	slog.Debug("bank loaded", "path", path, "questions", len(questions))
	return questions, nil
}

// ReadRecords returns the decoded but unvalidated records of a bank file.
func ReadRecords(path string) ([]any, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	if format == FormatSQLite {
		return readSQLite(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bank: %w", err)
	}
	defer f.Close()
	return Decode(f, format)
}

func readSQLite(path string) ([]any, error) {
	// Opening a missing file would create an empty database.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open bank: %w", err)
	}
	s, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open bank: %w", err)
	}
	defer s.Close()

	raw, err := s.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("read bank records: %w", err)
	}
	records := make([]any, 0, len(raw))
	for i, r := range raw {
		dec := json.NewDecoder(strings.NewReader(string(r)))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode bank record %d: %w", i, err)
		}
		records = append(records, v)
	}
	return records, nil
}

// PackResult summarises one Pack call.
type PackResult struct {
	Questions int
	Skipped   bool // source unchanged since the last pack
}

// Pack validates the JSON or YAML bank at src and writes its records to the
// SQLite bank file dst, replacing the bank it held. Packing is skipped when
// dst already holds the same source path with the same content hash.
func Pack(src, dst string) (PackResult, error) {
	format, err := FormatFor(src)
	if err != nil {
		return PackResult{}, err
	}
	if format == FormatSQLite {
		return PackResult{}, fmt.Errorf("%w: source is already a bank file: %s", ErrUnknownFormat, src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return PackResult{}, fmt.Errorf("read bank: %w", err)
	}
	records, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return PackResult{}, err
	}
	if _, err := Parse(records); err != nil {
		return PackResult{}, err
	}

	s, err := store.New(dst)
	if err != nil {
		return PackResult{}, fmt.Errorf("open bank file: %w", err)
	}
	defer s.Close()

	key, err := filepath.Abs(src)
	if err != nil {
		key = src
	}
	hash := sha256sum(data)
	prev, err := s.GetBankInfo()
	if err != nil {
		return PackResult{}, fmt.Errorf("read bank info: %w", err)
	}
	if prev.SourcePath == key && prev.SourceHash == hash {
		slog.Info("bank unchanged, skipping", "path", src)
		return PackResult{Questions: len(records), Skipped: true}, nil
	}

	raw := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return PackResult{}, fmt.Errorf("encode record: %w", err)
		}
		raw = append(raw, b)
	}
	if err := s.ReplaceRecords(raw); err != nil {
		return PackResult{}, fmt.Errorf("write records: %w", err)
	}
	info := store.BankInfo{
		Source:     filepath.Base(src),
		SourcePath: key,
		SourceHash: hash,
		Questions:  len(raw),
		PackedAt:   nowUTC(),
	}
	if err := s.SetBankInfo(info); err != nil {
		return PackResult{}, fmt.Errorf("write bank info: %w", err)
	}
	slog.Info("bank packed", "path", src, "dest", dst, "questions", len(raw))
	return PackResult{Questions: len(raw)}, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
