package payload

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/factlock/internal/model"
	"gopkg.in/yaml.v3"
)

// Case is one complete verification request
type Case struct {
	ID          string             `json:"id,omitempty"`
	Subject     string             `json:"subject,omitempty"`
	TargetPrice float64            `json:"targetPrice"`
	Drafts      model.DraftPair    `json:"drafts"`
	Comps       []model.Comparable `json:"comps"`
}

type rawCase struct {
	ID          string          `json:"id"`
	Subject     string          `json:"subject"`
	TargetPrice json.RawMessage `json:"targetPrice"`
	Drafts      json.RawMessage `json:"drafts"`
	Comps       json.RawMessage `json:"comps"`
}

// ParseCase parses a JSON case object.
// Drafts may be omitted (empty text); comps and targetPrice are required.
func ParseCase(data []byte) (Case, error) {
	var raw rawCase
	if err := json.Unmarshal(data, &raw); err != nil {
		return Case{}, inputError("case", err)
	}

	c := Case{ID: raw.ID, Subject: raw.Subject}

	if len(raw.Drafts) > 0 && !isNull(raw.Drafts) {
		drafts, err := ParseDrafts(raw.Drafts)
		if err != nil {
			return Case{}, err
		}
		c.Drafts = drafts
	}

	if len(raw.Comps) == 0 {
		return Case{}, inputError("comps", errors.New("comps are required"))
	}
	comps, err := ParseComparables(raw.Comps)
	if err != nil {
		return Case{}, err
	}
	c.Comps = comps

	target, err := parseTargetValue(raw.TargetPrice)
	if err != nil {
		return Case{}, err
	}
	c.TargetPrice = target

	return c, nil
}

// Entry is one case read from a case file. Err is set when the case itself is malformed;
// the rest of the file is still usable.
type Entry struct {
	Line int // 1-based line (JSONL) or document index (JSON/YAML)
	Case Case
	Err  error
}

// LoadCases reads cases from a .json (object or array), .jsonl or .yaml/.yml file
func LoadCases(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return parseJSONLines(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return parseJSON(data)
	}
}

func parseJSONLines(data []byte) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		c, err := ParseCase([]byte(text))
		entries = append(entries, newEntry(line, c, err))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan cases: %w", err)
	}

	return entries, nil
}

func parseJSON(data []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] != '[' {
		c, err := ParseCase(trimmed)
		return []Entry{newEntry(1, c, err)}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("parse cases: %w", err)
	}

	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		c, err := ParseCase(item)
		entries = append(entries, newEntry(i+1, c, err))
	}

	return entries, nil
}

// parseYAML accepts one case per document or a list of cases per document.
// Documents are re-encoded as JSON so both formats share the same validation.
func parseYAML(data []byte) ([]Entry, error) {
	var entries []Entry

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse cases: %w", err)
		}
		if doc == nil {
			continue
		}

		items, ok := doc.([]any)
		if !ok {
			items = []any{doc}
		}

		for _, item := range items {
			index := len(entries) + 1

			encoded, err := json.Marshal(item)
			if err != nil {
				entries = append(entries, newEntry(index, Case{}, inputError("case", err)))
				continue
			}

			c, err := ParseCase(encoded)
			entries = append(entries, newEntry(index, c, err))
		}
	}

	return entries, nil
}

func newEntry(line int, c Case, err error) Entry {
	if err == nil && c.ID == "" {
		c.ID = fmt.Sprintf("case-%d", line)
	}
	return Entry{Line: line, Case: c, Err: err}
}
