package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/usercache/internal/entry"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// DutyCycling is the configuration flag read by boundary detection.
	DutyCycling bool `yaml:"duty_cycling,omitempty"`

	// ExportLimit overrides the export cap (0 = default).
	ExportLimit int `yaml:"export_limit,omitempty"`

	// Steps run in order against the cache and sync engine.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation. Exactly one field must be set.
type Step struct {
	Put      *PutStep         `yaml:"put,omitempty"`
	MarkRead *MarkReadStep    `yaml:"mark_read,omitempty"`
	Clear    *entry.TimeQuery `yaml:"clear,omitempty"`
	ClearAll bool             `yaml:"clear_all,omitempty"`
	Export   bool             `yaml:"export,omitempty"`
	Import   []RecordSpec     `yaml:"import,omitempty"`
	Sync     *SyncStep        `yaml:"sync,omitempty"`
}

// PutStep writes one entry.
type PutStep struct {
	Type entry.Type `yaml:"type" json:"type"`
	Key  string     `yaml:"key" json:"key"`
	// At pins the write timestamp. Zero uses the running clock.
	At   float64 `yaml:"at,omitempty" json:"at,omitempty"`
	Data any     `yaml:"data" json:"data"`
}

// MarkReadStep marks a key as read.
type MarkReadStep struct {
	Key string  `yaml:"key" json:"key"`
	At  float64 `yaml:"at,omitempty" json:"at,omitempty"`
}

// SyncStep runs a sync round against an in-memory transport.
type SyncStep struct {
	// Incoming records are what the server returns this round.
	Incoming []RecordSpec `yaml:"incoming,omitempty"`
}

// RecordSpec is a server record written in YAML.
type RecordSpec struct {
	Type     entry.Type `yaml:"type"`
	Key      string     `yaml:"key"`
	At       float64    `yaml:"at"`
	ReadTs   float64    `yaml:"read_ts,omitempty"`
	TimeZone string     `yaml:"time_zone,omitempty"`
	Plugin   string     `yaml:"plugin,omitempty"`
	Data     any        `yaml:"data"`
}

// Record converts r to a sync record.
func (r RecordSpec) Record() (entry.Record, error) {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return entry.Record{}, fmt.Errorf("record %q: %w", r.Key, err)
	}
	return entry.Record{
		Metadata: entry.Metadata{
			WriteTs:  r.At,
			ReadTs:   r.ReadTs,
			TimeZone: r.TimeZone,
			Type:     r.Type,
			Key:      r.Key,
			Plugin:   r.Plugin,
		},
		Data: data,
	}, nil
}

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Key restricts document, count, and last_values.
	Key string `yaml:"key,omitempty"`

	// EntryType restricts count, last_values, and export_excludes_type.
	EntryType entry.Type `yaml:"entry_type,omitempty"`

	// Expect is the expected payload (document) or payload list (last_values).
	Expect any `yaml:"expect,omitempty"`

	// Absent expects no document (document).
	Absent bool `yaml:"absent,omitempty"`

	// Updated uses the has-changed query (document).
	Updated bool `yaml:"updated,omitempty"`

	// Count is the expected number (count, export_count).
	Count *int `yaml:"count,omitempty"`

	// Value is the expected boundary (boundary).
	Value *float64 `yaml:"value,omitempty"`

	// N is how many entries to read (last_values).
	N int `yaml:"n,omitempty"`
}

// Assertion type constants.
const (
	AssertDocument           = "document"
	AssertCount              = "count"
	AssertBoundary           = "boundary"
	AssertExportCount        = "export_count"
	AssertExportExcludesType = "export_excludes_type"
	AssertLastValues         = "last_values"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	sort.Strings(matches)

	scenarios := make([]*Scenario, 0, len(matches))
	for _, path := range matches {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\ `) {
		return fmt.Errorf("name %q must be usable as a file name", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, st Step) error {
	set := 0
	if st.Put != nil {
		set++
		if !st.Put.Type.Valid() {
			return fmt.Errorf("steps[%d]: unknown entry type %q", index, st.Put.Type)
		}
		if st.Put.Key == "" {
			return fmt.Errorf("steps[%d]: put requires a key", index)
		}
	}
	if st.MarkRead != nil {
		set++
		if st.MarkRead.Key == "" {
			return fmt.Errorf("steps[%d]: mark_read requires a key", index)
		}
	}
	if st.Clear != nil {
		set++
		if err := st.Clear.Validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	if st.ClearAll {
		set++
	}
	if st.Export {
		set++
	}
	if st.Import != nil {
		set++
	}
	if st.Sync != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one operation is required, got %d", index, set)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDocument:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for document", index)
		}
		if a.Absent == (a.Expect != nil) {
			return fmt.Errorf("assertions[%d]: document needs exactly one of expect or absent", index)
		}
	case AssertCount, AssertExportCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertBoundary:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for boundary", index)
		}
	case AssertExportExcludesType:
		if !a.EntryType.Valid() {
			return fmt.Errorf("assertions[%d]: entry_type is required for export_excludes_type", index)
		}
	case AssertLastValues:
		if a.Key == "" || !a.EntryType.Valid() || a.N <= 0 {
			return fmt.Errorf("assertions[%d]: key, entry_type and n are required for last_values", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
