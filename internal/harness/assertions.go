package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/usercache/internal/queryir"
	"github.com/roach88/usercache/internal/syncer"
	"github.com/roach88/usercache/internal/usercache"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// AssertionContext provides what assertions evaluate against.
type AssertionContext struct {
	Ctx    context.Context
	Cache  *usercache.Cache
	Engine *syncer.Engine
}

// EvaluateAssertions evaluates all assertions.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertDocument:
			err = assertDocument(actx, assertion)
		case AssertCount:
			err = assertCount(actx, assertion)
		case AssertBoundary:
			err = assertBoundary(actx, assertion)
		case AssertExportCount:
			err = assertExportCount(actx, assertion)
		case AssertExportExcludesType:
			err = assertExportExcludesType(actx, assertion)
		case AssertLastValues:
			err = assertLastValues(actx, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %s", i, err.Error()))
		}
	}

	return errors
}

func assertDocument(actx *AssertionContext, a Assertion) error {
	var got any
	var ok bool
	var err error
	if a.Updated {
		ok, err = actx.Cache.GetUpdatedDocument(actx.Ctx, a.Key, &got)
	} else {
		ok, err = actx.Cache.GetDocument(actx.Ctx, a.Key, &got)
	}
	if err != nil {
		return err
	}

	if a.Absent {
		if ok {
			return &AssertionError{
				Type:     AssertDocument,
				Expected: fmt.Sprintf("no document for %q", a.Key),
				Actual:   mustJSON(got),
			}
		}
		return nil
	}

	if !ok {
		return &AssertionError{
			Type:     AssertDocument,
			Expected: mustJSON(a.Expect),
			Actual:   fmt.Sprintf("no document for %q", a.Key),
		}
	}
	if !jsonEqual(a.Expect, got) {
		return &AssertionError{
			Type:     AssertDocument,
			Expected: mustJSON(a.Expect),
			Actual:   mustJSON(got),
		}
	}
	return nil
}

func assertCount(actx *AssertionContext, a Assertion) error {
	var filter []queryir.Predicate
	if a.Key != "" {
		filter = append(filter, queryir.Eq(queryir.FieldKey, a.Key))
	}
	if a.EntryType != "" {
		filter = append(filter, queryir.Eq(queryir.FieldType, string(a.EntryType)))
	}

	rows, err := actx.Cache.Store().Scan(actx.Ctx, queryir.Select{Filter: queryir.AllOf(filter...)})
	if err != nil {
		return err
	}
	if len(rows) != *a.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d entries (key=%q type=%q)", *a.Count, a.Key, a.EntryType),
			Actual:   fmt.Sprintf("%d entries", len(rows)),
		}
	}
	return nil
}

func assertBoundary(actx *AssertionContext, a Assertion) error {
	ts, err := actx.Engine.ComputeBoundary(actx.Ctx)
	if err != nil {
		return err
	}
	if ts != *a.Value {
		return &AssertionError{
			Type:     AssertBoundary,
			Expected: fmt.Sprintf("%v", *a.Value),
			Actual:   fmt.Sprintf("%v", ts),
		}
	}
	return nil
}

func assertExportCount(actx *AssertionContext, a Assertion) error {
	records, err := actx.Engine.Export(actx.Ctx)
	if err != nil {
		return err
	}
	if len(records) != *a.Count {
		return &AssertionError{
			Type:     AssertExportCount,
			Expected: fmt.Sprintf("%d records", *a.Count),
			Actual:   fmt.Sprintf("%d records", len(records)),
		}
	}
	return nil
}

func assertExportExcludesType(actx *AssertionContext, a Assertion) error {
	records, err := actx.Engine.Export(actx.Ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.Metadata.Type == a.EntryType {
			return &AssertionError{
				Type:     AssertExportExcludesType,
				Expected: fmt.Sprintf("no %s records", a.EntryType),
				Actual:   fmt.Sprintf("%s %q at %v", r.Metadata.Type, r.Metadata.Key, r.Metadata.WriteTs),
			}
		}
	}
	return nil
}

func assertLastValues(actx *AssertionContext, a Assertion) error {
	got, err := usercache.LastValues[any](actx.Ctx, actx.Cache, a.Key, a.EntryType, a.N)
	if err != nil {
		return err
	}
	want := a.Expect
	if want == nil {
		want = []any{}
	}
	if !jsonEqual(want, got) {
		return &AssertionError{
			Type:     AssertLastValues,
			Expected: mustJSON(want),
			Actual:   mustJSON(got),
		}
	}
	return nil
}

// jsonEqual compares two values after normalizing both through JSON, so YAML
// ints and decoded float64s compare equal.
func jsonEqual(expected, actual any) bool {
	return reflect.DeepEqual(normalize(expected), normalize(actual))
}

func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
