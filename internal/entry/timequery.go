package entry

import "fmt"

// TimeField selects which timestamp a TimeQuery filters on.
// The values are the store column names.
type TimeField string

const (
	WriteTs TimeField = "write_ts"
	ReadTs  TimeField = "read_ts"
)

// Valid reports whether f names a timestamp column.
func (f TimeField) Valid() bool {
	return f == WriteTs || f == ReadTs
}

// ParseTimeField converts a column name to a TimeField.
func ParseTimeField(s string) (TimeField, error) {
	f := TimeField(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown time field %q", s)
	}
	return f, nil
}

// NoBoundary is returned by boundary detection when nothing is exportable.
const NoBoundary float64 = -1

// TimeQuery is a read/delete filter over one timestamp field.
//
// Read paths treat the range as closed [Start, End]; the retention clear path
// treats it as open (Start, End).
type TimeQuery struct {
	Field TimeField `json:"field" yaml:"field"`
	Start float64   `json:"start" yaml:"start"`
	End   float64   `json:"end" yaml:"end"`
}

// Validate checks the field name and range ordering.
func (q TimeQuery) Validate() error {
	if !q.Field.Valid() {
		return fmt.Errorf("time query: unknown field %q", q.Field)
	}
	if q.End < q.Start {
		return fmt.Errorf("time query: end %v before start %v", q.End, q.Start)
	}
	return nil
}

// Contains reports whether ts lies in [Start, End].
func (q TimeQuery) Contains(ts float64) bool {
	return ts >= q.Start && ts <= q.End
}

// ContainsExclusive reports whether ts lies in (Start, End).
func (q TimeQuery) ContainsExclusive(ts float64) bool {
	return ts > q.Start && ts < q.End
}

// Select returns the timestamp of m named by the query's field.
func (q TimeQuery) Select(m Metadata) float64 {
	if q.Field == ReadTs {
		return m.ReadTs
	}
	return m.WriteTs
}

func (q TimeQuery) String() string {
	return fmt.Sprintf("%s in [%v, %v]", q.Field, q.Start, q.End)
}
