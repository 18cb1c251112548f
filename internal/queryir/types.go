package queryir

// Query represents an abstract query over the entry table.
type Query interface {
	queryNode()
}

// Predicate represents a filter condition.
type Predicate interface {
	predicateNode()
}

// Direction orders results by write_ts.
type Direction int

const (
	// Descending returns newest entries first. This is the default.
	Descending Direction = iota

	// Ascending returns oldest entries first.
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "ASC"
	}
	return "DESC"
}

// Select is a filtered scan of the entry table.
//
// Semantics:
//
//	SELECT <all columns> FROM usercache WHERE <filter>
//	ORDER BY write_ts <order>, id <order> LIMIT <limit>
//
// Limit <= 0 means no limit.
type Select struct {
	Filter Predicate // nil = no filter
	Order  Direction
	Limit  int
}

func (Select) queryNode() {}

// Delete removes the rows matched by Filter.
// A nil Filter is rejected by the compiler; use the store's DeleteAll instead.
type Delete struct {
	Filter Predicate
}

func (Delete) queryNode() {}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Valid reports whether o is a known operator.
func (o Op) Valid() bool {
	switch o {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Compare represents <field> <op> <value>.
type Compare struct {
	Field string
	Op    Op
	Value any
}

func (Compare) predicateNode() {}

// In represents <field> IN (<values>). An empty list matches nothing.
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

// Like represents <field> LIKE <pattern>.
type Like struct {
	Field   string
	Pattern string
}

func (Like) predicateNode() {}

// LatestOfType matches, for every key, the single newest row of Type
// (greatest write_ts, then greatest id).
type LatestOfType struct {
	Type any
}

func (LatestOfType) predicateNode() {}

// And represents a conjunction of predicates (empty = always true).
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Eq builds an equality comparison.
func Eq(field string, value any) Compare {
	return Compare{Field: field, Op: OpEq, Value: value}
}

// Ne builds an inequality comparison.
func Ne(field string, value any) Compare {
	return Compare{Field: field, Op: OpNe, Value: value}
}

// Between builds lo <= field <= hi, or lo < field < hi when exclusive is set.
func Between(field string, lo, hi float64, exclusive bool) And {
	if exclusive {
		return And{Predicates: []Predicate{
			Compare{Field: field, Op: OpGt, Value: lo},
			Compare{Field: field, Op: OpLt, Value: hi},
		}}
	}
	return And{Predicates: []Predicate{
		Compare{Field: field, Op: OpGe, Value: lo},
		Compare{Field: field, Op: OpLe, Value: hi},
	}}
}

// AllOf flattens nil entries out of preds and joins the rest with And.
func AllOf(preds ...Predicate) And {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return And{Predicates: out}
}
