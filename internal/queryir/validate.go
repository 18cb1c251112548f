package queryir

import "fmt"

// Column names of the entry table that predicates may reference.
const (
	FieldID       = "id"
	FieldWriteTs  = "write_ts"
	FieldReadTs   = "read_ts"
	FieldTimeZone = "timezone"
	FieldType     = "type"
	FieldKey      = "key"
	FieldPlugin   = "plugin"
	FieldData     = "data"
)

var knownFields = map[string]bool{
	FieldID:       true,
	FieldWriteTs:  true,
	FieldReadTs:   true,
	FieldTimeZone: true,
	FieldType:     true,
	FieldKey:      true,
	FieldPlugin:   true,
	FieldData:     true,
}

// IsField reports whether name is a filterable column.
func IsField(name string) bool {
	return knownFields[name]
}

// Validate checks that a query only references known columns and operators.
//
// Field names end up in SQL text (values never do), so this is the gate that
// keeps caller-controlled strings out of the statement.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	switch query := q.(type) {
	case nil:
		return fmt.Errorf("nil query")
	case Select:
		if query.Limit < 0 {
			return fmt.Errorf("negative limit %d", query.Limit)
		}
		return validatePredicate(query.Filter)
	case *Select:
		return Validate(*query)
	case Delete:
		if query.Filter == nil {
			return fmt.Errorf("delete requires a filter")
		}
		return validatePredicate(query.Filter)
	case *Delete:
		return Validate(*query)
	default:
		return fmt.Errorf("unsupported query type: %T", q)
	}
}

func validatePredicate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case Compare:
		if !IsField(pred.Field) {
			return fmt.Errorf("unknown field %q", pred.Field)
		}
		if !pred.Op.Valid() {
			return fmt.Errorf("unknown operator %q", pred.Op)
		}
		return nil
	case *Compare:
		return validatePredicate(*pred)
	case In:
		if !IsField(pred.Field) {
			return fmt.Errorf("unknown field %q", pred.Field)
		}
		return nil
	case *In:
		return validatePredicate(*pred)
	case Like:
		if !IsField(pred.Field) {
			return fmt.Errorf("unknown field %q", pred.Field)
		}
		return nil
	case *Like:
		return validatePredicate(*pred)
	case LatestOfType:
		if pred.Type == nil {
			return fmt.Errorf("latest: missing type")
		}
		return nil
	case *LatestOfType:
		return validatePredicate(*pred)
	case And:
		for i, sub := range pred.Predicates {
			if err := validatePredicate(sub); err != nil {
				return fmt.Errorf("and[%d]: %w", i, err)
			}
		}
		return nil
	case *And:
		return validatePredicate(*pred)
	case Not:
		if pred.Predicate == nil {
			return fmt.Errorf("not: missing predicate")
		}
		if err := validatePredicate(pred.Predicate); err != nil {
			return fmt.Errorf("not: %w", err)
		}
		return nil
	case *Not:
		return validatePredicate(*pred)
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}
