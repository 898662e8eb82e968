package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Field is a canonical transaction field.
type Field string

const (
	FieldSender   Field = "sender"
	FieldReceiver Field = "receiver"
	FieldAmount   Field = "amount"
	FieldBank     Field = "bank"
	FieldIFSC     Field = "ifsc"
)

// Fields lists every canonical field, required ones first.
var Fields = []Field{FieldSender, FieldReceiver, FieldAmount, FieldBank, FieldIFSC}

// Required reports whether a dataset cannot be traced without f.
func (f Field) Required() bool {
	switch f {
	case FieldSender, FieldReceiver, FieldAmount:
		return true
	}
	return false
}

// Valid reports whether f is one of the canonical fields.
func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// ErrSchema matches any SchemaError.
var ErrSchema = errors.New("missing required columns")

// SchemaError lists the required fields no column could be resolved for.
type SchemaError struct {
	Missing []Field
}

func (e *SchemaError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s: %s", ErrSchema.Error(), strings.Join(names, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// Mapping resolves canonical fields to column names. A field maps to "" when
// no column matched.
type Mapping map[Field]string

// Column returns the resolved column for f and whether one was found.
func (m Mapping) Column(f Field) (string, bool) {
	col, ok := m[f]
	return col, ok && col != ""
}

// Resolve maps every canonical field to the first column containing one of
// its aliases, case-insensitively. Aliases are tried in priority order and the
// first alias that matches any column wins, so alias priority beats column
// order. A SchemaError is returned when a required field is left unresolved;
// the partial mapping is returned alongside it.
func Resolve(columns []string, aliases Aliases) (Mapping, error) {
	lowered := make([]string, len(columns))
	for i, c := range columns {
		lowered[i] = strings.ToLower(c)
	}

	mapping := make(Mapping, len(Fields))
	var missing []Field
	for _, field := range Fields {
		col := match(aliases[field], columns, lowered)
		mapping[field] = col
		if col == "" && field.Required() {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return mapping, &SchemaError{Missing: missing}
	}
	return mapping, nil
}

func match(options, columns, lowered []string) string {
	for _, option := range options {
		needle := strings.ToLower(option)
		if needle == "" {
			continue
		}
		for i, col := range lowered {
			if strings.Contains(col, needle) {
				return columns[i]
			}
		}
	}
	return ""
}
