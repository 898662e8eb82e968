package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Aliases is the per-field, priority ordered list of column-name substrings.
type Aliases map[Field][]string

// DefaultAliases returns the alias table covering the bank and wallet export
// formats seen so far.
func DefaultAliases() Aliases {
	return Aliases{
		FieldSender:   {"Sender", "Sender account", "Account No./ (Wallet /PG/PA) Id"},
		FieldReceiver: {"Receiver", "Receiver account", "Account No"},
		FieldAmount:   {"Transaction Amount", "Amount"},
		FieldBank:     {"Bank/FIs", "Bank"},
		FieldIFSC:     {"IFSC Code", "Ifsc Code"},
	}
}

// Clone returns a deep copy of a.
func (a Aliases) Clone() Aliases {
	out := make(Aliases, len(a))
	for f, opts := range a {
		out[f] = append([]string(nil), opts...)
	}
	return out
}

// Merge returns a copy of a where every field present in override replaces
// the field's alias list.
func (a Aliases) Merge(override Aliases) Aliases {
	out := a.Clone()
	for f, opts := range override {
		out[f] = append([]string(nil), opts...)
	}
	return out
}

// LoadAliases reads a YAML alias table of the form
//
//	sender: ["Remitter", "Sender"]
//	amount: ["Txn Amt"]
//
// and merges it over DefaultAliases. Unknown field names are rejected.
func LoadAliases(path string) (Aliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases %s: %w", path, err)
	}
	return ParseAliases(data)
}

// ParseAliases decodes a YAML alias table and merges it over DefaultAliases.
func ParseAliases(data []byte) (Aliases, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse aliases: %w", err)
	}

	override := make(Aliases, len(raw))
	for name, opts := range raw {
		f := Field(name)
		if !f.Valid() {
			return nil, fmt.Errorf("parse aliases: unknown field %q", name)
		}
		if len(opts) == 0 {
			return nil, fmt.Errorf("parse aliases: field %q has no aliases", name)
		}
		override[f] = opts
	}
	return DefaultAliases().Merge(override), nil
}
