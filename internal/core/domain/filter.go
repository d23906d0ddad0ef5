package domain

import (
	"fmt"
	"strings"
)

// FilterOp is the node type of a Filter.
type FilterOp int

const (
	// OpAll matches every document. It is the zero value.
	OpAll FilterOp = iota
	// OpMatch is a full-text match of Text against Fields.
	OpMatch
	// OpEq requires Field to equal Value.
	OpEq
	// OpIn requires Field to equal one of Values. An empty Values matches nothing.
	OpIn
	// OpAnd requires every child to match.
	OpAnd
	// OpOr requires at least one child to match.
	OpOr
	// OpNot inverts its single child.
	OpNot
)

// String returns the operator name.
func (op FilterOp) String() string {
	switch op {
	case OpAll:
		return "all"
	case OpMatch:
		return "match"
	case OpEq:
		return "eq"
	case OpIn:
		return "in"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Filter is a typed boolean query over Document fields.
// Each index adapter renders it natively; Matches evaluates it in memory.
type Filter struct {
	Op       FilterOp
	Field    string
	Fields   []string
	Text     string
	Value    string
	Values   []string
	Children []Filter
}

// All matches every document.
func All() Filter { return Filter{Op: OpAll} }

// Match is a full-text match. With no fields it searches title, description and content.
func Match(text string, fields ...string) Filter {
	if len(fields) == 0 {
		fields = []string{FieldTitle, FieldDescription, FieldContent}
	}
	return Filter{Op: OpMatch, Text: text, Fields: fields}
}

// Eq requires field to equal value.
func Eq(field, value string) Filter {
	return Filter{Op: OpEq, Field: field, Value: value}
}

// In requires field to equal one of values.
func In(field string, values ...string) Filter {
	return Filter{Op: OpIn, Field: field, Values: values}
}

// And requires every filter to match.
func And(filters ...Filter) Filter {
	return Filter{Op: OpAnd, Children: filters}
}

// Or requires at least one filter to match.
func Or(filters ...Filter) Filter {
	return Filter{Op: OpOr, Children: filters}
}

// Not inverts f.
func Not(f Filter) Filter {
	return Filter{Op: OpNot, Children: []Filter{f}}
}

// Validate checks the tree is well formed.
func (f Filter) Validate() error {
	switch f.Op {
	case OpAll:
		return nil
	case OpMatch:
		if len(f.Fields) == 0 {
			return fmt.Errorf("%w: match without fields", ErrInvalidInput)
		}
	case OpEq, OpIn:
		if f.Field == "" {
			return fmt.Errorf("%w: %s without field", ErrInvalidInput, f.Op)
		}
	case OpAnd, OpOr:
		for _, c := range f.Children {
			if err := c.Validate(); err != nil {
				return err
			}
		}
	case OpNot:
		if len(f.Children) != 1 {
			return fmt.Errorf("%w: not takes exactly one operand", ErrInvalidInput)
		}
		return f.Children[0].Validate()
	default:
		return fmt.Errorf("%w: unknown filter op %d", ErrInvalidInput, int(f.Op))
	}
	return nil
}

// MatchesNothing reports whether f can be proven to match no document
// without consulting an index.
func (f Filter) MatchesNothing() bool {
	switch f.Op {
	case OpIn:
		return len(f.Values) == 0
	case OpAnd:
		for _, c := range f.Children {
			if c.MatchesNothing() {
				return true
			}
		}
	case OpOr:
		if len(f.Children) == 0 {
			return true
		}
		for _, c := range f.Children {
			if !c.MatchesNothing() {
				return false
			}
		}
		return true
	}
	return false
}

// Matches evaluates f against doc in memory.
// Match nodes use case-insensitive term containment: a document matches when
// any query term appears in any of the fields.
func (f Filter) Matches(doc *Document) bool {
	switch f.Op {
	case OpAll:
		return true
	case OpMatch:
		terms := strings.Fields(strings.ToLower(f.Text))
		if len(terms) == 0 {
			return true
		}
		for _, field := range f.Fields {
			value := strings.ToLower(doc.Field(field))
			for _, term := range terms {
				if strings.Contains(value, term) {
					return true
				}
			}
		}
		return false
	case OpEq:
		return doc.Field(f.Field) == f.Value
	case OpIn:
		value := doc.Field(f.Field)
		for _, v := range f.Values {
			if v == value {
				return true
			}
		}
		return false
	case OpAnd:
		for _, c := range f.Children {
			if !c.Matches(doc) {
				return false
			}
		}
		return true
	case OpOr:
		for _, c := range f.Children {
			if c.Matches(doc) {
				return true
			}
		}
		return false
	case OpNot:
		return len(f.Children) == 1 && !f.Children[0].Matches(doc)
	default:
		return false
	}
}

// MatchText returns the text of the first Match node found depth-first, or "".
func (f Filter) MatchText() string {
	if f.Op == OpMatch {
		return f.Text
	}
	for _, c := range f.Children {
		if t := c.MatchText(); t != "" {
			return t
		}
	}
	return ""
}
