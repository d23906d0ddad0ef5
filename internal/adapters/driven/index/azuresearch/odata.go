package azuresearch

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// renderFilter translates the filter AST into an OData $filter expression.
// OpAll renders as "" meaning no filter.
func renderFilter(f domain.Filter) (string, error) {
	switch f.Op {
	case domain.OpAll:
		return "", nil

	case domain.OpMatch:
		text := strings.TrimSpace(f.Text)
		if text == "" {
			return "", nil
		}
		return fmt.Sprintf("search.ismatch(%s, %s)", quote(text), quote(strings.Join(f.Fields, ","))), nil

	case domain.OpEq:
		return fmt.Sprintf("%s eq %s", f.Field, quote(f.Value)), nil

	case domain.OpIn:
		if len(f.Values) == 0 {
			return "false", nil
		}
		parts := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			parts = append(parts, fmt.Sprintf("%s eq %s", f.Field, quote(v)))
		}
		return join(parts, "or"), nil

	case domain.OpAnd, domain.OpOr:
		op := "and"
		if f.Op == domain.OpOr {
			op = "or"
		}
		parts := make([]string, 0, len(f.Children))
		for _, c := range f.Children {
			s, err := renderFilter(c)
			if err != nil {
				return "", err
			}
			if s == "" {
				// An unrestricted operand is true.
				if f.Op == domain.OpOr {
					return "", nil
				}
				continue
			}
			parts = append(parts, s)
		}
		if len(parts) == 0 {
			if f.Op == domain.OpOr {
				return "false", nil
			}
			return "", nil
		}
		return join(parts, op), nil

	case domain.OpNot:
		if len(f.Children) != 1 {
			return "", fmt.Errorf("%w: not takes exactly one operand", domain.ErrInvalidInput)
		}
		inner, err := renderFilter(f.Children[0])
		if err != nil {
			return "", err
		}
		if inner == "" {
			return "false", nil
		}
		return "not (" + inner + ")", nil

	default:
		return "", fmt.Errorf("%w: unknown filter op %s", domain.ErrInvalidInput, f.Op)
	}
}

// quote renders an OData string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func join(parts []string, op string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ") "+op+" (") + ")"
}
