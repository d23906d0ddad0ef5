package bleveindex

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// renderFilter translates the filter AST into a bleve query.
func renderFilter(f domain.Filter) (query.Query, error) {
	switch f.Op {
	case domain.OpAll:
		return bleve.NewMatchAllQuery(), nil

	case domain.OpMatch:
		text := strings.TrimSpace(f.Text)
		if text == "" {
			return bleve.NewMatchAllQuery(), nil
		}
		fields := make([]query.Query, 0, len(f.Fields))
		for _, field := range f.Fields {
			q := bleve.NewMatchQuery(text)
			q.SetField(field)
			fields = append(fields, q)
		}
		return bleve.NewDisjunctionQuery(fields...), nil

	case domain.OpEq:
		return fieldEquals(f.Field, f.Value), nil

	case domain.OpIn:
		if len(f.Values) == 0 {
			return bleve.NewMatchNoneQuery(), nil
		}
		values := make([]query.Query, 0, len(f.Values))
		for _, v := range f.Values {
			values = append(values, fieldEquals(f.Field, v))
		}
		return bleve.NewDisjunctionQuery(values...), nil

	case domain.OpAnd:
		if len(f.Children) == 0 {
			return bleve.NewMatchAllQuery(), nil
		}
		children, err := renderChildren(f.Children)
		if err != nil {
			return nil, err
		}
		return bleve.NewConjunctionQuery(children...), nil

	case domain.OpOr:
		if len(f.Children) == 0 {
			return bleve.NewMatchNoneQuery(), nil
		}
		children, err := renderChildren(f.Children)
		if err != nil {
			return nil, err
		}
		return bleve.NewDisjunctionQuery(children...), nil

	case domain.OpNot:
		if len(f.Children) != 1 {
			return nil, fmt.Errorf("%w: not takes exactly one operand", domain.ErrInvalidInput)
		}
		inner, err := renderFilter(f.Children[0])
		if err != nil {
			return nil, err
		}
		b := bleve.NewBooleanQuery()
		b.AddMust(bleve.NewMatchAllQuery())
		b.AddMustNot(inner)
		return b, nil

	default:
		return nil, fmt.Errorf("%w: unknown filter op %s", domain.ErrInvalidInput, f.Op)
	}
}

func renderChildren(children []domain.Filter) ([]query.Query, error) {
	out := make([]query.Query, 0, len(children))
	for _, c := range children {
		q, err := renderFilter(c)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// fieldEquals is an exact term match on keyword fields and a phrase match on
// analysed ones.
func fieldEquals(field, value string) query.Query {
	if keywordFields[field] {
		q := bleve.NewTermQuery(value)
		q.SetField(field)
		return q
	}
	q := bleve.NewMatchPhraseQuery(value)
	q.SetField(field)
	return q
}
