package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Matches(t *testing.T) {
	doc := &Document{
		ID:          "doc-1",
		Title:       "Quarterly Report",
		Description: "Revenue summary",
		Content:     "Revenue grew in the third quarter",
		Category:    "finance",
		TenantID:    "acme",
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"all", All(), true},
		{"match title term", Match("report"), true},
		{"match any term", Match("missing quarter"), true},
		{"match miss", Match("holiday"), false},
		{"match restricted fields", Match("revenue", FieldTitle), false},
		{"empty match text", Match("   "), true},
		{"eq hit", Eq(FieldCategory, "finance"), true},
		{"eq miss", Eq(FieldCategory, "hr"), false},
		{"in hit", In(FieldCategory, "hr", "finance"), true},
		{"in miss", In(FieldCategory, "hr"), false},
		{"in empty", In(FieldCategory), false},
		{"and", And(Match("report"), Eq(FieldTenantID, "acme")), true},
		{"and short", And(Match("report"), Eq(FieldTenantID, "other")), false},
		{"or", Or(Eq(FieldCategory, "hr"), Eq(FieldCategory, "finance")), true},
		{"or empty", Or(), false},
		{"not", Not(Eq(FieldCategory, "hr")), true},
		{"unknown field", Eq("nope", "x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(doc))
		})
	}
}

func TestFilter_MatchesNothing(t *testing.T) {
	assert.True(t, In(FieldCategory).MatchesNothing())
	assert.True(t, And(Match("x"), In(FieldCategory)).MatchesNothing())
	assert.True(t, Or().MatchesNothing())
	assert.True(t, Or(In(FieldCategory), In(FieldID)).MatchesNothing())

	assert.False(t, In(FieldCategory, "a").MatchesNothing())
	assert.False(t, Or(In(FieldCategory), Eq(FieldID, "1")).MatchesNothing())
	assert.False(t, Match("x").MatchesNothing())
	assert.False(t, Not(In(FieldCategory)).MatchesNothing())
}

func TestFilter_Validate(t *testing.T) {
	require.NoError(t, And(Match("x"), In(FieldCategory, "a")).Validate())
	require.NoError(t, All().Validate())

	assert.ErrorIs(t, Filter{Op: OpMatch}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Eq("", "v").Validate(), ErrInvalidInput)
	assert.ErrorIs(t, And(In("", "a")).Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Filter{Op: OpNot}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Filter{Op: FilterOp(99)}.Validate(), ErrInvalidInput)
}

func TestFilter_MatchText(t *testing.T) {
	f := And(In(FieldCategory, "a"), Or(Eq(FieldID, "x"), Match("needle")))
	assert.Equal(t, "needle", f.MatchText())
	assert.Equal(t, "", In(FieldCategory, "a").MatchText())
}

func TestFilterOp_String(t *testing.T) {
	assert.Equal(t, "match", OpMatch.String())
	assert.Equal(t, "in", OpIn.String())
	assert.Equal(t, "op(42)", FilterOp(42).String())
}
