package instructions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/copycat/internal/instructions"
)

const all = instructions.Wildcard

// hierarchyRules covers every combination of concrete and wildcard components
// over (campaign, ad group, version).
func hierarchyRules() []instructions.Rule {
	return []instructions.Rule{
		{Key: instructions.ParseKey("a", "c", "1"), Text: "(a,c,1)"},
		{Key: instructions.ParseKey(all, "d", "1"), Text: "(all,d,1)"},
		{Key: instructions.ParseKey("b", all, "1"), Text: "(b,all,1)"},
		{Key: instructions.ParseKey(all, all, "1"), Text: "(all,all,1)"},
		{Key: instructions.ParseKey("a", "c", all), Text: "(a,c,all)"},
		{Key: instructions.ParseKey(all, "d", all), Text: "(all,d,all)"},
		{Key: instructions.ParseKey("b", all, all), Text: "(b,all,all)"},
		{Key: instructions.ParseKey(all, all, all), Text: "(all,all,all)"},
	}
}

func TestParseComponent(t *testing.T) {
	c := instructions.ParseComponent(all)
	assert.True(t, c.IsWildcard())
	assert.Equal(t, all, c.String())
	assert.True(t, c.Matches("anything"))

	c = instructions.ParseComponent("a")
	assert.False(t, c.IsWildcard())
	assert.Equal(t, "a", c.String())
	assert.True(t, c.Matches("a"))
	assert.False(t, c.Matches("b"))
	assert.False(t, c.Matches(all), "a concrete value never matches the literal wildcard")
}

func TestKeyMatches(t *testing.T) {
	tests := []struct {
		name     string
		key      instructions.Key
		concrete []string
		want     bool
	}{
		{name: "all wildcards", key: instructions.ParseKey(all, all, all), concrete: []string{"x", "y", "7"}, want: true},
		{name: "exact", key: instructions.ParseKey("a", "c", "1"), concrete: []string{"a", "c", "1"}, want: true},
		{name: "exact other version", key: instructions.ParseKey("a", "c", "1"), concrete: []string{"a", "c", "2"}, want: false},
		{name: "partial wildcard", key: instructions.ParseKey("b", all, "1"), concrete: []string{"b", "d", "1"}, want: true},
		{name: "partial wildcard mismatch", key: instructions.ParseKey("b", all, "1"), concrete: []string{"a", "d", "1"}, want: false},
		{name: "length mismatch", key: instructions.ParseKey(all, all), concrete: []string{"a", "c", "1"}, want: false},
		{name: "built from constructors", key: instructions.Key{instructions.Concrete("a"), instructions.Any()}, concrete: []string{"a", "z"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.Matches(tt.concrete))
		})
	}
}

func TestKeyWildcardsAndString(t *testing.T) {
	k := instructions.ParseKey("a", all, all)
	assert.Equal(t, 2, k.Wildcards())
	assert.Equal(t, "(a, __ALL__, __ALL__)", k.String())
}

func TestResolve_NoMatch(t *testing.T) {
	rules := []instructions.Rule{{Key: instructions.ParseKey("a", "c", "1"), Text: "x"}}

	assert.Equal(t, "", instructions.Resolve(rules, []string{"b", "d", "1"}, instructions.OrderSpecificity))
	assert.Equal(t, "", instructions.Resolve(nil, []string{"b", "d", "1"}, instructions.OrderSpecificity))
}

func TestResolve_DuplicateKeysConcatenateInInputOrder(t *testing.T) {
	rules := []instructions.Rule{
		{Key: instructions.ParseKey("a", "c", "1"), Text: "instruction 1"},
		{Key: instructions.ParseKey("a", "d", "1"), Text: "instruction 2"},
		{Key: instructions.ParseKey("a", "c", "2"), Text: "instruction 4"},
		{Key: instructions.ParseKey("a", "c", "2"), Text: "instruction 3"},
	}

	got := instructions.Resolve(rules, []string{"a", "c", "2"}, instructions.OrderSpecificity)

	assert.Equal(t, "instruction 4\ninstruction 3", got)
}

func TestResolve_SpecificityOrder(t *testing.T) {
	tests := []struct {
		concrete []string
		want     string
	}{
		{concrete: []string{"a", "c", "1"}, want: "(a,c,1)\n(a,c,all)\n(all,all,1)\n(all,all,all)"},
		{concrete: []string{"a", "c", "2"}, want: "(a,c,all)\n(all,all,all)"},
		{concrete: []string{"a", "d", "1"}, want: "(all,d,1)\n(all,all,1)\n(all,d,all)\n(all,all,all)"},
		{concrete: []string{"a", "d", "2"}, want: "(all,d,all)\n(all,all,all)"},
		{
			concrete: []string{"b", "d", "1"},
			want:     "(all,d,1)\n(b,all,1)\n(all,all,1)\n(all,d,all)\n(b,all,all)\n(all,all,all)",
		},
		{concrete: []string{"b", "d", "2"}, want: "(all,d,all)\n(b,all,all)\n(all,all,all)"},
	}

	for _, tt := range tests {
		t.Run(instructions.ParseKey(tt.concrete...).String(), func(t *testing.T) {
			got := instructions.Resolve(hierarchyRules(), tt.concrete, instructions.OrderSpecificity)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_LexicalOrder(t *testing.T) {
	tests := []struct {
		concrete []string
		want     string
	}{
		{concrete: []string{"a", "c", "1"}, want: "(a,c,1)\n(a,c,all)\n(all,all,1)\n(all,all,all)"},
		{concrete: []string{"a", "c", "2"}, want: "(a,c,all)\n(all,all,all)"},
		{concrete: []string{"a", "d", "1"}, want: "(all,all,1)\n(all,all,all)\n(all,d,1)\n(all,d,all)"},
		{concrete: []string{"a", "d", "2"}, want: "(all,all,all)\n(all,d,all)"},
		{
			concrete: []string{"b", "d", "1"},
			want:     "(all,all,1)\n(all,all,all)\n(all,d,1)\n(all,d,all)\n(b,all,1)\n(b,all,all)",
		},
		{concrete: []string{"b", "d", "2"}, want: "(all,all,all)\n(all,d,all)\n(b,all,all)"},
	}

	for _, tt := range tests {
		t.Run(instructions.ParseKey(tt.concrete...).String(), func(t *testing.T) {
			got := instructions.Resolve(hierarchyRules(), tt.concrete, instructions.OrderLexical)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_IsDeterministic(t *testing.T) {
	concrete := []string{"b", "d", "1"}
	first := instructions.Resolve(hierarchyRules(), concrete, instructions.OrderSpecificity)
	for range 20 {
		assert.Equal(t, first, instructions.Resolve(hierarchyRules(), concrete, instructions.OrderSpecificity))
	}
}

func TestResolver(t *testing.T) {
	rules := hierarchyRules()
	r := instructions.NewResolver(rules, instructions.OrderLexical)
	rules[0].Text = "mutated"

	assert.Equal(t, 8, r.Len())
	assert.Equal(t, "(a,c,1)\n(a,c,all)\n(all,all,1)\n(all,all,all)", r.Resolve([]string{"a", "c", "1"}))
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name    string
		want    instructions.Order
		wantErr bool
	}{
		{name: "", want: instructions.OrderSpecificity},
		{name: "specificity", want: instructions.OrderSpecificity},
		{name: "lexical", want: instructions.OrderLexical},
		{name: "random", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := instructions.ParseOrder(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, instructions.ErrUnknownOrder)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "lexical", instructions.OrderLexical.String())
}
