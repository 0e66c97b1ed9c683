// Package generation assembles the request table sent to the ad copy
// generator: one row per keyword group and version, carrying the joined
// keywords, any ads already generated for that row and the authoring
// instructions that apply to it.
package generation

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rshade/copycat/internal/instructions"
	"github.com/rshade/copycat/internal/logging"
	"github.com/rshade/copycat/internal/table"
)

// Column names read from inputs and written to the request table.
const (
	KeywordColumn                = "keyword"
	KeywordsColumn               = "keywords"
	VersionColumn                = "version"
	ExistingHeadlinesColumn      = "existing_headlines"
	ExistingDescriptionsColumn   = "existing_descriptions"
	AdditionalInstructionsColumn = "additional_instructions"
)

// keywordSeparator joins the keywords of one group.
const keywordSeparator = ", "

// Options configures Build. Nil tables are treated as absent.
type Options struct {
	// ExistingGenerations holds previously generated ads keyed by the group
	// key columns and VersionColumn.
	ExistingGenerations *table.Table

	// Instructions holds instruction rules keyed by the group key columns and
	// VersionColumn; any key cell may be instructions.Wildcard.
	Instructions *table.Table

	// Versions is the number of ad versions per group. Zero means one.
	Versions int

	InstructionOrder instructions.Order
}

// group is one distinct keyword group in first-appearance order.
type group struct {
	key      []string
	values   []any
	keywords []string
}

// existingAd is the previously generated copy for one request row.
type existingAd struct {
	headlines    []string
	descriptions []string
}

// Build creates the generation request table.
//
// Rows of keywords are grouped by its index columns and each group is
// expanded into one row per version ("1".."n"). Rows keep the order in which
// groups first appear and ascend by version within a group. The result is
// indexed by the group key columns followed by VersionColumn.
//
// When ExistingGenerations is set its rows are left joined on that key and
// unmatched rows get empty lists; a duplicated key fails with
// ErrExistingGenerationsNotUnique. When Instructions is set every row gets the
// text of all matching rules, possibly empty.
func Build(ctx context.Context, keywords *table.Table, opts Options) (*table.Table, error) {
	log := logging.FromContext(ctx)

	groupColumns := keywords.Index()
	if len(groupColumns) == 0 {
		return nil, ErrNoGroupKey
	}
	if !keywords.HasColumn(KeywordColumn) {
		return nil, fmt.Errorf("%w: keywords data has no %q column", table.ErrUnknownColumn, KeywordColumn)
	}
	keyColumns := append(slices.Clone(groupColumns), VersionColumn)

	existing, err := indexExisting(opts.ExistingGenerations, keyColumns)
	if err != nil {
		return nil, err
	}

	resolver, err := newResolver(opts.Instructions, keyColumns, opts.InstructionOrder)
	if err != nil {
		return nil, err
	}

	groups := groupKeywords(keywords)
	versions := versionLabels(opts.Versions)

	columns := slices.Clone(keyColumns)
	columns = append(columns, KeywordsColumn)
	if existing != nil {
		columns = append(columns, ExistingHeadlinesColumn, ExistingDescriptionsColumn)
	}
	if resolver != nil {
		columns = append(columns, AdditionalInstructionsColumn)
	}

	out := table.New(columns...)
	matched := 0
	for _, g := range groups {
		joined := strings.Join(g.keywords, keywordSeparator)
		for _, version := range versions {
			key := append(slices.Clone(g.key), version)

			row := table.Row{
				VersionColumn:  version,
				KeywordsColumn: joined,
			}
			for i, c := range groupColumns {
				row[c] = g.values[i]
			}

			if existing != nil {
				ad, ok := existing[table.JoinKey(key)]
				if ok {
					matched++
				}
				row[ExistingHeadlinesColumn] = nonNil(ad.headlines)
				row[ExistingDescriptionsColumn] = nonNil(ad.descriptions)
			}

			if resolver != nil {
				row[AdditionalInstructionsColumn] = resolver.Resolve(key)
			}

			out.AppendRecord(row)
		}
	}

	out, err = out.WithIndex(keyColumns...)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "generation").
		Str("operation", "build").
		Int("keyword_rows", keywords.Len()).
		Int("groups", len(groups)).
		Int("versions", len(versions)).
		Int("existing_matched", matched).
		Bool("instructions", resolver != nil).
		Int("requests", out.Len()).
		Msg("built generation requests")

	return out, nil
}

// groupKeywords collects the keywords of each distinct group key in the order
// groups first appear.
func groupKeywords(keywords *table.Table) []*group {
	groupColumns := keywords.Index()

	var groups []*group
	byKey := make(map[string]*group)
	for i := range keywords.Len() {
		key := keywords.Key(i)
		k := table.JoinKey(key)

		g, ok := byKey[k]
		if !ok {
			g = &group{key: key, values: make([]any, len(groupColumns))}
			for j, c := range groupColumns {
				g.values[j] = keywords.Value(i, c)
			}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.keywords = append(g.keywords, table.ToString(keywords.Value(i, KeywordColumn)))
	}
	return groups
}

// versionLabels returns "1".."n"; zero means one version and negative counts none.
func versionLabels(n int) []string {
	if n == 0 {
		n = 1
	}
	labels := make([]string, 0, max(n, 0))
	for v := 1; v <= n; v++ {
		labels = append(labels, strconv.Itoa(v))
	}
	return labels
}

// indexExisting maps each existing generation row by its joined key. It
// returns nil when the table is absent.
func indexExisting(existing *table.Table, keyColumns []string) (map[string]existingAd, error) {
	if existing == nil {
		return nil, nil
	}

	for _, c := range []string{ExistingHeadlinesColumn, ExistingDescriptionsColumn} {
		if !existing.HasColumn(c) {
			return nil, fmt.Errorf("%w: existing generations data has no %q column", table.ErrUnknownColumn, c)
		}
	}

	keyed, err := existing.WithIndex(keyColumns...)
	if err != nil {
		return nil, fmt.Errorf("existing generations data: %w", err)
	}
	if !keyed.IndexIsUnique() {
		return nil, ErrExistingGenerationsNotUnique
	}

	out := make(map[string]existingAd, keyed.Len())
	for i := range keyed.Len() {
		headlines, err := listCell(keyed, i, ExistingHeadlinesColumn)
		if err != nil {
			return nil, err
		}
		descriptions, err := listCell(keyed, i, ExistingDescriptionsColumn)
		if err != nil {
			return nil, err
		}
		out[table.JoinKey(keyed.Key(i))] = existingAd{headlines: headlines, descriptions: descriptions}
	}
	return out, nil
}

// listCell reads a list-valued cell; a missing value is an empty list.
func listCell(t *table.Table, i int, column string) ([]string, error) {
	v := t.Value(i, column)
	if v == nil {
		return []string{}, nil
	}
	values, ok := table.ToStrings(v)
	if !ok {
		return nil, fmt.Errorf("%w: column %q row %d has %T", ErrNotSequence, column, i, v)
	}
	return values, nil
}

// newResolver builds a resolver from the instruction table. It returns nil
// when the table is absent.
func newResolver(rulesTable *table.Table, keyColumns []string, order instructions.Order) (*instructions.Resolver, error) {
	if rulesTable == nil {
		return nil, nil
	}

	for _, c := range append(slices.Clone(keyColumns), AdditionalInstructionsColumn) {
		if !rulesTable.HasColumn(c) {
			return nil, fmt.Errorf("%w: instructions data has no %q column", table.ErrUnknownColumn, c)
		}
	}

	rules := make([]instructions.Rule, rulesTable.Len())
	for i := range rulesTable.Len() {
		values := make([]string, len(keyColumns))
		for j, c := range keyColumns {
			values[j] = table.ToString(rulesTable.Value(i, c))
		}
		rules[i] = instructions.Rule{
			Key:  instructions.ParseKey(values...),
			Text: table.ToString(rulesTable.Value(i, AdditionalInstructionsColumn)),
		}
	}
	return instructions.NewResolver(rules, order), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
