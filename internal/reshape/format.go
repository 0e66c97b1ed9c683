package reshape

import (
	"fmt"
	"slices"

	"github.com/rshade/copycat/internal/table"
)

// Ad format names.
const (
	ResponsiveSearchAd = "responsive_search_ad"
	TextAd             = "text_ad"
)

// Format describes how many headline and description slots an ad type carries.
type Format struct {
	Name            string
	MaxHeadlines    int
	MaxDescriptions int
}

// Formats returns the supported ad formats.
func Formats() []Format {
	return []Format{
		{Name: ResponsiveSearchAd, MaxHeadlines: 15, MaxDescriptions: 4}, //nolint:mnd // Google Ads RSA limits
		{Name: TextAd, MaxHeadlines: 3, MaxDescriptions: 2},              //nolint:mnd // Google Ads ETA limits
	}
}

// LookupFormat returns the format registered under name.
func LookupFormat(name string) (Format, error) {
	i := slices.IndexFunc(Formats(), func(f Format) bool { return f.Name == name })
	if i < 0 {
		return Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return Formats()[i], nil
}

// Slots returns the default slot families padded to the format width, so that
// Explode emits the full spreadsheet layout.
func (f Format) Slots() []SlotSpec {
	slots := DefaultSlots()
	slots[0].MinSlots = f.MaxHeadlines
	slots[1].MinSlots = f.MaxDescriptions
	return slots
}

// Check verifies that no row of a long table holds more headlines or
// descriptions than the format allows.
func (f Format) Check(t *table.Table) error {
	limits := []struct {
		column string
		max    int
	}{
		{HeadlinesColumn, f.MaxHeadlines},
		{DescriptionsColumn, f.MaxDescriptions},
	}

	for _, l := range limits {
		if !t.HasColumn(l.column) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, l.column)
		}
		for r := range t.Len() {
			values, ok := table.ToStrings(t.Value(r, l.column))
			if !ok {
				return fmt.Errorf("%w: column %q row %d", ErrNotSequence, l.column, r)
			}
			if len(values) > l.max {
				return fmt.Errorf("%w: %s row %d has %d %s, max %d",
					ErrTooManySlots, f.Name, r, len(values), l.column, l.max)
			}
		}
	}
	return nil
}
