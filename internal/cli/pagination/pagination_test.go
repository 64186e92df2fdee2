package pagination

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{name: "zero value", params: Params{}},
		{name: "valid offset mode", params: Params{Limit: 10, Offset: 20}},
		{name: "valid page mode", params: Params{Page: 2, PageSize: 10}},
		{name: "page without page-size", params: Params{Page: 1}},
		{name: "negative limit", params: Params{Limit: -1}, wantErr: ErrNegativeValue},
		{name: "negative offset", params: Params{Offset: -1}, wantErr: ErrNegativeValue},
		{name: "negative page", params: Params{Page: -1}, wantErr: ErrNegativeValue},
		{name: "negative page-size", params: Params{PageSize: -1}, wantErr: ErrNegativeValue},
		{name: "limit too large", params: Params{Limit: MaxLimit + 1}, wantErr: ErrLimitTooLarge},
		{name: "page-size too large", params: Params{Page: 1, PageSize: MaxPageSize + 1}, wantErr: ErrPageSizeTooLarge},
		{name: "mixed modes", params: Params{Page: 1, Offset: 10}, wantErr: ErrMixedPaginationModes},
		{name: "page-size without page", params: Params{PageSize: 10}, wantErr: ErrPageSizeWithoutPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParams_AddFlags(t *testing.T) {
	var p Params
	cmd := &cobra.Command{Use: "list", RunE: func(*cobra.Command, []string) error { return nil }}
	p.AddFlags(cmd)

	cmd.SetArgs([]string{"--page", "3", "--page-size", "20", "--sort", "code:desc"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, Params{Page: 3, PageSize: 20, Sort: "code:desc"}, p)
}

func TestParams_WithDefaultPageSize(t *testing.T) {
	assert.Equal(t, Params{Page: 2, PageSize: 25}, Params{Page: 2}.WithDefaultPageSize(25))
	assert.Equal(t, Params{Page: 2, PageSize: DefaultPageSize}, Params{Page: 2}.WithDefaultPageSize(0))
	assert.Equal(t, Params{Page: 2, PageSize: 5}, Params{Page: 2, PageSize: 5}.WithDefaultPageSize(25))
	assert.Equal(t, Params{Limit: 3}, Params{Limit: 3}.WithDefaultPageSize(25), "offset mode untouched")
}

func TestApply(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	tests := []struct {
		name   string
		params Params
		items  []int
		want   []int
	}{
		{name: "no pagination", params: Params{}, items: items, want: items},
		{name: "limit only", params: Params{Limit: 3}, items: items, want: []int{0, 1, 2}},
		{name: "offset only", params: Params{Offset: 7}, items: items, want: []int{7, 8, 9}},
		{name: "offset and limit", params: Params{Offset: 2, Limit: 3}, items: items, want: []int{2, 3, 4}},
		{name: "page 1", params: Params{Page: 1, PageSize: 3}, items: items, want: []int{0, 1, 2}},
		{name: "page 2", params: Params{Page: 2, PageSize: 3}, items: items, want: []int{3, 4, 5}},
		{name: "out of bounds offset", params: Params{Offset: 20}, items: items, want: []int{}},
		{name: "out of bounds page caps to last", params: Params{Page: 10, PageSize: 3}, items: items, want: []int{9}},
		{name: "empty items", params: Params{Limit: 5}, items: []int{}, want: []int{}},
		{name: "nil items", params: Params{Limit: 5}, items: nil, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.params, tt.items))
		})
	}
}

func TestNewMeta(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		total    int
		returned int
		want     Meta
	}{
		{
			name:     "first page",
			params:   Params{Page: 1, PageSize: 10},
			total:    25,
			returned: 10,
			want:     Meta{CurrentPage: 1, PageSize: 10, TotalPages: 3, TotalItems: 25, Returned: 10, HasNext: true},
		},
		{
			name:     "middle page",
			params:   Params{Page: 2, PageSize: 10},
			total:    25,
			returned: 10,
			want: Meta{
				CurrentPage: 2, PageSize: 10, TotalPages: 3, TotalItems: 25, Returned: 10,
				HasPrevious: true, HasNext: true,
			},
		},
		{
			name:     "past the end clamps",
			params:   Params{Page: 9, PageSize: 10},
			total:    25,
			returned: 5,
			want:     Meta{CurrentPage: 3, PageSize: 10, TotalPages: 3, TotalItems: 25, Returned: 5, HasPrevious: true},
		},
		{
			name:     "offset conversion",
			params:   Params{Offset: 10, Limit: 10},
			total:    25,
			returned: 10,
			want: Meta{
				CurrentPage: 2, PageSize: 10, TotalPages: 3, TotalItems: 25, Returned: 10,
				HasPrevious: true, HasNext: true,
			},
		},
		{
			name:     "unpaginated",
			params:   Params{},
			total:    4,
			returned: 4,
			want:     Meta{CurrentPage: 1, PageSize: 4, TotalPages: 1, TotalItems: 4, Returned: 4},
		},
		{
			name:   "empty",
			params: Params{},
			want:   Meta{CurrentPage: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewMeta(tt.params, tt.total, tt.returned))
		})
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		expr      string
		wantField string
		wantOrder string
		wantErr   error
	}{
		{expr: "", wantField: "", wantOrder: SortOrderAsc},
		{expr: "code", wantField: "code", wantOrder: SortOrderAsc},
		{expr: "updated:DESC", wantField: "updated", wantOrder: SortOrderDesc},
		{expr: " label : asc ", wantField: "label", wantOrder: SortOrderAsc},
		{expr: "a:b:c", wantErr: ErrInvalidSortFormat},
		{expr: ":asc", wantErr: ErrEmptySortField},
		{expr: "code:up", wantErr: ErrInvalidSortOrder},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			field, order, err := ParseSort(tt.expr)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantOrder, order)
		})
	}
}

func TestSorter(t *testing.T) {
	type row struct {
		name string
		size int
	}
	sorter := NewSorter(map[string]LessFunc[row]{
		"name": func(a, b row) bool { return a.name < b.name },
		"size": func(a, b row) bool { return a.size < b.size },
	})
	rows := []row{{"b", 2}, {"a", 2}, {"c", 1}}

	assert.Equal(t, []string{"name", "size"}, sorter.Fields())

	got, err := sorter.Sort(rows, "name")
	require.NoError(t, err)
	assert.Equal(t, []row{{"a", 2}, {"b", 2}, {"c", 1}}, got)
	assert.Equal(t, row{"b", 2}, rows[0], "input not modified")

	got, err = sorter.Sort(rows, "size:desc")
	require.NoError(t, err)
	assert.Equal(t, []row{{"b", 2}, {"a", 2}, {"c", 1}}, got, "stable for equal keys")

	got, err = sorter.Sort(rows, "")
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	_, err = sorter.Sort(rows, "color")
	require.ErrorIs(t, err, ErrInvalidSortField)
}
