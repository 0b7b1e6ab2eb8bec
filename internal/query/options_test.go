package query

import (
	"math/rand"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_Defaults(t *testing.T) {
	got := Derive(url.Values{})
	assert.Equal(t, Options{
		Search:       "",
		SortBy:       "",
		SortOrder:    SortAsc,
		Page:         1,
		ItemsPerPage: PerPage10,
	}, got)
	assert.Equal(t, got, Derive(nil))
}

func TestDerive_Fields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Options
	}{
		{"sort desc exact", "sortOrder=desc", Options{SortOrder: SortDesc, Page: 1, ItemsPerPage: 10}},
		{"sort DESC is asc", "sortOrder=DESC", Options{SortOrder: SortAsc, Page: 1, ItemsPerPage: 10}},
		{"sort garbage is asc", "sortOrder=down", Options{SortOrder: SortAsc, Page: 1, ItemsPerPage: 10}},
		{"page parsed", "page=7", Options{SortOrder: SortAsc, Page: 7, ItemsPerPage: 10}},
		{"page leading digits", "page=3abc", Options{SortOrder: SortAsc, Page: 3, ItemsPerPage: 10}},
		{"page garbage", "page=abc", Options{SortOrder: SortAsc, Page: 1, ItemsPerPage: 10}},
		{"page empty", "page=", Options{SortOrder: SortAsc, Page: 1, ItemsPerPage: 10}},
		{"page zero", "page=0", Options{SortOrder: SortAsc, Page: 1, ItemsPerPage: 10}},
		{"page beyond total untouched", "page=999", Options{SortOrder: SortAsc, Page: 999, ItemsPerPage: 10}},
		{"per page 25", "itemsPerPage=25", Options{SortOrder: SortAsc, Page: 1, ItemsPerPage: 25}},
		{"per page 100", "itemsPerPage=100", Options{SortOrder: SortAsc, Page: 1, ItemsPerPage: 100}},
		{"per page 50 not allowed", "itemsPerPage=50", Options{SortOrder: SortAsc, Page: 1, ItemsPerPage: 10}},
		{"per page garbage", "itemsPerPage=lots", Options{SortOrder: SortAsc, Page: 1, ItemsPerPage: 10}},
		{"semicolon kept in search", "search=a;b&page=2", Options{Search: "a;b", SortOrder: SortAsc, Page: 2, ItemsPerPage: 10}},
		{"bad escape skipped", "search=%zz&page=2", Options{SortOrder: SortAsc, Page: 2, ItemsPerPage: 10}},
		{
			"everything",
			"?search=ann&sortBy=last_name&sortOrder=desc&page=2&itemsPerPage=25",
			Options{Search: "ann", SortBy: "last_name", SortOrder: SortDesc, Page: 2, ItemsPerPage: 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveRaw(tt.raw))
		})
	}
}

func TestDerive_Deterministic(t *testing.T) {
	raw := "search=x&page=4&itemsPerPage=100&sortBy=id"
	assert.Equal(t, DeriveRaw(raw), DeriveRaw(raw))
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"defaults keep asc", Defaults(), "sortOrder=asc&page=1&itemsPerPage=10"},
		{"zero value omits everything", Options{}, ""},
		{
			"all fields in order",
			Options{Search: "ann", SortBy: "job", SortOrder: SortDesc, Page: 3, ItemsPerPage: 25},
			"search=ann&sortBy=job&sortOrder=desc&page=3&itemsPerPage=25",
		},
		{
			"search is escaped",
			Options{Search: "a&b c", SortOrder: SortAsc, Page: 1, ItemsPerPage: 10},
			"search=a%26b+c&sortOrder=asc&page=1&itemsPerPage=10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Serialize(tt.opts))
		})
	}
}

func TestRoundTrip_Idempotent(t *testing.T) {
	corpus := []string{
		"",
		"?",
		"page=0",
		"page=-4",
		"page=12abc",
		"sortOrder=asc",
		"sortOrder=desc&sortBy=first_name",
		"itemsPerPage=10",
		"itemsPerPage=50",
		"search=%zz&page=2",
		"search=a%26b&search=second",
		"search=+plus+&sortBy=job",
		"&&&==&page==3",
		"unknown=1&itemsPerPage=100",
		"search=a;b;c&sortBy=x;y",
	}

	rng := rand.New(rand.NewSource(42))
	keys := []string{KeySearch, KeySortBy, KeySortOrder, KeyPage, KeyItemsPerPage, "other"}
	values := []string{"", "desc", "asc", "25", "100", "0", "7", "x y", "a&b", "%", "é", "-1"}
	for i := 0; i < 200; i++ {
		params := url.Values{}
		for j := rng.Intn(6); j > 0; j-- {
			params.Add(keys[rng.Intn(len(keys))], values[rng.Intn(len(values))])
		}
		corpus = append(corpus, params.Encode())
	}

	for _, raw := range corpus {
		derived := DeriveRaw(raw)
		again := DeriveRaw(Serialize(derived))
		require.Equal(t, derived, again, "raw %q", raw)
	}
}

func TestItemsPerPage_Next(t *testing.T) {
	assert.Equal(t, PerPage25, PerPage10.Next())
	assert.Equal(t, PerPage100, PerPage25.Next())
	assert.Equal(t, PerPage10, PerPage100.Next())
	assert.Equal(t, PerPage10, ItemsPerPage(50).Next())
	assert.False(t, ItemsPerPage(50).Valid())
	assert.True(t, PerPage100.Valid())
}

func TestSortOrder_Toggle(t *testing.T) {
	assert.Equal(t, SortDesc, SortAsc.Toggle())
	assert.Equal(t, SortAsc, SortDesc.Toggle())
}
