package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"tablo/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint_DefaultsAndValidates(t *testing.T) {
	u, err := parseEndpoint(" example.com/customers ")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/customers", u.String())

	u, err = parseEndpoint("https://api.test/customers?tenant=a#frag")
	require.NoError(t, err)
	assert.Equal(t, "https://api.test/customers?tenant=a", u.String())

	_, err = parseEndpoint("")
	assert.Error(t, err)
	_, err = parseEndpoint("ftp://example.com")
	assert.ErrorContains(t, err, "scheme")
}

func TestRequestParams_SendsEveryField(t *testing.T) {
	opts := query.Options{Search: "ann", SortBy: "job", SortOrder: query.SortDesc, Page: 3, ItemsPerPage: query.PerPage25}
	assert.Equal(t, map[string]string{
		"page":   "3",
		"limit":  "25",
		"search": "ann",
		"sortBy": "job",
		"order":  "desc",
	}, RequestParams(opts))

	params := RequestParams(query.Defaults())
	assert.Equal(t, "", params["search"])
	assert.Equal(t, "", params["sortBy"])
	assert.Equal(t, "asc", params["order"])
}

func TestClient_FetchArray(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(TotalCountHeader, "42")
		_, _ = w.Write([]byte(`[{"id":"1","first_name":"Ann"},{"id":"2","first_name":"Bo"}]`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/customers")
	require.NoError(t, err)

	opts := query.Options{Search: "a", SortBy: "first_name", SortOrder: query.SortAsc, Page: 2, ItemsPerPage: query.PerPage10}
	page, err := c.Fetch(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "2", got.Get("page"))
	assert.Equal(t, "10", got.Get("limit"))
	assert.Equal(t, "a", got.Get("search"))
	assert.Equal(t, "first_name", got.Get("sortBy"))
	assert.Equal(t, "asc", got.Get("order"))

	require.Len(t, page.Items, 2)
	assert.Equal(t, "1", page.Items[0].ID())
	assert.Equal(t, "Bo", page.Items[1].Value("first_name"))
	assert.True(t, page.TotalKnown)
	assert.Equal(t, 42, page.Total)
}

func TestClient_FetchKeepsEndpointQuery(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/customers?tenant=acme")
	require.NoError(t, err)
	page, err := c.Fetch(context.Background(), query.Defaults())
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.TotalKnown)
	assert.Equal(t, "acme", got.Get("tenant"))
	assert.Equal(t, "1", got.Get("page"))
}

func TestClient_FetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), query.Defaults())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestClient_FetchMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"oops":`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), query.Defaults())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_FetchHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(srv.URL, WithTimeout(5*time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Fetch(ctx, query.Defaults())
	assert.ErrorIs(t, err, context.Canceled)
}
