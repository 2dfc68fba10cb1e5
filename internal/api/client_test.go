package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBuildsProviderQuery(t *testing.T) {
	var gotPath, gotProvider string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotProvider = r.URL.Query().Get("provider")
		json.NewEncoder(w).Encode(SearchPage{
			CurrentPage: 1,
			Results:     []SearchResult{{ID: "s1", Title: "Some Show"}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	page, err := client.Search(context.Background(), "some show", "animepahe")
	require.NoError(t, err)
	assert.Equal(t, "/anime/search/some%20show", gotPath)
	assert.Equal(t, "animepahe", gotProvider)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Some Show", page.Results[0].Title)
}

func TestInfoPassesPageOnlyWhenSet(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(MediaInfo{ID: "s1", Title: "Some Show", TotalEpisodes: 12})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	info, err := client.Info(context.Background(), "s1", "animepahe", 0)
	require.NoError(t, err)
	assert.Equal(t, "Some Show", info.Title)
	assert.NotContains(t, gotQuery, "page")

	_, err = client.Info(context.Background(), "s1", "animepahe", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, gotQuery["page"])
}

func TestStreamsEscapesEpisodeID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(Streams{Streams: []Stream{{URL: "u", Resolution: "1080p", IsM3U8: true}}})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	streams, err := client.Streams(context.Background(), "ep/1")
	require.NoError(t, err)
	assert.Equal(t, "/anime/streams/ep%2F1", gotPath)
	require.Len(t, streams.Streams, 1)
	assert.True(t, streams.Streams[0].IsM3U8)
}

func TestNonOKStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "q", "animepahe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
