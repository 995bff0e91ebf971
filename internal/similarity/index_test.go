package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QTest-hq/riskgen/internal/history"
)

func TestTokenize(t *testing.T) {
	got := tokenize("GET /api/v1/Users/{userId}/orders?x=1")
	assert.Equal(t, []string{"get", "api", "v1", "users", "userid", "orders"}, got)

	assert.Equal(t, []string{"café", "menu"}, tokenize("CAFÉ Menu"))
	assert.Empty(t, tokenize("a / b"))
}

func TestBuild_SmoothIDF(t *testing.T) {
	idx := Build([]string{"get users", "get orders"})

	// "get" appears in both documents, "users" in one
	assert.InDelta(t, 1.0, idx.idf[idx.vocab["get"]], 1e-9)
	assert.InDelta(t, math.Log(3.0/2.0)+1, idx.idf[idx.vocab["users"]], 1e-9)

	for _, v := range idx.vectors {
		var n float64
		for _, w := range v {
			n += w * w
		}
		assert.InDelta(t, 1.0, n, 1e-9, "vectors are L2 normalised")
	}
}

func TestQuery_RanksBySimilarity(t *testing.T) {
	idx := Build([]string{
		"GET /users",
		"POST /users",
		"GET /orders",
		"DELETE /orders/items",
		"PUT /inventory",
	})

	matches := idx.Query("GET", "/users")
	require.Len(t, matches, 3)
	assert.Equal(t, "GET /users", matches[0].Description)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	// The rare "post" term dilutes the users match below the orders one
	assert.Equal(t, "GET /orders", matches[1].Description)
	assert.Equal(t, "POST /users", matches[2].Description)
	assert.True(t, matches[1].Score >= matches[2].Score)
}

func TestQuery_TiesKeepCorpusOrder(t *testing.T) {
	idx := Build([]string{"PUT /alpha", "PUT /beta", "PUT /gamma", "PUT /delta"})

	matches := idx.Query("PUT", "/unknown")
	require.Len(t, matches, TopK)
	assert.Equal(t, "PUT /alpha", matches[0].Description)
	assert.Equal(t, "PUT /beta", matches[1].Description)
	assert.Equal(t, "PUT /gamma", matches[2].Description)
}

func TestQuery_EmptyIndex(t *testing.T) {
	var nilIndex *Index
	assert.Empty(t, nilIndex.Query("GET", "/a"))
	assert.Empty(t, Build(nil).Query("GET", "/a"))
	assert.Empty(t, Build([]string{"GET /users"}).Query("PATCH", "/zzz"), "no shared vocabulary")
}

func TestBuild_CopiesCorpus(t *testing.T) {
	corpus := []string{"GET /users"}
	idx := Build(corpus)
	corpus[0] = "mutated"

	matches := idx.Query("GET", "/users")
	require.Len(t, matches, 1)
	assert.Equal(t, "GET /users", matches[0].Description)
}

func TestCorpusFromLog(t *testing.T) {
	entries := []history.LogEntry{
		{Method: "post", URL: "/b"},
		{Method: "GET", URL: "/a"},
		{Method: "POST", URL: "/b"},
	}
	assert.Equal(t, []string{"GET /a", "POST /b"}, CorpusFromLog(entries))
}
