// Package similarity ranks historically seen endpoints against a target
// endpoint using TF-IDF weighted cosine similarity.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// TopK is the number of matches returned by Query
const TopK = 3

// Match is one corpus entry ranked against a query
type Match struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Index is an immutable TF-IDF vector space over a corpus of endpoint
// descriptions. The zero value and a nil *Index are valid empty indexes.
type Index struct {
	corpus  []string
	vocab   map[string]int
	idf     []float64
	vectors []vector
}

// vector is a sparse L2-normalised term weight vector keyed by vocabulary index
type vector map[int]float64

// Build fits the vocabulary and inverse document frequencies over corpus
// and vectorises every entry. Document frequency uses smoothed idf
// ln((1+n)/(1+df)) + 1.
func Build(corpus []string) *Index {
	idx := &Index{
		corpus: append([]string(nil), corpus...),
		vocab:  make(map[string]int),
	}
	if len(corpus) == 0 {
		return idx
	}

	tokenized := make([][]string, len(corpus))
	var df []int
	for i, doc := range corpus {
		tokens := tokenize(doc)
		tokenized[i] = tokens

		seen := make(map[int]bool)
		for _, tok := range tokens {
			id, ok := idx.vocab[tok]
			if !ok {
				id = len(idx.vocab)
				idx.vocab[tok] = id
				df = append(df, 0)
			}
			if !seen[id] {
				seen[id] = true
				df[id]++
			}
		}
	}

	n := float64(len(corpus))
	idx.idf = make([]float64, len(df))
	for id, count := range df {
		idx.idf[id] = math.Log((1+n)/(1+float64(count))) + 1
	}

	idx.vectors = make([]vector, len(corpus))
	for i, tokens := range tokenized {
		idx.vectors[i] = idx.vectorize(tokens)
	}
	return idx
}

// Len returns the corpus size
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.corpus)
}

// Query ranks the corpus against "METHOD endpoint" and returns at most TopK
// matches with positive similarity, best first. Ties keep corpus order. An
// empty index yields no matches.
func (idx *Index) Query(method, endpoint string) []Match {
	if idx.Len() == 0 {
		return nil
	}

	q := idx.vectorize(tokenize(method + " " + endpoint))
	if len(q) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(idx.corpus))
	for i, v := range idx.vectors {
		if score := dot(q, v); score > 0 {
			matches = append(matches, Match{Description: idx.corpus[i], Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > TopK {
		matches = matches[:TopK]
	}
	return matches
}

// vectorize weights term counts by idf and normalises; out-of-vocabulary
// tokens are ignored
func (idx *Index) vectorize(tokens []string) vector {
	v := make(vector)
	for _, tok := range tokens {
		if id, ok := idx.vocab[tok]; ok {
			v[id]++
		}
	}

	var norm2 float64
	for id, tf := range v {
		w := tf * idx.idf[id]
		v[id] = w
		norm2 += w * w
	}
	if norm2 == 0 {
		return v
	}
	length := math.Sqrt(norm2)
	for id := range v {
		v[id] /= length
	}
	return v
}

func dot(a, b vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for id, w := range a {
		sum += w * b[id]
	}
	return sum
}

// tokenize splits text into case-folded word tokens of at least two
// characters. Word characters are letters, digits and underscore.
func tokenize(text string) []string {
	// Casers carry state, so each call gets its own
	text = cases.Fold().String(norm.NFC.String(text))

	var tokens []string
	var b strings.Builder
	runes := 0
	flush := func() {
		if runes >= 2 {
			tokens = append(tokens, b.String())
		}
		b.Reset()
		runes = 0
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			runes++
			continue
		}
		flush()
	}
	flush()
	return tokens
}
