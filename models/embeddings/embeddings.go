// Package embeddings holds word embedding tables and their nearest-neighbour search.
//
// Tables are read from fastText ".vec" text files (ReadVec, LoadVec) or from a ".safetensors" file
// holding a [vocabulary, dimension] float32 matrix (LoadSafetensors), which is memory-mapped instead
// of loaded.
package embeddings

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Table is a read-only word embedding table, safe for concurrent use.
type Table struct {
	words []string
	index map[string]int
	dim   int

	// vectors holds unit-norm rows, for tables loaded in memory.
	vectors []float32

	// mapped holds the raw little-endian float32 rows starting at dataOffset, for memory-mapped
	// tables. Rows are not normalized: invNorms holds their inverse norms.
	mapped     mmap.MMap
	dataOffset int
	invNorms   []float32
}

func newTable(words []string, dim int) (*Table, error) {
	t := &Table{words: words, index: make(map[string]int, len(words)), dim: dim}
	for ii, w := range words {
		if _, found := t.index[w]; found {
			continue
		}
		t.index[w] = ii
	}
	if dim <= 0 {
		return nil, errors.Errorf("invalid embedding dimension %d", dim)
	}
	return t, nil
}

// Len returns the vocabulary size.
func (t *Table) Len() int { return len(t.words) }

// Dim returns the embedding dimension.
func (t *Table) Dim() int { return t.dim }

// Words returns the vocabulary, in table order. It must not be modified.
func (t *Table) Words() []string { return t.words }

// Contains reports whether word is in the vocabulary.
func (t *Table) Contains(word string) bool {
	_, found := t.index[word]
	return found
}

// Vector returns a copy of the unit-norm embedding of word, or nil if word is unknown.
func (t *Table) Vector(word string) []float32 {
	ii, found := t.index[word]
	if !found {
		return nil
	}
	return t.row(ii, make([]float32, t.dim))
}

// row writes the unit-norm row ii into dst and returns it.
func (t *Table) row(ii int, dst []float32) []float32 {
	if t.vectors != nil {
		copy(dst, t.vectors[ii*t.dim:(ii+1)*t.dim])
		return dst
	}
	start := t.dataOffset + 4*ii*t.dim
	for jj := range dst {
		dst[jj] = math.Float32frombits(binary.LittleEndian.Uint32(t.mapped[start+4*jj:])) * t.invNorms[ii]
	}
	return dst
}

// dot returns the cosine similarity between row ii and the unit vector ref.
func (t *Table) dot(ii int, ref []float32) float32 {
	var sum float32
	if t.vectors != nil {
		for jj, v := range t.vectors[ii*t.dim : (ii+1)*t.dim] {
			sum += v * ref[jj]
		}
		return sum
	}
	start := t.dataOffset + 4*ii*t.dim
	for jj, r := range ref {
		sum += math.Float32frombits(binary.LittleEndian.Uint32(t.mapped[start+4*jj:])) * r
	}
	return sum * t.invNorms[ii]
}

// Neighbour is a word and its cosine similarity to the query.
type Neighbour struct {
	Word  string
	Score float32
}

// Nearest returns the k words most similar to word, best first, excluding word itself.
// It returns nil if word is unknown.
func (t *Table) Nearest(word string, k int) []Neighbour {
	ref := t.Vector(word)
	if ref == nil || k <= 0 {
		return nil
	}
	top := make([]Neighbour, 0, k+1)
	for ii, candidate := range t.words {
		if candidate == word {
			continue
		}
		score := t.dot(ii, ref)
		if len(top) == k && score <= top[k-1].Score {
			continue
		}
		pos, _ := slices.BinarySearchFunc(top, score, func(n Neighbour, s float32) int {
			// Descending order: larger scores first.
			switch {
			case n.Score > s:
				return -1
			case n.Score < s:
				return 1
			}
			return 0
		})
		top = slices.Insert(top, pos, Neighbour{Word: candidate, Score: score})
		if len(top) > k {
			top = top[:k]
		}
	}
	return top
}

// Similar returns the k words most similar to word, best first, excluding word itself.
// It returns nil if word is unknown.
func (t *Table) Similar(word string, k int) []string {
	neighbours := t.Nearest(word, k)
	if neighbours == nil {
		return nil
	}
	similar := make([]string, len(neighbours))
	for ii, n := range neighbours {
		similar[ii] = n.Word
	}
	return similar
}

// Close releases the memory-mapped file, if any. The table must not be used afterwards.
func (t *Table) Close() error {
	if t.mapped == nil {
		return nil
	}
	err := t.mapped.Unmap()
	t.mapped = nil
	if err != nil {
		return errors.Wrap(err, "failed to unmap embeddings")
	}
	return nil
}

// normalize scales v to unit norm in place. Zero vectors are left as they are.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for ii := range v {
		v[ii] *= inv
	}
}
