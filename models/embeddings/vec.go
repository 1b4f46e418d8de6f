package embeddings

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultMaxWords is the number of words read from a ".vec" file when no limit is given. fastText
// files are sorted by frequency, so these are the most common words.
const DefaultMaxWords = 10000

// ReadVec reads a fastText ".vec" text table: a "<count> <dim>" header line, then one
// "<word> <v1> ... <vdim>" line per word. At most maxWords words are read (all if maxWords <= 0).
// Vectors are normalized to unit norm.
func ReadVec(r io.Reader, maxWords int) (*Table, error) {
	reader := bufio.NewReaderSize(r, 1<<20)
	header, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || header == "") {
		return nil, errors.Wrap(err, "failed to read .vec header")
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return nil, errors.Errorf("invalid .vec header %q, expected \"<count> <dim>\"", strings.TrimSpace(header))
	}
	count, err1 := strconv.Atoi(fields[0])
	dim, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || count < 0 || dim <= 0 {
		return nil, errors.Errorf("invalid .vec header %q", strings.TrimSpace(header))
	}
	if maxWords <= 0 || maxWords > count {
		maxWords = count
	}

	vocab := make([]string, 0, maxWords)
	vectors := make([]float32, 0, maxWords*dim)
	for lineNum := 2; len(vocab) < maxWords; lineNum++ {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "failed to read .vec line %d", lineNum)
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			if len(fields) != dim+1 {
				return nil, errors.Errorf(".vec line %d has %d values, expected %d", lineNum, len(fields)-1, dim)
			}
			row := make([]float32, dim)
			for jj, f := range fields[1:] {
				v, perr := strconv.ParseFloat(f, 32)
				if perr != nil {
					return nil, errors.Wrapf(perr, ".vec line %d", lineNum)
				}
				row[jj] = float32(v)
			}
			normalize(row)
			vocab = append(vocab, fields[0])
			vectors = append(vectors, row...)
		}
		if err == io.EOF {
			break
		}
	}
	t, err := newTable(vocab, dim)
	if err != nil {
		return nil, err
	}
	t.vectors = vectors
	return t, nil
}

// LoadVec reads the ".vec" file at path, see ReadVec.
func LoadVec(path string, maxWords int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open embeddings %q", path)
	}
	defer func() { _ = f.Close() }()
	t, err := ReadVec(f, maxWords)
	if err != nil {
		return nil, errors.WithMessagef(err, "in %q", path)
	}
	return t, nil
}
