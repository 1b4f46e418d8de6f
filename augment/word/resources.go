package word

import (
	"bufio"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// ReadVocabulary reads whitespace separated words, dropping duplicates but keeping first-seen order.
func ReadVocabulary(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	seen := make(map[string]bool)
	var vocab []string
	for scanner.Scan() {
		w := scanner.Text()
		if seen[w] {
			continue
		}
		seen[w] = true
		vocab = append(vocab, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read vocabulary")
	}
	return vocab, nil
}

// ReadConfusions reads lines of the form "word spelling1 spelling2 ...". Lines for the same word are
// merged, and duplicated spellings dropped.
func ReadConfusions(r io.Reader) (Confusions, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	c := make(Confusions)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		key := fields[0]
		for _, v := range fields[1:] {
			if v != key && !slices.Contains(c[key], v) {
				c[key] = append(c[key], v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read confusions")
	}
	return c, nil
}

// LoadVocabulary reads the vocabulary file at path, see ReadVocabulary.
func LoadVocabulary(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open vocabulary %q", path)
	}
	defer func() { _ = f.Close() }()
	return ReadVocabulary(f)
}

// LoadConfusions reads the confusions file at path, see ReadConfusions.
func LoadConfusions(path string) (Confusions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open confusions %q", path)
	}
	defer func() { _ = f.Close() }()
	return ReadConfusions(f)
}
