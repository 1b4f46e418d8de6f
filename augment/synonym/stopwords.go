package synonym

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ReadStopWords reads one stop word per line. Multi-syllable stop words are stored with their
// syllables joined by "_" in the file, and are kept as-is. Keys are lower-cased.
func ReadStopWords(r io.Reader) (map[string]bool, error) {
	stopWords := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.ContainsAny(word, " \t") {
			continue
		}
		stopWords[word] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read stop words")
	}
	return stopWords, nil
}

// LoadStopWords reads the stop words file at path.
func LoadStopWords(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open stop words %q", path)
	}
	defer func() { _ = f.Close() }()
	return ReadStopWords(f)
}
