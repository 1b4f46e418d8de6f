// Package export writes augmented corpora as Parquet files: one row per generated text.
package export

import (
	"io"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// Row is one generated text.
type Row struct {
	// ID of the batch run, shared by all rows written by the same run.
	RunID string `parquet:"run_id"`
	// Line is the index of the source text in the input.
	Line int64 `parquet:"line"`
	// Text is the source text, Augmented the generated variant.
	Text      string `parquet:"text"`
	Augmented string `parquet:"augmented"`
	// Labels of the augmentations applied, e.g. "typo:telex".
	Labels []string `parquet:"labels,list"`
}

// Writer writes rows to a Parquet file.
type Writer struct {
	w     *parquet.GenericWriter[Row]
	count int
}

// NewWriter creates a Writer to w. Close must be called to flush the file footer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: parquet.NewGenericWriter[Row](w, parquet.Compression(&parquet.Zstd))}
}

// Write appends rows.
func (w *Writer) Write(rows ...Row) error {
	n, err := w.w.Write(rows)
	w.count += n
	if err != nil {
		return errors.Wrapf(err, "failed to write %d rows", len(rows))
	}
	return nil
}

// Count returns the number of rows written so far.
func (w *Writer) Count() int { return w.count }

// Close flushes the remaining rows and the file footer. It doesn't close the underlying io.Writer.
func (w *Writer) Close() error {
	if err := w.w.Close(); err != nil {
		return errors.Wrap(err, "failed to close parquet writer")
	}
	return nil
}

// ReadAll reads all rows of a Parquet file written by Writer.
func ReadAll(r io.ReaderAt, size int64) ([]Row, error) {
	rows, err := parquet.Read[Row](r, size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read parquet rows")
	}
	return rows, nil
}
