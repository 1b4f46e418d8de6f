package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	rows := []Row{
		{RunID: "run", Line: 0, Text: "tôi đi học", Augmented: "tooi ddi hocj", Labels: []string{"typo:telex"}},
		{RunID: "run", Line: 1, Text: "xin chào", Augmented: "_ chào", Labels: []string{"blank", "word:swap"}},
	}
	require.NoError(t, w.Write(rows...))
	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Close())

	got, err := ReadAll(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}
