package embeddings

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Safetensors layout of an embedding table.
const (
	// TensorName is the name of the [vocabulary, dimension] F32 matrix.
	TensorName = "embeddings"

	// VocabularyKey is the "__metadata__" entry holding the newline separated vocabulary.
	VocabularyKey = "vocab"

	metadataKey   = "__metadata__"
	maxHeaderSize = 100 << 20
)

// tensorInfo is the header entry of a tensor.
type tensorInfo struct {
	Dtype       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// header of a safetensors file:
//
//	[8 bytes: header size as little-endian u64]
//	[header size bytes: JSON header]
//	[remaining bytes: tensor data]
type header struct {
	Tensors  map[string]tensorInfo
	Metadata map[string]string
}

// parseHeader parses the header at the start of data, and returns it with the offset of the tensor data.
func parseHeader(data []byte) (*header, int, error) {
	if len(data) < 8 {
		return nil, 0, errors.New("file too short for a safetensors header")
	}
	size := binary.LittleEndian.Uint64(data[:8])
	if size > maxHeaderSize || size > uint64(len(data)-8) {
		return nil, 0, errors.Errorf("invalid header size %d bytes", size)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+size], &raw); err != nil {
		return nil, 0, errors.Wrap(err, "failed to parse header JSON")
	}
	h := &header{Tensors: make(map[string]tensorInfo), Metadata: make(map[string]string)}
	for key, value := range raw {
		if key == metadataKey {
			if err := json.Unmarshal(value, &h.Metadata); err != nil {
				return nil, 0, errors.Wrapf(err, "failed to parse %s", metadataKey)
			}
			continue
		}
		var info tensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return nil, 0, errors.Wrapf(err, "failed to parse tensor metadata for %s", key)
		}
		h.Tensors[key] = info
	}
	return h, int(8 + size), nil
}

// LoadSafetensors memory-maps the embedding table at path: a F32 tensor named TensorName of shape
// [vocabulary, dimension], with the vocabulary in the VocabularyKey metadata entry. Close the table
// to release the mapping.
func LoadSafetensors(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open embeddings %q", path)
	}
	defer func() { _ = f.Close() }()
	mapped, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to mmap %q", path)
	}
	t, err := newMappedTable(mapped)
	if err != nil {
		_ = mapped.Unmap()
		return nil, errors.WithMessagef(err, "in %q", path)
	}
	return t, nil
}

func newMappedTable(mapped mmap.MMap) (*Table, error) {
	h, dataOffset, err := parseHeader(mapped)
	if err != nil {
		return nil, err
	}
	info, found := h.Tensors[TensorName]
	if !found {
		return nil, errors.Errorf("tensor %q not found", TensorName)
	}
	if !strings.EqualFold(info.Dtype, "F32") {
		return nil, errors.Errorf("tensor %q has dtype %s, only F32 is supported", TensorName, info.Dtype)
	}
	if len(info.Shape) != 2 {
		return nil, errors.Errorf("tensor %q has shape %v, expected [vocabulary, dimension]", TensorName, info.Shape)
	}
	rows, dim := info.Shape[0], info.Shape[1]
	start, end := int64(dataOffset)+info.DataOffsets[0], int64(dataOffset)+info.DataOffsets[1]
	if end-start != int64(4*rows*dim) || end > int64(len(mapped)) {
		return nil, errors.Errorf("tensor %q data offsets %v don't match shape %v", TensorName, info.DataOffsets, info.Shape)
	}
	vocab := strings.Split(strings.TrimRight(h.Metadata[VocabularyKey], "\n"), "\n")
	if len(vocab) != rows {
		return nil, errors.Errorf("vocabulary has %d words, but tensor %q has %d rows", len(vocab), TensorName, rows)
	}

	t, err := newTable(vocab, dim)
	if err != nil {
		return nil, err
	}
	t.mapped = mapped
	t.dataOffset = int(start)
	t.invNorms = make([]float32, rows)
	for ii := range rows {
		var sum float64
		base := t.dataOffset + 4*ii*dim
		for jj := range dim {
			v := float64(math.Float32frombits(binary.LittleEndian.Uint32(mapped[base+4*jj:])))
			sum += v * v
		}
		if sum > 0 {
			t.invNorms[ii] = float32(1 / math.Sqrt(sum))
		}
	}
	return t, nil
}

// WriteSafetensors writes the table (unit-norm rows) in the format read by LoadSafetensors.
func WriteSafetensors(path string, t *Table) (err error) {
	n := int64(4 * t.Len() * t.dim)
	h := map[string]any{
		metadataKey: map[string]string{VocabularyKey: strings.Join(t.words, "\n")},
		TensorName:  tensorInfo{Dtype: "F32", Shape: []int{t.Len(), t.dim}, DataOffsets: [2]int64{0, n}},
	}
	headerBytes, err := json.Marshal(h)
	if err != nil {
		return errors.Wrap(err, "failed to encode safetensors header")
	}
	// Pad the header with spaces so the data is 8 bytes aligned.
	for (8+len(headerBytes))%8 != 0 {
		headerBytes = append(headerBytes, ' ')
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", path)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrapf(closeErr, "failed to close %q", path)
		}
	}()
	w := bufio.NewWriter(f)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(headerBytes)))
	_, _ = w.Write(buf[:])
	_, _ = w.Write(headerBytes)
	row := make([]float32, t.dim)
	for ii := range t.Len() {
		for _, v := range t.row(ii, row) {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(v))
			_, _ = w.Write(buf[:4])
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write %q", path)
	}
	return nil
}
