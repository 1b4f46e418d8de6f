package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariants(t *testing.T) {
	out := Variants("typo:telex", "tôi đi học",
		[]Variant{{Text: "tooi ddi hocj", Labels: []string{"typo:telex"}}, {Text: "toi di hoc"}},
		"stage blank failed")
	for _, want := range []string{"typo:telex", "tôi đi học", "tooi ddi hocj", "toi di hoc", "1.", "2.", "stage blank failed"} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, []Variant{{Text: "a"}, {Text: "b"}}, Texts([]string{"a", "b"}))
}
