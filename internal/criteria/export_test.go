package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRoundTrip(t *testing.T) {
	plan, err := Validate([]byte(mixedDoc), DefaultPolicy())
	require.NoError(t, err)

	doc, err := Export(plan.Entries)
	require.NoError(t, err)

	again, err := Validate(doc, DefaultPolicy())
	require.NoError(t, err)
	assert.Empty(t, again.Errors)
	assert.Equal(t, plan.Entries, again.Entries)
}

func TestExportShape(t *testing.T) {
	list := []Criterion{
		{Name: "second", Kind: KindCheckbox, MaxMark: 1, Position: 2, TAVisible: true},
		{Name: "first", Kind: KindRubric, MaxMark: 5, Position: 1, TAVisible: true, PeerVisible: true, Description: "true",
			Levels: []Level{{Name: "none", Description: "", Mark: 0}, {Name: "all", Description: "done", Mark: 5}}},
	}
	doc, err := Export(list)
	require.NoError(t, err)

	want := `first:
  type: rubric
  max_mark: 5.0
  description: "true"
  ta_visible: true
  peer_visible: true
  bonus: false
  levels:
    none:
      description: ""
      mark: 0.0
    all:
      description: done
      mark: 5.0
second:
  type: checkbox
  max_mark: 1.0
  description: ""
  ta_visible: true
  peer_visible: false
  bonus: false
`
	assert.Equal(t, want, string(doc))
}
