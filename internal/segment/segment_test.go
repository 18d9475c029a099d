package segment

import (
	"strings"
	"testing"

	"github.com/ppiankov/clauseflag/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeg(t *testing.T) *Punkt {
	t.Helper()
	seg, err := Default()
	require.NoError(t, err)
	return seg
}

func TestSplit_Basic(t *testing.T) {
	got := newSeg(t).Split("The Contractor shall deliver the report. The Sponsor shall pay the invoice. Both parties agree.")

	require.Len(t, got, 3)
	assert.Equal(t, "The Contractor shall deliver the report.", got[0].Text)
	assert.Equal(t, "The Sponsor shall pay the invoice.", got[1].Text)
	assert.Equal(t, "Both parties agree.", got[2].Text)
	for i, s := range got {
		assert.Equal(t, i, s.Index)
	}
}

func TestSplit_DecimalsDoNotSplit(t *testing.T) {
	got := newSeg(t).Split("The overhead rate is 52.5 percent of direct costs. Payment is due in 30 days.")

	require.Len(t, got, 2)
	assert.Equal(t, "The overhead rate is 52.5 percent of direct costs.", got[0].Text)
}

func TestSplit_AbbreviationsDoNotSplit(t *testing.T) {
	got := newSeg(t).Split("The principal investigator is Dr. Smith of the university. She shall report quarterly.")

	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[0].Text, "The principal investigator is Dr. Smith"))
}

func TestSplit_Deterministic(t *testing.T) {
	text := "First clause applies. Second clause applies.\nThird clause applies."
	seg := newSeg(t)
	assert.Equal(t, seg.Split(text), seg.Split(text))
}

func TestSplit_EmptyInput(t *testing.T) {
	assert.Empty(t, newSeg(t).Split(""))
	assert.Empty(t, newSeg(t).Split("   \n\t "))
}

func TestSplit_IndexesFollowOrder(t *testing.T) {
	got := newSeg(t).Split("One sentence here. Another one there.")
	require.Len(t, got, 2)
	assert.Equal(t, model.Sentence{Index: 0, Text: "One sentence here."}, got[0])
	assert.Equal(t, model.Sentence{Index: 1, Text: "Another one there."}, got[1])
}
