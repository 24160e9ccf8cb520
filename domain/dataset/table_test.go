package dataset

import (
	"testing"

	"randomnet/domain/core"
	"randomnet/domain/replicate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gamers() *Table {
	rows := [][3]string{
		{"p1", "alice", "VGames"},
		{"p1", "bob", "VGames"},
		{"p2", "alice", "Systems"},
		{"p2", "alice", "Systems"},
		{"p3", "alice", "VGames"},
		{"p3", "bob", "General"},
		{"p4", "bob", "General"},
		{"p4", "carol", "VGames"},
		{"p5", "", "VGames"},
	}
	t := &Table{Headers: []string{"permalink", "author", "SysGamGen"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, Row{"permalink": r[0], "author": r[1], "SysGamGen": r[2]})
	}
	return t
}

func TestCardinalities(t *testing.T) {
	req, err := gamers().Cardinalities("permalink", "author", "SysGamGen")
	require.NoError(t, err)
	assert.Equal(t, replicate.Request{TopN: 4, BottomN: 3, EdgeN: 7, AttributeCardinality: 3}, req)

	req, err = gamers().Cardinalities("permalink", "author", "")
	require.NoError(t, err)
	assert.Equal(t, 4, req.AttributeCardinality, "attribute defaults to the top column")
}

func TestCardinalitiesMissingColumn(t *testing.T) {
	_, err := gamers().Cardinalities("permalink", "subreddit", "")
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestShrinkBy(t *testing.T) {
	shrunk := gamers().ShrinkBy("author", 3)
	for _, r := range shrunk.Rows {
		assert.Contains(t, []string{"alice", "bob"}, r["author"])
	}
	assert.Len(t, shrunk.Rows, 7)

	assert.Len(t, gamers().ShrinkBy("author", 0).Rows, 9)
}

func TestPairsSkipIncompleteRows(t *testing.T) {
	assert.Len(t, gamers().Pairs("permalink", "author"), 8)
}

func TestModalCategories(t *testing.T) {
	modes := gamers().ModalCategories("author", "SysGamGen")
	assert.Equal(t, map[string]string{
		"alice": "Systems", // 2 Systems vs 2 VGames: lexical tie-break
		"bob":   "General",
		"carol": "VGames",
	}, modes)
}
