package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBlocksAcceptsWellFormedTree(t *testing.T) {
	blocks := []Block{
		{ID: "t", Type: BlockText, Text: &TextProps{Content: "hello"}},
		{ID: "c", Type: BlockContainer, Container: &ContainerProps{Children: []Block{
			{ID: "s", Type: BlockSpacer, Spacer: &SpacerProps{Height: 10}},
		}}},
	}
	assert.NoError(t, ValidateBlocks(blocks))
}

func TestValidateBlocksRejectsDuplicateLabelID(t *testing.T) {
	blocks := []Block{
		{ID: "tbl", Type: BlockTable, Table: &TableProps{Rows: [][]TableCell{
			{{Content: "A", IsLabel: true, LabelID: "regularHours"}},
			{{Content: "B", IsLabel: true, LabelID: "regularHours"}},
		}}},
	}
	err := ValidateBlocks(blocks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regularHours")
}

func TestValidateBlocksAllowsSameLabelIDAcrossTables(t *testing.T) {
	table := func(id string) Block {
		return Block{ID: id, Type: BlockTable, Table: &TableProps{Rows: [][]TableCell{
			{{Content: "A", IsLabel: true, LabelID: "hours"}},
		}}}
	}
	assert.NoError(t, ValidateBlocks([]Block{table("t1"), table("t2")}))
}

func TestValidateBlocksRejectsOversizedTree(t *testing.T) {
	blocks := make([]Block, MaxBlocks+1)
	for i := range blocks {
		blocks[i] = Block{ID: fmt.Sprintf("b%d", i), Type: BlockText, Text: &TextProps{}}
	}
	assert.Error(t, ValidateBlocks(blocks))
	assert.NoError(t, ValidateBlocks(blocks[:MaxBlocks]))
}

func TestValidateBlocksRejectsPayloadTypeMismatch(t *testing.T) {
	blocks := []Block{{ID: "x", Type: BlockText, Image: &ImageProps{Src: "y"}}}
	assert.Error(t, ValidateBlocks(blocks))
}

func TestValidateBlocksCountsNestedChildrenTowardCap(t *testing.T) {
	children := make([]Block, MaxBlocks)
	for i := range children {
		children[i] = Block{ID: fmt.Sprintf("c%d", i), Type: BlockText, Text: &TextProps{}}
	}
	blocks := []Block{{ID: "root", Type: BlockContainer, Container: &ContainerProps{Children: children}}}
	assert.Error(t, ValidateBlocks(blocks))
}
