package schema

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxBlocks caps the total node count of a template tree.
const MaxBlocks = 500

// ValidateBlocks checks structural rules before a tree is accepted for
// rendering: total node count, payload/type coherence, and labelId uniqueness
// within each table (two label cells sharing a labelId would alias the same
// derived paths).
func ValidateBlocks(blocks []Block) error {
	if n := CountBlocks(blocks); n > MaxBlocks {
		return fmt.Errorf("schema: %d blocks exceeds the maximum of %d", n, MaxBlocks)
	}
	return validateBlocks(blocks)
}

func validateBlocks(blocks []Block) error {
	for _, b := range blocks {
		if err := validateBlock(b); err != nil {
			return err
		}
	}
	return nil
}

func validateBlock(b Block) error {
	if err := validation.ValidateStruct(&b,
		validation.Field(&b.Type, validation.Required, validation.In(
			BlockText, BlockTable, BlockImage, BlockContainer, BlockDivider, BlockSpacer)),
	); err != nil {
		return fmt.Errorf("schema: block %q: %w", b.ID, err)
	}
	if !payloadMatchesType(b) {
		return fmt.Errorf("schema: block %q: properties do not match type %q", b.ID, b.Type)
	}
	if b.Table != nil {
		if err := validateTable(b); err != nil {
			return err
		}
	}
	if b.Container != nil {
		return validateBlocks(b.Container.Children)
	}
	return nil
}

func payloadMatchesType(b Block) bool {
	switch b.Type {
	case BlockText:
		return b.Text != nil
	case BlockTable:
		return b.Table != nil
	case BlockImage:
		return b.Image != nil
	case BlockContainer:
		return b.Container != nil
	case BlockDivider:
		return b.Divider != nil
	case BlockSpacer:
		return b.Spacer != nil
	}
	return false
}

func validateTable(b Block) error {
	labels := map[string]bool{}
	for _, row := range b.Table.Rows {
		for _, cell := range row {
			if !cell.IsLabel || cell.LabelID == "" {
				continue
			}
			if labels[cell.LabelID] {
				return fmt.Errorf("schema: block %q: duplicate labelId %q in table", b.ID, cell.LabelID)
			}
			labels[cell.LabelID] = true
		}
	}
	return nil
}
