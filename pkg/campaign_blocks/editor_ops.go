package campaign_blocks

import (
	"fmt"
)

// OperationKind names an editor mutation that can be sent over the wire.
type OperationKind string

const (
	OpAddSection        OperationKind = "addSection"
	OpMoveSection       OperationKind = "moveSection"
	OpDeleteSection     OperationKind = "deleteSection"
	OpUpdateSection     OperationKind = "updateSection"
	OpAddBlock          OperationKind = "addBlock"
	OpUpdateBlock       OperationKind = "updateBlock"
	OpMoveBlock         OperationKind = "moveBlock"
	OpDeleteBlock       OperationKind = "deleteBlock"
	OpSelect            OperationKind = "select"
	OpClearSelection    OperationKind = "clearSelection"
	OpSetTitle          OperationKind = "setTitle"
	OpUpdateCell        OperationKind = "updateCell"
	OpUpdateCellStyle   OperationKind = "updateCellStyle"
	OpAddTableRow       OperationKind = "addTableRow"
	OpAddTableColumn    OperationKind = "addTableColumn"
	OpDeleteTableRow    OperationKind = "deleteTableRow"
	OpDeleteTableColumn OperationKind = "deleteTableColumn"
)

// Operation is one editor mutation. Only the fields used by Op are read.
// Destructive operations must carry Confirmed.
type Operation struct {
	Op        OperationKind `json:"op"`
	SectionID string        `json:"sectionId,omitempty"`
	BlockID   string        `json:"blockId,omitempty"`
	Index     *int          `json:"index,omitempty"`
	Direction Direction     `json:"direction,omitempty"`
	BlockType BlockType     `json:"blockType,omitempty"`
	Content   Patch         `json:"content,omitempty"`
	Style     Patch         `json:"style,omitempty"`
	Selection *Selection    `json:"selection,omitempty"`
	Row       int           `json:"row,omitempty"`
	Col       int           `json:"col,omitempty"`
	Text      string        `json:"text,omitempty"`
	Title     string        `json:"title,omitempty"`
	Confirmed bool          `json:"confirmed,omitempty"`
}

// OperationError reports which operation of a batch failed.
type OperationError struct {
	Index int
	Op    OperationKind
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %d (%s) failed: %v", e.Index, e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// ApplyOperations runs ops in order and stops at the first failure.
// Operations applied before the failure are kept.
func (e *Editor) ApplyOperations(ops []Operation) error {
	for i, op := range ops {
		if err := e.apply(op); err != nil {
			return &OperationError{Index: i, Op: op.Op, Err: err}
		}
	}
	return nil
}

func (e *Editor) apply(op Operation) error {
	switch op.Op {
	case OpAddSection:
		e.AddSection()
		return nil
	case OpMoveSection:
		index, err := e.opSectionIndex(op)
		if err != nil {
			return err
		}
		return e.MoveSection(index, op.Direction)
	case OpDeleteSection:
		return e.withConfirmation(op.Confirmed, func() error { return e.DeleteSection(op.SectionID) })
	case OpUpdateSection:
		return e.UpdateSection(op.SectionID, op.Style)
	case OpAddBlock:
		_, err := e.AddBlock(op.BlockType)
		return err
	case OpUpdateBlock:
		return e.UpdateBlock(op.BlockID, BlockPatch{Content: op.Content, Style: op.Style})
	case OpMoveBlock:
		index, err := e.opBlockIndex(op)
		if err != nil {
			return err
		}
		return e.MoveBlock(op.SectionID, index, op.Direction)
	case OpDeleteBlock:
		return e.withConfirmation(op.Confirmed, func() error { return e.DeleteBlock(op.SectionID, op.BlockID) })
	case OpSelect:
		if op.Selection == nil {
			return fmt.Errorf("%w: selection is required", ErrInvalidSelection)
		}
		return e.Select(*op.Selection)
	case OpClearSelection:
		e.ClearSelection()
		return nil
	case OpSetTitle:
		e.SetTitle(op.Title)
		return nil
	case OpUpdateCell:
		return e.UpdateCell(op.BlockID, op.Row, op.Col, op.Text)
	case OpUpdateCellStyle:
		return e.UpdateCellStyle(op.BlockID, op.Row, op.Col, op.Style)
	case OpAddTableRow:
		return e.AddTableRow(op.BlockID)
	case OpAddTableColumn:
		return e.AddTableColumn(op.BlockID)
	case OpDeleteTableRow:
		return e.DeleteTableRow(op.BlockID, op.Row)
	case OpDeleteTableColumn:
		return e.DeleteTableColumn(op.BlockID, op.Col)
	default:
		return fmt.Errorf("unknown operation %q", op.Op)
	}
}

// withConfirmation answers the confirmation prompt of fn with the operation's flag.
func (e *Editor) withConfirmation(confirmed bool, fn func() error) error {
	prev := e.confirm
	e.confirm = ConfirmFunc(func(string) bool { return confirmed })
	defer func() { e.confirm = prev }()
	return fn()
}

// opSectionIndex accepts either an explicit index or a section id.
func (e *Editor) opSectionIndex(op Operation) (int, error) {
	if op.Index != nil {
		return *op.Index, nil
	}
	i := e.sectionIndex(op.SectionID)
	if i < 0 {
		return 0, ErrSectionNotFound
	}
	return i, nil
}

func (e *Editor) opBlockIndex(op Operation) (int, error) {
	if op.Index != nil {
		return *op.Index, nil
	}
	si := e.sectionIndex(op.SectionID)
	if si < 0 {
		return 0, ErrSectionNotFound
	}
	bi := e.sections[si].BlockIndex(op.BlockID)
	if bi < 0 {
		return 0, ErrBlockNotFound
	}
	return bi, nil
}
