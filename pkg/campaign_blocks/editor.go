package campaign_blocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
)

const (
	ConfirmDeleteSection = "섹션을 삭제하면 내부 위젯도 모두 삭제됩니다. 계속하시겠습니까?"
	ConfirmDeleteBlock   = "위젯을 삭제하시겠습니까?"

	// PublishedStatus is the status written by every editor save.
	PublishedStatus = "published"
)

var (
	ErrNotConfirmed     = errors.New("operation was not confirmed")
	ErrSectionNotFound  = errors.New("section not found")
	ErrBlockNotFound    = errors.New("block not found")
	ErrUnknownBlockType = errors.New("unknown block type")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrOpaqueBlock      = errors.New("block cannot be edited")
	ErrInvalidPatch     = errors.New("invalid patch")
	ErrInvalidDirection = errors.New("invalid direction")
)

// SelectionKind is the state of the editor selection.
type SelectionKind string

const (
	SelectionNone    SelectionKind = "none"
	SelectionSection SelectionKind = "section"
	SelectionBlock   SelectionKind = "block"
	SelectionCell    SelectionKind = "cell"
)

// Selection identifies what the editor currently targets. Row and Col are
// meaningful only for cell selections.
type Selection struct {
	Kind      SelectionKind `json:"kind"`
	SectionID string        `json:"sectionId,omitempty"`
	BlockID   string        `json:"blockId,omitempty"`
	Row       int           `json:"row,omitempty"`
	Col       int           `json:"col,omitempty"`
}

func NoSelection() Selection {
	return Selection{Kind: SelectionNone}
}

func (s Selection) IsNone() bool {
	return s.Kind == "" || s.Kind == SelectionNone
}

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func (d Direction) IsValid() bool {
	return d == Up || d == Down
}

// Confirmer asks the user to approve a destructive operation.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm approves every destructive operation.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

var neverConfirm Confirmer = ConfirmFunc(func(string) bool { return false })

// Patch is a shallow set of keys to merge into content or style. A nil value removes the key.
type Patch map[string]interface{}

// BlockPatch carries the content and style changes of an update.
type BlockPatch struct {
	Content Patch `json:"content,omitempty"`
	Style   Patch `json:"style,omitempty"`
}

// SaveRequest is what the editor hands to persistence on save.
type SaveRequest struct {
	Title  string          `json:"title"`
	Blocks json.RawMessage `json:"blocks"`
	Status string          `json:"status"`
}

// Editor is the in-memory authoring state of one campaign document.
// It is not safe for concurrent use.
type Editor struct {
	title     string
	sections  []Section
	selection Selection
	newID     IDGenerator
	confirm   Confirmer
	dirty     bool
}

type EditorOption func(*Editor)

func WithIDGenerator(gen IDGenerator) EditorOption {
	return func(e *Editor) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithConfirmer sets the confirmation prompt used by deletes. Without one, deletes are refused.
func WithConfirmer(c Confirmer) EditorOption {
	return func(e *Editor) {
		if c != nil {
			e.confirm = c
		}
	}
}

func NewEditor(opts ...EditorOption) *Editor {
	e := &Editor{
		sections:  []Section{},
		selection: NoSelection(),
		newID:     GenerateID,
		confirm:   neverConfirm,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load replaces the document with the normalized payload. An empty document
// gets one fresh section so there is always a drop target. Selection is reset.
func (e *Editor) Load(raw json.RawMessage) {
	sections := Normalize(raw)
	if len(sections) == 0 {
		sections = append(sections, e.newSection())
	}
	e.sections = sections
	e.selection = NoSelection()
	e.dirty = false
}

func (e *Editor) SetTitle(title string) {
	if e.title != title {
		e.title = title
		e.dirty = true
	}
}

func (e *Editor) Title() string { return e.title }

// IsDirty reports whether the document changed since the last Load or MarkSaved.
func (e *Editor) IsDirty() bool { return e.dirty }

func (e *Editor) MarkSaved() { e.dirty = false }

func (e *Editor) Selection() Selection { return e.selection }

// Sections returns the live section list. Callers must not mutate it; use Snapshot for a copy.
func (e *Editor) Sections() []Section { return e.sections }

// Snapshot returns a deep copy of the document.
func (e *Editor) Snapshot() []Section { return CloneSections(e.sections) }

// Document serializes the current document in its persisted shape.
func (e *Editor) Document() (json.RawMessage, error) {
	return Marshal(e.sections)
}

// Save serializes the document with the title and the published status.
// It is a full overwrite; persistence decides about version conflicts.
func (e *Editor) Save() (SaveRequest, error) {
	blocks, err := e.Document()
	if err != nil {
		return SaveRequest{}, fmt.Errorf("failed to serialize document: %w", err)
	}
	return SaveRequest{Title: e.title, Blocks: blocks, Status: PublishedStatus}, nil
}

// Section returns a copy of the section with the given id.
func (e *Editor) Section(id string) (Section, error) {
	i := e.sectionIndex(id)
	if i < 0 {
		return Section{}, ErrSectionNotFound
	}
	return e.sections[i].Clone(), nil
}

// Block returns a copy of the block with the given id and the id of its section.
func (e *Editor) Block(id string) (Block, string, error) {
	si, bi := e.blockIndex(id)
	if si < 0 {
		return Block{}, "", ErrBlockNotFound
	}
	return e.sections[si].Children[bi].Clone(), e.sections[si].ID, nil
}

// SectionIndex returns the position of the section with the given id, or -1.
func (e *Editor) SectionIndex(id string) int {
	return e.sectionIndex(id)
}

func (e *Editor) sectionIndex(id string) int {
	for i, s := range e.sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) blockIndex(id string) (int, int) {
	for si, s := range e.sections {
		if bi := s.BlockIndex(id); bi >= 0 {
			return si, bi
		}
	}
	return -1, -1
}

func (e *Editor) idInUse(id string) bool {
	if e.sectionIndex(id) >= 0 {
		return true
	}
	si, _ := e.blockIndex(id)
	return si >= 0
}

// uniqueID draws ids until one is unused in the document.
func (e *Editor) uniqueID(prefix string) string {
	for i := 0; i < 16; i++ {
		if id := e.newID(prefix); !e.idInUse(id) {
			return id
		}
	}
	base := e.newID(prefix)
	for n := 2; ; n++ {
		if id := base + "_" + strconv.Itoa(n); !e.idInUse(id) {
			return id
		}
	}
}

func (e *Editor) newSection() Section {
	return Section{
		ID:       e.uniqueID(SectionIDPrefix),
		Style:    NewSectionStyle(),
		Children: []Block{},
	}
}

// Select changes the selection. A cell can only be selected while its table
// block (or another cell of it) is selected.
func (e *Editor) Select(sel Selection) error {
	switch sel.Kind {
	case "", SelectionNone:
		e.selection = NoSelection()
		return nil
	case SelectionSection:
		if e.sectionIndex(sel.SectionID) < 0 {
			return ErrSectionNotFound
		}
		e.selection = Selection{Kind: SelectionSection, SectionID: sel.SectionID}
		return nil
	case SelectionBlock:
		si, _ := e.blockIndex(sel.BlockID)
		if si < 0 {
			return ErrBlockNotFound
		}
		e.selection = Selection{Kind: SelectionBlock, SectionID: e.sections[si].ID, BlockID: sel.BlockID}
		return nil
	case SelectionCell:
		cur := e.selection
		if (cur.Kind != SelectionBlock && cur.Kind != SelectionCell) || cur.BlockID != sel.BlockID {
			return fmt.Errorf("%w: a cell can only be selected inside the selected table", ErrInvalidSelection)
		}
		si, bi := e.blockIndex(sel.BlockID)
		if si < 0 {
			return ErrBlockNotFound
		}
		table := e.sections[si].Children[bi].Table()
		if table == nil {
			return fmt.Errorf("%w: block %s is not a table", ErrInvalidSelection, sel.BlockID)
		}
		if sel.Row < 0 || sel.Row >= len(table.Rows) || sel.Col < 0 || sel.Col >= table.ColumnCount() {
			return fmt.Errorf("%w: cell %s is out of range", ErrInvalidSelection, CellKey(sel.Row, sel.Col))
		}
		e.selection = Selection{Kind: SelectionCell, SectionID: e.sections[si].ID, BlockID: sel.BlockID, Row: sel.Row, Col: sel.Col}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSelection, sel.Kind)
	}
}

func (e *Editor) ClearSelection() {
	e.selection = NoSelection()
}

// AddSection appends an empty section and selects it.
func (e *Editor) AddSection() Section {
	section := e.newSection()
	e.sections = append(e.sections, section)
	e.selection = Selection{Kind: SelectionSection, SectionID: section.ID}
	e.dirty = true
	return section.Clone()
}

// MoveSection swaps the section at index with its neighbour. Moving past either end is a no-op.
func (e *Editor) MoveSection(index int, dir Direction) error {
	if !dir.IsValid() {
		return ErrInvalidDirection
	}
	if index < 0 || index >= len(e.sections) {
		return ErrSectionNotFound
	}
	target := index - 1
	if dir == Down {
		target = index + 1
	}
	if target < 0 || target >= len(e.sections) {
		return nil
	}
	e.sections[index], e.sections[target] = e.sections[target], e.sections[index]
	e.dirty = true
	return nil
}

// DeleteSection removes a section and all of its blocks after confirmation.
func (e *Editor) DeleteSection(id string) error {
	i := e.sectionIndex(id)
	if i < 0 {
		return ErrSectionNotFound
	}
	if !e.confirm.Confirm(ConfirmDeleteSection) {
		return ErrNotConfirmed
	}
	e.sections = append(e.sections[:i:i], e.sections[i+1:]...)
	if e.selection.SectionID == id {
		e.selection = NoSelection()
	}
	e.dirty = true
	return nil
}

// UpdateSection merges a style patch into the section.
func (e *Editor) UpdateSection(id string, style Patch) error {
	i := e.sectionIndex(id)
	if i < 0 {
		return ErrSectionNotFound
	}
	merged, err := mergeStyle(e.sections[i].Style, style)
	if err != nil {
		return err
	}
	e.sections[i].Style = merged
	e.dirty = true
	return nil
}

// AddBlock appends a block with the defaults of t to the target section and selects it.
// The target is the selected section, the section of the selected block or cell,
// the last section, or a new section when the document has none.
func (e *Editor) AddBlock(t BlockType) (Block, error) {
	if !t.IsValid() {
		return Block{}, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
	}

	target := -1
	switch e.selection.Kind {
	case SelectionSection:
		target = e.sectionIndex(e.selection.SectionID)
	case SelectionBlock, SelectionCell:
		target, _ = e.blockIndex(e.selection.BlockID)
	}
	if target < 0 {
		if len(e.sections) == 0 {
			e.sections = append(e.sections, e.newSection())
		}
		target = len(e.sections) - 1
	}

	block := NewDefaultBlock(e.uniqueID(BlockIDPrefix), t)
	section := &e.sections[target]
	section.Children = append(section.Children, block)
	e.selection = Selection{Kind: SelectionBlock, SectionID: section.ID, BlockID: block.ID}
	e.dirty = true
	return block.Clone(), nil
}

// UpdateBlock shallow-merges content and style keys into the block. The block type never changes.
func (e *Editor) UpdateBlock(id string, patch BlockPatch) error {
	si, bi := e.blockIndex(id)
	if si < 0 {
		return ErrBlockNotFound
	}
	block := &e.sections[si].Children[bi]
	if block.IsOpaque() {
		return ErrOpaqueBlock
	}

	content := block.Content
	if len(patch.Content) > 0 {
		merged, err := mergeContent(block.Type, block.Content, patch.Content)
		if err != nil {
			return err
		}
		content = merged
	}
	style := block.Style
	if len(patch.Style) > 0 {
		merged, err := mergeStyle(block.Style, patch.Style)
		if err != nil {
			return err
		}
		style = merged
	}

	block.Content = content
	block.Style = style
	e.dirty = true
	e.clampCellSelection()
	return nil
}

// MoveBlock reorders a block within its section. Moving past either end is a no-op.
func (e *Editor) MoveBlock(sectionID string, index int, dir Direction) error {
	if !dir.IsValid() {
		return ErrInvalidDirection
	}
	si := e.sectionIndex(sectionID)
	if si < 0 {
		return ErrSectionNotFound
	}
	children := e.sections[si].Children
	if index < 0 || index >= len(children) {
		return ErrBlockNotFound
	}
	target := index - 1
	if dir == Down {
		target = index + 1
	}
	if target < 0 || target >= len(children) {
		return nil
	}
	children[index], children[target] = children[target], children[index]
	e.dirty = true
	return nil
}

// DeleteBlock removes a block from its section after confirmation.
func (e *Editor) DeleteBlock(sectionID, id string) error {
	si := e.sectionIndex(sectionID)
	if si < 0 {
		return ErrSectionNotFound
	}
	bi := e.sections[si].BlockIndex(id)
	if bi < 0 {
		return ErrBlockNotFound
	}
	if !e.confirm.Confirm(ConfirmDeleteBlock) {
		return ErrNotConfirmed
	}
	children := e.sections[si].Children
	e.sections[si].Children = append(children[:bi:bi], children[bi+1:]...)
	if e.selection.BlockID == id {
		e.selection = NoSelection()
	}
	e.dirty = true
	return nil
}

// clampCellSelection falls back to the block selection when the selected cell no longer exists.
func (e *Editor) clampCellSelection() {
	sel := e.selection
	if sel.Kind != SelectionCell {
		return
	}
	si, bi := e.blockIndex(sel.BlockID)
	if si < 0 {
		e.selection = NoSelection()
		return
	}
	table := e.sections[si].Children[bi].Table()
	if table == nil || sel.Row >= len(table.Rows) || sel.Col >= table.ColumnCount() {
		e.selection = Selection{Kind: SelectionBlock, SectionID: sel.SectionID, BlockID: sel.BlockID}
	}
}

// UploadField names where an uploaded storage reference is written.
type UploadField string

const (
	UploadFieldImageURL        UploadField = "url"
	UploadFieldBackgroundImage UploadField = "backgroundImage"
)

// UploadDestination targets either a section (SectionID only) or a block.
type UploadDestination struct {
	SectionID string      `json:"sectionId,omitempty"`
	BlockID   string      `json:"blockId,omitempty"`
	Field     UploadField `json:"field"`
}

// UploadTarget is a one-time upload handle issued by storage.
type UploadTarget struct {
	Ref       string            `json:"ref"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt int64             `json:"expiresAt,omitempty"`
}

//go:generate mockgen -destination=./mocks/mock_uploader.go -package=mocks github.com/lifenjoy/campaigns/pkg/campaign_blocks Uploader

// Uploader is the storage collaborator used by AttachUpload.
type Uploader interface {
	GenerateUploadTarget(ctx context.Context) (UploadTarget, error)
	Transfer(ctx context.Context, target UploadTarget, contentType string, body io.Reader) (string, error)
}

// AttachUpload uploads body and stores the returned storage reference in the destination field.
// On any failure the document is left unchanged.
func (e *Editor) AttachUpload(ctx context.Context, uploader Uploader, dest UploadDestination, contentType string, body io.Reader) (string, error) {
	apply, err := e.uploadSetter(dest)
	if err != nil {
		return "", err
	}

	target, err := uploader.GenerateUploadTarget(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to generate upload target: %w", err)
	}
	ref, err := uploader.Transfer(ctx, target, contentType, body)
	if err != nil {
		return "", fmt.Errorf("failed to transfer upload: %w", err)
	}
	if ref == "" {
		return "", errors.New("storage returned an empty reference")
	}

	// the document may have changed while the upload was in flight
	if apply, err = e.uploadSetter(dest); err != nil {
		return "", err
	}
	apply(ref)
	e.dirty = true
	return ref, nil
}

func (e *Editor) uploadSetter(dest UploadDestination) (func(ref string), error) {
	if dest.BlockID == "" {
		i := e.sectionIndex(dest.SectionID)
		if i < 0 {
			return nil, ErrSectionNotFound
		}
		if dest.Field != UploadFieldBackgroundImage {
			return nil, fmt.Errorf("%w: sections only accept %s uploads", ErrInvalidPatch, UploadFieldBackgroundImage)
		}
		return func(ref string) { e.sections[i].Style.BackgroundImage = StyleValue(ref) }, nil
	}

	si, bi := e.blockIndex(dest.BlockID)
	if si < 0 {
		return nil, ErrBlockNotFound
	}
	block := &e.sections[si].Children[bi]
	if block.IsOpaque() {
		return nil, ErrOpaqueBlock
	}
	switch dest.Field {
	case UploadFieldImageURL:
		img := block.Image()
		if img == nil {
			return nil, fmt.Errorf("%w: block %s is not an image", ErrInvalidPatch, dest.BlockID)
		}
		return func(ref string) { img.URL = ref }, nil
	case UploadFieldBackgroundImage:
		return func(ref string) { block.Style.BackgroundImage = StyleValue(ref) }, nil
	default:
		return nil, fmt.Errorf("%w: unknown upload field %q", ErrInvalidPatch, dest.Field)
	}
}

// mergeContent overlays patch keys on the JSON form of the content and decodes the result
// strictly into the same variant. Patch keys the variant does not declare are ignored
// unless the stored content already carries them.
func mergeContent(t BlockType, content Content, patch Patch) (Content, error) {
	if content == nil {
		if content = newContent(t); content == nil {
			return nil, ErrUnknownBlockType
		}
	}
	fields, err := toFieldMap(content)
	if err != nil {
		return nil, err
	}
	known := jsonFieldNames(reflect.TypeOf(content).Elem())
	accepted := Patch{}
	for k, v := range patch {
		if _, stored := fields[k]; stored || known[strings.ToLower(k)] {
			accepted[k] = v
		}
	}
	overlay(fields, accepted)
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	merged := newContent(t)
	if merged == nil {
		return nil, ErrUnknownBlockType
	}
	if err := json.Unmarshal(data, merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return merged, nil
}

// mergeStyle overlays patch keys on the style. Keys that are not valid style values are kept as given.
func mergeStyle(style Style, patch Patch) (Style, error) {
	fields, err := toFieldMap(style)
	if err != nil {
		return Style{}, err
	}
	overlay(fields, patch)
	data, err := json.Marshal(fields)
	if err != nil {
		return Style{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	var merged Style
	if err := json.Unmarshal(data, &merged); err != nil {
		return Style{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return merged, nil
}

func toFieldMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return fields, nil
}

func overlay(fields map[string]interface{}, patch Patch) {
	for k, v := range patch {
		if v == nil {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}
}
