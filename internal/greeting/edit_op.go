package greeting

import (
	"encoding/json"
	"fmt"
)

// EditOp 标识一次编辑的类别，调用方显式指定，不从 value 的形状推断。
type EditOp string

const (
	OpSet    EditOp = "set"
	OpMerge  EditOp = "merge"
	OpAdd    EditOp = "add"
	OpRemove EditOp = "remove"
	OpMove   EditOp = "move"
)

// Edit 是一条可以通过 HTTP 传输的编辑指令。
type Edit struct {
	Op        EditOp          `json:"op"`
	Field     string          `json:"field"`
	Value     json.RawMessage `json:"value,omitempty"`
	ID        string          `json:"id,omitempty"`
	Direction Direction       `json:"direction,omitempty"`
}

// Apply 在文档副本上依次执行编辑，全部成功后才返回新文档；任一失败则原文档不受影响。
func Apply(doc Document, edits ...Edit) (Document, error) {
	out := doc.Clone()
	out.Normalize()
	for i, e := range edits {
		if err := out.apply(e); err != nil {
			return doc, fmt.Errorf("edit %d (%s %s): %w", i, e.Op, e.Field, err)
		}
	}
	return out, nil
}

func (d *Document) apply(e Edit) error {
	switch e.Op {
	case OpSet:
		var value string
		if err := json.Unmarshal(e.Value, &value); err != nil {
			return fmt.Errorf("%w: set expects a string value", ErrInvalidEdit)
		}
		return d.SetScalar(ScalarField(e.Field), value)
	case OpMerge:
		if len(e.Value) == 0 {
			return fmt.Errorf("%w: merge expects an object value", ErrInvalidEdit)
		}
		return d.MergeObject(ObjectField(e.Field), e.Value)
	case OpAdd:
		return d.applyAdd(CollectionField(e.Field), e.Value)
	case OpRemove:
		return d.applyRemove(CollectionField(e.Field), e.ID)
	case OpMove:
		if CollectionField(e.Field) != FieldMedia {
			return fmt.Errorf("%w: only media can be moved", ErrInvalidEdit)
		}
		return d.MoveMedia(e.ID, e.Direction)
	}
	return fmt.Errorf("%w: unknown op %q", ErrInvalidEdit, e.Op)
}

func (d *Document) applyAdd(field CollectionField, raw json.RawMessage) error {
	switch field {
	case FieldTexts:
		t := NewTextBlock("")
		t.ID = ""
		if err := decodeItem(raw, &t); err != nil {
			return err
		}
		_, err := d.AddText(t)
		return err
	case FieldMedia:
		var m MediaItem
		if err := decodeItem(raw, &m); err != nil {
			return err
		}
		_, err := d.AddMedia(m)
		return err
	case FieldEmojis:
		var e EmojiItem
		if err := decodeItem(raw, &e); err != nil {
			return err
		}
		d.AddEmoji(e)
		return nil
	case FieldBorderElements:
		var el BorderElement
		if err := decodeItem(raw, &el); err != nil {
			return err
		}
		_, err := d.AddBorderElement(el)
		return err
	}
	return fmt.Errorf("%w: unknown collection %q", ErrInvalidEdit, field)
}

func (d *Document) applyRemove(field CollectionField, id string) error {
	switch field {
	case FieldTexts:
		return d.RemoveText(id)
	case FieldMedia:
		return d.RemoveMedia(id)
	case FieldEmojis:
		return d.RemoveEmoji(id)
	case FieldBorderElements:
		return d.RemoveBorderElement(id)
	}
	return fmt.Errorf("%w: unknown collection %q", ErrInvalidEdit, field)
}

func decodeItem(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: add expects an item value", ErrInvalidEdit)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode item: %v", ErrInvalidEdit, err)
	}
	return nil
}
