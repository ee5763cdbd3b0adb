package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BlockKind tags the variant of a lesson content block.
type BlockKind string

const (
	BlockText           BlockKind = "text"
	BlockImage          BlockKind = "image"
	BlockAudio          BlockKind = "audio"
	BlockVideo          BlockKind = "video"
	BlockTapToReveal    BlockKind = "tap-to-reveal"
	BlockMultipleChoice BlockKind = "multiple-choice"
	BlockTrueFalse      BlockKind = "true-false"
	BlockSorting        BlockKind = "sorting"
)

// ContentBlock is one piece of lesson content.
type ContentBlock interface {
	Kind() BlockKind
	// Interactive blocks are graded when a lesson is submitted.
	Interactive() bool
}

type TextBlock struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

type ImageBlock struct {
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption,omitempty"`
}

type AudioBlock struct {
	AudioURL   string `json:"audioUrl"`
	AudioTitle string `json:"audioTitle,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Duration   int    `json:"audioDuration,omitempty"`
}

type VideoBlock struct {
	VideoURL     string `json:"videoUrl"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Duration     int    `json:"duration,omitempty"`
}

// TapToRevealBlock hides one or more lines behind a card.
type TapToRevealBlock struct {
	Title         string   `json:"title"`
	HiddenContent []string `json:"hiddenContent"`
}

type MultipleChoiceBlock struct {
	Question    Question `json:"question"`
	MultiSelect bool     `json:"multiSelect,omitempty"`
}

type TrueFalseBlock struct {
	Question Question `json:"question"`
}

type SortingCategory struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

type SortingItem struct {
	Item            string `json:"item"`
	CorrectCategory string `json:"correctCategory"`
}

// SortingBlock asks the learner to place items into categories.
type SortingBlock struct {
	Title         string            `json:"title"`
	Categories    []SortingCategory `json:"categories"`
	UnsortedItems []SortingItem     `json:"unsortedItems"`
}

func (TextBlock) Kind() BlockKind           { return BlockText }
func (ImageBlock) Kind() BlockKind          { return BlockImage }
func (AudioBlock) Kind() BlockKind          { return BlockAudio }
func (VideoBlock) Kind() BlockKind          { return BlockVideo }
func (TapToRevealBlock) Kind() BlockKind    { return BlockTapToReveal }
func (MultipleChoiceBlock) Kind() BlockKind { return BlockMultipleChoice }
func (TrueFalseBlock) Kind() BlockKind      { return BlockTrueFalse }
func (SortingBlock) Kind() BlockKind        { return BlockSorting }

func (TextBlock) Interactive() bool           { return false }
func (ImageBlock) Interactive() bool          { return false }
func (AudioBlock) Interactive() bool          { return false }
func (VideoBlock) Interactive() bool          { return false }
func (TapToRevealBlock) Interactive() bool    { return false }
func (MultipleChoiceBlock) Interactive() bool { return true }
func (TrueFalseBlock) Interactive() bool      { return true }
func (SortingBlock) Interactive() bool        { return true }

// UnmarshalJSON accepts either a single string or a list of strings.
func (b *TapToRevealBlock) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title         string          `json:"title"`
		HiddenContent json.RawMessage `json:"hiddenContent"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Title = raw.Title
	b.HiddenContent = nil
	hidden := bytes.TrimSpace(raw.HiddenContent)
	if len(hidden) == 0 || bytes.Equal(hidden, []byte("null")) {
		return nil
	}
	if hidden[0] == '"' {
		var single string
		if err := json.Unmarshal(hidden, &single); err != nil {
			return err
		}
		b.HiddenContent = []string{single}
		return nil
	}
	return json.Unmarshal(hidden, &b.HiddenContent)
}

// ContentBlocks is an ordered list of blocks encoded with a "type" tag.
type ContentBlocks []ContentBlock

// MarshalJSON writes each block with its "type" tag first.
func (cb ContentBlocks) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, block := range cb {
		if i > 0 {
			buf.WriteByte(',')
		}
		encoded, err := marshalBlock(block)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}
		buf.Write(encoded)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes each element into its concrete block type.
func (cb *ContentBlocks) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	blocks := make(ContentBlocks, 0, len(raw))
	for i, item := range raw {
		block, err := unmarshalBlock(item)
		if err != nil {
			return fmt.Errorf("content block %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}
	*cb = blocks
	return nil
}

func marshalBlock(block ContentBlock) ([]byte, error) {
	if block == nil {
		return nil, ErrUnknownBlockKind
	}
	body, err := json.Marshal(block)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(block.Kind())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if inner := bytes.TrimSpace(body); len(inner) > 2 {
		buf.WriteByte(',')
		buf.Write(inner[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

func unmarshalBlock(data json.RawMessage) (ContentBlock, error) {
	var head struct {
		Type BlockKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case BlockText:
		return decodeBlock[TextBlock](data)
	case BlockImage:
		return decodeBlock[ImageBlock](data)
	case BlockAudio:
		return decodeBlock[AudioBlock](data)
	case BlockVideo:
		return decodeBlock[VideoBlock](data)
	case BlockTapToReveal:
		return decodeBlock[TapToRevealBlock](data)
	case BlockMultipleChoice:
		return decodeBlock[MultipleChoiceBlock](data)
	case BlockTrueFalse:
		return decodeBlock[TrueFalseBlock](data)
	case BlockSorting:
		return decodeBlock[SortingBlock](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockKind, head.Type)
	}
}

func decodeBlock[T ContentBlock](data json.RawMessage) (ContentBlock, error) {
	var block T
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, err
	}
	return block, nil
}
