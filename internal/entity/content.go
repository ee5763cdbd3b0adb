package entity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// Content entities keep the camelCase field names of the authored stages.json
// catalog so existing curriculum files load unchanged.

// Stage is an ordered group of lessons.
type Stage struct {
	ID             int      `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RequiredXP     int      `json:"requiredXP"`
	Lessons        []Lesson `json:"lessons"`
	CheckpointQuiz *Quiz    `json:"checkpointQuiz,omitempty"`
}

// Lesson is an atomic unit of content belonging to exactly one stage.
// Lesson IDs are ordinal within their stage.
type Lesson struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    int           `json:"duration"`
	XPReward    int           `json:"xpReward"`
	Content     ContentBlocks `json:"content"`
	Quiz        *Quiz         `json:"quiz,omitempty"`
	IsLocked    bool          `json:"isLocked,omitempty"`
}

// Quiz is an optional assessment attached to a lesson or stage.
type Quiz struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Questions    []Question `json:"questions"`
	PassingScore int        `json:"passingScore"`
	XPReward     int        `json:"xpReward"`
	Duration     int        `json:"duration"`
}

// Question is a single choice question.
type Question struct {
	Text          string    `json:"questionText"`
	Options       []string  `json:"options"`
	CorrectAnswer AnswerKey `json:"correctAnswer"`
	Explanation   string    `json:"explanation,omitempty"`
}

// Lesson finds a lesson by id.
func (s *Stage) Lesson(lessonID int) (*Lesson, bool) {
	for i := range s.Lessons {
		if s.Lessons[i].ID == lessonID {
			return &s.Lessons[i], true
		}
	}
	return nil, false
}

// AnswerKey holds the correct answer of a question. Authored content uses a
// single option text, a single index, or a list of either.
type AnswerKey struct {
	Text    string
	Index   *int
	Texts   []string
	Indices []int
}

// IndexKey builds an AnswerKey pointing at one option index.
func IndexKey(i int) AnswerKey { return AnswerKey{Index: &i} }

// IndicesKey builds an AnswerKey for a multi-select question.
func IndicesKey(indices ...int) AnswerKey { return AnswerKey{Indices: indices} }

// TextKey builds an AnswerKey naming the correct option text.
func TextKey(text string) AnswerKey { return AnswerKey{Text: text} }

// IsList reports whether the key was authored as a list.
func (k AnswerKey) IsList() bool {
	return k.Texts != nil || k.Indices != nil
}

// Resolve maps the key onto option indices. Unknown option texts are dropped.
func (k AnswerKey) Resolve(options []string) []int {
	switch {
	case k.Indices != nil:
		return lo.Uniq(k.Indices)
	case k.Texts != nil:
		out := make([]int, 0, len(k.Texts))
		for _, text := range k.Texts {
			if idx := lo.IndexOf(options, text); idx >= 0 {
				out = append(out, idx)
			}
		}
		return lo.Uniq(out)
	case k.Index != nil:
		return []int{*k.Index}
	case k.Text != "":
		if idx := lo.IndexOf(options, k.Text); idx >= 0 {
			return []int{idx}
		}
	}
	return nil
}

// MarshalJSON writes the key in its authored shape.
func (k AnswerKey) MarshalJSON() ([]byte, error) {
	switch {
	case k.Indices != nil:
		return json.Marshal(k.Indices)
	case k.Texts != nil:
		return json.Marshal(k.Texts)
	case k.Index != nil:
		return json.Marshal(*k.Index)
	default:
		return json.Marshal(k.Text)
	}
}

// UnmarshalJSON accepts a string, a number, or a list of strings or numbers.
func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*k = AnswerKey{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &k.Text)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if len(raw) == 0 {
			k.Indices = []int{}
			return nil
		}
		if bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte(`"`)) {
			return json.Unmarshal(data, &k.Texts)
		}
		return json.Unmarshal(data, &k.Indices)
	default:
		var idx int
		if err := json.Unmarshal(data, &idx); err != nil {
			return fmt.Errorf("answer key: %w", err)
		}
		k.Index = &idx
		return nil
	}
}
