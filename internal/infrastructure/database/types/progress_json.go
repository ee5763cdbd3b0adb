package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/eslsoft/finquest/internal/entity"
)

// Completions stores a learner's completion records as a JSON array column.
type Completions []entity.CompletionRecord

// StringList stores badge ids or login dates as a JSON array column.
type StringList []string

// Scan implements sql.Scanner for Completions.
func (c *Completions) Scan(src any) error {
	return scanJSONArray("Completions", src, c)
}

// Value implements driver.Valuer for Completions.
func (c Completions) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]entity.CompletionRecord(c))
}

// Scan implements sql.Scanner for StringList.
func (s *StringList) Scan(src any) error {
	return scanJSONArray("StringList", src, s)
}

// Value implements driver.Valuer for StringList.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func scanJSONArray(name string, src any, dest any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("%s: unsupported src type %T", name, src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
