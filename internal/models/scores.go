package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ScoreMap maps a moderation category name to its score. Stored as
// jsonb.
type ScoreMap map[string]float64

// Value implements driver.Valuer interface
func (m ScoreMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(ScoreMap{})
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner interface
func (m *ScoreMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(ScoreMap)
		return nil
	}

	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, m)
	case string:
		return json.Unmarshal([]byte(data), m)
	default:
		return fmt.Errorf("unsupported type %T for ScoreMap", value)
	}
}
