package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CounterCategory identifies which quincenal accumulator an incident feeds.
type CounterCategory string

const (
	CategoryLateEntry    CounterCategory = "late_entry"
	CategoryEarlyClosure CounterCategory = "early_closure"
)

// NumericUnit describes the semantic unit of the incident numeric field.
type NumericUnit string

const (
	UnitMinutes NumericUnit = "minutes"
	UnitCount   NumericUnit = "count"
)

// NumericRule is explicit per-classification metadata replacing keyword
// matching on display names: when enabled, incidents of this classification
// must carry a numeric value, interpreted with the given unit, and feed the
// given counter category.
type NumericRule struct {
	Enabled  bool            `json:"enabled"`
	Unit     NumericUnit     `json:"unit,omitempty"`
	Label    string          `json:"label,omitempty"`
	Category CounterCategory `json:"category,omitempty"`
}

// Value marshals the rule to JSON for persistence.
func (r NumericRule) Value() (driver.Value, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal numeric rule: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the rule struct.
func (r *NumericRule) Scan(value interface{}) error {
	if value == nil {
		*r = NumericRule{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for NumericRule", value)
	}
	if len(data) == 0 {
		*r = NumericRule{}
		return nil
	}
	if err := json.Unmarshal(data, r); err != nil {
		return fmt.Errorf("unmarshal numeric rule: %w", err)
	}
	return nil
}

// Classification categorises incidents and carries the numeric-field rule.
type Classification struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Description string      `db:"description" json:"description"`
	NumericRule NumericRule `db:"numeric_rule" json:"numeric_rule"`
	Active      bool        `db:"active" json:"active"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassificationFilter captures listing criteria.
type ClassificationFilter struct {
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
