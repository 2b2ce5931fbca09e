package models

import (
	"database/sql/driver"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON is a wrapper around gorm.io/datatypes.JSON that picks the column type per dialect
// and treats an empty value as an empty object.
type JSON struct {
	datatypes.JSON
}

// NewJSON marshals v into a JSON column value.
func NewJSON(v interface{}) (JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return JSON{}, err
	}
	return JSON{JSON: datatypes.JSON(raw)}, nil
}

// EmptyObject returns the JSON value {}.
func EmptyObject() JSON {
	return JSON{JSON: datatypes.JSON("{}")}
}

// Raw returns the stored document, or {} when nothing is stored.
func (j JSON) Raw() json.RawMessage {
	if len(j.JSON) == 0 || string(j.JSON) == "null" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(j.JSON)
}

// StringMap decodes the document into a flat string map. Non-string values are skipped.
func (j JSON) StringMap() map[string]string {
	out := map[string]string{}
	var generic map[string]interface{}
	if err := json.Unmarshal(j.Raw(), &generic); err != nil {
		return out
	}
	for k, v := range generic {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Value promotes the embedded JSON's Value method
func (j JSON) Value() (driver.Value, error) {
	if len(j.JSON) == 0 {
		return "{}", nil
	}
	return j.JSON.Value()
}

// Scan promotes the embedded JSON's Scan method
func (j *JSON) Scan(value interface{}) error {
	return j.JSON.Scan(value)
}

// MarshalJSON renders the stored document verbatim.
func (j JSON) MarshalJSON() ([]byte, error) {
	return j.Raw(), nil
}

// UnmarshalJSON stores any JSON document.
func (j *JSON) UnmarshalJSON(data []byte) error {
	return j.JSON.UnmarshalJSON(data)
}

// GormDBDataType ensures the correct data type is used for each database driver.
// This resolves the issue where MSSQL does not support the 'json' data type.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}
