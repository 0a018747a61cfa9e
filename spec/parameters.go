package spec

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Parameters is a free-form set of attributes stored as JSON (e.g. {Tier: pro, Seats: 5})
type Parameters map[string]string

func (p *Parameters) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	case nil:
		*p = make(Parameters)
		return nil
	default:
		return fmt.Errorf("Failed to unmarshal json value: %v", value)
	}
	if len(bytes) == 0 {
		*p = make(Parameters)
		return nil
	}
	return json.Unmarshal(bytes, p)
}

func (p Parameters) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (Parameters) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql", "sqlite":
		return "JSON"
	case "postgres":
		return "JSONB"
	}
	return ""
}

func (p Parameters) Clone() Parameters {
	clone := make(Parameters, len(p))
	for k, v := range p {
		clone[k] = v
	}
	return clone
}
