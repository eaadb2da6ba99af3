package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/talentum-plus/talentum/internal/utils"
)

// SkillList is a list of skill names. Older profile documents store skills as
// one comma separated string, so decoding accepts both shapes.
type SkillList []string

func (s SkillList) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func (s *SkillList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var csv string
		if err := json.Unmarshal(data, &csv); err != nil {
			return err
		}
		*s = utils.SplitCSV(csv)
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("skills: %w", err)
	}
	*s = items
	return nil
}

func (s *SkillList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*s = nil
		return nil
	case bsontype.String:
		*s = utils.SplitCSV(raw.StringValue())
		return nil
	case bsontype.Array:
		var items []string
		if err := raw.Unmarshal(&items); err != nil {
			return fmt.Errorf("decoding skills array: %w", err)
		}
		*s = items
		return nil
	default:
		return fmt.Errorf("cannot decode skills from bson %s", t)
	}
}

// Contains reports whether skill is in the list, compared exactly.
func (s SkillList) Contains(skill string) bool {
	for _, item := range s {
		if item == skill {
			return true
		}
	}
	return false
}
