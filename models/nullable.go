package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NullableID carries the three states of an optional reference in a request
// body: absent (Set=false, leave unchanged), explicit null (Set=true,
// Valid=false, clear) and a value (Set=true, Valid=true, assign).
type NullableID struct {
	Set   bool
	Valid bool
	ID    primitive.ObjectID
}

// SetID returns a NullableID assigning id.
func SetID(id primitive.ObjectID) NullableID {
	return NullableID{Set: true, Valid: true, ID: id}
}

// ClearID returns a NullableID that explicitly clears the reference.
func ClearID() NullableID {
	return NullableID{Set: true}
}

// Ptr returns the id as a pointer, nil when cleared or absent.
func (n NullableID) Ptr() *primitive.ObjectID {
	if !n.Valid {
		return nil
	}
	id := n.ID
	return &id
}

// UnmarshalJSON only runs when the key is present, which is what makes the
// absent state distinguishable. The legacy "null" string and "" also clear.
func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	n.Valid = false
	n.ID = primitive.NilObjectID
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("id must be a string or null")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return fmt.Errorf("invalid id %q", raw)
	}
	n.Valid = true
	n.ID = id
	return nil
}

func (n NullableID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.ID.Hex())
}
