package service

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// A Reference designates an item by id (JSON number) or by name (JSON string).
type Reference struct {
	ID   uint
	Name string
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*r = Reference{Name: name}
		return nil
	}

	var id uint
	if err := json.Unmarshal(data, &id); err != nil {
		return errors.Errorf("invalid item reference: %s", data)
	}
	*r = Reference{ID: id}
	return nil
}

// String returns the reference as written by the client.
func (r Reference) String() string {
	if r.Name == "" && r.ID != 0 {
		return strconv.FormatUint(uint64(r.ID), 10)
	}
	return r.Name
}
