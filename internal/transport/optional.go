package transport

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// OptionalUUID tells an absent field apart from an explicit null. Set is false when the
// key was missing from the body; Set with a nil ID means null.
type OptionalUUID struct {
	Set bool
	ID  *uuid.UUID
}

func (o *OptionalUUID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.ID = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}

func (o OptionalUUID) MarshalJSON() ([]byte, error) {
	if o.ID == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.ID)
}
