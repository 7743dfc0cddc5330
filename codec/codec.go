// Package codec defines the serialization contracts consumed by the SDK
// core and a default implementation backed by goccy/go-json.
package codec

import (
	json "github.com/goccy/go-json"

	"github.com/chirpmesh/chirp-go/chirperr"
)

// Deserializer decodes service response bodies.
type Deserializer interface {
	// Deserialize decodes data into v, returning a
	// chirperr.DeserializationError on malformed input.
	Deserialize(data []byte, v any) error
}

// Serializer encodes request bodies.
type Serializer interface {
	// Serialize encodes v, returning a chirperr.SerializationError when
	// v cannot be represented.
	Serialize(v any) ([]byte, error)
}

// JSON is the default Serializer / Deserializer.
type JSON struct{}

// Deserialize implements Deserializer.
func (JSON) Deserialize(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &chirperr.DeserializationError{Message: err.Error()}
	}
	return nil
}

// Serialize implements Serializer.
func (JSON) Serialize(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &chirperr.SerializationError{Message: err.Error()}
	}
	return data, nil
}
