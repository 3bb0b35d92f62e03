package evalsvc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// encode converts a wire type into a Struct by way of its JSON form.
func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return structpb.NewStruct(fields)
}

// decode fills v from a Struct. Strict decoding rejects unknown fields.
func decode(s *structpb.Struct, v any, strict bool) error {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode %T: %w", ErrInvalidRequest, v, err)
	}
	return nil
}
