package codec

import "encoding/json"

// JSON is the encoding/json codec, registered as "json".
type JSON struct{}

// Marshal implements Codec.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements Codec.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default encodes store records and stream sink events unless a codec is configured.
var Default Codec = GoJSON{}
