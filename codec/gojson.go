package codec

import gojson "github.com/goccy/go-json"

// GoJSON encodes records and training events with github.com/goccy/go-json.
// It is the default because weight matrices in final events get large, and
// its output decodes with JSON and vice versa.
type GoJSON struct{}

// Marshal implements Codec.
func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

// Unmarshal implements Codec.
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns the unique name of the codec ("go-json").
func (GoJSON) Name() string { return "go-json" }
