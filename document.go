package chrmap

import (
	"encoding/json"
	"io"

	"github.com/unitoftime/binary"
)

// WriteDocument writes d to w as an indented JSON document.
func WriteDocument(w io.Writer, d *SerializableTileMap) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(d)
}

// ReadDocument reads a JSON document written by WriteDocument.
func ReadDocument(r io.Reader) (*SerializableTileMap, error) {
	d := new(SerializableTileMap)
	if err := json.NewDecoder(r).Decode(d); err != nil {
		return nil, err
	}
	return d, nil
}

// MarshalDocument encodes d into the compact binary form stored in a
// ProjectDB.
func MarshalDocument(d *SerializableTileMap) ([]byte, error) {
	return binary.Marshal(d)
}

// UnmarshalDocument decodes the binary form produced by MarshalDocument.
func UnmarshalDocument(b []byte) (*SerializableTileMap, error) {
	d := new(SerializableTileMap)
	if err := binary.Unmarshal(b, d); err != nil {
		return nil, err
	}
	return d, nil
}
