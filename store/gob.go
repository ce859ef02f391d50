package store

import (
	"bytes"
	"encoding/gob"
)

// EncodeGob serializes v with encoding/gob, the wire format used for every
// value this module persists (name records, history, undo records, name
// stats).
func EncodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeGob deserializes into v, which must be a pointer.
func DecodeGob(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// PutGob gob-encodes v and writes it under key.
func PutGob(db KVDB, key []byte, v any) error {
	data, err := EncodeGob(v)
	if err != nil {
		return err
	}
	return db.Write(key, data)
}

// GetGob reads key and gob-decodes it into v. Returns ErrKeyNotFound
// unchanged so callers can distinguish absence from decode failure.
func GetGob(db KVDB, key []byte, v any) error {
	data, err := db.Read(key)
	if err != nil {
		return err
	}
	return DecodeGob(data, v)
}
