// Package protocol implements the JSON envelope exchanged between chat
// clients and the server.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies the variant carried by an envelope.
type Kind string

const (
	KindUsers    Kind = "users"
	KindRegister Kind = "register"
	KindMessage  Kind = "message"
)

// String returns the wire representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindUsers, KindRegister, KindMessage:
		return true
	default:
		return false
	}
}

// ErrUnknownKind is wrapped by DecodeError when messageType is missing or
// not one of the known kinds.
var ErrUnknownKind = errors.New("unknown message type")

// DecodeError is returned for frames that are not a valid envelope.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode envelope: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Envelope is one of Users, Register or Message.
type Envelope interface {
	Kind() Kind
	isEnvelope()
}

// Users is a full roster snapshot.
type Users struct {
	Names []string
}

// Register announces the local username to the server.
type Register struct {
	Username string
}

// Message carries a JSON encoded chat payload in Data.
type Message struct {
	Data string
}

func (Users) Kind() Kind    { return KindUsers }
func (Register) Kind() Kind { return KindRegister }
func (Message) Kind() Kind  { return KindMessage }

func (Users) isEnvelope()    {}
func (Register) isEnvelope() {}
func (Message) isEnvelope()  {}

// wireEnvelope is the JSON shape agreed with the server. Field names are
// part of the wire contract.
type wireEnvelope struct {
	MessageType Kind     `json:"messageType"`
	DataArray   []string `json:"dataArray"`
	Data        *string  `json:"data"`
}

// Encode serializes an envelope. The field not used by the kind is
// written as null.
func Encode(env Envelope) ([]byte, error) {
	var w wireEnvelope
	switch e := env.(type) {
	case Users:
		w.MessageType = KindUsers
		w.DataArray = e.Names
	case Register:
		w.MessageType = KindRegister
		w.Data = &e.Username
	case Message:
		w.MessageType = KindMessage
		w.Data = &e.Data
	default:
		return nil, fmt.Errorf("failed to encode envelope: unsupported type %T", env)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses a frame into an envelope. Keys are matched exactly, and
// both payload fields must have the right shape even when the kind does
// not use them.
func Decode(data []byte) (Envelope, error) {
	f, err := decodeFields(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	var kind Kind
	if _, err := f.stringField("messageType", (*string)(&kind)); err != nil {
		return nil, &DecodeError{Err: err}
	}
	names, err := f.stringsField("dataArray")
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	var payload string
	if _, err := f.stringField("data", &payload); err != nil {
		return nil, &DecodeError{Err: err}
	}

	switch kind {
	case KindUsers:
		return Users{Names: names}, nil
	case KindRegister:
		return Register{Username: payload}, nil
	case KindMessage:
		return Message{Data: payload}, nil
	case "":
		return nil, &DecodeError{Err: fmt.Errorf("%w: messageType missing", ErrUnknownKind)}
	default:
		return nil, &DecodeError{Err: fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))}
	}
}

// fields holds the top-level keys of a JSON object. encoding/json folds
// case when filling structs, so lookups go through the exact key instead.
type fields map[string]json.RawMessage

var jsonNull = []byte("null")

func decodeFields(data []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// stringField stores the value of key in dst. It reports false, leaving dst
// alone, when the key is absent or null.
func (f fields) stringField(key string, dst *string) (bool, error) {
	raw, ok := f[key]
	if !ok || bytes.Equal(raw, jsonNull) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("field %q: %w", key, err)
	}
	return true, nil
}

// stringsField returns the string array under key, or nil when the key is
// absent or null. Null elements are rejected.
func (f fields) stringsField(key string) ([]string, error) {
	raw, ok := f[key]
	if !ok || bytes.Equal(raw, jsonNull) {
		return nil, nil
	}
	var elems []*string
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		if e == nil {
			return nil, fmt.Errorf("field %q: element %d is null", key, i)
		}
		out[i] = *e
	}
	return out, nil
}
