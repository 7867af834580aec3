package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// idKind distinguishes the two variants an ID may hold.
type idKind uint8

const (
	idNone idKind = iota
	idInt
	idString
)

// ID is a correlation identifier: either a signed integer or a string.
//
// ID is comparable, so it can be used directly as a map key. Two IDs are equal only
// when both the variant and the value match: IntID(1) and StringID("1") are different IDs.
type ID struct {
	kind idKind
	num  int64
	str  string
}

// IntID returns an integer correlation ID.
func IntID(n int64) ID { return ID{kind: idInt, num: n} }

// StringID returns a string correlation ID.
func StringID(s string) ID { return ID{kind: idString, str: s} }

// IsZero reports whether id was never set (notifications carry a zero ID).
func (id ID) IsZero() bool { return id.kind == idNone }

// IsInt reports whether id holds an integer.
func (id ID) IsInt() bool { return id.kind == idInt }

// IsString reports whether id holds a string.
func (id ID) IsString() bool { return id.kind == idString }

// Int returns the integer value and whether id is an integer.
func (id ID) Int() (int64, bool) { return id.num, id.kind == idInt }

// Str returns the string value and whether id is a string.
func (id ID) Str() (string, bool) { return id.str, id.kind == idString }

func (id ID) String() string {
	switch id.kind {
	case idInt:
		return strconv.FormatInt(id.num, 10)
	case idString:
		return strconv.Quote(id.str)
	default:
		return "<none>"
	}
}

var errBadID = errors.New("id must be a string or an integer")

func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idInt:
		return strconv.AppendInt(nil, id.num, 10), nil
	case idString:
		return json.Marshal(id.str)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON string or an integral JSON number.
// Fractions, exponents that do not fit an int64, booleans, objects and null are rejected.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errBadID
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", errBadID, data)
	}
	*id = IntID(n)
	return nil
}
