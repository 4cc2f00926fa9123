package record

import (
	"encoding/json"
	"strconv"
)

// NullInt is an integer that may be missing.
type NullInt struct {
	Value int
	Valid bool
}

// Int returns a present NullInt.
func Int(v int) NullInt { return NullInt{Value: v, Valid: true} }

// String renders the value, or "" when missing.
func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(n.Value)
}

// Float returns the value as float64 and whether it is present.
func (n NullInt) Float() (float64, bool) { return float64(n.Value), n.Valid }

func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *NullInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullInt{}
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n NullInt) MarshalYAML() (any, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Value, nil
}

// NullFloat is a float that may be missing. Missing is never zero.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a present NullFloat.
func Float(v float64) NullFloat { return NullFloat{Value: v, Valid: true} }

// ParseFloat parses s, returning a missing value for empty or malformed text.
func ParseFloat(s string) NullFloat {
	if s == "" {
		return NullFloat{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NullFloat{}
	}
	return Float(f)
}

func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n NullFloat) Float() (float64, bool) { return n.Value, n.Valid }

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n NullFloat) MarshalYAML() (any, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Value, nil
}
