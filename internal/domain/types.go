package domain

import (
	"bytes"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

var jsonNull = []byte("null")

// NullFloat64 is a nullable float that decodes from a JSON number, a numeric
// string, null, or an empty string. The last two become NULL.
type NullFloat64 struct {
	sql.NullFloat64
}

// Float wraps f as a valid NullFloat64.
func Float(f float64) NullFloat64 {
	return NullFloat64{sql.NullFloat64{Float64: f, Valid: true}}
}

func (n *NullFloat64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		*n = NullFloat64{}
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = NullFloat64{}
			return nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", raw)
	}
	*n = Float(f)
	return nil
}

func (n NullFloat64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Float64)
}

// NullInt64 is a nullable integer with the same decoding rules as
// NullFloat64. Numbers with a fractional part are rejected.
type NullInt64 struct {
	sql.NullInt64
}

// Int wraps i as a valid NullInt64.
func Int(i int64) NullInt64 {
	return NullInt64{sql.NullInt64{Int64: i, Valid: true}}
}

func (n *NullInt64) UnmarshalJSON(data []byte) error {
	var f NullFloat64
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	if !f.Valid {
		*n = NullInt64{}
		return nil
	}
	if f.Float64 != math.Trunc(f.Float64) || math.Abs(f.Float64) > math.MaxInt64 {
		return fmt.Errorf("invalid integer %v", f.Float64)
	}
	*n = Int(int64(f.Float64))
	return nil
}

func (n NullInt64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Int64)
}

// FlexString is an identifier that may be encoded as a JSON string or number.
// null decodes to the empty string.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		*s = ""
		return nil
	}

	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(v))
		return nil
	}

	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("invalid identifier %s", data)
	}
	*s = FlexString(data)
	return nil
}

func (s FlexString) String() string {
	return string(s)
}
