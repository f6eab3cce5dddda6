package pricing

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Percent is an integer percent that may be unset.
type Percent struct {
	Value int64
	Valid bool
}

func NewPercent(v int64) Percent { return Percent{Value: v, Valid: true} }

func (p Percent) String() string {
	if !p.Valid {
		return ""
	}
	return strconv.FormatInt(p.Value, 10)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(p.Value, 10)), nil
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*p = Percent{}
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = NewPercent(v)
	return nil
}
