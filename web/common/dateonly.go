package common

import (
	"encoding/json"
	"fmt"
	"time"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/utils"
)

// DateOnly is a yyyy-MM-dd calendar date in bodies and query strings.
// The zero value is the empty string.
type DateOnly struct {
	time.Time
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	return d.UnmarshalParam(s)
}

// UnmarshalParam satisfies gin's binding.BindUnmarshaler for query and form values.
func (d *DateOnly) UnmarshalParam(s string) error {
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := utils.ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d DateOnly) String() string {
	if d.IsZero() {
		return ""
	}
	return utils.FormatDate(d.Time)
}

// QueryDate reads an optional date query parameter. A malformed value is
// reported as a field error on name.
func QueryDate(query func(string) string, name string) (DateOnly, error) {
	var d DateOnly
	if err := d.UnmarshalParam(query(name)); err != nil {
		return d, &core.FieldError{Field: name, Message: err.Error()}
	}
	return d, nil
}
