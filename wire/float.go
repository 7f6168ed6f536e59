package wire

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// Float64 is a float that survives the JSON text form. JSON has no NaN or
// infinity, so those are written as the strings "NaN", "Infinity" and
// "-Infinity". The binary form stores the IEEE 754 value as is.
type Float64 float64

func (f Float64) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *Float64) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch s {
		case "NaN":
			*f = Float64(math.NaN())
		case "Infinity":
			*f = Float64(math.Inf(1))
		case "-Infinity":
			*f = Float64(math.Inf(-1))
		default:
			return fmt.Errorf("invalid float %q", s)
		}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid float %s", data)
	}
	*f = Float64(v)
	return nil
}
