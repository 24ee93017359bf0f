package domain

import (
	"fmt"
	"math"
)

// Stringify renders a raw feature value the way it is matched against
// encoder labels. Whole-valued floats drop the fractional part so JSON
// numbers like 3 do not render as "3.000000".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case int:
		return fmt.Sprintf("%d", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
