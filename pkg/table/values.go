// pkg/table/values.go
package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ToInt attempts to convert a cell value to int64
func ToInt(v interface{}) (int64, error) {
	if v == nil {
		return 0, errors.New("nil value")
	}

	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case float64:
		if val != float64(int64(val)) {
			return 0, fmt.Errorf("non-integral value %v", val)
		}
		return int64(val), nil
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, errors.New("empty string")
		}
		return strconv.ParseInt(cleaned, 10, 64)
	case []byte:
		return ToInt(string(val))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

// ToFloat attempts to convert a cell value to float64
func ToFloat(v interface{}) (float64, error) {
	if v == nil {
		return 0, errors.New("nil value")
	}

	switch val := v.(type) {
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case float32:
		return float64(val), nil
	case float64:
		return val, nil
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, errors.New("empty string")
		}
		// Field sheets occasionally carry decimal commas. A lone comma
		// followed by exactly three digits reads equally well as a
		// thousands separator, so it is rejected instead of reinterpreted.
		if idx := strings.IndexByte(cleaned, ','); idx >= 0 {
			frac := cleaned[idx+1:]
			if strings.Count(cleaned, ",") > 1 || strings.Contains(cleaned, ".") {
				return 0, fmt.Errorf("ambiguous number format %q", cleaned)
			}
			if len(frac) == 3 && isDigits(frac) {
				return 0, fmt.Errorf("ambiguous number format %q: comma could be a thousands separator", cleaned)
			}
			cleaned = cleaned[:idx] + "." + frac
		}
		return strconv.ParseFloat(cleaned, 64)
	case []byte:
		return ToFloat(string(val))
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ToTime attempts to convert a cell value to time.Time
func ToTime(v interface{}) (time.Time, error) {
	if v == nil {
		return time.Time{}, errors.New("nil value")
	}

	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return time.Time{}, errors.New("empty string")
		}

		// Try common field-sheet formats
		formats := []string{
			"2006-01-02",
			time.RFC3339,
			"2006-01-02 15:04:05",
			"02.01.2006",
			"01/02/2006",
			"2006/01/02",
		}

		for _, format := range formats {
			if t, err := time.Parse(format, cleaned); err == nil {
				return t, nil
			}
		}

		return time.Time{}, fmt.Errorf("cannot parse date from '%s'", cleaned)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
	}
}
