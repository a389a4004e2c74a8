package records

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseSeparator maps a user-supplied separator name to its rune.
// An empty string yields 0 (auto-detect).
func ParseSeparator(s string) (rune, error) {
	if s == " " {
		return ' ', nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ",", "comma":
		return ',', nil
	case ".", "dot":
		return '.', nil
	case "space":
		return ' ', nil
	case "":
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported separator: %q (use ','|'.'|'space')", s)
}

// ParseRevenue converts thousands-separated decimal text into a float.
// Non-finite results are rejected.
func ParseRevenue(s string, opt Options) (float64, error) {
	raw := strings.ReplaceAll(s, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errBadRevenue
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	return parseFinite(raw)
}

func parseFinite(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errBadRevenue
	}
	return f, nil
}
