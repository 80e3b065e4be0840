package intake

import (
	"encoding/json"
	"fmt"
	"strings"
)

// flexString decodes JSON fields that partners send either as strings or
// as bare numbers (identifier fields in particular).
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	t := strings.TrimSpace(string(b))
	if t == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(t, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", t)
	}
	*s = flexString(n.String())
	return nil
}

// stringOrList accepts either a single string or an array of strings.
// Some partners collapse a one-element secondary-diagnosis list into a
// bare string.
type stringOrList []string

func (l *stringOrList) UnmarshalJSON(b []byte) error {
	t := strings.TrimSpace(string(b))
	if t == "null" {
		*l = nil
		return nil
	}
	if strings.HasPrefix(t, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		if strings.TrimSpace(v) == "" {
			*l = nil
			return nil
		}
		*l = stringOrList{v}
		return nil
	}
	var vs []string
	if err := json.Unmarshal(b, &vs); err != nil {
		return err
	}
	*l = stringOrList(vs)
	return nil
}

// cleanCodes trims each code, drops blanks and removes duplicates while
// preserving document order.
func cleanCodes(codes []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// orUnknown substitutes the display default for absent names.
func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return strings.TrimSpace(s)
}

// firstNonEmpty returns the first value with non-blank content.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// isoFromCompact rewrites an 8-digit YYYYMMDD date to ISO-8601.
// Anything else passes through trimmed, leaving the validator to reject
// unparseable values.
func isoFromCompact(dob string) string {
	dob = strings.TrimSpace(dob)
	if len(dob) == 8 && allDigits(dob) {
		return dob[:4] + "-" + dob[4:6] + "-" + dob[6:]
	}
	return dob
}

// isoFromSlash rewrites a slash-separated MM/DD/YYYY date to ISO-8601
// with zero padding. Anything else passes through trimmed.
func isoFromSlash(dob string) string {
	dob = strings.TrimSpace(dob)
	parts := strings.Split(dob, "/")
	if len(parts) != 3 {
		return dob
	}
	for _, p := range parts {
		if p == "" || !allDigits(p) {
			return dob
		}
	}
	mm, dd, yyyy := parts[0], parts[1], parts[2]
	if len(mm) == 1 {
		mm = "0" + mm
	}
	if len(dd) == 1 {
		dd = "0" + dd
	}
	return yyyy + "-" + mm + "-" + dd
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
