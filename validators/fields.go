// ABOUTME: Pure predicates over single property values
// ABOUTME: Email, phone, presence, pattern, length checks and numeric coercion
package validators

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneStrip    = regexp.MustCompile(`[\s\-().\/]`)
	phonePattern  = regexp.MustCompile(`^\+?\d{7,15}$`)
	numericStrip  = regexp.MustCompile(`[^\d.\-]`)
	numericPrefix = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// pattern string -> *regexp.Regexp, nil when the pattern does not compile
var compiledPatterns sync.Map

// IsValidEmail reports whether s has a local@domain.tld shape.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidPhone strips common separators and accepts an optional leading +
// followed by 7 to 15 digits.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(phoneStrip.ReplaceAllString(s, ""))
}

// Exists is false only for nil.
func Exists(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return false
	}
	return true
}

// IsNonEmpty is false for nil and for blank strings; every other value,
// including 0 and false, counts as non-empty.
func IsNonEmpty(v any) bool {
	if !Exists(v) {
		return false
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s) != ""
	case *string:
		return strings.TrimSpace(*s) != ""
	}
	return true
}

// MatchesPattern tests s against pattern. A pattern that does not compile
// never matches.
func MatchesPattern(s, pattern string) bool {
	if cached, ok := compiledPatterns.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re != nil && re.MatchString(s)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		compiledPatterns.Store(pattern, (*regexp.Regexp)(nil))
		return false
	}
	compiledPatterns.Store(pattern, re)
	return re.MatchString(s)
}

// HasMinLength counts characters, not bytes.
func HasMinLength(s string, n int) bool {
	return utf8.RuneCountInString(s) >= n
}

// ParseNumeric returns numbers unchanged and strips currency formatting from
// strings ("$1,000.50" -> 1000.5). Anything it cannot read is 0.
func ParseNumeric(v any) float64 {
	if f, ok := AsNumber(v); ok {
		return f
	}
	s, ok := v.(string)
	if !ok {
		return 0
	}
	cleaned := numericStrip.ReplaceAllString(s, "")
	prefix := numericPrefix.FindString(cleaned)
	if prefix == "" {
		return 0
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return f
}

// AsNumber reports whether v is one of Go's numeric kinds and returns it as
// a float64.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// StringValue renders a property value for the string predicates. Absent
// values become the empty string.
func StringValue(v any) string {
	if !Exists(v) {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case *string:
		return *s
	}
	if f, ok := AsNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
