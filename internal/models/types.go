package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Resource is a server-side entity as returned by the REST API: a read-only
// mapping from field name to value. Persisted resources always carry "id" and
// "href".
type Resource map[string]any

// ID returns the numeric id of the resource, or 0 when absent or malformed.
func (r Resource) ID() int64 {
	switch v := r["id"].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Href returns the API locator of the resource.
func (r Resource) Href() string {
	return r.String("href")
}

// HasIdentity reports whether both "id" and "href" are present.
func (r Resource) HasIdentity() bool {
	_, hasID := r["id"]
	_, hasHref := r["href"]
	return hasID && hasHref
}

// String returns the field as a string, formatting non-string scalars.
func (r Resource) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns the field as a boolean. The strings "true"/"false" are accepted
// because some API versions encode flags that way.
func (r Resource) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Decode copies the resource into a typed record.
func (r Resource) Decode(out any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding resource: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding resource: %w", err)
	}
	return nil
}
