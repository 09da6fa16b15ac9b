package webhooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-storesync/core"
)

// ParseBody decodes a JSON or URL-encoded form body. Form keys written as
// outer[inner] are rebuilt into nested maps. An empty or unparseable body
// returns a PayloadAbsent error.
func ParseBody(contentType string, body []byte) (core.Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, core.PayloadAbsent("webhooks: request body is empty")
	}

	var (
		payload core.Payload
		err     error
	)
	switch mediaType(contentType) {
	case "application/json":
		payload, err = parseJSON(trimmed)
	case "application/x-www-form-urlencoded":
		payload, err = parseForm(trimmed)
	default:
		if trimmed[0] == '{' {
			payload, err = parseJSON(trimmed)
		} else {
			payload, err = parseForm(trimmed)
		}
	}
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, core.PayloadAbsent("webhooks: request body has no fields")
	}
	return payload, nil
}

func mediaType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed)
}

func parseJSON(body []byte) (core.Payload, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, core.PayloadAbsent("webhooks: request body is not a JSON object")
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, core.PayloadAbsent("webhooks: request body has data after the JSON object")
	}
	return core.Payload(payload), nil
}

func parseForm(body []byte) (core.Payload, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, core.PayloadAbsent("webhooks: request body is not a valid form")
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	payload := core.Payload{}
	for _, key := range keys {
		path := splitFormKey(key)
		if len(path) == 0 {
			continue
		}
		assignFormValue(payload, path, formValue(values[key]))
	}
	return payload, nil
}

func formValue(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}

// splitFormKey turns billing[address][city] into [billing address city].
// Keys with unbalanced brackets are kept whole.
func splitFormKey(key string) []string {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}
	}
	path := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	return path
}

func assignFormValue(target map[string]any, path []string, value any) {
	current := target
	for _, segment := range path[:len(path)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value
}
