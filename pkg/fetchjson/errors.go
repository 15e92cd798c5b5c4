package fetchjson

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
)

// Error reports a failed request. Status is zero for transport failures.
type Error struct {
	Method  string
	URL     string
	Status  int
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s failed", e.Method, e.URL)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusCode returns the HTTP status, or 0 when no response was received.
func (e *Error) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// serverMessage extracts a human readable message from an error body. JSON
// payloads are checked for error/message keys (including the data.error shape
// used by image hosts); other bodies fall back to their trimmed text and then
// to the status text.
func serverMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var payload map[string]any
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if msg := messageFrom(payload); msg != "" {
				return msg
			}
			if data, ok := payload["data"].(map[string]any); ok {
				if msg := messageFrom(data); msg != "" {
					return msg
				}
			}
		}
	} else if len(trimmed) > 0 && len(trimmed) <= 512 {
		return string(trimmed)
	}

	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", status)
}

func messageFrom(payload map[string]any) string {
	for _, key := range []string{"error", "message", "detail"} {
		switch v := payload[key].(type) {
		case string:
			if msg := strings.TrimSpace(v); msg != "" {
				return msg
			}
		case map[string]any:
			if msg := messageFrom(v); msg != "" {
				return msg
			}
		}
	}
	return ""
}
