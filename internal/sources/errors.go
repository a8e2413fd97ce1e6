package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SourceFetchError reports a failed snapshot fetch from an external provider.
// StatusCode is 0 when the request never produced an HTTP response.
type SourceFetchError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *SourceFetchError) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(" fetch failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SourceFetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type providerErrorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// upstreamMessage pulls a human readable message out of a provider error body.
// Sympla sends {"error":true,"message":...}; YouTube nests it as {"error":{"message":...}}.
// Bodies without a recognizable message are returned trimmed as-is.
func upstreamMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var parsed providerErrorBody
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		if msg := strings.TrimSpace(parsed.Message); msg != "" {
			return msg
		}
		if nested := nestedErrorMessage(parsed.Error); nested != "" {
			return nested
		}
	}

	const maxRawLen = 512
	if len(trimmed) > maxRawLen {
		return trimmed[:maxRawLen]
	}
	return trimmed
}

func nestedErrorMessage(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &nested); err != nil {
		return ""
	}
	return strings.TrimSpace(nested.Message)
}
