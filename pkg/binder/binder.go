// Package binder decodes HTTP request bodies into typed values with size
// and content-type enforcement.
package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// MaxJSONSize caps JSON request bodies at 1MB.
const MaxJSONSize = 1 << 20

var (
	ErrUnsupportedMediaType = errors.New("binder: unsupported media type")
	ErrInvalidJSON          = errors.New("binder: invalid json body")
	ErrBodyTooLarge         = errors.New("binder: request body too large")
)

// BindJSON decodes the request body into v. The body must be declared
// application/json, parse as a single JSON value and fit in MaxJSONSize.
// Unknown fields are rejected so client typos surface as errors instead of
// silently dropped data.
func BindJSON(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return fmt.Errorf("%w: missing content-type, expected application/json", ErrUnsupportedMediaType)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("%w: got %q, expected application/json", ErrUnsupportedMediaType, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxJSONSize+1))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if len(body) > MaxJSONSize {
		return ErrBodyTooLarge
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	// A second value after the first document is malformed input.
	if dec.More() {
		return fmt.Errorf("%w: multiple json documents", ErrInvalidJSON)
	}
	return nil
}
