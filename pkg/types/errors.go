// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the configuration and error kinds shared by the
// sci-dl packages.
package types

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying each failure kind of a download run.
// Typed errors below unwrap to these so callers can use errors.Is.
var (
	// ErrInvalidIdentifier indicates the identifier is not DOI-shaped.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrFetchFailure indicates every attempt to fetch a URL failed at the
	// transport level.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrExtractionFailure indicates the landing page held no file link.
	ErrExtractionFailure = errors.New("extraction failure")

	// ErrUnexpectedContentType indicates the file response was not a PDF.
	ErrUnexpectedContentType = errors.New("unexpected content type")

	// ErrConfigMissingKey indicates a required configuration key is absent.
	ErrConfigMissingKey = errors.New("configuration missing key")
)

// InvalidIdentifierError reports an identifier that failed validation.
type InvalidIdentifierError struct {
	Identifier string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid DOI %q", e.Identifier)
}

func (e *InvalidIdentifierError) Unwrap() error { return ErrInvalidIdentifier }

// FetchError reports a URL whose fetch attempts were exhausted.
type FetchError struct {
	URL      string
	Attempts int
	// Err is the last transport error, nil when no attempt was made.
	Err error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("download %s failure after %d attempt(s)", e.URL, e.Attempts)
	}
	return fmt.Sprintf("download %s failure after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

// Unwrap exposes both the sentinel and the last transport error.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetchFailure}
	}
	return []error{ErrFetchFailure, e.Err}
}

// ExtractionError reports a landing page without a file link.
type ExtractionError struct {
	Identifier string
	LandingURL string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to parse PDF url of DOI %s from %s", e.Identifier, e.LandingURL)
}

func (e *ExtractionError) Unwrap() error { return ErrExtractionFailure }

// ContentTypeError reports a file response with the wrong Content-Type.
type ContentTypeError struct {
	Identifier  string
	URL         string
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("failed to download PDF url %s of DOI %s: Content-Type is %q",
		e.URL, e.Identifier, e.ContentType)
}

func (e *ContentTypeError) Unwrap() error { return ErrUnexpectedContentType }

// MissingKeyError reports a required configuration key that is not set.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("malformed configuration, can't find %s", e.Key)
}

func (e *MissingKeyError) Unwrap() error { return ErrConfigMissingKey }
