// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mirror builds landing-page URLs on a document mirror and extracts
// the file URL embedded in a landing page.
package mirror

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/sci-dl/pkg/types"
)

// DefaultSelector matches the element carrying the file URL on current
// mirror pages. Older mirror generations used "iframe#pdf".
const DefaultSelector = types.DefaultFileLinkSelector

// viewerFragments are PDF viewer suffixes the mirror appends to file URLs.
// Longer suffixes come first so a shorter one never leaves residue.
var viewerFragments = []string{
	"#navpanes=0&view=FitH",
	"#view=FitH",
}

// Resolver maps identifiers to landing pages on one mirror.
type Resolver struct {
	base     *url.URL
	baseURL  string
	selector string
}

// NewResolver returns a Resolver for the mirror at baseURL. selector is the
// CSS selector of the element whose src attribute is the file URL; empty
// means DefaultSelector.
func NewResolver(baseURL, selector string) (*Resolver, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", baseURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if selector == "" {
		selector = DefaultSelector
	}
	return &Resolver{base: u, baseURL: baseURL, selector: selector}, nil
}

// BaseURL returns the configured mirror URL.
func (r *Resolver) BaseURL() string { return r.baseURL }

// Selector returns the file-link selector in use.
func (r *Resolver) Selector() string { return r.selector }

// Protocol returns "https" when the base URL starts with https, else "http".
func (r *Resolver) Protocol() string {
	if strings.HasPrefix(r.baseURL, "https") {
		return "https"
	}
	return "http"
}

// IsValidDOI reports whether id looks like a DOI. Only the presence of a
// slash is checked.
func IsValidDOI(id string) bool {
	return strings.Contains(id, "/")
}

// LandingPageURL returns the mirror page for a DOI. The DOI is resolved as a
// relative reference against the base URL, so a base with a path keeps its
// directory and an absolute DOI URL replaces the base entirely.
func (r *Resolver) LandingPageURL(doi string) (string, error) {
	if !IsValidDOI(doi) {
		return "", &types.InvalidIdentifierError{Identifier: doi}
	}
	ref, err := url.Parse(doi)
	if err != nil {
		return "", fmt.Errorf("%w: %w", &types.InvalidIdentifierError{Identifier: doi}, err)
	}
	return r.base.ResolveReference(ref).String(), nil
}

// NormalizeFileURL turns a raw src attribute into an absolute file URL.
// Steps run in order: strip a viewer fragment, add the mirror's scheme to a
// scheme-relative URL, unescape "\/" sequences, then resolve any remaining
// relative path against the base URL.
func (r *Resolver) NormalizeFileURL(raw string) string {
	u := strings.TrimSpace(raw)
	for _, frag := range viewerFragments {
		if strings.HasSuffix(u, frag) {
			u = strings.TrimSuffix(u, frag)
			break
		}
	}

	relative := false
	if !strings.HasPrefix(u, "http") {
		if strings.HasPrefix(u, "//") || strings.HasPrefix(u, `\/\/`) {
			u = r.Protocol() + ":" + u
		} else {
			relative = true
		}
	}

	u = strings.ReplaceAll(u, `\/`, "/")

	if relative {
		ref, err := url.Parse(u)
		if err != nil {
			return u
		}
		return r.base.ResolveReference(ref).String()
	}
	return u
}

// ExtractFileURL parses a landing page and returns the normalized src of
// the first element matching the selector. ok is false when the element or
// its src attribute is missing; that is not an error.
func (r *Resolver) ExtractFileURL(page io.Reader) (fileURL string, ok bool, err error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", false, fmt.Errorf("parsing landing page: %w", err)
	}
	src, exists := doc.Find(r.selector).First().Attr("src")
	if !exists || strings.TrimSpace(src) == "" {
		return "", false, nil
	}
	return r.NormalizeFileURL(src), true, nil
}
