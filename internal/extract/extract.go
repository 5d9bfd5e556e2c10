// Package extract turns raw window observations (process name, window
// title, optional browser address-bar text) into task identities. All
// functions are pure; the detection mapper decides which family applies
// to a window and this package derives the context key for it.
//
// The context key is what decides whether two detections refer to the
// same task, so extraction errs on the side of stability: title noise
// (the open document, the focused tab) is stripped down to the
// workspace, document, or repository identity underneath it.
package extract

import (
	"net/url"
	"strings"
)

// Family is a title-convention family. Each family has its own parsing
// rule; the first matching rule per family wins.
type Family int

const (
	// FamilyUnknown carries no extractable identity. Such windows cannot
	// anchor a context key.
	FamilyUnknown Family = iota

	// FamilyBrowser derives identity from the address-bar URL.
	FamilyBrowser

	// FamilyWorkspaceEditor derives identity from titles of the form
	// "document — workspace — Product".
	FamilyWorkspaceEditor

	// FamilyDocumentEditor derives identity from titles of the form
	// "document — Product"; the document name is the identity.
	FamilyDocumentEditor
)

// titleSeparator is the conventional separator in editor window titles.
const titleSeparator = " — "

// Result is the outcome of identity extraction for one window.
type Result struct {
	// Identity is the extracted document, workspace, or repository
	// identity. Empty when the family yields nothing for this window.
	Identity string

	// ContextKey is the matching identity: Identity when present,
	// otherwise a per-window descriptor so two unrelated detections of
	// an unmapped process never spuriously collide.
	ContextKey string

	// Label is a human-readable form of the identity, falling back to
	// the window title.
	Label string
}

// Extract derives the identity and context key for a window of the
// given family. productSuffix is the family's conventional title suffix
// ("Visual Studio Code", "LibreOffice Writer", ...) and is ignored for
// browsers.
func Extract(family Family, processName, title, addressBar, productSuffix string) Result {
	var identity string
	switch family {
	case FamilyBrowser:
		identity = BrowserIdentity(addressBar)
	case FamilyWorkspaceEditor:
		identity = WorkspaceIdentity(title, productSuffix)
	case FamilyDocumentEditor:
		identity = DocumentIdentity(title, productSuffix)
	}

	r := Result{Identity: identity, ContextKey: identity, Label: identity}
	if r.ContextKey == "" {
		r.ContextKey = FallbackKey(processName, title)
	}
	if r.Label == "" {
		r.Label = title
	}
	return r
}

// BrowserIdentity normalizes a URL to its repository/path identity: the
// first two non-empty path segments joined with "/". Fewer segments use
// what is available. An unparseable URL falls back to the raw string;
// an empty URL yields no identity.
func BrowserIdentity(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	var segments []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
		if len(segments) == 2 {
			break
		}
	}
	return strings.Join(segments, "/")
}

// WorkspaceIdentity parses a "document — workspace — Product" title:
// the product suffix is stripped, then the text after the last
// remaining separator is the workspace identity. Without a separator
// the whole remainder is the identity. The separator convention is
// inferred from the product suffix, so editors that join title parts
// with a plain hyphen or an en dash split the same way.
func WorkspaceIdentity(title, productSuffix string) string {
	rest := stripProductSuffix(title, productSuffix)
	if rest == "" {
		return ""
	}
	sep := separatorFor(productSuffix)
	if i := strings.LastIndex(rest, sep); i >= 0 {
		return strings.TrimSpace(rest[i+len(sep):])
	}
	return rest
}

// separatorFor infers the title separator from a product suffix that
// carries its own leading separator, like " - Visual Studio Code".
// A suffix without one uses the conventional em dash.
func separatorFor(suffix string) string {
	for _, sep := range []string{titleSeparator, " – ", " - "} {
		if strings.HasPrefix(suffix, sep) {
			return sep
		}
	}
	return titleSeparator
}

// DocumentIdentity parses a "document — Product" title: the product
// suffix is stripped and the remainder, the document name, is the
// identity. No further splitting: document names may themselves contain
// the separator.
func DocumentIdentity(title, productSuffix string) string {
	return stripProductSuffix(title, productSuffix)
}

// FallbackKey builds a per-window descriptor for windows without an
// extractable identity.
func FallbackKey(processName, title string) string {
	return processName + ": " + title
}

// stripProductSuffix removes a trailing "— suffix" (with or without the
// separator) from a title. Returns the trimmed remainder, or the
// trimmed title when the suffix is absent or empty.
func stripProductSuffix(title, suffix string) string {
	title = strings.TrimSpace(title)
	if suffix == "" {
		return title
	}
	if strings.HasSuffix(title, titleSeparator+suffix) {
		return strings.TrimSpace(strings.TrimSuffix(title, titleSeparator+suffix))
	}
	if strings.HasSuffix(title, suffix) {
		return strings.TrimSpace(strings.TrimSuffix(title, suffix))
	}
	return title
}
