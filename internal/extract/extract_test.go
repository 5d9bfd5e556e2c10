package extract

import "testing"

func TestBrowserIdentity(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"repo path", "https://github.com/acme/billing/pull/42", "acme/billing"},
		{"exactly two segments", "https://github.com/acme/billing", "acme/billing"},
		{"one segment", "https://github.com/acme", "acme"},
		{"no path", "https://github.com", ""},
		{"trailing slash", "https://github.com/acme/billing/", "acme/billing"},
		{"double slash in path", "https://host//a//b/c", "a/b"},
		{"query ignored", "https://review.example.com/c/project/+/12345?tab=comments", "c/project"},
		{"empty", "", ""},
		{"no host falls back to raw", "not a url at all", "not a url at all"},
		{"invalid falls back to raw", "http://%zz/broken", "http://%zz/broken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BrowserIdentity(tt.url); got != tt.want {
				t.Errorf("BrowserIdentity(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestWorkspaceIdentity(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		suffix string
		want   string
	}{
		{"document and workspace", "main.go — worklens — Visual Studio Code", "Visual Studio Code", "worklens"},
		{"workspace only", "worklens — Visual Studio Code", "Visual Studio Code", "worklens"},
		{"no separator after strip", "worklens", "Visual Studio Code", "worklens"},
		{"nested separators pick last", "a — b — c — Visual Studio Code", "Visual Studio Code", "c"},
		{"unsaved marker kept in document part only", "● main.go — worklens — Visual Studio Code", "Visual Studio Code", "worklens"},
		{"suffix absent", "main.go — worklens", "Visual Studio Code", "worklens"},
		{"empty title", "", "Visual Studio Code", ""},
		{"hyphen convention", "main.go - worklens - Visual Studio Code", " - Visual Studio Code", "worklens"},
		{"hyphen convention second file", "ledger.go - worklens - Visual Studio Code", " - Visual Studio Code", "worklens"},
		{"en dash convention", "ledger.go – worklens – GoLand", " – GoLand", "worklens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorkspaceIdentity(tt.title, tt.suffix); got != tt.want {
				t.Errorf("WorkspaceIdentity(%q, %q) = %q, want %q", tt.title, tt.suffix, got, tt.want)
			}
		})
	}
}

func TestDocumentIdentity(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		suffix string
		want   string
	}{
		{"document", "budget-2025.ods — LibreOffice Calc", "LibreOffice Calc", "budget-2025.ods"},
		// Document names may contain the separator; no further splitting.
		{"separator inside name", "notes — draft — LibreOffice Writer", "LibreOffice Writer", "notes — draft"},
		{"suffix only", "LibreOffice Writer", "LibreOffice Writer", ""},
		{"suffix absent", "diff: a.txt vs b.txt", "Meld", "diff: a.txt vs b.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DocumentIdentity(tt.title, tt.suffix); got != tt.want {
				t.Errorf("DocumentIdentity(%q, %q) = %q, want %q", tt.title, tt.suffix, got, tt.want)
			}
		})
	}
}

func TestExtract_ContextKeyFallback(t *testing.T) {
	r := Extract(FamilyUnknown, "alacritty", "htop", "", "")

	if r.Identity != "" {
		t.Errorf("unknown family must not extract an identity, got %q", r.Identity)
	}
	if r.ContextKey != "alacritty: htop" {
		t.Errorf("unexpected fallback key %q", r.ContextKey)
	}
	if r.Label != "htop" {
		t.Errorf("label should fall back to the title, got %q", r.Label)
	}
}

func TestExtract_FallbackKeysDoNotCollide(t *testing.T) {
	a := Extract(FamilyUnknown, "alacritty", "htop", "", "")
	b := Extract(FamilyUnknown, "alacritty", "vim notes.txt", "", "")
	if a.ContextKey == b.ContextKey {
		t.Error("distinct unmapped windows must not share a context key")
	}
}

func TestExtract_Browser(t *testing.T) {
	r := Extract(FamilyBrowser, "firefox", "PR #42 — Mozilla Firefox", "https://github.com/acme/billing/pull/42", "")

	if r.Identity != "acme/billing" {
		t.Errorf("expected identity acme/billing, got %q", r.Identity)
	}
	if r.ContextKey != "acme/billing" {
		t.Errorf("context key should equal the identity, got %q", r.ContextKey)
	}
	if r.Label != "acme/billing" {
		t.Errorf("unexpected label %q", r.Label)
	}
}

func TestExtract_WorkspaceEditor(t *testing.T) {
	r := Extract(FamilyWorkspaceEditor, "code", "ledger.go — worklens — Visual Studio Code", "", "Visual Studio Code")

	if r.ContextKey != "worklens" {
		t.Errorf("expected context key worklens, got %q", r.ContextKey)
	}
}

func TestExtract_DocumentEditorEmptyIdentityFallsBack(t *testing.T) {
	// A bare product window (no document open) should not anchor a
	// shared identity across machines/windows.
	r := Extract(FamilyDocumentEditor, "soffice", "LibreOffice Writer", "", "LibreOffice Writer")

	if r.Identity != "" {
		t.Errorf("expected no identity, got %q", r.Identity)
	}
	if r.ContextKey != "soffice: LibreOffice Writer" {
		t.Errorf("unexpected fallback key %q", r.ContextKey)
	}
}
