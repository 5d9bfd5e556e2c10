// Package mapper applies user-configured detection rules to probe
// candidates and produces detection signals. It decides whether a
// window is interesting at all, which category of work it implies, and
// delegates identity extraction to the extract package.
//
// Browser windows get a second filtering stage: a process-level rule
// match alone is not enough, the address-bar URL (fetched through the
// accessibility boundary) must also match one of the configured review
// domains, otherwise the window is suppressed entirely. This keeps
// every random browser tab from becoming a task.
package mapper

import (
	"context"
	"strings"
	"sync"

	"github.com/worklens/worklens/internal/extract"
	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/probe"
	"github.com/worklens/worklens/internal/task"
)

// Rule maps a process (and optionally a title substring) to a category.
// Rules are ordered; the first match wins.
type Rule struct {
	// ProcessName is compared case-insensitively against the window's
	// owning process.
	ProcessName string

	// TitleContains, when non-empty, must also appear in the window
	// title for the rule to match.
	TitleContains string

	// Category is the kind of work a match implies.
	Category task.Category

	// Label is the default human-readable label for tasks this rule
	// creates. Browser rules may have it overridden by the matching
	// domain rule's task name.
	Label string

	// ProductSuffix is the conventional title suffix for editor
	// families ("Visual Studio Code", "LibreOffice Calc"). Unused for
	// browsers.
	ProductSuffix string
}

// DomainRule maps a URL domain substring to a task name for the
// browser/code-review second stage. Ordered, first match wins.
type DomainRule struct {
	// DomainContains is matched as a substring of the address-bar URL.
	DomainContains string

	// TaskName is the label for tasks detected on this domain.
	TaskName string
}

// AddressBarReader fetches the browser address-bar text for a window
// through the accessibility tree. Best effort: implementations return
// an empty string on any failure and must be time-bounded.
type AddressBarReader interface {
	AddressBar(ctx context.Context, w probe.Window) string
}

// WorkspaceResolver answers deep context queries for workspace editors,
// typically by an out-of-process status call. ok=false means no fresh
// or cached answer is available and the caller should use the
// title-derived identity.
type WorkspaceResolver interface {
	Workspace(ctx context.Context, processName, title string) (workspace string, ok bool)
}

// Mapper turns probe candidates into detection signals.
// Rule updates (config reload) are safe against concurrent mapping.
type Mapper struct {
	mu      sync.RWMutex
	rules   []Rule
	domains []DomainRule

	addressBar AddressBarReader
	workspaces WorkspaceResolver
	logger     *logging.Logger
}

// New creates a Mapper. addressBar and workspaces may be nil: without
// an address-bar reader browser rules never pass the domain filter, and
// without a workspace resolver editor identities come from the title.
func New(rules []Rule, domains []DomainRule, addressBar AddressBarReader, workspaces WorkspaceResolver, logger *logging.Logger) *Mapper {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Mapper{
		rules:      rules,
		domains:    domains,
		addressBar: addressBar,
		workspaces: workspaces,
		logger:     logger.WithComponent("mapper"),
	}
}

// SetRules atomically replaces the rule lists, for live config reload.
func (m *Mapper) SetRules(rules []Rule, domains []DomainRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = rules
	m.domains = domains
}

// Map evaluates one window against the rules. ok=false means the
// window is uninteresting this cycle, either because no rule matched or
// because the browser domain filter suppressed it.
func (m *Mapper) Map(ctx context.Context, w probe.Window) (task.DetectionSignal, bool) {
	rule, ok := m.matchRule(w)
	if !ok {
		return task.DetectionSignal{}, false
	}

	if familyOf(rule.Category) == extract.FamilyBrowser {
		return m.mapBrowser(ctx, w, rule)
	}

	identity := ""
	if familyOf(rule.Category) == extract.FamilyWorkspaceEditor && m.workspaces != nil {
		if ws, ok := m.workspaces.Workspace(ctx, w.ProcessName, w.Title); ok && ws != "" {
			identity = ws
		}
	}

	res := extract.Extract(familyOf(rule.Category), w.ProcessName, w.Title, "", rule.ProductSuffix)
	if identity == "" {
		identity = res.Identity
	}
	contextKey := identity
	if contextKey == "" {
		contextKey = res.ContextKey
	}

	return task.DetectionSignal{
		Category:     rule.Category,
		Label:        ruleLabel(rule, res.Label),
		ContextKey:   contextKey,
		WindowTitle:  w.Title,
		ProcessName:  w.ProcessName,
		DocumentName: identity,
	}, true
}

// mapBrowser runs the two-stage browser filter: the process rule
// already matched, now the address bar must hit a configured domain.
func (m *Mapper) mapBrowser(ctx context.Context, w probe.Window, rule Rule) (task.DetectionSignal, bool) {
	if m.addressBar == nil {
		return task.DetectionSignal{}, false
	}
	rawURL := m.addressBar.AddressBar(ctx, w)
	if rawURL == "" {
		return task.DetectionSignal{}, false
	}

	domain, ok := m.matchDomain(rawURL)
	if !ok {
		m.logger.Debug("browser window suppressed, no domain match", "process", w.ProcessName)
		return task.DetectionSignal{}, false
	}

	res := extract.Extract(extract.FamilyBrowser, w.ProcessName, w.Title, rawURL, "")
	label := domain.TaskName
	if label == "" {
		label = ruleLabel(rule, res.Label)
	}

	return task.DetectionSignal{
		Category:     rule.Category,
		Label:        label,
		ContextKey:   res.ContextKey,
		WindowTitle:  w.Title,
		ProcessName:  w.ProcessName,
		URL:          rawURL,
		DocumentName: res.Identity,
	}, true
}

// matchRule finds the first rule matching the window.
func (m *Mapper) matchRule(w probe.Window) (Rule, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.rules {
		if !strings.EqualFold(r.ProcessName, w.ProcessName) {
			continue
		}
		if r.TitleContains != "" && !strings.Contains(w.Title, r.TitleContains) {
			continue
		}
		return r, true
	}
	return Rule{}, false
}

// matchDomain finds the first domain rule contained in the URL.
func (m *Mapper) matchDomain(rawURL string) (DomainRule, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.domains {
		if d.DomainContains != "" && strings.Contains(rawURL, d.DomainContains) {
			return d, true
		}
	}
	return DomainRule{}, false
}

// familyOf maps a category to its title-convention family.
func familyOf(c task.Category) extract.Family {
	switch c {
	case task.CategoryCodeReview:
		return extract.FamilyBrowser
	case task.CategoryCodeEditor, task.CategoryIDE:
		return extract.FamilyWorkspaceEditor
	case task.CategoryDocument, task.CategorySpreadsheet:
		return extract.FamilyDocumentEditor
	default:
		return extract.FamilyUnknown
	}
}

// ruleLabel prefers the rule's configured label over the extracted one.
func ruleLabel(rule Rule, extracted string) string {
	if rule.Label != "" {
		return rule.Label
	}
	return extracted
}
