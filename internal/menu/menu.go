// Package menu renders the authorization entries as a collapsible
// navigation tree and reports which entry the user is visiting.
package menu

import (
	"strings"
	"sync"

	"go-admin-console/internal/session"
)

// Match finds the entry for location. An exact path match wins; otherwise
// the longest entry path that prefixes location on a segment boundary.
func Match(entries []session.MenuNode, location string) (session.MenuNode, bool) {
	location = normalizePath(location)

	var (
		best    session.MenuNode
		bestLen = -1
		found   bool
	)

	var walk func(nodes []session.MenuNode) bool
	walk = func(nodes []session.MenuNode) bool {
		for _, node := range nodes {
			if node.Navigable() {
				p := normalizePath(node.Path)
				if p == location {
					best, found = node, true
					return true
				}
				if isPrefix(p, location) && len(p) > bestLen {
					best, bestLen, found = node, len(p), true
				}
			}
			if walk(node.Children) {
				return true
			}
		}
		return false
	}
	walk(entries)

	return best, found
}

func isPrefix(prefix string, location string) bool {
	if prefix == "/" {
		return false
	}
	return strings.HasPrefix(location, prefix+"/")
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// Expansion tracks which nodes are open, keyed by option id.
type Expansion struct {
	mu   sync.RWMutex
	open map[int64]bool
}

func NewExpansion() *Expansion {
	return &Expansion{open: map[int64]bool{}}
}

func (e *Expansion) Toggle(optionID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.open[optionID] = !e.open[optionID]
	return e.open[optionID]
}

func (e *Expansion) IsExpanded(optionID int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.open[optionID]
}

// Item is the render model for one node.
type Item struct {
	OptionID int64
	Label    string
	Path     string
	Icon     Icon
	Active   bool
	Toggle   bool
	Expanded bool
	Children []Item
}

// Build renders entries into items. Children are included only while their
// parent is expanded.
func Build(entries []session.MenuNode, location string, expansion *Expansion) []Item {
	active, ok := Match(entries, location)
	activeID := int64(-1)
	if ok {
		activeID = active.OptionID
	}
	return build(entries, activeID, expansion)
}

func build(nodes []session.MenuNode, activeID int64, expansion *Expansion) []Item {
	items := make([]Item, 0, len(nodes))
	for _, node := range nodes {
		item := Item{
			OptionID: node.OptionID,
			Label:    node.Label,
			Path:     node.Path,
			Icon:     ResolveIcon(node.Icon),
			Active:   node.OptionID == activeID,
			Toggle:   node.HasChildren(),
		}
		if item.Toggle && expansion != nil && expansion.IsExpanded(node.OptionID) {
			item.Expanded = true
			item.Children = build(node.Children, activeID, expansion)
		}
		items = append(items, item)
	}
	return items
}

// Navigator holds the outer hamburger panel state.
type Navigator struct {
	mu        sync.Mutex
	panelOpen bool
}

func (n *Navigator) TogglePanel() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.panelOpen = !n.panelOpen
	return n.panelOpen
}

func (n *Navigator) PanelOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.panelOpen
}

// Navigate collapses the panel and returns the route to follow.
func (n *Navigator) Navigate(path string) string {
	n.mu.Lock()
	n.panelOpen = false
	n.mu.Unlock()
	return normalizePath(path)
}

// Reachable flattens entries into the nodes that can be navigated to, in
// menu order.
func Reachable(entries []session.MenuNode) []session.MenuNode {
	var out []session.MenuNode
	for _, node := range entries {
		if node.Navigable() {
			out = append(out, node)
		}
		out = append(out, Reachable(node.Children)...)
	}
	return out
}
