package menu

import "strings"

type Icon struct {
	Key   string
	Glyph string
}

var defaultIcon = Icon{Key: "dot", Glyph: "•"}

var icons = map[string]Icon{
	"home":     {Key: "home", Glyph: "⌂"},
	"building": {Key: "building", Glyph: "▦"},
	"layers":   {Key: "layers", Glyph: "≣"},
	"activity": {Key: "activity", Glyph: "∿"},
	"alert":    {Key: "alert", Glyph: "⚠"},
	"list":     {Key: "list", Glyph: "☰"},
	"cpu":      {Key: "cpu", Glyph: "◫"},
	"settings": {Key: "settings", Glyph: "⚙"},
	"users":    {Key: "users", Glyph: "☺"},
	"folder":   {Key: "folder", Glyph: "▣"},
	"chart":    {Key: "chart", Glyph: "▤"},
}

// ResolveIcon maps an icon key to its glyph, falling back to the default.
func ResolveIcon(key string) Icon {
	if icon, ok := icons[strings.ToLower(strings.TrimSpace(key))]; ok {
		return icon
	}
	return defaultIcon
}
