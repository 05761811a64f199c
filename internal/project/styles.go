package project

import (
	"maps"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/normalization"
)

// DefaultStyleKey is the styles entry used for labels without their own badge style.
const DefaultStyleKey = "default"

// statusStyles holds the badge classes rendered next to a project's status.
var statusStyles = map[string]string{
	"active":        "border-1 border-[#304200] text-[#c7df86] bg-[#507312]",
	"maintenance":   "border-1 border-[#12398a] text-[#2a3a77] bg-[#d6dff2]",
	"refactoring":   "border-2 border-dashed border-black text-black bg-[#f2d800]",
	"archived":      "border-1 border-dotted border-secondary text-zinc-600 bg-zinc-200",
	DefaultStyleKey: "border-1",
}

// Styles returns a copy of the status badge classes keyed by status label, plus "default".
func Styles() map[string]string {
	return maps.Clone(statusStyles)
}

// StyleFor returns the badge classes for a status label, falling back to the default entry.
func StyleFor(label string) string {
	if class, ok := statusStyles[normalization.Clean(label)]; ok {
		return class
	}
	return statusStyles[DefaultStyleKey]
}
