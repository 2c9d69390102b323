// Package flags holds the feature toggles read from the "flags" config section.
package flags

import (
	"maps"
	"slices"

	"github.com/leibooks/leibooks/internal/log"
)

const (
	// FlagTitleDiff logs a word diff whenever a catalog reload renames a book.
	FlagTitleDiff = "title-diff"

	// FlagLogEvents writes every library event to the debug log.
	FlagLogEvents = "log-events"
)

// defaults is the value of each known flag when the config omits it.
var defaults = map[string]bool{
	FlagTitleDiff: true,
	FlagLogEvents: true,
}

// Registry is a read-only set of flag values.
type Registry struct {
	flags   map[string]bool
	unknown []string
}

// New merges configured over the defaults. Names that match no known flag
// are kept (so All reports them) and listed by Unknown.
func New(configured map[string]bool) *Registry {
	merged := maps.Clone(defaults)
	var unknown []string
	for name, v := range configured {
		if _, ok := defaults[name]; !ok {
			unknown = append(unknown, name)
		}
		merged[name] = v
	}
	slices.Sort(unknown)

	r := &Registry{flags: merged, unknown: unknown}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(merged), "flags", r.All())
	for _, name := range unknown {
		log.Warn(log.CatConfig, "Unknown feature flag in config", "flag", name)
	}
	return r
}

// Enabled reports the named flag. Unknown names and a nil registry report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// Unknown returns configured flag names that leibooks does not recognize, sorted.
func (r *Registry) Unknown() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.unknown)
}

// All returns a copy of every flag value.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}
