package discovery

import (
	"sort"
	"time"
)

// registry holds discovered services keyed by (sender address, service name).
// It is not safe for concurrent use; the engine guards it with its mutex.
type registry struct {
	entries map[string]Service
}

// registryDiff lists the keys touched by a registry mutation.
type registryDiff struct {
	added   []string
	removed []string
	updated []string
}

func (d registryDiff) changed() bool {
	return len(d.added) > 0 || len(d.removed) > 0 || len(d.updated) > 0
}

func (d *registryDiff) merge(o registryDiff) {
	d.added = append(d.added, o.added...)
	d.removed = append(d.removed, o.removed...)
	d.updated = append(d.updated, o.updated...)
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]Service)}
}

func (r *registry) len() int {
	return len(r.entries)
}

// replace stores each incoming entry, replacing any entry with the same key.
// Replacement is whole-entry: last-seen and uptimes come from the new entry.
func (r *registry) replace(incoming []Service) registryDiff {
	var diff registryDiff
	seen := make(map[string]bool, len(incoming))

	for _, svc := range incoming {
		key := svc.Key()
		old, exists := r.entries[key]
		r.entries[key] = svc

		if seen[key] {
			continue
		}
		seen[key] = true

		switch {
		case !exists:
			diff.added = append(diff.added, key)
		case !old.sameAdvertisement(&svc):
			diff.updated = append(diff.updated, key)
		}
	}

	return diff
}

// purge removes entries whose age exceeds window. An entry exactly window
// old is kept. A window of zero or less disables expiry.
func (r *registry) purge(now time.Time, window time.Duration) registryDiff {
	var diff registryDiff
	if window <= 0 {
		return diff
	}

	for key, svc := range r.entries {
		if now.Sub(svc.LastSeen) > window {
			delete(r.entries, key)
			diff.removed = append(diff.removed, key)
		}
	}
	sort.Strings(diff.removed)

	return diff
}

// snapshot returns a copy of the entries ordered by address then name.
func (r *registry) snapshot() []Service {
	out := make([]Service, 0, len(r.entries))
	for _, svc := range r.entries {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Address != out[j].Address {
			return out[i].Address < out[j].Address
		}
		return out[i].Name < out[j].Name
	})
	return out
}
