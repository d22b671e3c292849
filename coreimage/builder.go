package coreimage

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Manifest is the built catalog of one remote: its products and an index
// from identifier or alias to product position.
type Manifest struct {
	products []ImageRecord
	index    map[string]int
}

// NewManifest assembles a manifest from fetch slots. Nil slots are skipped.
// Keys are inserted in slot order, so a later record wins a shared key.
func NewManifest(slots []*ImageRecord) *Manifest {
	m := &Manifest{
		products: make([]ImageRecord, 0, len(slots)),
		index:    make(map[string]int),
	}

	for _, slot := range slots {
		if slot == nil {
			continue
		}
		pos := len(m.products)
		m.products = append(m.products, *slot)

		if slot.ID != "" {
			m.index[slot.ID] = pos
		}
		for _, alias := range slot.Aliases {
			m.index[alias] = pos
		}
	}

	return m
}

// Lookup returns a copy of the record indexed under key
func (m *Manifest) Lookup(key string) (ImageRecord, bool) {
	pos, ok := m.index[key]
	if !ok {
		return ImageRecord{}, false
	}
	return m.products[pos].clone(), true
}

// Products returns copies of the records in product order
func (m *Manifest) Products() []ImageRecord {
	out := make([]ImageRecord, len(m.products))
	for i, p := range m.products {
		out[i] = p.clone()
	}
	return out
}

// Len returns the number of products
func (m *Manifest) Len() int {
	return len(m.products)
}

// BuildManifest fetches freshness metadata for every table entry in
// parallel and assembles the manifest. Every fetch is awaited before the
// first failure, if any, is returned; no partial manifest is produced.
func BuildManifest(ctx context.Context, table Table, fetcher ContentFetcher) (*Manifest, error) {
	names := table.FileNames()
	slots := make([]*ImageRecord, len(names))

	// Each goroutine owns slots[i], so the writes need no locking. The
	// group has no derived context: one failure does not cancel siblings.
	var g errgroup.Group
	for i, name := range names {
		i, name, spec := i, name, table[name]
		g.Go(func() error {
			imageURL := spec.URLPrefix + name
			hashURL := spec.URLPrefix + HashListFile

			info, err := FetchFreshness(ctx, fetcher, imageURL, hashURL, name)
			if err != nil {
				return err
			}

			slots[i] = newImageRecord(spec, imageURL, info)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewManifest(slots), nil
}

func newImageRecord(spec ImageFileSpec, location string, info FreshnessInfo) *ImageRecord {
	return &ImageRecord{
		Aliases:      append([]string(nil), spec.Aliases...),
		OS:           spec.OS,
		Release:      spec.Release,
		ReleaseTitle: spec.ReleaseTitle,
		Supported:    true,
		Location:     location,
		ID:           info.Hash,
		Stream:       "",
		Version:      info.LastModified,
		Size:         0,
		IsCoreImage:  true,
	}
}
