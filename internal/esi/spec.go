package esi

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/esi/esi-bot/internal/logger"
	"github.com/esi/esi-bot/internal/metrics"
)

// DefaultVersions seed every host before /versions/ has been consulted.
var DefaultVersions = []string{"latest", "legacy", "dev"}

// Getter performs GET requests. *Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) *Response
}

// Snapshot is a persisted swagger document.
type Snapshot struct {
	Host      string
	Version   string
	FetchedAt time.Time
	Raw       []byte
}

// Snapshotter persists swagger documents across restarts.
type Snapshotter interface {
	SaveSpec(ctx context.Context, snap Snapshot) error
	LoadSpecs(ctx context.Context, host string) ([]Snapshot, error)
}

// Entry is one cached (host, version) document. Entries are never modified
// after publication; refresh replaces them.
type Entry struct {
	Version   string
	FetchedAt time.Time
	Doc       *Document
}

// Empty reports whether the entry has no document yet.
func (e *Entry) Empty() bool {
	return e == nil || e.Doc.Empty()
}

// Stale reports whether the entry should be refetched. Empty entries are
// always stale.
func (e *Entry) Stale(now time.Time, staleAfter time.Duration) bool {
	return e.Empty() || now.Sub(e.FetchedAt) > staleAfter
}

type hostSpecs struct {
	order   []string
	entries map[string]*Entry
}

// SpecCacheConfig configures a SpecCache.
type SpecCacheConfig struct {
	StaleAfter time.Duration
	Workers    int // concurrent swagger downloads per refresh
}

// SpecCache holds swagger documents per host and version. It starts empty and
// is filled by Refresh or Restore; a failed fetch leaves the previous entry in
// place.
type SpecCache struct {
	getter     Getter
	store      Snapshotter
	staleAfter time.Duration
	workers    int
	log        *logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	mu    sync.RWMutex
	hosts map[string]*hostSpecs
	order []string

	group singleflight.Group
}

// NewSpecCache creates a cache seeded with DefaultVersions for each host.
// store and m may be nil.
func NewSpecCache(getter Getter, cfg SpecCacheConfig, store Snapshotter, log *logger.Logger, m *metrics.Metrics, hosts ...string) *SpecCache {
	if cfg.Workers <= 0 {
		cfg.Workers = 10
	}
	c := &SpecCache{
		getter:     getter,
		store:      store,
		staleAfter: cfg.StaleAfter,
		workers:    cfg.Workers,
		log:        log.WithModule("spec_cache"),
		metrics:    m,
		now:        time.Now,
		hosts:      make(map[string]*hostSpecs),
	}
	for _, h := range hosts {
		c.AddHost(h)
	}
	return c
}

// AddHost registers host with the default versions. Adding a known host is a no-op.
func (c *SpecCache) AddHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureHostLocked(host)
}

func (c *SpecCache) ensureHostLocked(host string) *hostSpecs {
	if hs, ok := c.hosts[host]; ok {
		return hs
	}
	hs := &hostSpecs{entries: make(map[string]*Entry)}
	for _, v := range DefaultVersions {
		hs.order = append(hs.order, v)
		hs.entries[v] = &Entry{Version: v}
	}
	c.hosts[host] = hs
	c.order = append(c.order, host)
	return hs
}

// Hosts returns the registered hosts in registration order.
func (c *SpecCache) Hosts() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Versions returns the known versions for host in discovery order.
func (c *SpecCache) Versions(host string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hs, ok := c.hosts[host]
	if !ok {
		return nil
	}
	return slices.Clone(hs.order)
}

// IsVersion reports whether v is a known version for host. The set grows as
// /versions/ announces new ones.
func (c *SpecCache) IsVersion(host, v string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hs, ok := c.hosts[host]
	if !ok {
		return false
	}
	_, ok = hs.entries[v]
	return ok
}

// Entry returns the current entry for (host, version).
func (c *SpecCache) Entry(host, version string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hs, ok := c.hosts[host]
	if !ok {
		return nil, false
	}
	e, ok := hs.entries[version]
	return e, ok
}

// Loaded reports whether at least one document is cached.
func (c *SpecCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, hs := range c.hosts {
		for _, e := range hs.entries {
			if !e.Empty() {
				return true
			}
		}
	}
	return false
}

// Refresh discovers new versions for host and refetches every empty or stale
// document. It returns the versions that were actually updated, in version
// order; an empty result means everything was fresh or every fetch failed.
// Concurrent calls for the same host share one refresh.
func (c *SpecCache) Refresh(ctx context.Context, host string) []string {
	v, _, shared := c.group.Do(host, func() (any, error) {
		return c.refresh(ctx, host), nil
	})
	if shared {
		c.log.WithField("host", host).Debug("Joined in-flight spec refresh")
	}
	return slices.Clone(v.([]string))
}

// RefreshAll refreshes every registered host and returns the updated versions per host.
func (c *SpecCache) RefreshAll(ctx context.Context) map[string][]string {
	out := make(map[string][]string)
	for _, host := range c.Hosts() {
		out[host] = c.Refresh(ctx, host)
	}
	return out
}

func (c *SpecCache) refresh(ctx context.Context, host string) []string {
	log := c.log.WithField("host", host)

	c.mu.Lock()
	c.ensureHostLocked(host)
	c.mu.Unlock()

	if res := c.getter.Get(ctx, host+"/versions/"); res.OK() {
		var announced []string
		if err := res.Decode(&announced); err != nil {
			log.WithError(err).Warn("Invalid versions list")
		} else {
			c.addVersions(host, announced)
		}
	} else {
		log.WithField("status", res.StatusCode).Warn("Failed to fetch versions")
	}

	now := c.now()
	var stale []string
	for _, v := range c.Versions(host) {
		if e, _ := c.Entry(host, v); e.Stale(now, c.staleAfter) {
			stale = append(stale, v)
		}
	}

	fetched := make([]*Entry, len(stale))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, v := range stale {
		g.Go(func() error {
			fetched[i] = c.fetch(gctx, host, v)
			return nil
		})
	}
	_ = g.Wait()

	var updated []string
	c.mu.Lock()
	hs := c.hosts[host]
	for _, e := range fetched {
		if e == nil {
			continue
		}
		hs.entries[e.Version] = e
		updated = append(updated, e.Version)
	}
	loaded := 0
	for _, e := range hs.entries {
		if !e.Empty() {
			loaded++
		}
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetSpecVersions(host, loaded)
	}
	if len(updated) > 0 {
		log.WithField("versions", updated).Info("Refreshed specs")
	}
	if updated == nil {
		updated = []string{}
	}
	return updated
}

func (c *SpecCache) addVersions(host string, versions []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hs := c.ensureHostLocked(host)
	for _, v := range versions {
		if v == "" {
			continue
		}
		if _, ok := hs.entries[v]; !ok {
			hs.order = append(hs.order, v)
			hs.entries[v] = &Entry{Version: v}
		}
	}
}

// fetch downloads one swagger document, returning nil on any failure.
func (c *SpecCache) fetch(ctx context.Context, host, version string) *Entry {
	log := c.log.WithField("host", host).WithField("version", version)

	res := c.getter.Get(ctx, fmt.Sprintf("%s/%s/swagger.json", host, version))
	if !res.OK() {
		log.WithField("status", res.StatusCode).Warn("Failed to fetch spec")
		c.recordRefresh(host, "failed")
		return nil
	}

	doc, err := ParseDocument(res.Body)
	if err != nil || doc.Empty() {
		log.WithError(err).Warn("Unusable spec document")
		c.recordRefresh(host, "failed")
		return nil
	}

	entry := &Entry{Version: version, FetchedAt: c.now(), Doc: doc}
	c.recordRefresh(host, "updated")

	if c.store != nil {
		snap := Snapshot{Host: host, Version: version, FetchedAt: entry.FetchedAt, Raw: doc.Raw}
		if err := c.store.SaveSpec(ctx, snap); err != nil {
			log.WithError(err).Warn("Failed to save spec snapshot")
		}
	}
	return entry
}

func (c *SpecCache) recordRefresh(host, status string) {
	if c.metrics != nil {
		c.metrics.RecordSpecRefresh(hostLabel(host), status)
	}
}

// Restore loads persisted snapshots for every registered host. Snapshots keep
// their original fetch time, so old ones are still refreshed on the next
// Refresh.
func (c *SpecCache) Restore(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}

	restored := 0
	for _, host := range c.Hosts() {
		snaps, err := c.store.LoadSpecs(ctx, host)
		if err != nil {
			return restored, fmt.Errorf("load snapshots for %s: %w", host, err)
		}
		for _, snap := range snaps {
			doc, err := ParseDocument(snap.Raw)
			if err != nil || doc.Empty() {
				c.log.WithError(err).WithField("version", snap.Version).Warn("Skipping unusable snapshot")
				continue
			}
			c.addVersions(host, []string{snap.Version})

			c.mu.Lock()
			hs := c.hosts[host]
			if cur := hs.entries[snap.Version]; cur.Empty() || cur.FetchedAt.Before(snap.FetchedAt) {
				hs.entries[snap.Version] = &Entry{Version: snap.Version, FetchedAt: snap.FetchedAt, Doc: doc}
				restored++
			}
			c.mu.Unlock()
		}
	}
	return restored, nil
}
