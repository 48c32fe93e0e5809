package parset

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nettlep/parsync/par/fingerprint"
	"github.com/nettlep/parsync/par/host"
)

// DefaultCacheCapacity is the default LRU entry cap (spec.md §6).
const DefaultCacheCapacity = 50

// CacheEntry is one classification snapshot, serialised per spec.md
// §6's persisted-cache layout so a host can write Cache's contents to
// disk between runs.
type CacheEntry struct {
	LastAccessed   uint32
	DataStatuses   []byte
	ParityStatuses []byte
}

// Encode serialises e as last_accessed, hash_count (fixed at 16, the
// width of a fingerprint), data_count, parity_count, followed by the
// set_hash itself and the two status byte slices.
func (e *CacheEntry) Encode(setHash fingerprint.Fingerprint) []byte {
	buf := make([]byte, 16+16+len(e.DataStatuses)+len(e.ParityStatuses))
	binary.LittleEndian.PutUint32(buf[0:4], e.LastAccessed)
	binary.LittleEndian.PutUint32(buf[4:8], 16)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(e.DataStatuses)))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(e.ParityStatuses)))
	copy(buf[16:32], setHash[:])
	copy(buf[32:], e.DataStatuses)
	copy(buf[32+len(e.DataStatuses):], e.ParityStatuses)
	return buf
}

// DecodeCacheEntry parses the layout Encode produces, returning the
// entry and the set_hash it was keyed under.
func DecodeCacheEntry(buf []byte) (*CacheEntry, fingerprint.Fingerprint, error) {
	var zero fingerprint.Fingerprint
	if len(buf) < 32 {
		return nil, zero, errShortCacheEntry{}
	}
	lastAccessed := binary.LittleEndian.Uint32(buf[0:4])
	hashCount := binary.LittleEndian.Uint32(buf[4:8])
	dataCount := binary.LittleEndian.Uint32(buf[8:12])
	parityCount := binary.LittleEndian.Uint32(buf[12:16])
	if hashCount != 16 {
		return nil, zero, errShortCacheEntry{}
	}
	want := 16 + 16 + int(dataCount) + int(parityCount)
	if len(buf) < want {
		return nil, zero, errShortCacheEntry{}
	}
	var setHash fingerprint.Fingerprint
	copy(setHash[:], buf[16:32])
	e := &CacheEntry{
		LastAccessed:   lastAccessed,
		DataStatuses:   append([]byte(nil), buf[32:32+dataCount]...),
		ParityStatuses: append([]byte(nil), buf[32+dataCount:32+dataCount+parityCount]...),
	}
	return e, setHash, nil
}

type errShortCacheEntry struct{}

func (errShortCacheEntry) Error() string { return "parset: truncated cache entry" }

// Cache is a bounded, least-recently-accessed classification cache
// (spec.md §4.G, §6), satisfying host.CacheHandle so it can be plugged
// straight into host.Services.Cache. Grounded on the corpus's
// backend/hasher checksum-cache overlay for the LRU-fronting-an-opaque-
// store shape, wired to github.com/hashicorp/golang-lru.
type Cache struct {
	lru      *lru.Cache
	backing  host.CacheHandle // optional: serves LRU misses and receives every store
	accessAt uint32
}

var _ host.CacheHandle = (*Cache)(nil)

// NewCache builds a Cache with the given capacity (DefaultCacheCapacity
// if cap <= 0), optionally chained in front of a persistent backing
// store for misses and writes.
func NewCache(capacity int, backing host.CacheHandle) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	l, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, backing: backing}, nil
}

// LoadCached implements host.CacheHandle: an in-memory hit returns
// immediately; a miss falls through to the backing store (if any) and
// repopulates the LRU.
func (c *Cache) LoadCached(setHash [16]byte) (bool, []byte) {
	if v, ok := c.lru.Get(setHash); ok {
		e := v.(*CacheEntry)
		return true, e.Encode(setHash)
	}
	if c.backing == nil {
		return false, nil
	}
	ok, data := c.backing.LoadCached(setHash)
	if !ok {
		return false, nil
	}
	e, gotHash, err := DecodeCacheEntry(data)
	if err != nil || gotHash != fingerprint.Fingerprint(setHash) {
		return false, nil
	}
	c.lru.Add(setHash, e)
	return true, data
}

// StoreCached implements host.CacheHandle, writing through to the
// backing store (if any) in addition to updating the in-memory LRU.
func (c *Cache) StoreCached(setHash [16]byte, data []byte) {
	e, _, err := DecodeCacheEntry(data)
	if err != nil {
		return
	}
	c.lru.Add(setHash, e)
	if c.backing != nil {
		c.backing.StoreCached(setHash, data)
	}
}

// Snapshot builds a CacheEntry from a classified Set, ready to be
// serialised and stored under s.SetHash.
func (s *Set) Snapshot(accessedAt uint32) *CacheEntry {
	data := make([]byte, len(s.DataFiles))
	for i, r := range s.DataFiles {
		data[i] = byte(r.Status)
	}
	parity := make([]byte, len(s.Parity))
	for i, p := range s.Parity {
		parity[i] = byte(p.Status)
	}
	return &CacheEntry{LastAccessed: accessedAt, DataStatuses: data, ParityStatuses: parity}
}

// Apply restores status bytes from e onto s, skipping the fresh
// per-file existence/size check a full Classify would perform. Callers
// typically use this to short-circuit Classify when e.LastAccessed is
// recent enough to trust.
func (s *Set) Apply(e *CacheEntry) {
	for i := range s.DataFiles {
		if i < len(e.DataStatuses) {
			s.DataFiles[i].Status = Status(e.DataStatuses[i])
		}
	}
	for i := range s.Parity {
		if i < len(e.ParityStatuses) {
			s.Parity[i].Status = Status(e.ParityStatuses[i])
		}
	}
}
