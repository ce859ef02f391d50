package names

import (
	"context"

	"github.com/namecore/nschain/store"
)

// expireDelta records a pending add or removal of one expire-index entry
// that has not yet been flushed to the underlying view.
type expireDelta int

const (
	deltaAdd expireDelta = iota
	deltaRemove
)

// NameCache is the write-through overlay stacked atop a NameView: block
// application accumulates its mutations here, and the batch flushes to
// the persistent store only once, atomically alongside the UTXO batch
// (spec.md §4.5). A NameCache also satisfies NameView, so caches compose.
type NameCache struct {
	parent NameView

	setEntries     map[string]NameData
	deleted        map[string]bool
	historyEntries map[string]NameHistory
	expireDelta    map[ExpireKey]expireDelta

	historyEnabled bool
}

func NewNameCache(parent NameView, historyEnabled bool) *NameCache {
	return &NameCache{
		parent:         parent,
		setEntries:     make(map[string]NameData),
		deleted:        make(map[string]bool),
		historyEntries: make(map[string]NameHistory),
		expireDelta:    make(map[ExpireKey]expireDelta),
		historyEnabled: historyEnabled,
	}
}

// Set inserts or overwrites the current record for name.
func (c *NameCache) Set(name []byte, data NameData) {
	key := string(name)
	c.setEntries[key] = data
	delete(c.deleted, key)
}

// Remove marks name as having no current record.
func (c *NameCache) Remove(name []byte) {
	key := string(name)
	c.deleted[key] = true
	delete(c.setEntries, key)
}

// AddExpire records that (height, name) should be present in the expire
// index once this cache flushes.
func (c *NameCache) AddExpire(name []byte, height uint32) {
	c.expireDelta[ExpireKey{Height: height, Name: string(name)}] = deltaAdd
}

// RemoveExpire records that (height, name) should be absent from the
// expire index once this cache flushes.
func (c *NameCache) RemoveExpire(name []byte, height uint32) {
	c.expireDelta[ExpireKey{Height: height, Name: string(name)}] = deltaRemove
}

// AppendHistory records prior as the next history entry for name, a
// no-op when history tracking is disabled (spec.md §4.5: "when disabled,
// the history map must remain empty").
func (c *NameCache) AppendHistory(name []byte, prior NameData) error {
	if !c.historyEnabled {
		return nil
	}
	key := string(name)
	hist, ok := c.historyEntries[key]
	if !ok {
		existing, err := c.GetHistory(name)
		if err != nil {
			return err
		}
		hist = append(NameHistory(nil), existing...)
	}
	c.historyEntries[key] = append(hist, prior)
	return nil
}

// PopHistory drops the most recently appended history entry for name, the
// inverse of AppendHistory used when a mutation is undone. No-op when
// history tracking is disabled or name has no history.
func (c *NameCache) PopHistory(name []byte) error {
	if !c.historyEnabled {
		return nil
	}
	hist, err := c.GetHistory(name)
	if err != nil {
		return err
	}
	if len(hist) == 0 {
		return nil
	}
	c.historyEntries[string(name)] = hist[:len(hist)-1]
	return nil
}

func (c *NameCache) GetName(name []byte) (*NameData, error) {
	key := string(name)
	if d, ok := c.setEntries[key]; ok {
		clone := d.Clone()
		return &clone, nil
	}
	if c.deleted[key] {
		return nil, ErrNameNotFound
	}
	return c.parent.GetName(name)
}

func (c *NameCache) GetHistory(name []byte) (NameHistory, error) {
	if h, ok := c.historyEntries[string(name)]; ok {
		return h, nil
	}
	return c.parent.GetHistory(name)
}

// NamesAtHeight asks the parent for its view of height h, then applies
// this cache's expire-index deltas that fall at exactly that height.
func (c *NameCache) NamesAtHeight(h uint32) ([]string, error) {
	base, err := c.parent.NamesAtHeight(h)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(base))
	for _, n := range base {
		present[n] = true
	}
	for k, d := range c.expireDelta {
		if k.Height != h {
			continue
		}
		if d == deltaAdd {
			present[k.Name] = true
		} else {
			delete(present, k.Name)
		}
	}
	out := make([]string, 0, len(present))
	for n := range present {
		out = append(out, n)
	}
	return out, nil
}

// WalkNames passes straight through to the parent: this cache's own
// set/deleted entries are not merged into the walk, so it shows the
// parent's state as of the last flush. The mutator only ever calls
// GetName/NamesAtHeight on a cache. WalkExpiration behaves the same way.
func (c *NameCache) WalkNames(ctx context.Context, start []byte, consumer NameConsumer) error {
	return c.parent.WalkNames(ctx, start, consumer)
}

func (c *NameCache) WalkExpiration(ctx context.Context, fromHeight uint32, consumer func(ExpireKey) (bool, error)) error {
	return c.parent.WalkExpiration(ctx, fromHeight, consumer)
}

// Apply merges other into c, as if other's mutations had been recorded
// directly against c: other's set/delete supersedes c's prior state for
// the same name, and likewise for history and expire deltas.
func (c *NameCache) Apply(other *NameCache) {
	for k, v := range other.setEntries {
		c.setEntries[k] = v
		delete(c.deleted, k)
	}
	for k := range other.deleted {
		c.deleted[k] = true
		delete(c.setEntries, k)
	}
	for k, v := range other.historyEntries {
		c.historyEntries[k] = v
	}
	for k, v := range other.expireDelta {
		c.expireDelta[k] = v
	}
}

// Flush emits this cache's accumulated deltas into wb: puts for current
// set_entries and expire-index adds, deletes for removed names and
// expire-index removals, and a put-or-delete per touched history entry
// (an empty history deletes the key, per spec.md §6).
func (c *NameCache) Flush(wb store.WriteBatch) error {
	for name, data := range c.setEntries {
		enc, err := store.EncodeGob(data)
		if err != nil {
			return err
		}
		if err := wb.Put(store.EntryKey([]byte(name)), enc); err != nil {
			return err
		}
	}
	for name := range c.deleted {
		if err := wb.Delete(store.EntryKey([]byte(name))); err != nil {
			return err
		}
	}
	for name, hist := range c.historyEntries {
		key := store.HistoryKey([]byte(name))
		if len(hist) == 0 {
			if err := wb.Delete(key); err != nil {
				return err
			}
			continue
		}
		enc, err := store.EncodeGob(hist)
		if err != nil {
			return err
		}
		if err := wb.Put(key, enc); err != nil {
			return err
		}
	}
	for k, d := range c.expireDelta {
		key := store.ExpireKeyBytes(k.Height, []byte(k.Name))
		if d == deltaAdd {
			if err := wb.Put(key, []byte{}); err != nil {
				return err
			}
		} else {
			if err := wb.Delete(key); err != nil {
				return err
			}
		}
	}
	return nil
}
