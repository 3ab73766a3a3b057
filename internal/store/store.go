// Package store owns the shopping list state. Every mutation writes the
// full snapshot through the injected storage.KV and then notifies
// subscribers; derivations are recomputed from the current state on
// each call.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"shoplist/internal/core"
	applog "shoplist/internal/log"
	"shoplist/internal/storage"
)

const defaultSaveTimeout = 5 * time.Second

// Listener receives the snapshot produced by a mutation.
type Listener func(Snapshot)

type Store struct {
	mu    sync.Mutex
	state Snapshot

	kv          storage.KV
	logger      *applog.Logger
	now         func() time.Time
	newID       func() string
	saveTimeout time.Duration

	subMu   sync.Mutex
	subs    map[uint64]Listener
	nextSub uint64

	// pending holds committed snapshots not yet delivered, in commit order.
	notifyMu sync.Mutex
	pending  []Snapshot
	draining bool
}

type Option func(*Store)

func WithLogger(l *applog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(applog.ComponentStore)
		}
	}
}

// WithClock overrides the source of createdAt and exportDate timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the item id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithSaveTimeout bounds every persistence read and write.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.saveTimeout = d
		}
	}
}

// New builds a store over kv and loads the persisted snapshot. An absent,
// unreadable or malformed snapshot falls back to DefaultSnapshot.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:          kv,
		logger:      applog.Discard().WithComponent(applog.ComponentStore),
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:       uuid.NewString,
		saveTimeout: defaultSaveTimeout,
		subs:        map[uint64]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.load()
	return s
}

func (s *Store) load() Snapshot {
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	data, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Debug("No stored snapshot, using defaults", applog.FieldOperation, applog.OpLoad)
		return DefaultSnapshot()
	}
	if err != nil {
		s.logger.Warn("Failed to read snapshot, using defaults",
			applog.FieldOperation, applog.OpLoad, applog.FieldError, err)
		return DefaultSnapshot()
	}

	// Fields missing from the stored document keep their defaults.
	snap := DefaultSnapshot()
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("Malformed snapshot, using defaults",
			applog.FieldOperation, applog.OpLoad, applog.FieldError, err)
		return DefaultSnapshot()
	}
	if snap.Items == nil {
		snap.Items = []core.Item{}
	}
	snap.Categories = core.DedupeCategories(snap.Categories)

	s.logger.Info("Snapshot loaded",
		applog.FieldOperation, applog.OpLoad,
		applog.FieldItemCount, len(snap.Items))
	return snap
}

// mutate runs fn under the state lock. When fn succeeds the new state is
// persisted and queued for subscribers before the lock is released, so
// deliveries follow commit order. Listeners run outside the state lock and
// may call back into the store.
func (s *Store) mutate(op string, fn func(st *Snapshot) error) error {
	s.mu.Lock()
	if err := fn(&s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.state.clone()
	s.persist(op, snap)
	s.notifyMu.Lock()
	s.pending = append(s.pending, snap)
	s.notifyMu.Unlock()
	s.mu.Unlock()

	s.drain()
	return nil
}

// drain delivers queued snapshots one at a time. If another call is already
// draining, including a listener mutating the store, it returns at once and
// the running drain picks up the new snapshot.
func (s *Store) drain() {
	s.notifyMu.Lock()
	if s.draining {
		s.notifyMu.Unlock()
		return
	}
	s.draining = true
	s.notifyMu.Unlock()

	for {
		s.notifyMu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.notifyMu.Unlock()
			return
		}
		snap := s.pending[0]
		s.pending[0] = Snapshot{}
		s.pending = s.pending[1:]
		s.notifyMu.Unlock()

		s.notify(snap)
	}
}

func (s *Store) persist(op string, snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("Failed to encode snapshot",
			applog.FieldOperation, op, applog.FieldError, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	if err := s.kv.Put(ctx, StorageKey, data); err != nil {
		// In-memory state stays authoritative for this session.
		s.logger.Error("Failed to persist snapshot",
			applog.FieldOperation, op, applog.FieldKey, StorageKey, applog.FieldError, err)
		return
	}
	s.logger.Debug("Snapshot persisted",
		applog.FieldOperation, applog.OpSave, "trigger", op,
		applog.FieldKey, StorageKey, applog.FieldItemCount, len(snap.Items))
}

// Subscribe registers l for every later mutation. The returned func
// removes it and may be called more than once.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = l
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.subs[id])
	}
	s.subMu.Unlock()

	for _, l := range listeners {
		l(snap.clone())
	}
}

// AddItem validates the draft and appends a new unpurchased item.
// Validation failures come back as core.FieldErrors and change nothing.
func (s *Store) AddItem(d core.Draft) (core.Item, error) {
	var added core.Item
	err := s.mutate(applog.OpAddItem, func(st *Snapshot) error {
		d = d.Normalize()
		if err := d.Validate(st.Categories); err != nil {
			return err
		}
		added = core.Item{
			ID:        s.uniqueID(st.Items),
			Name:      d.Name,
			Price:     d.Price,
			Category:  d.Category,
			Purchased: false,
			CreatedAt: s.now(),
		}
		st.Items = append(st.Items, added)
		return nil
	})
	if err != nil {
		return core.Item{}, err
	}

	s.logger.Info("Item added", applog.NewFields().
		WithItem(added.ID, added.Name, added.Price.Cents, added.Category).
		WithOperation(applog.OpAddItem).ToSlice()...)
	return added, nil
}

// UpdateItem applies the patch to the item with the given id. Unknown ids
// are ignored; invalid patch fields are rejected with core.FieldErrors.
func (s *Store) UpdateItem(id string, p core.ItemPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.mutate(applog.OpUpdateItem, func(st *Snapshot) error {
		if i := indexOf(st.Items, id); i >= 0 {
			st.Items[i] = p.Apply(st.Items[i])
		}
		return nil
	})
}

// DeleteItem removes the item with the given id, if any.
func (s *Store) DeleteItem(id string) {
	_ = s.mutate(applog.OpDeleteItem, func(st *Snapshot) error {
		st.Items = slices.DeleteFunc(st.Items, func(it core.Item) bool { return it.ID == id })
		return nil
	})
}

// TogglePurchased flips the purchased flag of the item with the given id.
func (s *Store) TogglePurchased(id string) {
	_ = s.mutate(applog.OpToggle, func(st *Snapshot) error {
		if i := indexOf(st.Items, id); i >= 0 {
			st.Items[i].Purchased = !st.Items[i].Purchased
		}
		return nil
	})
}

// ClearPurchased removes every purchased item and reports how many went.
func (s *Store) ClearPurchased() int {
	var removed int
	_ = s.mutate(applog.OpClearPurchased, func(st *Snapshot) error {
		before := len(st.Items)
		st.Items = slices.DeleteFunc(st.Items, func(it core.Item) bool { return it.Purchased })
		removed = before - len(st.Items)
		return nil
	})
	return removed
}

// ClearAll empties the list. Confirming with the user is the caller's job.
func (s *Store) ClearAll() int {
	var removed int
	_ = s.mutate(applog.OpClearAll, func(st *Snapshot) error {
		removed = len(st.Items)
		st.Items = []core.Item{}
		return nil
	})
	return removed
}

// AddCategory appends a trimmed label. Blank and duplicate labels are
// rejected with core.ErrEmptyCategory and core.ErrDuplicateCategory.
func (s *Store) AddCategory(label string) error {
	return s.mutate(applog.OpAddCategory, func(st *Snapshot) error {
		l, err := core.ValidateCategory(label, st.Categories)
		if err != nil {
			return err
		}
		st.Categories = append(st.Categories, l)
		return nil
	})
}

// SetFilter merges the patch into the filter state.
func (s *Store) SetFilter(p core.FilterPatch) {
	_ = s.mutate(applog.OpSetFilter, func(st *Snapshot) error {
		st.Filter = st.Filter.Merge(p)
		return nil
	})
}

// ToggleDarkMode flips the theme flag and returns the new value.
func (s *Store) ToggleDarkMode() bool {
	var dark bool
	_ = s.mutate(applog.OpToggleTheme, func(st *Snapshot) error {
		st.DarkMode = !st.DarkMode
		dark = st.DarkMode
		return nil
	})
	return dark
}

// ExportData returns the items and categories stamped with the current time.
func (s *Store) ExportData() ExportPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state.clone()
	return ExportPayload{
		Items:      snap.Items,
		Categories: snap.Categories,
		ExportDate: s.now(),
	}
}

// ImportData replaces the item list, and the categories when present.
// A payload without an items array is rejected and changes nothing.
func (s *Store) ImportData(p ImportPayload) bool {
	if p.Items == nil {
		s.logger.Warn("Import rejected: missing items", applog.FieldOperation, applog.OpImport)
		return false
	}
	_ = s.mutate(applog.OpImport, func(st *Snapshot) error {
		items := cloneItems(p.Items)
		seen := make(map[string]struct{}, len(items))
		for i := range items {
			if _, dup := seen[items[i].ID]; items[i].ID == "" || dup {
				items[i].ID = s.uniqueID(items)
			}
			seen[items[i].ID] = struct{}{}
		}
		st.Items = items
		if p.Categories != nil {
			st.Categories = core.DedupeCategories(p.Categories)
		}
		return nil
	})
	s.logger.Info("Import applied",
		applog.FieldOperation, applog.OpImport, applog.FieldItemCount, len(p.Items))
	return true
}

// uniqueID draws ids until one is not used by items.
func (s *Store) uniqueID(items []core.Item) string {
	for {
		id := s.newID()
		if id != "" && indexOf(items, id) < 0 {
			return id
		}
	}
}

func indexOf(items []core.Item, id string) int {
	return slices.IndexFunc(items, func(it core.Item) bool { return it.ID == id })
}

// Snapshot returns a copy of the persisted state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Items returns the items in storage order.
func (s *Store) Items() []core.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.state.Items)
}

// Categories returns the category set in insertion order.
func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Categories)
}

func (s *Store) Filter() core.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Filter
}

func (s *Store) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DarkMode
}

// FilteredItems applies the current filter to a copy of the items.
func (s *Store) FilteredItems() []core.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Filter.Apply(s.state.Items)
}

func (s *Store) TotalCost() core.Money {
	return core.TotalCost(s.Items())
}

func (s *Store) PurchasedCost() core.Money {
	return core.PurchasedCost(s.Items())
}

func (s *Store) RemainingCost() core.Money {
	return core.RemainingCost(s.Items())
}

// Summary returns item counts and costs for the whole list.
func (s *Store) Summary() core.Summary {
	return core.Summarize(s.Items())
}
