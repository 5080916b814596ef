package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"todolists/model"
	"todolists/store"
)

// View receives a full replacement of the active list after every change.
type View interface {
	Render(title string, items []model.Item)
}

type persistKeys int

const (
	persistLists persistKeys = 1 << iota
	persistActive

	persistAll = persistLists | persistActive
)

// ListStore owns the collection of lists and the active list pointer.
// Every mutation is saved through the provider before it becomes visible;
// a failed save rolls the mutation back.
type ListStore struct {
	provider  store.Provider
	log       logrus.FieldLogger
	newListID func() int64
	newItemID func() string

	lists    []model.List
	activeID int64
	views    []View
	recovery Recovery
}

// Recovery describes how Open dealt with unreadable stored lists.
type Recovery struct {
	// Source names the backup the lists were restored from.
	Source string
	// QuarantineKey holds the unreadable bytes when no backup exists.
	QuarantineKey string
}

// Option configures a ListStore.
type Option func(*ListStore)

// WithLogger sets the logger used for persistence and recovery events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *ListStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithListIDs replaces the list id generator.
func WithListIDs(fn func() int64) Option {
	return func(s *ListStore) {
		if fn != nil {
			s.newListID = fn
		}
	}
}

// WithItemIDs replaces the item id generator.
func WithItemIDs(fn func() string) Option {
	return func(s *ListStore) {
		if fn != nil {
			s.newItemID = fn
		}
	}
}

// Open loads the collection from provider, bootstrapping a fresh list when
// nothing usable is stored.
func Open(ctx context.Context, provider store.Provider, opts ...Option) (*ListStore, error) {
	if provider == nil {
		return nil, errors.New("app.Open: provider is nil")
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &ListStore{
		provider:  provider,
		log:       discard,
		newListID: timestampID,
		newItemID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Attach registers a view and renders the active list into it.
func (s *ListStore) Attach(v View) {
	s.views = append(s.views, v)
	active := s.Active()
	v.Render(active.Title, active.Items)
}

// Lists returns a copy of every list in collection order.
func (s *ListStore) Lists() []model.List {
	out := make([]model.List, len(s.lists))
	for i, l := range s.lists {
		out[i] = l.Clone()
	}
	return out
}

// List returns a list by id.
func (s *ListStore) List(id int64) (model.List, error) {
	idx := s.indexOfList(id)
	if idx < 0 {
		return model.List{}, fmt.Errorf("%w: %d", ErrListNotFound, id)
	}
	return s.lists[idx].Clone(), nil
}

// Active returns a copy of the active list.
func (s *ListStore) Active() model.List {
	return s.lists[s.activeIndex()].Clone()
}

// Recovery reports what Open did with corrupt stored lists. It is zero when
// the stored lists loaded cleanly.
func (s *ListStore) Recovery() Recovery {
	return s.recovery
}

func (s *ListStore) ActiveID() int64 {
	return s.activeID
}

// Items returns a copy of the active list's items.
func (s *ListStore) Items() []model.Item {
	return s.Active().Items
}

// Snapshot returns the document that would be persisted.
func (s *ListStore) Snapshot() model.Snapshot {
	return model.Snapshot{Version: model.SnapshotVersion, Lists: s.Lists()}
}

// CreateList appends a new empty list and makes it active. A blank title
// falls back to the numbered default.
func (s *ListStore) CreateList(ctx context.Context, title string) (model.List, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.NewListTitle(len(s.lists) + 1)
	}
	var created model.List
	err := s.mutate(ctx, "create list", persistAll, func() error {
		created = s.newList(title)
		s.lists = append(s.lists, created)
		s.activeID = created.ID
		return nil
	})
	if err != nil {
		return model.List{}, err
	}
	s.log.WithField("list_id", created.ID).Debug("list created")
	return created.Clone(), nil
}

// DeleteList removes a list. When the active list goes away the list that
// preceded it becomes active; removing the last list bootstraps a new one.
func (s *ListStore) DeleteList(ctx context.Context, id int64) error {
	idx := s.indexOfList(id)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrListNotFound, id)
	}
	return s.mutate(ctx, "delete list", persistAll, func() error {
		wasActive := s.activeID == id
		kept := make([]model.List, 0, len(s.lists)-1)
		kept = append(kept, s.lists[:idx]...)
		kept = append(kept, s.lists[idx+1:]...)
		s.lists = kept

		if len(s.lists) == 0 {
			s.bootstrap()
			return nil
		}
		if wasActive {
			// The first list has no predecessor; its successor moved into index 0.
			s.activeID = s.lists[max(idx-1, 0)].ID
		}
		return nil
	})
}

// RenameActive sets the active list title. A blank title is replaced by
// model.FallbackTitle and reverted is true.
func (s *ListStore) RenameActive(ctx context.Context, title string) (list model.List, reverted bool, err error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = model.FallbackTitle
		reverted = true
	}
	title = model.ClampTitle(title)

	err = s.mutate(ctx, "rename list", persistAll, func() error {
		s.lists[s.activeIndex()].Title = title
		return nil
	})
	if err != nil {
		return model.List{}, false, err
	}
	if reverted {
		s.log.WithField("list_id", s.activeID).Warn("empty list title replaced with default")
	}
	return s.Active(), reverted, nil
}

// AddItem appends an active item. Blank or duplicate text is ignored and
// added is false.
func (s *ListStore) AddItem(ctx context.Context, text string) (item model.Item, added bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Item{}, false, nil
	}
	list := &s.lists[s.activeIndex()]
	if indexOfText(list.Items, text, -1) >= 0 {
		return model.Item{}, false, nil
	}

	item = model.Item{ID: s.newItemID(), Text: text, Status: model.StatusActive}
	err = s.mutate(ctx, "add item", persistLists, func() error {
		list := &s.lists[s.activeIndex()]
		list.Items = append(list.Items, item)
		return nil
	})
	if err != nil {
		return model.Item{}, false, err
	}
	return item, true, nil
}

// ToggleItem flips the item at index between active and done.
func (s *ListStore) ToggleItem(ctx context.Context, index int) (model.Item, error) {
	if err := s.checkIndex(index); err != nil {
		return model.Item{}, err
	}
	var out model.Item
	err := s.mutate(ctx, "toggle item", persistLists, func() error {
		it := &s.lists[s.activeIndex()].Items[index]
		it.Status = it.Status.Toggle()
		out = *it
		return nil
	})
	if err != nil {
		return model.Item{}, err
	}
	return out, nil
}

// EditItem replaces the text of the item at index. The new text must be
// non-blank and unique within the list.
func (s *ListStore) EditItem(ctx context.Context, index int, text string) (model.Item, error) {
	if err := s.checkIndex(index); err != nil {
		return model.Item{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Item{}, &ValidationError{Field: "item text", Value: text, Err: ErrEmptyText}
	}
	items := s.lists[s.activeIndex()].Items
	if items[index].Text == text {
		return items[index], nil
	}
	if indexOfText(items, text, index) >= 0 {
		return model.Item{}, &ValidationError{Field: "item text", Value: text, Err: ErrDuplicateText}
	}

	var out model.Item
	err := s.mutate(ctx, "edit item", persistLists, func() error {
		it := &s.lists[s.activeIndex()].Items[index]
		it.Text = text
		out = *it
		return nil
	})
	if err != nil {
		return model.Item{}, err
	}
	return out, nil
}

// DeleteItem removes the item at index and returns it.
func (s *ListStore) DeleteItem(ctx context.Context, index int) (model.Item, error) {
	if err := s.checkIndex(index); err != nil {
		return model.Item{}, err
	}
	var removed model.Item
	err := s.mutate(ctx, "delete item", persistLists, func() error {
		list := &s.lists[s.activeIndex()]
		removed = list.Items[index]
		kept := make([]model.Item, 0, len(list.Items)-1)
		kept = append(kept, list.Items[:index]...)
		kept = append(kept, list.Items[index+1:]...)
		list.Items = kept
		return nil
	})
	if err != nil {
		return model.Item{}, err
	}
	return removed, nil
}

// Reorder rebuilds the active list in the order of ids, as reported by the
// view after a reorder gesture. Items whose id is not listed keep their
// relative order after the listed ones.
func (s *ListStore) Reorder(ctx context.Context, ids []string) ([]model.Item, error) {
	items := s.lists[s.activeIndex()].Items
	byID := make(map[string]int, len(items))
	for i, it := range items {
		byID[it.ID] = i
	}

	used := make([]bool, len(items))
	order := make([]int, 0, len(items))
	for _, id := range ids {
		idx, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		if used[idx] {
			return nil, fmt.Errorf("%w: id %s repeated", ErrInvalidOrder, id)
		}
		used[idx] = true
		order = append(order, idx)
	}
	return s.applyOrder(ctx, appendUnused(order, used))
}

// ReorderByText rebuilds the active list from item texts in display order.
// Each text claims the first unclaimed item with exactly that text; texts
// that match nothing are dropped and unclaimed items are appended in their
// previous relative order.
func (s *ListStore) ReorderByText(ctx context.Context, texts []string) ([]model.Item, error) {
	items := s.lists[s.activeIndex()].Items
	used := make([]bool, len(items))
	order := make([]int, 0, len(items))
	for _, text := range texts {
		for i, it := range items {
			if !used[i] && it.Text == text {
				used[i] = true
				order = append(order, i)
				break
			}
		}
	}
	return s.applyOrder(ctx, appendUnused(order, used))
}

// MoveItem shifts the item at index by delta positions.
func (s *ListStore) MoveItem(ctx context.Context, index, delta int) ([]model.Item, error) {
	if err := s.checkIndex(index); err != nil {
		return nil, err
	}
	items := s.lists[s.activeIndex()].Items
	target := index + delta
	if target < 0 || target >= len(items) {
		return nil, indexError(target, len(items))
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	moved := ids[index]
	ids = append(ids[:index], ids[index+1:]...)
	ids = append(ids[:target], append([]string{moved}, ids[target:]...)...)
	return s.Reorder(ctx, ids)
}

// SwitchActive makes the list with id the active one.
func (s *ListStore) SwitchActive(ctx context.Context, id int64) (model.List, error) {
	if s.indexOfList(id) < 0 {
		return model.List{}, fmt.Errorf("%w: %d", ErrListNotFound, id)
	}
	err := s.mutate(ctx, "switch list", persistActive, func() error {
		s.activeID = id
		return nil
	})
	if err != nil {
		return model.List{}, err
	}
	return s.Active(), nil
}

func (s *ListStore) applyOrder(ctx context.Context, order []int) ([]model.Item, error) {
	err := s.mutate(ctx, "reorder items", persistLists, func() error {
		list := &s.lists[s.activeIndex()]
		sorted := make([]model.Item, 0, len(order))
		for _, idx := range order {
			sorted = append(sorted, list.Items[idx])
		}
		list.Items = sorted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Items(), nil
}

// mutate applies fn, persists the touched keys and notifies views. Any
// failure restores the state that existed before fn ran.
func (s *ListStore) mutate(ctx context.Context, op string, keys persistKeys, fn func() error) error {
	prevLists := cloneLists(s.lists)
	prevActive := s.activeID

	rollback := func() {
		s.lists = prevLists
		s.activeID = prevActive
	}

	if err := fn(); err != nil {
		rollback()
		return err
	}
	if err := s.persist(ctx, op, keys); err != nil {
		rollback()
		var perr *PersistenceError
		if keys&persistLists != 0 && errors.As(err, &perr) && perr.Key == model.ActiveKey {
			s.restoreLists(ctx)
		}
		return err
	}
	s.render()
	return nil
}

func (s *ListStore) persist(ctx context.Context, op string, keys persistKeys) error {
	if keys&persistLists != 0 {
		if err := s.saveLists(ctx, op); err != nil {
			return err
		}
	}
	if keys&persistActive != 0 {
		if err := s.saveActive(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func (s *ListStore) saveLists(ctx context.Context, op string) error {
	data, err := store.EncodeSnapshot(model.Snapshot{Version: model.SnapshotVersion, Lists: s.lists})
	if err == nil {
		err = s.provider.Save(ctx, model.ListsKey, data)
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": op, "key": model.ListsKey}).WithError(err).Error("save failed")
		return &PersistenceError{Op: op, Key: model.ListsKey, Err: err}
	}
	return nil
}

func (s *ListStore) saveActive(ctx context.Context, op string) error {
	data, err := store.EncodeActive(s.activeID)
	if err == nil {
		err = s.provider.Save(ctx, model.ActiveKey, data)
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": op, "key": model.ActiveKey}).WithError(err).Error("save failed")
		return &PersistenceError{Op: op, Key: model.ActiveKey, Err: err}
	}
	return nil
}

// restoreLists writes the rolled back lists again after the lists key was
// saved but the active key was not.
func (s *ListStore) restoreLists(ctx context.Context) {
	if err := s.saveLists(ctx, "restore lists"); err != nil {
		s.log.WithError(err).Warn("stored lists may be ahead of memory")
	}
}

func (s *ListStore) render() {
	if len(s.views) == 0 {
		return
	}
	active := s.Active()
	for _, v := range s.views {
		v.Render(active.Title, active.Items)
	}
}

func (s *ListStore) checkIndex(index int) error {
	n := len(s.lists[s.activeIndex()].Items)
	if index < 0 || index >= n {
		return indexError(index, n)
	}
	return nil
}

func (s *ListStore) indexOfList(id int64) int {
	for i := range s.lists {
		if s.lists[i].ID == id {
			return i
		}
	}
	return -1
}

// activeIndex relies on the invariant that activeID names a present list.
func (s *ListStore) activeIndex() int {
	idx := s.indexOfList(s.activeID)
	if idx < 0 {
		panic(fmt.Sprintf("app: active list %d missing from collection", s.activeID))
	}
	return idx
}

func (s *ListStore) newList(title string) model.List {
	id := s.newListID()
	for s.indexOfList(id) >= 0 {
		id = s.newListID()
	}
	return model.List{ID: id, Title: model.ClampTitle(title), Items: []model.Item{}}
}

// bootstrap replaces the empty collection with one fresh active list.
func (s *ListStore) bootstrap() {
	s.lists = nil
	l := s.newList(model.BootstrapTitle)
	s.lists = []model.List{l}
	s.activeID = l.ID
}

func indexOfText(items []model.Item, text string, skip int) int {
	for i, it := range items {
		if i != skip && it.Text == text {
			return i
		}
	}
	return -1
}

func appendUnused(order []int, used []bool) []int {
	for i, u := range used {
		if !u {
			order = append(order, i)
		}
	}
	return order
}

func cloneLists(lists []model.List) []model.List {
	out := make([]model.List, len(lists))
	for i, l := range lists {
		out[i] = l.Clone()
	}
	return out
}

func timestampID() int64 {
	return time.Now().UnixMilli() + rand.Int64N(100000)
}
