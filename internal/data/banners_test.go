package data

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUniqueViolation = errors.New("duplicate key value violates unique constraint \"banners_priority_key\"")

// memBannerStore keeps banners in memory and checks the priority UNIQUE
// constraint after every single row write. Range updates are tried in both
// ascending and descending row order and fail if either order collides.
type memBannerStore struct {
	rows   map[int64]*Banner
	nextID int64
	writes int
	failOn string
}

func newMemBannerStore() *memBannerStore {
	return &memBannerStore{rows: make(map[int64]*Banner)}
}

func newTestBannerModel() (BannerModel, *memBannerStore) {
	store := newMemBannerStore()
	return BannerModel{store: store}, store
}

func (s *memBannerStore) list(ctx context.Context) ([]*Banner, error) {
	banners := make([]*Banner, 0, len(s.rows))
	for _, b := range s.rows {
		copied := *b
		banners = append(banners, &copied)
	}

	sort.Slice(banners, func(i, j int) bool { return banners[i].Priority < banners[j].Priority })
	return banners, nil
}

func (s *memBannerStore) maxPriority(ctx context.Context) (int, error) {
	return maxOf(s.rows), nil
}

func (s *memBannerStore) get(ctx context.Context, id int64) (*Banner, error) {
	b, ok := s.rows[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *memBannerStore) withTx(ctx context.Context, fn func(tx bannerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memBannerTx{store: s, rows: cloneRows(s.rows), nextID: s.nextID}

	if err := fn(tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.rows = tx.rows
	s.nextID = tx.nextID
	s.writes += tx.writes
	return nil
}

type memBannerTx struct {
	store  *memBannerStore
	rows   map[int64]*Banner
	nextID int64
	writes int
}

func (t *memBannerTx) fail(op string) error {
	if t.store.failOn == op {
		return fmt.Errorf("%s: connection reset", op)
	}
	return nil
}

func (t *memBannerTx) lock(ctx context.Context) error {
	return t.fail("lock")
}

func (t *memBannerTx) maxPriority(ctx context.Context) (int, error) {
	return maxOf(t.rows), t.fail("max")
}

func (t *memBannerTx) get(ctx context.Context, id int64) (*Banner, error) {
	if err := t.fail("get"); err != nil {
		return nil, err
	}
	b, ok := t.rows[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *b
	return &copied, nil
}

func (t *memBannerTx) park(ctx context.Context, from, to int) error {
	if err := t.fail("park"); err != nil {
		return err
	}
	return t.shift(func(p int) bool { return p >= from && (to <= 0 || p < to) }, PriorityOffset)
}

func (t *memBannerTx) unpark(ctx context.Context, from, delta int) error {
	if err := t.fail("unpark"); err != nil {
		return err
	}
	return t.shift(func(p int) bool { return p >= from+PriorityOffset }, -(PriorityOffset - delta))
}

func (t *memBannerTx) insert(ctx context.Context, banner *Banner) error {
	if err := t.fail("insert"); err != nil {
		return err
	}
	if t.taken(banner.Priority, 0) {
		return errUniqueViolation
	}
	t.nextID++
	banner.ID = t.nextID
	copied := *banner
	t.rows[banner.ID] = &copied
	t.writes++
	return nil
}

func (t *memBannerTx) setPriority(ctx context.Context, id int64, priority int) error {
	if err := t.fail("setPriority"); err != nil {
		return err
	}
	if t.taken(priority, id) {
		return errUniqueViolation
	}
	if b, ok := t.rows[id]; ok {
		b.Priority = priority
		t.writes++
	}
	return nil
}

func (t *memBannerTx) setImage(ctx context.Context, id int64, imageReference string) error {
	if err := t.fail("setImage"); err != nil {
		return err
	}
	if b, ok := t.rows[id]; ok {
		b.ImageReference = imageReference
		t.writes++
	}
	return nil
}

func (t *memBannerTx) delete(ctx context.Context, id int64) (int64, error) {
	if err := t.fail("delete"); err != nil {
		return 0, err
	}
	if _, ok := t.rows[id]; !ok {
		return 0, nil
	}
	delete(t.rows, id)
	t.writes++
	return 1, nil
}

func (t *memBannerTx) taken(priority int, except int64) bool {
	for id, b := range t.rows {
		if id != except && b.Priority == priority {
			return true
		}
	}
	return false
}

// shift adds delta to every matching row one row at a time.
func (t *memBannerTx) shift(match func(int) bool, delta int) error {
	var ids []int64
	for id, b := range t.rows {
		if match(b.Priority) {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return t.rows[ids[i]].Priority < t.rows[ids[j]].Priority })

	reversed := make([]int64, len(ids))
	for i, id := range ids {
		reversed[len(ids)-1-i] = id
	}

	for _, order := range [][]int64{ids, reversed} {
		trial := &memBannerTx{store: t.store, rows: cloneRows(t.rows)}
		for _, id := range order {
			next := trial.rows[id].Priority + delta
			if trial.taken(next, id) {
				return errUniqueViolation
			}
			trial.rows[id].Priority = next
		}
	}

	for _, id := range ids {
		t.rows[id].Priority += delta
		t.writes++
	}
	return nil
}

func cloneRows(rows map[int64]*Banner) map[int64]*Banner {
	cloned := make(map[int64]*Banner, len(rows))
	for id, b := range rows {
		copied := *b
		cloned[id] = &copied
	}
	return cloned
}

func maxOf(rows map[int64]*Banner) int {
	max := 0
	for _, b := range rows {
		if b.Priority > max {
			max = b.Priority
		}
	}
	return max
}

// priorities maps image reference to priority for readable assertions.
func priorities(t *testing.T, m BannerModel) map[string]int {
	t.Helper()

	banners, err := m.GetAll(context.Background())
	require.NoError(t, err)

	got := make(map[string]int, len(banners))
	for _, b := range banners {
		got[b.ImageReference] = b.Priority
	}
	return got
}

func requireContiguous(t *testing.T, m BannerModel) {
	t.Helper()

	banners, err := m.GetAll(context.Background())
	require.NoError(t, err)

	for i, b := range banners {
		require.Equal(t, i+1, b.Priority, "priorities must be exactly 1..N")
	}
}

func insert(t *testing.T, m BannerModel, image string, requested int) *Banner {
	t.Helper()

	banner := &Banner{ImageReference: image}
	require.NoError(t, m.Insert(context.Background(), banner, requested))
	return banner
}

// seedABC builds {A:1, B:2, C:3}.
func seedABC(t *testing.T) (BannerModel, *memBannerStore, map[string]*Banner) {
	t.Helper()

	m, store := newTestBannerModel()
	banners := map[string]*Banner{
		"A": insert(t, m, "A", 0),
		"B": insert(t, m, "B", 0),
		"C": insert(t, m, "C", 0),
	}
	store.writes = 0
	return m, store, banners
}

func TestBannerInsertAtFront(t *testing.T) {
	m, _ := newTestBannerModel()

	a := insert(t, m, "A", 0)
	assert.Equal(t, 1, a.Priority)

	b := insert(t, m, "B", 0)
	assert.Equal(t, 2, b.Priority)

	c := insert(t, m, "C", 1)
	assert.Equal(t, 1, c.Priority)

	assert.Equal(t, map[string]int{"C": 1, "A": 2, "B": 3}, priorities(t, m))
}

func TestBannerInsertInMiddle(t *testing.T) {
	m, _, _ := seedABC(t)

	insert(t, m, "D", 2)

	assert.Equal(t, map[string]int{"A": 1, "D": 2, "B": 3, "C": 4}, priorities(t, m))
}

func TestBannerInsertInvalidPriorityAppends(t *testing.T) {
	for _, requested := range []int{-1, 0} {
		t.Run(fmt.Sprint(requested), func(t *testing.T) {
			m, _, _ := seedABC(t)

			d := insert(t, m, "D", requested)

			assert.Equal(t, 4, d.Priority)
			assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3, "D": 4}, priorities(t, m))
		})
	}
}

func TestBannerInsertPastEndAppendsWithoutShifting(t *testing.T) {
	m, store, _ := seedABC(t)

	d := insert(t, m, "D", 10)

	assert.Equal(t, 4, d.Priority)
	assert.Equal(t, 1, store.writes, "only the inserted row may be written")
	requireContiguous(t, m)
}

func TestBannerInsertIntoEmptySet(t *testing.T) {
	m, _ := newTestBannerModel()

	a := insert(t, m, "A", 5)

	assert.Equal(t, 1, a.Priority)
}

func TestBannerMoveUp(t *testing.T) {
	m, _, banners := seedABC(t)

	moved, changed, err := m.Move(context.Background(), banners["B"].ID, 1)
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, 1, moved.Priority)
	assert.Equal(t, map[string]int{"B": 1, "A": 2, "C": 3}, priorities(t, m))
}

func TestBannerMoveDown(t *testing.T) {
	m, _, banners := seedABC(t)

	_, changed, err := m.Move(context.Background(), banners["A"].ID, 3)
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, map[string]int{"B": 1, "C": 2, "A": 3}, priorities(t, m))
}

func TestBannerMoveToSamePriorityIsNoop(t *testing.T) {
	m, store, banners := seedABC(t)

	_, changed, err := m.Move(context.Background(), banners["B"].ID, 2)
	require.NoError(t, err)

	assert.False(t, changed)
	assert.Zero(t, store.writes)
	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3}, priorities(t, m))
}

func TestBannerMovePastEndIsClamped(t *testing.T) {
	m, _, banners := seedABC(t)

	moved, changed, err := m.Move(context.Background(), banners["A"].ID, 99)
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, 3, moved.Priority)
	assert.Equal(t, map[string]int{"B": 1, "C": 2, "A": 3}, priorities(t, m))
}

func TestBannerMoveRejectsNonPositive(t *testing.T) {
	m, store, banners := seedABC(t)

	for _, p := range []int{0, -3} {
		_, _, err := m.Move(context.Background(), banners["A"].ID, p)
		assert.ErrorIs(t, err, ErrInvalidPriority)
	}

	assert.Zero(t, store.writes)
}

func TestBannerMoveUnknownID(t *testing.T) {
	m, _, _ := seedABC(t)

	_, _, err := m.Move(context.Background(), 404, 1)

	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestBannerUpdateImageOnly(t *testing.T) {
	m, store, banners := seedABC(t)

	updated, changed, err := m.UpdateImage(context.Background(), banners["B"].ID, "B2")
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, "B2", updated.ImageReference)
	assert.Equal(t, 2, updated.Priority)
	assert.Equal(t, 1, store.writes)
}

func TestBannerUpdateImageAndPriority(t *testing.T) {
	m, _, banners := seedABC(t)

	image := "C2"
	p := 1
	updated, changed, err := m.Update(context.Background(), banners["C"].ID, BannerUpdate{Priority: &p, ImageReference: &image})
	require.NoError(t, err)

	assert.True(t, changed)
	assert.Equal(t, 1, updated.Priority)
	assert.Equal(t, map[string]int{"C2": 1, "A": 2, "B": 3}, priorities(t, m))
}

func TestBannerDelete(t *testing.T) {
	m, _, banners := seedABC(t)

	deleted, err := m.Delete(context.Background(), banners["A"].ID)
	require.NoError(t, err)

	assert.Equal(t, "A", deleted.ImageReference)
	assert.Equal(t, map[string]int{"B": 1, "C": 2}, priorities(t, m))
}

func TestBannerDeleteTopShiftsNothing(t *testing.T) {
	m, store, banners := seedABC(t)

	_, err := m.Delete(context.Background(), banners["C"].ID)
	require.NoError(t, err)

	assert.Equal(t, 1, store.writes, "only the deleted row may be written")
	assert.Equal(t, map[string]int{"A": 1, "B": 2}, priorities(t, m))
}

func TestBannerDeleteUnknownID(t *testing.T) {
	m, store, _ := seedABC(t)

	_, err := m.Delete(context.Background(), 404)

	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.Zero(t, store.writes)
}

func TestBannerInsertThenDeleteRestoresOrder(t *testing.T) {
	m, _, _ := seedABC(t)
	before := priorities(t, m)

	d := insert(t, m, "D", 2)
	_, err := m.Delete(context.Background(), d.ID)
	require.NoError(t, err)

	assert.Equal(t, before, priorities(t, m))
}

func TestBannerNextPriority(t *testing.T) {
	m, _ := newTestBannerModel()

	next, err := m.NextPriority(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	m, _, _ = seedABC(t)

	next, err = m.NextPriority(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, next)
}

func TestBannerFailureRollsBack(t *testing.T) {
	for _, op := range []string{"lock", "max", "park", "insert", "unpark"} {
		t.Run("insert/"+op, func(t *testing.T) {
			m, store, _ := seedABC(t)
			store.failOn = op

			err := m.Insert(context.Background(), &Banner{ImageReference: "D"}, 1)

			require.Error(t, err)
			assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3}, priorities(t, m))
		})
	}

	for _, op := range []string{"get", "setPriority", "park", "unpark"} {
		t.Run("move/"+op, func(t *testing.T) {
			m, store, banners := seedABC(t)
			store.failOn = op

			_, _, err := m.Move(context.Background(), banners["C"].ID, 1)

			require.Error(t, err)
			assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3}, priorities(t, m))
		})
	}

	for _, op := range []string{"delete", "park", "unpark"} {
		t.Run("delete/"+op, func(t *testing.T) {
			m, store, banners := seedABC(t)
			store.failOn = op

			_, err := m.Delete(context.Background(), banners["A"].ID)

			require.Error(t, err)
			assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3}, priorities(t, m))
		})
	}
}

func TestBannerCancelledContextRollsBack(t *testing.T) {
	m, _, banners := seedABC(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.Move(ctx, banners["C"].ID, 1)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 3}, priorities(t, m))
}

func TestBannerRandomOperationsKeepSequence(t *testing.T) {
	m, _ := newTestBannerModel()
	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		banners, err := m.GetAll(ctx)
		require.NoError(t, err)

		switch op := rng.Intn(3); {
		case op == 0 || len(banners) == 0:
			requested := rng.Intn(len(banners)+3) - 1
			require.NoError(t, m.Insert(ctx, &Banner{ImageReference: fmt.Sprintf("img-%d", i)}, requested))
		case op == 1:
			target := banners[rng.Intn(len(banners))]
			_, _, err := m.Move(ctx, target.ID, rng.Intn(len(banners)+1)+1)
			require.NoError(t, err)
		default:
			target := banners[rng.Intn(len(banners))]
			_, err := m.Delete(ctx, target.ID)
			require.NoError(t, err)
		}

		requireContiguous(t, m)
	}
}
