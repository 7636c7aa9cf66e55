package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/config"
	"todo/infras/kafka"
	"todo/infras/otel/mocks"
	"todo/internal/domains/todo/model"
	"todo/internal/domains/todo/model/dto"
	"todo/internal/domains/todo/service"
	"todo/shared/cache"
	"todo/shared/failure"
)

// memoryStore keeps todos in a map. Iteration is ordered by id.
type memoryStore struct {
	mu     sync.Mutex
	todos  map[string]model.Todo
	nextID int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{todos: map[string]model.Todo{}}
}

func (m *memoryStore) FindAll(_ context.Context) iter.Seq2[model.Todo, error] {
	return func(yield func(model.Todo, error) bool) {
		m.mu.Lock()
		snapshot := maps.Clone(m.todos)
		m.mu.Unlock()

		for _, id := range slices.Sorted(maps.Keys(snapshot)) {
			if !yield(snapshot[id], nil) {
				return
			}
		}
	}
}

func (m *memoryStore) FindByID(_ context.Context, id string) (model.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.todos[id], nil
}

func (m *memoryStore) Save(_ context.Context, todo model.Todo) (model.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if todo.ID == "" {
		m.nextID++
		todo.ID = strconv.Itoa(m.nextID)
	}

	m.todos[todo.ID] = todo

	return todo, nil
}

func (m *memoryStore) DeleteByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.todos[id]
	delete(m.todos, id)

	return ok, nil
}

// pausingStore parks the first FindByID after it is armed until release is closed.
type pausingStore struct {
	*memoryStore

	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func newPausingStore() *pausingStore {
	return &pausingStore{
		memoryStore: newMemoryStore(),
		reached:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (p *pausingStore) FindByID(ctx context.Context, id string) (model.Todo, error) {
	todo, err := p.memoryStore.FindByID(ctx, id)

	if p.armed.CompareAndSwap(true, false) {
		close(p.reached)
		<-p.release
	}

	return todo, err
}

// memoryCache mirrors the redis cache: Delete stamps a new generation and Save refuses a stale one.
type memoryCache struct {
	mu          sync.Mutex
	values      map[string][]byte
	generations map[string]string
	counters    map[string]int64
	stamp       int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		values:      map[string][]byte{},
		generations: map[string]string{},
		counters:    map[string]int64{},
	}
}

func (c *memoryCache) Save(_ context.Context, key string, value any, _ int, generation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[key] != generation {
		return cache.ErrStale
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.values[key] = raw

	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.values[key]
	if !ok {
		return fmt.Errorf("failed to get cache value: %w", cache.Nil)
	}

	return json.Unmarshal(raw, value)
}

func (c *memoryCache) Generation(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generations[key], nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stamp++
	c.generations[key] = strconv.Itoa(c.stamp)
	delete(c.values, key)

	return nil
}

func (c *memoryCache) Incr(_ context.Context, key string, _ int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counters[key]++

	return c.counters[key], nil
}

func newCachedService(store *pausingStore) service.Todo {
	cfg := &config.Config{}
	cfg.Cache.TTL = 300

	return service.New(store, cfg, newMemoryCache(), kafka.New(cfg), mocks.NewOtel())
}

// readAround starts a Get that reads the store, runs write while that Get is parked, then lets the
// Get finish and returns its result.
func readAround(t *testing.T, svc service.Todo, store *pausingStore, id string, write func()) dto.TodoResponse {
	t.Helper()

	type result struct {
		todo dto.TodoResponse
		err  error
	}

	done := make(chan result, 1)

	store.armed.Store(true)

	go func() {
		todo, err := svc.Get(context.Background(), id)
		done <- result{todo: todo, err: err}
	}()

	<-store.reached
	write()
	close(store.release)

	res := <-done
	require.NoError(t, res.err)

	return res.todo
}

func TestContract_DeleteNotUndoneByInFlightRead(t *testing.T) {
	store := newPausingStore()
	svc := newCachedService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.TodoRequest{Title: "Todo 5", Description: "Description 5"})
	require.NoError(t, err)

	stale := readAround(t, svc, store, created.ID, func() {
		require.NoError(t, svc.Delete(ctx, created.ID))
	})
	assert.Equal(t, created, stale)

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, failure.IsNotFound(err), "deleted todo served from cache: %v", err)
}

func TestContract_UpdateNotUndoneByInFlightRead(t *testing.T) {
	store := newPausingStore()
	svc := newCachedService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.TodoRequest{Title: "Todo 5", Description: "Description 5"})
	require.NoError(t, err)

	var updated dto.TodoResponse

	readAround(t, svc, store, created.ID, func() {
		updated, err = svc.Update(ctx, dto.TodoRequest{Title: "Todo 2", Description: "Description 2", Completed: true}, created.ID)
		require.NoError(t, err)
	})

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestContract_ReadFillsCache(t *testing.T) {
	store := newPausingStore()
	svc := newCachedService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.TodoRequest{Title: "Todo"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)

	// gone from the store, still served from the cache until invalidated
	store.mu.Lock()
	delete(store.todos, created.ID)
	store.mu.Unlock()

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func newContractService() service.Todo {
	cfg := &config.Config{}
	ot := mocks.NewOtel()

	return service.New(newMemoryStore(), cfg, cache.NewRedisCache(nil, ot), kafka.New(cfg), ot)
}

func TestContract_CreateThenGet(t *testing.T) {
	svc := newContractService()
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.TodoRequest{Title: "Todo", Description: "Description", Completed: true})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestContract_AbsentID(t *testing.T) {
	svc := newContractService()
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.True(t, failure.IsNotFound(err))

	_, err = svc.Update(ctx, dto.TodoRequest{Title: "x"}, "missing")
	assert.True(t, failure.IsNotFound(err))

	err = svc.Delete(ctx, "missing")
	assert.True(t, failure.IsNotFound(err))
}

func TestContract_UpdateKeepsID(t *testing.T) {
	svc := newContractService()
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.TodoRequest{Title: "before"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, dto.TodoRequest{ID: "other", Title: "after", Description: "d", Completed: true}, created.ID)
	require.NoError(t, err)

	assert.Equal(t, dto.TodoResponse{ID: created.ID, Title: "after", Description: "d", Completed: true}, updated)
}

func TestContract_ListReturnsEachOnce(t *testing.T) {
	svc := newContractService()
	ctx := context.Background()

	var ids []string

	for _, title := range []string{"A", "B", "C"} {
		created, err := svc.Create(ctx, dto.TodoRequest{Title: title})
		require.NoError(t, err)

		ids = append(ids, created.ID)
	}

	var listed []string

	for todo, err := range svc.GetAll(ctx) {
		require.NoError(t, err)

		listed = append(listed, todo.ID)
	}

	assert.ElementsMatch(t, ids, listed)
}

func TestContract_Lifecycle(t *testing.T) {
	svc := newContractService()
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.TodoRequest{Title: "Todo 5", Description: "Description 5"})
	require.NoError(t, err)
	assert.False(t, created.Completed)

	updated, err := svc.Update(ctx, dto.TodoRequest{Title: "Todo 2", Description: "Description 2", Completed: true}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.TodoResponse{ID: created.ID, Title: "Todo 2", Description: "Description 2", Completed: true}, updated)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, failure.IsNotFound(err))

	for range svc.GetAll(ctx) {
		t.Fatal("store should be empty")
	}
}
