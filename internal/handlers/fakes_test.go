package handlers

import (
	"context"
	"sync"

	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
)

// recordingPublisher collects published events.
type recordingPublisher struct {
	mutex  sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e models.Event) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []models.EventType {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := make([]models.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// memoryCache is a TodoCache backed by a map. beforeSet, when set, runs at
// the start of every SetList without the lock held.
type memoryCache struct {
	mutex     sync.Mutex
	lists     map[uuid.UUID][]models.Task
	versions  map[uuid.UUID]int64
	hits      int
	beforeSet func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		lists:    make(map[uuid.UUID][]models.Task),
		versions: make(map[uuid.UUID]int64),
	}
}

func (c *memoryCache) GetList(_ context.Context, userID uuid.UUID) ([]models.Task, int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	tasks, ok := c.lists[userID]
	if !ok {
		return nil, c.versions[userID], nil
	}
	c.hits++
	return tasks, c.versions[userID], nil
}

func (c *memoryCache) SetList(_ context.Context, userID uuid.UUID, version int64, tasks []models.Task) error {
	c.mutex.Lock()
	hook := c.beforeSet
	c.mutex.Unlock()
	if hook != nil {
		hook()
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.versions[userID] != version {
		return nil
	}
	c.lists[userID] = tasks
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.versions[userID]++
	delete(c.lists, userID)
	return nil
}
