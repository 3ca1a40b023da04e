package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"content-service/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Store with the same observable behavior as the
// Mongo adapter: newest-first listing, unfiltered-style substring search over
// the schema's search fields, and atomic whole-corpus replacement.
type Memory struct {
	mu     sync.RWMutex
	items  []model.Item // insertion order, oldest first
	schema model.Schema
}

func NewMemory(schema model.Schema) *Memory {
	return &Memory{schema: schema}
}

func (m *Memory) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.items)), nil
}

func (m *Memory) List(_ context.Context, page, pageSize int) ([]model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return paginate(m.newestFirst(), page, pageSize), nil
}

func (m *Memory) Search(_ context.Context, term string, page, pageSize int) ([]model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(term)
	matched := []model.Item{}
	for _, item := range m.newestFirst() {
		for _, field := range m.schema.SearchFields {
			v, ok := item[field]
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(fmt.Sprint(v)), needle) {
				matched = append(matched, item)
				break
			}
		}
	}
	return paginate(matched, page, pageSize), nil
}

func (m *Memory) GetByID(_ context.Context, id string) (model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		if item["_id"] == id {
			return item, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ReplaceAll(_ context.Context, items []model.Item) (int64, error) {
	replaced := make([]model.Item, len(items))
	for i, item := range items {
		copied := model.Item{}
		for k, v := range item {
			copied[k] = v
		}
		if _, ok := copied["_id"]; !ok {
			copied["_id"] = primitive.NewObjectID().Hex()
		}
		replaced[i] = copied
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	previous := int64(len(m.items))
	m.items = replaced
	return previous, nil
}

func (m *Memory) newestFirst() []model.Item {
	reversed := make([]model.Item, len(m.items))
	for i, item := range m.items {
		reversed[len(m.items)-1-i] = item
	}
	return reversed
}

func paginate(items []model.Item, page, pageSize int) []model.Item {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []model.Item{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
