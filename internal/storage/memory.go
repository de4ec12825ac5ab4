package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

type memoryObject struct {
	data []byte
	info Info
}

// Memory keeps objects in process. Used by tests and the demo mode.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	if baseURL == "" {
		baseURL = "memory://uploads"
	}
	return &Memory{objects: make(map[string]memoryObject), baseURL: baseURL}
}

func (m *Memory) Driver() Driver { return DriverMemory }

func (m *Memory) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Key:          k,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		LastModified: time.Now().UTC(),
		URL:          m.URL(k),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[k] = memoryObject{data: data, info: info}
	return info, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

// Get returns a copy of an object's bytes.
func (m *Memory) Get(key string) ([]byte, Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, Info{}, false
	}
	return bytes.Clone(obj.data), obj.info, true
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *Memory) URL(key string) string { return joinURL(m.baseURL, key) }

func (m *Memory) KeyFromURL(url string) (string, bool) { return trimURL(m.baseURL, url) }
