package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"
)

type Cache struct {
	mock.Mock
}

// Get copies a hit into value through JSON, like the redis implementation.
// Return(found bool, cached any, err error).
func (m *Cache) Get(ctx context.Context, key string, value any) (bool, error) {
	args := m.Called(ctx, key, value)

	if found := args.Bool(0); found {
		data, err := json.Marshal(args.Get(1))
		if err != nil {
			return false, err
		}
		if err := json.Unmarshal(data, value); err != nil {
			return false, err
		}
		return true, args.Error(2)
	}

	return false, args.Error(2)
}

func (m *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *Cache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *Cache) Close() error {
	args := m.Called()
	return args.Error(0)
}
