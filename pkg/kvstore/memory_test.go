package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSet(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	_, _, err := kv.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
	value, version, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)
	assert.Equal(t, uint64(1), version)

	require.NoError(t, kv.Set(ctx, "k", []byte("v2")))
	_, version, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), version)
}

func TestMemoryCompareAndSwap(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	// Version 0 means create-only.
	require.NoError(t, kv.CompareAndSwap(ctx, "k", []byte("v1"), 0))
	require.ErrorIs(t, kv.CompareAndSwap(ctx, "k", []byte("v1b"), 0), ErrVersionConflict)

	_, version, err := kv.Get(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, kv.CompareAndSwap(ctx, "k", []byte("v2"), version))
	require.ErrorIs(t, kv.CompareAndSwap(ctx, "k", []byte("v3"), version), ErrVersionConflict)

	value, _, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
}

func TestMemoryReturnsCopies(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	original := []byte("payload")
	require.NoError(t, kv.Set(ctx, "k", original))
	original[0] = 'X'

	value, _, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)

	value[0] = 'Y'
	again, _, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), again)
}

func TestMemoryDeleteAndKeys(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "studentsData_main", []byte("[]")))
	require.NoError(t, kv.Set(ctx, "studentsData_branch", []byte("[]")))
	require.NoError(t, kv.Set(ctx, "noticesData", []byte("[]")))

	keys, err := kv.Keys(ctx, "studentsData")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"studentsData_main", "studentsData_branch"}, keys)

	require.NoError(t, kv.Delete(ctx, "studentsData_main"))
	_, _, err = kv.Get(ctx, "studentsData_main")
	require.ErrorIs(t, err, ErrKeyNotFound)
}
