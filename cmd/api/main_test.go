package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/prepzone/backend/internal/config"
	"github.com/zhouzirui/prepzone/backend/internal/service/progression"
)

func TestOpenSlotsByDriver(t *testing.T) {
	ctx := context.Background()

	mem, err := openSlots(ctx, config.StoreConfig{Driver: config.StoreMemory})
	require.NoError(t, err)
	require.IsType(t, &progression.MemorySlots{}, mem)

	path := filepath.Join(t.TempDir(), "nested", "prepzone.db")
	sqlite, err := openSlots(ctx, config.StoreConfig{Driver: config.StoreSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer sqlite.Close()
	require.NoError(t, sqlite.Set(ctx, "userLevel", "2"))

	_, err = openSlots(ctx, config.StoreConfig{Driver: "etcd"})
	require.Error(t, err)
}
