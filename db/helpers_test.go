package db

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"checkin-server-go/models"
)

const testNS = "inst-test"

func newTestKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisKV(client), mr
}

func row(child, guardian string) models.PartialRecord {
	return models.PartialRecord{
		NomeCrianca:     child,
		NomeResponsavel: guardian,
		Idade:           "5",
		Telefone:        "(11) 99999-0000",
		Comum:           "Bonfim",
		Portaria:        "A",
	}
}

// slotRecords decodes the records held in a backup slot
func slotRecords(t *testing.T, kv KV, slot int) []models.ChildRecord {
	t.Helper()
	raw, ok, err := kv.ListIndex(context.Background(), testNS, backupsKey, slot-1)
	require.NoError(t, err)
	require.True(t, ok, "slot %d should exist", slot)
	var snap snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	var records []models.ChildRecord
	require.NoError(t, json.Unmarshal(snap.Records, &records))
	return records
}

func childNames(records []models.ChildRecord) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.NomeCrianca)
	}
	return names
}
