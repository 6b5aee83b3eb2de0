package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"checkin-server-go/models"
)

const (
	recordsKey = "childRecords" // String: JSON array of every child record
	backupsKey = "backups"      // List: JSON snapshots, head is slot 1

	recordLockTTL = 10 * time.Second
)

// ErrInvalidSlot is returned for backup slots outside 1..maxBackups
var ErrInvalidSlot = errors.New("invalid backup slot")

// snapshot is one entry of the backup list
type snapshot struct {
	CreatedAt time.Time       `json:"createdAt"`
	Records   json.RawMessage `json:"records"`
}

// RecordStore keeps the child records of one event and rotates a backup
// snapshot of the whole collection before every mutation.
type RecordStore struct {
	kv         KV
	namespace  string
	maxBackups int
	now        func() time.Time
}

// NewRecordStore creates a record store for one event namespace
func NewRecordStore(kv KV, namespace string, maxBackups int) *RecordStore {
	return &RecordStore{
		kv:         kv,
		namespace:  namespace,
		maxBackups: maxBackups,
		now:        time.Now,
	}
}

// BackupKey names a slot the way operators see it
func BackupKey(slot int) string {
	return fmt.Sprintf("backup_%d", slot)
}

// ParseBackupKey accepts "backup_3" or "3"
func ParseBackupKey(key string) (int, error) {
	var slot int
	if _, err := fmt.Sscanf(strings.TrimPrefix(key, "backup_"), "%d", &slot); err != nil || slot < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlot, key)
	}
	return slot, nil
}

// FetchAll returns every record in insertion order
func (s *RecordStore) FetchAll(ctx context.Context) ([]models.ChildRecord, error) {
	raw, ok, err := s.kv.Get(ctx, s.namespace, recordsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.ChildRecord{}, nil
	}
	return s.decodeRecords(ctx, raw)
}

// decodeRecords self-heals a corrupt collection: it is cleared and read as empty
func (s *RecordStore) decodeRecords(ctx context.Context, raw string) ([]models.ChildRecord, error) {
	var records []models.ChildRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		log.Printf("Failed to parse records of %s, clearing them: %v", s.namespace, err)
		if delErr := s.kv.Delete(ctx, s.namespace, recordsKey); delErr != nil {
			return nil, delErr
		}
		return []models.ChildRecord{}, nil
	}
	if records == nil {
		records = []models.ChildRecord{}
	}
	return records, nil
}

func (s *RecordStore) save(ctx context.Context, records []models.ChildRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return s.kv.Set(ctx, s.namespace, recordsKey, string(data))
}

// backup snapshots the live collection into slot 1, shifting the others down.
// Nothing is written when the live collection is empty.
func (s *RecordStore) backup(ctx context.Context) error {
	records, err := s.FetchAll(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	raw, _, err := s.kv.Get(ctx, s.namespace, recordsKey)
	if err != nil {
		return err
	}
	data, err := json.Marshal(snapshot{CreatedAt: s.now().UTC(), Records: json.RawMessage(raw)})
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := s.kv.PushBounded(ctx, s.namespace, backupsKey, string(data), s.maxBackups); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	return nil
}

// withLock runs one read-modify-write of the collection while holding the
// namespace's record lock, so concurrent requests can't overwrite each other.
func (s *RecordStore) withLock(ctx context.Context, fn func() error) error {
	unlock, err := s.kv.Lock(ctx, s.namespace, recordsKey, recordLockTTL)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// AddBatch appends one guardian's children. All of them share a fresh cod_resp.
func (s *RecordStore) AddBatch(ctx context.Context, batch []models.PartialRecord) ([]models.ChildRecord, error) {
	if len(batch) == 0 {
		records, err := s.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		return records, models.ErrEmptyBatch
	}

	var records []models.ChildRecord
	err := s.withLock(ctx, func() error {
		if err := s.backup(ctx); err != nil {
			return err
		}
		current, err := s.FetchAll(ctx)
		if err != nil {
			return err
		}

		nextID, nextCodResp := 1, 1
		for _, r := range current {
			if r.ID >= nextID {
				nextID = r.ID + 1
			}
			if r.CodResp >= nextCodResp {
				nextCodResp = r.CodResp + 1
			}
		}

		for _, p := range batch {
			current = append(current, models.ChildRecord{
				ID:              nextID,
				NomeCrianca:     p.NomeCrianca,
				NomeResponsavel: p.NomeResponsavel,
				Telefone:        p.Telefone,
				Idade:           p.Idade,
				Comum:           p.Comum,
				StatusImpresso:  models.StatusNotPrinted,
				Portaria:        p.Portaria,
				CodResp:         nextCodResp,
			})
			nextID++
		}

		if err := s.save(ctx, current); err != nil {
			return err
		}
		log.Printf("Added %d record(s) to %s with cod_resp %d", len(batch), s.namespace, nextCodResp)
		records = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteByID removes one record. Unknown ids leave the collection unchanged.
func (s *RecordStore) DeleteByID(ctx context.Context, id int) ([]models.ChildRecord, error) {
	var kept []models.ChildRecord
	err := s.withLock(ctx, func() error {
		if err := s.backup(ctx); err != nil {
			return err
		}
		records, err := s.FetchAll(ctx)
		if err != nil {
			return err
		}
		kept = make([]models.ChildRecord, 0, len(records))
		for _, r := range records {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		return s.save(ctx, kept)
	})
	if err != nil {
		return nil, err
	}
	return kept, nil
}

// MarkPrinted flips every listed record to printed
func (s *RecordStore) MarkPrinted(ctx context.Context, ids []int) ([]models.ChildRecord, error) {
	selected := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}

	var records []models.ChildRecord
	err := s.withLock(ctx, func() error {
		if err := s.backup(ctx); err != nil {
			return err
		}
		var err error
		if records, err = s.FetchAll(ctx); err != nil {
			return err
		}
		for i := range records {
			if _, ok := selected[records[i].ID]; ok {
				records[i].StatusImpresso = models.StatusPrinted
			}
		}
		return s.save(ctx, records)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ResetAll empties the collection and keeps only backup slot 1
func (s *RecordStore) ResetAll(ctx context.Context) ([]models.ChildRecord, error) {
	empty := []models.ChildRecord{}
	err := s.withLock(ctx, func() error {
		if err := s.backup(ctx); err != nil {
			return err
		}
		if err := s.save(ctx, empty); err != nil {
			return err
		}
		return s.kv.TrimList(ctx, s.namespace, backupsKey, 1)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Reset records of %s", s.namespace)
	return empty, nil
}

func (s *RecordStore) readSlot(ctx context.Context, slot int) (string, bool, error) {
	if slot < 1 || slot > s.maxBackups {
		return "", false, nil
	}
	return s.kv.ListIndex(ctx, s.namespace, backupsKey, slot-1)
}

// RestoreBackup replaces the live collection with a slot's content.
// The current state is backed up first so the restore can be undone.
func (s *RecordStore) RestoreBackup(ctx context.Context, slot int) (bool, error) {
	restored := false
	err := s.withLock(ctx, func() error {
		// The slot is read under the lock: a concurrent mutation would shift it
		raw, ok, err := s.readSlot(ctx, slot)
		if err != nil || !ok {
			return err
		}
		var snap snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil || len(snap.Records) == 0 {
			log.Printf("Backup %s of %s is unreadable: %v", BackupKey(slot), s.namespace, err)
			return nil
		}

		if err := s.backup(ctx); err != nil {
			return err
		}
		if err := s.kv.Set(ctx, s.namespace, recordsKey, string(snap.Records)); err != nil {
			return err
		}
		restored = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if restored {
		log.Printf("Restored %s of %s", BackupKey(slot), s.namespace)
	}
	return restored, nil
}

// ListBackups enumerates the occupied slots, most recent first
func (s *RecordStore) ListBackups(ctx context.Context) ([]models.BackupInfo, error) {
	entries, err := s.kv.ListRange(ctx, s.namespace, backupsKey)
	if err != nil {
		return nil, err
	}
	backups := make([]models.BackupInfo, 0, len(entries))
	for i, raw := range entries {
		if i >= s.maxBackups {
			break
		}
		info := models.BackupInfo{Slot: i + 1, Key: BackupKey(i + 1)}
		var snap snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err == nil && !snap.CreatedAt.IsZero() {
			createdAt := snap.CreatedAt
			info.CreatedAt = &createdAt
		}
		backups = append(backups, info)
	}
	return backups, nil
}

// PreviewBackup renders the last three records of a slot, one per line
func (s *RecordStore) PreviewBackup(ctx context.Context, slot int) (string, error) {
	raw, ok, err := s.readSlot(ctx, slot)
	if err != nil {
		return "", err
	}
	if !ok {
		return "Backup not found.", nil
	}
	var snap snapshot
	var records []models.ChildRecord
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return "Error reading backup content.", nil
	}
	if err := json.Unmarshal(snap.Records, &records); err != nil {
		return "Error reading backup content.", nil
	}

	if len(records) > 3 {
		records = records[len(records)-3:]
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%d|%s|%s|%s|%s|%s|%s|%s|%d",
			r.ID, r.NomeCrianca, r.NomeResponsavel, r.Telefone, r.Idade, r.Comum, r.StatusImpresso, r.Portaria, r.CodResp))
	}
	return strings.Join(lines, "\n"), nil
}
