package metrics

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"ghostline/types"
)

var (
	metaBucket  = []byte("meta")
	usageBucket = []byte("usage")

	deviceIDKey = []byte("device_id")

	totalKey      = []byte("total_requests")
	successfulKey = []byte("successful_completions")
	acceptedKey   = []byte("accepted_completions")
)

// Store persists the device id and usage counters across daemon restarts.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(metaBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(usageBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init store buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DeviceID returns the persistent device id, minting one on first use.
func (s *Store) DeviceID() (string, error) {
	var id string
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(metaBucket)
		if v := b.Get(deviceIDKey); v != nil {
			id = string(v)
			return nil
		}
		id = uuid.NewString()
		return b.Put(deviceIDKey, []byte(id))
	})
	if err != nil {
		return "", fmt.Errorf("device id: %w", err)
	}
	return id, nil
}

// LoadUsage reads the persisted usage counters. Missing keys read as zero.
func (s *Store) LoadUsage() (types.UsageStats, error) {
	var stats types.UsageStats
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(usageBucket)
		stats.TotalRequests = readCounter(b, totalKey)
		stats.SuccessfulCompletions = readCounter(b, successfulKey)
		stats.AcceptedCompletions = readCounter(b, acceptedKey)
		return nil
	})
	if err != nil {
		return types.UsageStats{}, fmt.Errorf("load usage: %w", err)
	}
	return stats, nil
}

// SaveUsage writes the usage counters.
func (s *Store) SaveUsage(stats types.UsageStats) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(usageBucket)
		if err := writeCounter(b, totalKey, stats.TotalRequests); err != nil {
			return err
		}
		if err := writeCounter(b, successfulKey, stats.SuccessfulCompletions); err != nil {
			return err
		}
		return writeCounter(b, acceptedKey, stats.AcceptedCompletions)
	})
	if err != nil {
		return fmt.Errorf("save usage: %w", err)
	}
	return nil
}

func readCounter(b *bolt.Bucket, key []byte) int64 {
	v := b.Get(key)
	if len(v) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(v))
}

func writeCounter(b *bolt.Bucket, key []byte, value int64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(value))
	return b.Put(key, buf)
}
