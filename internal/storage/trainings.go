package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// TrainingRecord summarises one classifier fit
type TrainingRecord struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	DatasetPath      string    `json:"dataset_path"`
	Rows             int       `json:"rows"`
	Features         []string  `json:"features"`
	Dropped          []string  `json:"dropped"`
	AcceptedFraction float64   `json:"accepted_fraction"`
	Estimators       int       `json:"estimators"`
	Seed             uint64    `json:"seed"`
	DurationSeconds  float64   `json:"duration_seconds"`
}

// StoreTraining stores a training summary
func (s *Store) StoreTraining(record TrainingRecord) (TrainingRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(trainingsBucket))

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal training record: %w", err)
		}
		return b.Put(recordKey(record.Timestamp, record.ID), data)
	})
	return record, err
}

// LatestTraining returns the most recent training summary. ok is false when
// none has been stored.
func (s *Store) LatestTraining() (record TrainingRecord, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		_, v := tx.Bucket([]byte(trainingsBucket)).Cursor().Last()
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &record); err != nil {
			return fmt.Errorf("unmarshal training record: %w", err)
		}
		ok = true
		return nil
	})
	return record, ok, err
}
