// Package trace is an optional bbolt-backed diagnostics store recording,
// per pipeline run, the frame counts, skip reasons, and gap-fill
// decisions a reviewer needs to debug a reconstruction without replaying
// the source video.
package trace

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// runsBucket holds one JSON-encoded Run record per pipeline run.
	runsBucket = "runs"
)

// SkipRecord notes one frame the scheduler discarded, and why.
type SkipRecord struct {
	FrameIndex int    `json:"frame_index"`
	Reason     string `json:"reason"`
}

// GapFillRecord notes one gap the hybrid corrector filled.
type GapFillRecord struct {
	SequenceIndex  int `json:"sequence_index"`
	CandidateCount int `json:"candidate_count"`
	MovesEmitted   int `json:"moves_emitted"`
}

// Run is one pipeline invocation's diagnostics.
type Run struct {
	VideoPath     string          `json:"video_path"`
	StartedAt     int64           `json:"started_at_unix"`
	FramesRead    int             `json:"frames_read"`
	FramesSkipped []SkipRecord    `json:"frames_skipped"`
	GapFills      []GapFillRecord `json:"gap_fills"`
	Outcome       string          `json:"outcome"`
}

// Store is a bbolt-backed append-only log of pipeline runs.
type Store struct {
	db *bbolt.DB
}

// Open creates or opens the diagnostics database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("trace: open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun appends run under a key derived from its start time and the
// bucket's insertion sequence, so runs are retrievable in chronological
// order and runs sharing a start time do not overwrite each other.
func (s *Store) RecordRun(run Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("trace: marshal run: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return fmt.Errorf("trace: bucket not found")
		}
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("trace: next sequence: %w", err)
		}
		key := fmt.Sprintf("%020d-%020d", run.StartedAt, seq)
		return b.Put([]byte(key), data)
	})
}

// Runs returns every recorded run in chronological order.
func (s *Store) Runs() ([]Run, error) {
	var out []Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return fmt.Errorf("trace: bucket not found")
		}
		return b.ForEach(func(_, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("trace: unmarshal run: %w", err)
			}
			out = append(out, run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
