package storage

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/hakim/tagcube/internal/models"
)

// ErrNotFound is returned when no launch record matches a lookup.
var ErrNotFound = errors.New("storage: launch record not found")

// SaveLaunch persists a launch record and indexes it by domain.
func (s *Store) SaveLaunch(rec *models.LaunchRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("storage: launch record needs an id")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		launches := tx.Bucket([]byte(bucketLaunches))
		if err := launches.Put([]byte(rec.ID), data); err != nil {
			return err
		}

		// domain -> []launch id
		index := tx.Bucket([]byte(bucketLaunchIndex))
		domainKey := []byte(indexKey(rec.Domain))

		var ids []string
		if existing := index.Get(domainKey); existing != nil {
			if err := json.Unmarshal(existing, &ids); err != nil {
				return err
			}
		}

		for _, id := range ids {
			if id == rec.ID {
				return nil
			}
		}
		ids = append(ids, rec.ID)

		indexData, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return index.Put(domainKey, indexData)
	})
}

// GetLaunch retrieves a launch record by its local id.
func (s *Store) GetLaunch(id string) (*models.LaunchRecord, error) {
	var rec *models.LaunchRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketLaunches)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		rec = &models.LaunchRecord{}
		return json.Unmarshal(data, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListLaunches returns the launches for domain, or every launch when domain
// is empty, newest first.
func (s *Store) ListLaunches(domain string) ([]*models.LaunchRecord, error) {
	var recs []*models.LaunchRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		launches := tx.Bucket([]byte(bucketLaunches))

		if domain == "" {
			return launches.ForEach(func(_, v []byte) error {
				var rec models.LaunchRecord
				if err := json.Unmarshal(v, &rec); err != nil {
					return err
				}
				recs = append(recs, &rec)
				return nil
			})
		}

		data := tx.Bucket([]byte(bucketLaunchIndex)).Get([]byte(indexKey(domain)))
		if data == nil {
			return nil
		}

		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}

		for _, id := range ids {
			v := launches.Get([]byte(id))
			if v == nil {
				continue
			}
			var rec models.LaunchRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].LaunchedAt.After(recs[j].LaunchedAt)
	})

	return recs, nil
}

// FindByScanID returns the most recent local record of the remote scan id.
func (s *Store) FindByScanID(scanID int64) (*models.LaunchRecord, error) {
	recs, err := s.ListLaunches("")
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.ScanID == scanID {
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

func indexKey(domain string) string {
	return strings.ToLower(domain)
}
