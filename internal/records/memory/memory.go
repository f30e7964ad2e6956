package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fieldlog/internal/core"
)

// Store keeps records in memory, one list per company. Writes to a company
// are serialized; reads return copies of the latest committed list.
type Store struct {
	mu    sync.Mutex
	locks map[core.CompanyID]*sync.Mutex
	data  map[core.CompanyID][]core.ActivityRecord

	// path, when set, receives the whole data set as JSON after every write.
	path   string
	fileMu sync.Mutex
}

func New() *Store {
	return &Store{
		locks: make(map[core.CompanyID]*sync.Mutex),
		data:  make(map[core.CompanyID][]core.ActivityRecord),
	}
}

// NewFromFile loads records from a JSON file keyed by company id. A missing
// file yields an empty store that will create it on the first write.
func NewFromFile(path string) (*Store, error) {
	s := New()
	s.path = path

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}

	var blob map[core.CompanyID][]core.ActivityRecord
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("decode records file: %w", err)
	}
	for company, list := range blob {
		s.data[company] = list
	}
	return s, nil
}

func (s *Store) companyLock(company core.CompanyID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[company]
	if !ok {
		l = &sync.Mutex{}
		s.locks[company] = l
	}
	return l
}

func (s *Store) snapshot(company core.CompanyID) []core.ActivityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ActivityRecord(nil), s.data[company]...)
}

func (s *Store) commit(company core.CompanyID, list []core.ActivityRecord) error {
	s.mu.Lock()
	s.data[company] = list
	s.mu.Unlock()
	return s.persist()
}

// List returns a copy of the company's records in stored order.
func (s *Store) List(_ context.Context, company core.CompanyID) ([]core.ActivityRecord, error) {
	out := s.snapshot(company)
	if out == nil {
		out = []core.ActivityRecord{}
	}
	return out, nil
}

// Upsert replaces the record with the same id or appends it.
func (s *Store) Upsert(_ context.Context, company core.CompanyID, rec core.ActivityRecord) error {
	l := s.companyLock(company)
	l.Lock()
	defer l.Unlock()

	list := s.snapshot(company)
	replaced := false
	for i := range list {
		if list[i].ID == rec.ID {
			list[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, rec)
	}
	return s.commit(company, list)
}

// Remove drops the record with the given id. Unknown ids are ignored.
func (s *Store) Remove(_ context.Context, company core.CompanyID, id string) error {
	l := s.companyLock(company)
	l.Lock()
	defer l.Unlock()

	list := s.snapshot(company)
	out := list[:0]
	for _, r := range list {
		if r.ID != id {
			out = append(out, r)
		}
	}
	if len(out) == len(list) {
		return nil
	}
	return s.commit(company, out)
}

func (s *Store) ClearAll(_ context.Context, company core.CompanyID) error {
	l := s.companyLock(company)
	l.Lock()
	defer l.Unlock()
	return s.commit(company, nil)
}

func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	s.mu.Lock()
	blob := make(map[core.CompanyID][]core.ActivityRecord, len(s.data))
	for company, list := range s.data {
		if len(list) > 0 {
			blob[company] = list
		}
	}
	raw, err := json.MarshalIndent(blob, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create records directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write records file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace records file: %w", err)
	}
	return nil
}
