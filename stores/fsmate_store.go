package stores

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	ma "github.com/gump416/project-runningmate"
)

// FSMateStore keeps one JSON file per mate, keyed by email. Good for
// development and tests; production deployments use the gorm or gae stores.
type FSMateStore struct {
	StoragePath string

	// guards the insert-or-exists decision and directory scans
	mu sync.Mutex
}

func NewFSMateStore(storagePath string) *FSMateStore {
	return &FSMateStore{StoragePath: storagePath}
}

func (s *FSMateStore) matePath(email string) string {
	return filepath.Join(s.StoragePath, "mates", url.QueryEscape(email)+".json")
}

func (s *FSMateStore) FindByEmail(email string) (*ma.Mate, error) {
	data, err := os.ReadFile(s.matePath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ma.ErrMateNotFound
		}
		return nil, err
	}
	var mate ma.Mate
	if err := json.Unmarshal(data, &mate); err != nil {
		return nil, err
	}
	return &mate, nil
}

func (s *FSMateStore) Insert(mate *ma.Mate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.matePath(mate.Email)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	// O_EXCL makes the uniqueness check and the create one step
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ma.ErrDuplicateEmail
		}
		return err
	}

	mate.CreatedAt = time.Now()
	mate.UpdatedAt = mate.CreatedAt
	data, err := json.MarshalIndent(mate, "", "  ")
	if err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func (s *FSMateStore) Save(mate *ma.Mate) (*ma.Mate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.FindByEmail(mate.Email)
	if err != nil {
		return nil, err
	}

	saved := mate.Clone()
	saved.CreatedAt = existing.CreatedAt
	saved.UpdatedAt = time.Now()

	path := s.matePath(saved.Email)
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := writeAtomicFile(path, data); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *FSMateStore) DeleteByEmail(email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.matePath(email))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FSMateStore) FindByNameAndPassword(name, password string) (*ma.Mate, error) {
	return s.scan(func(m *ma.Mate) bool {
		return m.Name == name && m.Password == password
	})
}

func (s *FSMateStore) FindByNameAndEmail(name, email string) (*ma.Mate, error) {
	return s.scan(func(m *ma.Mate) bool {
		return m.Name == name && m.Email == email
	})
}

func (s *FSMateStore) scan(match func(*ma.Mate) bool) (*ma.Mate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.StoragePath, "mates")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ma.ErrMateNotFound
		}
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var mate ma.Mate
		if err := json.Unmarshal(data, &mate); err != nil {
			continue
		}
		if match(&mate) {
			return &mate, nil
		}
	}
	return nil, ma.ErrMateNotFound
}
