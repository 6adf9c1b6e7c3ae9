//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	ma "github.com/gump416/project-runningmate"
)

// KindMate is the Datastore kind for mate records
const KindMate = "Mate"

// MateEntity is the Datastore entity for a mate record
type MateEntity struct {
	Key           *datastore.Key `datastore:"__key__"`
	Name          string
	Password      string `datastore:",noindex"`
	Birthdate     string `datastore:",noindex"`
	PhoneNumber   string `datastore:",noindex"`
	Address       string `datastore:",noindex"`
	AddressDetail string `datastore:",noindex"`
	Location      string `datastore:",noindex"`
	Federated     bool   `datastore:",noindex"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (e *MateEntity) toMate() *ma.Mate {
	return &ma.Mate{
		Email:         e.Key.Name,
		Name:          e.Name,
		Password:      e.Password,
		Birthdate:     e.Birthdate,
		PhoneNumber:   e.PhoneNumber,
		Address:       e.Address,
		AddressDetail: e.AddressDetail,
		Location:      e.Location,
		Federated:     e.Federated,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func entityFromMate(key *datastore.Key, mate *ma.Mate) *MateEntity {
	return &MateEntity{
		Key:           key,
		Name:          mate.Name,
		Password:      mate.Password,
		Birthdate:     mate.Birthdate,
		PhoneNumber:   mate.PhoneNumber,
		Address:       mate.Address,
		AddressDetail: mate.AddressDetail,
		Location:      mate.Location,
		Federated:     mate.Federated,
		CreatedAt:     mate.CreatedAt,
		UpdatedAt:     mate.UpdatedAt,
	}
}

// MateStore implements ma.MateStore and ma.RecoveryStore using Google Cloud
// Datastore. The email is the entity key, so insert-if-absent runs inside a
// transaction and two concurrent registrations cannot both commit.
type MateStore struct {
	client    *datastore.Client
	namespace string
	ctx       context.Context
}

// NewMateStore creates a new Datastore-backed MateStore
func NewMateStore(client *datastore.Client, namespace string) *MateStore {
	return &MateStore{
		client:    client,
		namespace: namespace,
		ctx:       context.Background(),
	}
}

// WithContext returns a copy of the store with the given context
func (s *MateStore) WithContext(ctx context.Context) *MateStore {
	return &MateStore{
		client:    s.client,
		namespace: s.namespace,
		ctx:       ctx,
	}
}

func (s *MateStore) mateKey(email string) *datastore.Key {
	key := datastore.NameKey(KindMate, email, nil)
	key.Namespace = s.namespace
	return key
}

func (s *MateStore) FindByEmail(email string) (*ma.Mate, error) {
	var entity MateEntity
	if err := s.client.Get(s.ctx, s.mateKey(email), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ma.ErrMateNotFound
		}
		return nil, err
	}
	return entity.toMate(), nil
}

func (s *MateStore) Insert(mate *ma.Mate) error {
	key := s.mateKey(mate.Email)
	now := time.Now()
	mate.CreatedAt = now
	mate.UpdatedAt = now
	entity := entityFromMate(key, mate)

	_, err := s.client.RunInTransaction(s.ctx, func(tx *datastore.Transaction) error {
		var existing MateEntity
		err := tx.Get(key, &existing)
		if err == nil {
			return ma.ErrDuplicateEmail
		}
		if !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}
		_, err = tx.Put(key, entity)
		return err
	})
	return err
}

func (s *MateStore) Save(mate *ma.Mate) (*ma.Mate, error) {
	key := s.mateKey(mate.Email)

	var existing MateEntity
	if err := s.client.Get(s.ctx, key, &existing); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ma.ErrMateNotFound
		}
		return nil, err
	}

	saved := mate.Clone()
	saved.CreatedAt = existing.CreatedAt
	saved.UpdatedAt = time.Now()
	if _, err := s.client.Put(s.ctx, key, entityFromMate(key, saved)); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *MateStore) DeleteByEmail(email string) (bool, error) {
	key := s.mateKey(email)

	var existing MateEntity
	if err := s.client.Get(s.ctx, key, &existing); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return false, nil
		}
		return false, err
	}
	if err := s.client.Delete(s.ctx, key); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MateStore) FindByNameAndPassword(name, password string) (*ma.Mate, error) {
	q := datastore.NewQuery(KindMate).
		Namespace(s.namespace).
		FilterField("Name", "=", name).
		Limit(64)
	it := s.client.Run(s.ctx, q)
	for {
		var entity MateEntity
		_, err := it.Next(&entity)
		if errors.Is(err, iterator.Done) {
			return nil, ma.ErrMateNotFound
		}
		if err != nil {
			return nil, err
		}
		// Password is unindexed, so the match happens here
		if entity.Password == password {
			return entity.toMate(), nil
		}
	}
}

func (s *MateStore) FindByNameAndEmail(name, email string) (*ma.Mate, error) {
	var entity MateEntity
	if err := s.client.Get(s.ctx, s.mateKey(email), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ma.ErrMateNotFound
		}
		return nil, err
	}
	if entity.Name != name {
		return nil, ma.ErrMateNotFound
	}
	return entity.toMate(), nil
}
