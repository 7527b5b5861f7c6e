package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/boltdb/bolt"

	"github.com/akave-ai/userapi/internal/model"
)

var boltUsersBucket = []byte("users")

// BoltUserRepository keeps users as JSON documents in a single bolt bucket,
// keyed by id.
type BoltUserRepository struct {
	db *bolt.DB
}

// NewBoltUserRepository creates the users bucket when missing.
func NewBoltUserRepository(db *bolt.DB) (*BoltUserRepository, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltUsersBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create users bucket: %w", err)
	}
	return &BoltUserRepository{db: db}, nil
}

func (r *BoltUserRepository) Create(_ context.Context, user *model.User) error {
	created := prepareCreate(*user)
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltUsersBucket)
		if err := checkEmailFree(b, created.Email, created.ID); err != nil {
			return err
		}
		return putUser(b, &created)
	})
	if err != nil {
		return err
	}
	*user = created
	return nil
}

func (r *BoltUserRepository) List(_ context.Context) ([]model.User, error) {
	list := []model.User{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(boltUsersBucket).ForEach(func(_, v []byte) error {
			var u model.User
			if err := json.Unmarshal(v, &u); err != nil {
				return err
			}
			list = append(list, u)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(list)
	return list, nil
}

func (r *BoltUserRepository) GetByID(_ context.Context, id string) (*model.User, error) {
	var u *model.User
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		u, err = getUser(tx.Bucket(boltUsersBucket), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *BoltUserRepository) Update(_ context.Context, user *model.User) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltUsersBucket)
		stored, err := getUser(b, user.ID)
		if err != nil {
			return err
		}
		if err := checkEmailFree(b, user.Email, user.ID); err != nil {
			return err
		}
		user.CreatedAt = stored.CreatedAt
		user.UpdatedAt = now()
		return putUser(b, user)
	})
}

func (r *BoltUserRepository) Delete(_ context.Context, id string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltUsersBucket)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

func getUser(b *bolt.Bucket, id string) (*model.User, error) {
	v := b.Get([]byte(id))
	if v == nil {
		return nil, ErrNotFound
	}
	var u model.User
	if err := json.Unmarshal(v, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func putUser(b *bolt.Bucket, user *model.User) error {
	v, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return b.Put([]byte(user.ID), v)
}

func checkEmailFree(b *bolt.Bucket, email, ownerID string) error {
	return b.ForEach(func(k, v []byte) error {
		if string(k) == ownerID {
			return nil
		}
		var u model.User
		if err := json.Unmarshal(v, &u); err != nil {
			return err
		}
		if u.Email == email {
			return ErrDuplicateEmail
		}
		return nil
	})
}

func sortNewestFirst(list []model.User) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
