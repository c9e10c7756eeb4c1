package fakeuserrepo

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/jrsteele09/go-card-portal/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

var ErrNotFound = errors.New("not found")

type FakeUserRepo struct {
	users    map[int]*users.Account
	emailIds map[string]int // email to user id
	nextID   int
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[int]*users.Account),
		emailIds: make(map[string]int),
		nextID:   1,
	}
}

func (ur *FakeUserRepo) Upsert(account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if account.ID == 0 {
		account.ID = ur.nextID
	}
	if account.ID >= ur.nextID {
		ur.nextID = account.ID + 1
	}
	email := strings.ToLower(account.Email)
	if existingID, ok := ur.emailIds[email]; ok && existingID != account.ID {
		return errors.New("email already registered")
	}
	if previous, ok := ur.users[account.ID]; ok {
		delete(ur.emailIds, strings.ToLower(previous.Email))
	}
	ur.users[account.ID] = account
	ur.emailIds[email] = account.ID
	return nil
}

func (ur *FakeUserRepo) Delete(id int) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	account, ok := ur.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(ur.emailIds, strings.ToLower(account.Email))
	delete(ur.users, id)
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) GetByID(id int) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	account, ok := ur.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return account, nil
}

func (ur *FakeUserRepo) List(offset, limit int) ([]*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]*users.Account, 0, len(ur.users))
	for _, v := range ur.users {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	if offset >= len(list) {
		return []*users.Account{}, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end], nil
}
