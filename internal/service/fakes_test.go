package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"attendance_tracker/internal/model"
	"attendance_tracker/internal/repository"
)

// fakeDB is an in-memory stand-in for the Postgres repositories.
type fakeDB struct {
	mu       sync.Mutex
	users    map[string]model.User
	stores   []model.Store
	checkIns []model.CheckIn
	clock    time.Time

	storeCreateErrs []error
	latestErr       error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users: make(map[string]model.User),
		clock: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
	}
}

func (db *fakeDB) uow() repository.UnitOfWork { return fakeUoW{db: db} }

func (db *fakeDB) addAdmin(id, name string, credits int) model.User {
	u := model.User{ID: id, FullName: name, Email: id + "@example.com", Profile: model.AdminProfile{StoreCreationCredits: &credits}}
	db.users[id] = u
	return u
}

func (db *fakeDB) addEmployee(id, name, storeID string) model.User {
	u := model.User{ID: id, FullName: name, Email: id + "@example.com", Profile: model.EmployeeProfile{StoreID: storeID}}
	db.users[id] = u
	return u
}

func (db *fakeDB) addStore(s model.Store) {
	db.stores = append(db.stores, s)
}

func (db *fakeDB) addCheckIn(userID string, typ model.CheckInType, at time.Time) {
	ts := at
	db.checkIns = append(db.checkIns, model.CheckIn{
		ID: userID + at.String(), UserID: userID, StoreID: "s", Type: typ, Timestamp: &ts,
	})
}

func (db *fakeDB) countCheckIns(userID string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, c := range db.checkIns {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

func (db *fakeDB) withStoreIDs(u model.User) model.User {
	if p, ok := u.Profile.(model.AdminProfile); ok {
		p.StoreIDs = nil
		for _, s := range db.stores {
			if s.OwnerID == u.ID {
				p.StoreIDs = append(p.StoreIDs, s.ID)
			}
		}
		u.Profile = p
	}
	return u
}

type fakeUoW struct{ db *fakeDB }

func (f fakeUoW) Users() repository.UserRepository { return fakeUsers(f) }
func (f fakeUoW) Stores() repository.StoreRepository { return fakeStores(f) }
func (f fakeUoW) CheckIns() repository.CheckInRepository { return fakeCheckIns(f) }

func (f fakeUoW) Within(ctx context.Context, fn func(tx repository.UnitOfWork) error) error {
	return fn(f)
}

type fakeUsers struct{ db *fakeDB }

func (f fakeUsers) Create(_ context.Context, u *model.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	f.db.users[u.ID] = *u
	return nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Email == email {
			u = f.db.withStoreIDs(u)
			return &u, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, nil
	}
	u = f.db.withStoreIDs(u)
	return &u, nil
}

func (f fakeUsers) FindByIDForUpdate(ctx context.Context, id string) (*model.User, error) {
	return f.FindByID(ctx, id)
}

func (f fakeUsers) ListEmployeesByStore(_ context.Context, storeID string) ([]model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.User
	for _, u := range f.db.users {
		if p, ok := u.Employee(); ok && p.StoreID == storeID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f fakeUsers) ConsumeStoreCredit(_ context.Context, adminID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u := f.db.users[adminID]
	p, ok := u.Admin()
	if !ok || p.StoreCreationCredits == nil || *p.StoreCreationCredits < 1 {
		return repository.ErrNoCredits
	}
	left := *p.StoreCreationCredits - 1
	p.StoreCreationCredits = &left
	u.Profile = p
	f.db.users[adminID] = u
	return nil
}

type fakeStores struct{ db *fakeDB }

func (f fakeStores) Create(_ context.Context, s *model.Store) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if len(f.db.storeCreateErrs) > 0 {
		err := f.db.storeCreateErrs[0]
		f.db.storeCreateErrs = f.db.storeCreateErrs[1:]
		return err
	}
	for _, existing := range f.db.stores {
		if existing.QRPayload == s.QRPayload {
			return repository.ErrDuplicateQRPayload
		}
		if existing.ReferenceCode == s.ReferenceCode {
			return repository.ErrDuplicateReferenceCode
		}
	}
	f.db.stores = append(f.db.stores, *s)
	return nil
}

func (f fakeStores) Update(_ context.Context, s *model.Store) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, existing := range f.db.stores {
		if existing.ID != s.ID && existing.QRPayload == s.QRPayload {
			return repository.ErrDuplicateQRPayload
		}
	}
	for i, existing := range f.db.stores {
		if existing.ID == s.ID && existing.OwnerID == s.OwnerID {
			f.db.stores[i] = *s
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f fakeStores) Delete(_ context.Context, id, ownerID string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if p, ok := u.Employee(); ok && p.StoreID == id {
			return repository.ErrStoreInUse
		}
	}
	for i, s := range f.db.stores {
		if s.ID == id && s.OwnerID == ownerID {
			f.db.stores = append(f.db.stores[:i], f.db.stores[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f fakeStores) find(match func(model.Store) bool) (*model.Store, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.stores {
		if match(s) {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (f fakeStores) FindByID(_ context.Context, id string) (*model.Store, error) {
	return f.find(func(s model.Store) bool { return s.ID == id })
}

func (f fakeStores) FindByQRPayload(_ context.Context, payload string) (*model.Store, error) {
	return f.find(func(s model.Store) bool { return s.QRPayload == payload })
}

func (f fakeStores) FindByReferenceCode(_ context.Context, code string) (*model.Store, error) {
	return f.find(func(s model.Store) bool { return s.ReferenceCode == code })
}

func (f fakeStores) ListByOwner(_ context.Context, ownerID string) ([]model.Store, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Store
	for _, s := range f.db.stores {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeCheckIns struct{ db *fakeDB }

func (f fakeCheckIns) LockUser(context.Context, string) error { return nil }

func (f fakeCheckIns) Latest(_ context.Context, userID string) (*model.CheckIn, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.latestErr != nil {
		return nil, f.db.latestErr
	}
	var latest *model.CheckIn
	for i := range f.db.checkIns {
		c := f.db.checkIns[i]
		if c.UserID != userID || !c.Visible() {
			continue
		}
		if latest == nil || !c.Timestamp.Before(*latest.Timestamp) {
			latest = &c
		}
	}
	return latest, nil
}

func (f fakeCheckIns) Create(_ context.Context, c *model.CheckIn) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.clock = f.db.clock.Add(time.Second)
	ts := f.db.clock
	c.Timestamp = &ts
	f.db.checkIns = append(f.db.checkIns, *c)
	return nil
}

func (f fakeCheckIns) ListByUser(_ context.Context, userID string, limit int) ([]model.CheckIn, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.CheckIn
	for i := len(f.db.checkIns) - 1; i >= 0 && len(out) < limit; i-- {
		c := f.db.checkIns[i]
		if c.UserID == userID && c.Visible() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f fakeCheckIns) ListForUsers(_ context.Context, userIDs []string, from, to time.Time) ([]model.CheckIn, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var out []model.CheckIn
	for _, c := range f.db.checkIns {
		if wanted[c.UserID] && c.Visible() && !c.Timestamp.Before(from) && c.Timestamp.Before(to) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Timestamp.Before(*out[j].Timestamp)
	})
	return out, nil
}
