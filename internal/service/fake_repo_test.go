package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"clubhub/internal/model"
	"clubhub/internal/repo"
)

type fakeTxn struct {
	ID            int64
	ClubID        int64
	UserID        int64
	RequirementID int64
}

// fakeRepo is an in-memory repo.Repository that keeps the same invariants
// the Postgres schema enforces.
type fakeRepo struct {
	mu sync.Mutex

	users        map[int64]*model.User
	requirements map[int64]*model.Requirement
	transactions map[int64]fakeTxn
	slots        map[int64]model.TimeSlot
	qrs          []model.QRCredential
	requests     map[int64]*model.DeletionRequest
	attendance   []model.AttendanceRecord

	nextID    int64
	failWrite error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:        map[int64]*model.User{},
		requirements: map[int64]*model.Requirement{},
		transactions: map[int64]fakeTxn{},
		slots:        map[int64]model.TimeSlot{},
		requests:     map[int64]*model.DeletionRequest{},
		nextID:       1000,
	}
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) addUser(id, clubID int64, role model.Role) *model.User {
	u := &model.User{ID: id, ClubID: clubID, FullName: fmt.Sprintf("user %d", id), Email: fmt.Sprintf("u%d@campus.test", id), Role: role}
	f.users[id] = u
	return u
}

func (f *fakeRepo) addRequirement(id, clubID int64, kind model.RequirementKind) {
	f.requirements[id] = &model.Requirement{ID: id, ClubID: clubID, Name: fmt.Sprintf("req %d", id), Kind: kind}
}

func (f *fakeRepo) addTransaction(id, clubID, userID, requirementID int64) {
	f.transactions[id] = fakeTxn{ID: id, ClubID: clubID, UserID: userID, RequirementID: requirementID}
}

func (f *fakeRepo) addSlot(id, requirementID int64, active bool) {
	f.slots[id] = model.TimeSlot{ID: id, RequirementID: requirementID, Name: fmt.Sprintf("slot %d", id), IsActive: active}
}

func (f *fakeRepo) activeQRs(userID int64) []model.QRCredential {
	var out []model.QRCredential
	for _, q := range f.qrs {
		if q.UserID == userID && q.IsActive {
			out = append(out, q)
		}
	}
	return out
}

func (f *fakeRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) CreateUser(_ context.Context, u *model.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return 0, f.failWrite
	}
	u.ID = f.id()
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return u.ID, nil
}

func (f *fakeRepo) GetRequirement(_ context.Context, clubID, id int64) (*model.Requirement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requirements[id]
	if !ok || r.ClubID != clubID {
		return nil, repo.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) targetExists(clubID int64, t model.DeletionTarget) bool {
	switch t := t.(type) {
	case model.UserTarget:
		u, ok := f.users[t.UserID]
		return ok && u.ClubID == clubID
	case model.RequirementTarget:
		r, ok := f.requirements[t.RequirementID]
		return ok && r.ClubID == clubID
	case model.TransactionTarget:
		tx, ok := f.transactions[t.TransactionID]
		return ok && tx.ClubID == clubID
	}
	return false
}

func (f *fakeRepo) CreateDeletionRequestTx(_ context.Context, req *model.DeletionRequest) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, err := req.Target()
	if err != nil {
		return 0, err
	}
	if !f.targetExists(req.ClubID, target) {
		return 0, repo.ErrNotFound
	}
	for _, r := range f.requests {
		if r.Type == req.Type && r.TargetID == req.TargetID && r.Status == model.DeletionPending {
			return 0, repo.ErrConflict
		}
	}
	if f.failWrite != nil {
		return 0, f.failWrite
	}
	req.ID = f.id()
	req.RequestedAt = time.Now()
	req.Status = model.DeletionPending
	cp := *req
	f.requests[req.ID] = &cp
	return req.ID, nil
}

func (f *fakeRepo) closePending(kind model.DeletionType, ids []int64, status model.DeletionStatus, resolver int64) []model.DeletionRequest {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	now := time.Now()
	var closed []model.DeletionRequest
	for _, r := range f.requests {
		if r.Type == kind && want[r.TargetID] && r.Status == model.DeletionPending {
			r.Status = status
			res := resolver
			r.ResolvedBy = &res
			r.ResolvedAt = &now
			closed = append(closed, *r)
		}
	}
	sort.Slice(closed, func(i, j int) bool { return closed[i].ID < closed[j].ID })
	return closed
}

func (f *fakeRepo) deleteAndClose(target model.DeletionTarget, resolver int64) []model.DeletionRequest {
	var removedTxns []int64
	switch t := target.(type) {
	case model.UserTarget:
		for id, tx := range f.transactions {
			if tx.UserID == t.UserID {
				removedTxns = append(removedTxns, id)
				delete(f.transactions, id)
			}
		}
		kept := f.attendance[:0]
		for _, a := range f.attendance {
			if a.UserID != t.UserID {
				kept = append(kept, a)
			}
		}
		f.attendance = kept
		qrs := f.qrs[:0]
		for _, q := range f.qrs {
			if q.UserID != t.UserID {
				qrs = append(qrs, q)
			}
		}
		f.qrs = qrs
		delete(f.users, t.UserID)
	case model.RequirementTarget:
		for id, tx := range f.transactions {
			if tx.RequirementID == t.RequirementID {
				removedTxns = append(removedTxns, id)
				delete(f.transactions, id)
			}
		}
		kept := f.attendance[:0]
		for _, a := range f.attendance {
			if a.RequirementID != t.RequirementID {
				kept = append(kept, a)
			}
		}
		f.attendance = kept
		for id, s := range f.slots {
			if s.RequirementID == t.RequirementID {
				delete(f.slots, id)
			}
		}
		delete(f.requirements, t.RequirementID)
	case model.TransactionTarget:
		delete(f.transactions, t.TransactionID)
	}

	closed := f.closePending(target.Kind(), []int64{target.ID()}, model.DeletionApproved, resolver)
	if len(removedTxns) > 0 {
		closed = append(closed, f.closePending(model.DeletionTypeTransaction, removedTxns, model.DeletionApproved, resolver)...)
	}
	return closed
}

func (f *fakeRepo) DeleteTargetTx(_ context.Context, clubID int64, target model.DeletionTarget, resolverID int64) ([]model.DeletionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.targetExists(clubID, target) {
		return nil, repo.ErrNotFound
	}
	if f.failWrite != nil {
		return nil, f.failWrite
	}
	return f.deleteAndClose(target, resolverID), nil
}

func (f *fakeRepo) CancelDeletionRequestTx(_ context.Context, requestID int64, allow func(*model.DeletionRequest) error) (*model.DeletionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *r
	if err := allow(&cp); err != nil {
		return nil, err
	}
	if r.Status != model.DeletionPending {
		return nil, repo.ErrNotPending
	}
	delete(f.requests, requestID)
	return &cp, nil
}

func (f *fakeRepo) ResolveDeletionRequestTx(_ context.Context, clubID, requestID, resolverID int64, approve bool) ([]model.DeletionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok || r.ClubID != clubID {
		return nil, repo.ErrNotFound
	}
	if r.Status != model.DeletionPending {
		return nil, repo.ErrNotPending
	}
	if !approve {
		return f.closePending(r.Type, []int64{r.TargetID}, model.DeletionDenied, resolverID), nil
	}
	target, err := r.Target()
	if err != nil {
		return nil, err
	}
	if !f.targetExists(clubID, target) {
		return f.closePending(r.Type, []int64{r.TargetID}, model.DeletionApproved, resolverID), nil
	}
	return f.deleteAndClose(target, resolverID), nil
}

func (f *fakeRepo) GetDeletionRequest(_ context.Context, id int64) (*model.DeletionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) GetPendingDeletionRequest(_ context.Context, clubID int64, target model.DeletionTarget) (*model.DeletionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.ClubID == clubID && r.Type == target.Kind() && r.TargetID == target.ID() && r.Status == model.DeletionPending {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRepo) listRequests(keep func(*model.DeletionRequest) bool) []model.DeletionRequest {
	out := make([]model.DeletionRequest, 0)
	for _, r := range f.requests {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeRepo) ListDeletionRequestsByRequester(_ context.Context, userID int64) ([]model.DeletionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listRequests(func(r *model.DeletionRequest) bool { return r.RequestedBy == userID }), nil
}

func (f *fakeRepo) ListPendingDeletionRequests(_ context.Context, clubID int64) ([]model.DeletionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listRequests(func(r *model.DeletionRequest) bool {
		return r.ClubID == clubID && r.Status == model.DeletionPending
	}), nil
}

func (f *fakeRepo) userInClub(clubID, userID int64) bool {
	u, ok := f.users[userID]
	return ok && u.ClubID == clubID
}

func (f *fakeRepo) insertQR(userID int64, code string) *model.QRCredential {
	for _, q := range f.qrs {
		if q.Code == code {
			panic("duplicate qr token " + code)
		}
	}
	q := model.QRCredential{ID: f.id(), UserID: userID, Code: code, GeneratedAt: time.Now(), IsActive: true}
	f.qrs = append(f.qrs, q)
	return &q
}

func (f *fakeRepo) GetOrCreateQRTx(_ context.Context, clubID, userID int64, newCode func() string) (*model.QRCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.userInClub(clubID, userID) {
		return nil, repo.ErrNotFound
	}
	if active := f.activeQRs(userID); len(active) > 0 {
		cp := active[0]
		return &cp, nil
	}
	return f.insertQR(userID, newCode()), nil
}

func (f *fakeRepo) RegenerateQRTx(_ context.Context, clubID, userID int64, newCode func() string) (*model.QRCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.userInClub(clubID, userID) {
		return nil, repo.ErrNotFound
	}
	for i := range f.qrs {
		if f.qrs[i].UserID == userID {
			f.qrs[i].IsActive = false
		}
	}
	return f.insertQR(userID, newCode()), nil
}

func (f *fakeRepo) FindUserByActiveQR(_ context.Context, clubID int64, code string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.qrs {
		if q.Code == code && q.IsActive && f.userInClub(clubID, q.UserID) {
			cp := *f.users[q.UserID]
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRepo) RecordAttendanceTx(_ context.Context, rec *model.AttendanceRecord, allow func(verifier *model.User) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	verifier, ok := f.users[rec.VerifiedBy]
	if !ok || verifier.ClubID != rec.ClubID {
		return repo.ErrNotFound
	}
	cp := *verifier
	if err := allow(&cp); err != nil {
		return err
	}
	if !f.userInClub(rec.ClubID, rec.UserID) {
		return repo.ErrNotFound
	}
	if r, ok := f.requirements[rec.RequirementID]; !ok || r.ClubID != rec.ClubID {
		return repo.ErrNotFound
	}
	if rec.TimeSlotID != nil {
		s, ok := f.slots[*rec.TimeSlotID]
		if !ok || s.RequirementID != rec.RequirementID || !s.IsActive {
			return repo.ErrInvalidTimeSlot
		}
	}
	if f.failWrite != nil {
		return f.failWrite
	}
	rec.ID = f.id()
	rec.ScanDatetime = time.Now()
	f.attendance = append(f.attendance, *rec)
	return nil
}

func (f *fakeRepo) ListTimeSlots(_ context.Context, clubID, requirementID int64) ([]model.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.TimeSlot, 0)
	for _, s := range f.slots {
		if s.RequirementID == requirementID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) ListAttendance(_ context.Context, clubID, requirementID int64) ([]model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AttendanceRecord, 0)
	for _, a := range f.attendance {
		if a.ClubID == clubID && a.RequirementID == requirementID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) MigrateUp(string) error   { return nil }
func (f *fakeRepo) MigrateDown(string) error { return nil }

var _ repo.Repository = (*fakeRepo)(nil)
