// Package memstore is an in-memory implementation of the booking store
// ports. Seat rows are locked with one channel per (showtime, seat), taken in
// the order the caller passes, and writes are staged until commit so a failed
// unit leaves no trace.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/model"
)

type seatKey struct {
	showtimeID uint64
	seatID     uint64
}

type Store struct {
	mutex sync.RWMutex

	users        map[uint64]model.User
	showtimes    map[uint64]model.Showtime
	seats        map[uint64]model.Seat
	reservations map[seatKey]*model.SeatReservation
	bills        map[uint64]*model.Bill
	locks        map[seatKey]chan struct{}
	nextBillID   uint64

	commitErrs []error
	insertErr  error
	onLocked   func(showtimeID uint64, seatIDs []uint64)
}

var (
	_ booking.Store          = (*Store)(nil)
	_ booking.ShowtimeReader = (*Store)(nil)
	_ booking.SeatReader     = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:        make(map[uint64]model.User),
		showtimes:    make(map[uint64]model.Showtime),
		seats:        make(map[uint64]model.Seat),
		reservations: make(map[seatKey]*model.SeatReservation),
		bills:        make(map[uint64]*model.Bill),
		locks:        make(map[seatKey]chan struct{}),
	}
}

// AddUser seeds a user.
func (s *Store) AddUser(u model.User) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.users[u.ID] = u
}

// AddSeats seeds physical seats.
func (s *Store) AddSeats(seats ...model.Seat) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, seat := range seats {
		s.seats[seat.ID] = seat
	}
}

// AddShowtime seeds a showtime and a FREE reservation row for each of
// seatIDs.
func (s *Store) AddShowtime(st model.Showtime, seatIDs ...uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.showtimes[st.ID] = st
	for _, id := range seatIDs {
		k := seatKey{st.ID, id}
		s.reservations[k] = &model.SeatReservation{
			ID:         uint64(len(s.reservations) + 1),
			ShowtimeID: st.ID,
			SeatID:     id,
			State:      model.SeatFree,
		}
		s.locks[k] = make(chan struct{}, 1)
	}
}

// FailCommits makes the next len(errs) commits fail with errs in order.
func (s *Store) FailCommits(errs ...error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.commitErrs = append(s.commitErrs, errs...)
}

// FailInsertBill makes every bill insert fail with err until it is called
// again with nil.
func (s *Store) FailInsertBill(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.insertErr = err
}

// OnLocked registers a hook called once a unit holds all its seat locks.
func (s *Store) OnLocked(fn func(showtimeID uint64, seatIDs []uint64)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onLocked = fn
}

// Reservation returns a copy of the reservation row.
func (s *Store) Reservation(showtimeID, seatID uint64) (model.SeatReservation, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	r, ok := s.reservations[seatKey{showtimeID, seatID}]
	if !ok {
		return model.SeatReservation{}, false
	}
	return *r, true
}

// Bills returns all committed bills ordered by id.
func (s *Store) Bills() []model.Bill {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]model.Bill, 0, len(s.bills))
	for _, b := range s.bills {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b model.Bill) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) ShowtimeByID(_ context.Context, id uint64) (model.Showtime, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	st, ok := s.showtimes[id]
	return st, ok, nil
}

func (s *Store) SeatsByIDs(_ context.Context, ids []uint64) (map[uint64]model.Seat, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make(map[uint64]model.Seat, len(ids))
	for _, id := range ids {
		if seat, ok := s.seats[id]; ok {
			out[id] = seat
		}
	}
	return out, nil
}

func (s *Store) UserByID(_ context.Context, id uint64) (model.User, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *Store) RunClaim(ctx context.Context, fn func(ctx context.Context, tx booking.ClaimTx) error) error {
	tx := &unit{store: s}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(ctx, tx)
}

func (s *Store) commit(ctx context.Context, tx *unit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.commitErrs) > 0 {
		err := s.commitErrs[0]
		s.commitErrs = s.commitErrs[1:]
		return err
	}
	now := time.Now().UTC()
	for _, b := range tx.bills {
		s.bills[b.ID] = b
	}
	for _, m := range tx.marks {
		for _, id := range m.seatIDs {
			r := s.reservations[seatKey{m.showtimeID, id}]
			billID := m.billID
			r.State = model.SeatBooked
			r.BillID = &billID
			r.Version++
			r.UpdatedAt = now
		}
	}
	return nil
}

type mark struct {
	showtimeID uint64
	seatIDs    []uint64
	billID     uint64
}

// unit is one atomic claim.
type unit struct {
	store *Store
	held  []chan struct{}
	bills []*model.Bill
	marks []mark
}

func (u *unit) release() {
	for i := len(u.held) - 1; i >= 0; i-- {
		<-u.held[i]
	}
	u.held = nil
}

func (u *unit) UserExists(_ context.Context, userID uint64) (bool, error) {
	u.store.mutex.RLock()
	defer u.store.mutex.RUnlock()
	_, ok := u.store.users[userID]
	return ok, nil
}

func (u *unit) LockSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]model.SeatReservation, error) {
	var locked []uint64
	for _, id := range seatIDs {
		u.store.mutex.RLock()
		ch, ok := u.store.locks[seatKey{showtimeID, id}]
		u.store.mutex.RUnlock()
		if !ok {
			continue
		}
		select {
		case ch <- struct{}{}:
			u.held = append(u.held, ch)
			locked = append(locked, id)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	u.store.mutex.RLock()
	rows := make([]model.SeatReservation, 0, len(locked))
	for _, id := range locked {
		rows = append(rows, *u.store.reservations[seatKey{showtimeID, id}])
	}
	hook := u.store.onLocked
	u.store.mutex.RUnlock()

	if hook != nil {
		hook(showtimeID, locked)
	}
	return rows, nil
}

func (u *unit) MarkBooked(_ context.Context, showtimeID uint64, seatIDs []uint64, billID uint64) error {
	u.store.mutex.RLock()
	defer u.store.mutex.RUnlock()
	for _, id := range seatIDs {
		r, ok := u.store.reservations[seatKey{showtimeID, id}]
		if !ok || r.State != model.SeatFree {
			return booking.ErrWriteConflict
		}
	}
	u.marks = append(u.marks, mark{showtimeID: showtimeID, seatIDs: slices.Clone(seatIDs), billID: billID})
	return nil
}

var errEmptyBill = errors.New("memstore: bill without seats")

func (u *unit) InsertBill(_ context.Context, b *model.Bill) error {
	if len(b.SeatIDs) == 0 {
		return errEmptyBill
	}
	u.store.mutex.Lock()
	if err := u.store.insertErr; err != nil {
		u.store.mutex.Unlock()
		return err
	}
	u.store.nextBillID++
	b.ID = u.store.nextBillID
	u.store.mutex.Unlock()

	cp := *b
	cp.SeatIDs = slices.Clone(b.SeatIDs)
	u.bills = append(u.bills, &cp)
	return nil
}
