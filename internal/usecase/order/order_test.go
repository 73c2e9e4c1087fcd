package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/audit"
	domain "github.com/ustatop/ustatop-api/internal/domain/order"
	"github.com/ustatop/ustatop-api/internal/httperr"
	"github.com/ustatop/ustatop-api/internal/models"
	"github.com/ustatop/ustatop-api/internal/principal"
)

// ======================================================
// FAKES
// ======================================================

type fakeRepo struct {
	mu       sync.Mutex
	services map[uint]models.Service
	masters  map[uint]models.Master // keyed by user id
	orders   map[uint]models.Order
	nextID   uint

	// readErr simulates the database being unreachable for reads.
	readErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		services: map[uint]models.Service{},
		masters:  map[uint]models.Master{},
		orders:   map[uint]models.Order{},
	}
}

func (r *fakeRepo) GetService(_ context.Context, id uint) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	s, ok := r.services[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *fakeRepo) GetMasterByUserID(_ context.Context, userID uint) (*models.Master, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.masters[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

func (r *fakeRepo) CreateOrder(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	o.ID = r.nextID
	r.orders[o.ID] = *o
	return nil
}

func (r *fakeRepo) GetOrder(_ context.Context, id uint) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (r *fakeRepo) ListOrders(_ context.Context, f domain.ListFilter) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Order{}
	for _, o := range r.orders {
		if f.ClientID != 0 && o.ClientID != f.ClientID {
			continue
		}
		if f.MasterID != 0 && o.MasterID != f.MasterID {
			continue
		}
		if f.Status != "" && o.Status != string(f.Status) {
			continue
		}
		out = append(out, o)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	page := f.Page
	if page <= 0 {
		page = 1
	}
	lo := (page - 1) * domain.PageSize
	if lo >= len(out) {
		return []models.Order{}, nil
	}
	hi := lo + domain.PageSize
	if hi > len(out) {
		hi = len(out)
	}
	return out[lo:hi], nil
}

// Mirrors the gorm CAS UPDATE: swap only while the row still holds
// `from`, distinguishing a vanished row from a lost race.
func (r *fakeRepo) TransitionOrder(_ context.Context, o *models.Order, from domain.Status, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.orders[o.ID]
	if !ok {
		return httperr.ErrBusiness(httperr.CodeNotFound)
	}
	if cur.Status != string(from) {
		return httperr.ErrBusinessf(httperr.CodeConflict, "order changed concurrently, reload and retry")
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *fakeRepo) DeleteOrder(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

func (r *fakeRepo) IncrementMasterOrders(_ context.Context, masterID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, m := range r.masters {
		if m.ID == masterID {
			m.TotalOrders++
			r.masters[userID] = m
		}
	}
	return nil
}

var _ domain.Repository = (*fakeRepo)(nil)

type fakeAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *fakeAuditor) Dispatch(ev audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *fakeAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, ev := range a.events {
		out = append(out, ev.Action)
	}
	return out
}

// ======================================================
// FIXTURE
// ======================================================

var (
	clientP      = principal.Principal{UserID: 10, Role: models.RoleClient}
	otherClientP = principal.Principal{UserID: 11, Role: models.RoleClient}
	masterP      = principal.Principal{UserID: 20, Role: models.RoleMaster}
	otherMasterP = principal.Principal{UserID: 21, Role: models.RoleMaster}
	adminP       = principal.Principal{UserID: 1, Role: models.RoleAdmin}
)

// seeded: master user 20 owns master profile 7 with service 100.
func seededRepo() *fakeRepo {
	repo := newFakeRepo()
	repo.masters[20] = models.Master{ID: 7, UserID: 20}
	repo.masters[21] = models.Master{ID: 8, UserID: 21}
	repo.services[100] = models.Service{
		ID:       100,
		MasterID: 7,
		Price:    150_000,
		IsActive: true,
	}
	repo.services[101] = models.Service{
		ID:       101,
		MasterID: 7,
		Price:    90_000,
		IsActive: false,
	}
	return repo
}

// ======================================================
// CREATE
// ======================================================

func TestCreateOrder(t *testing.T) {
	repo := seededRepo()
	auditor := &fakeAuditor{}
	uc := NewCreateOrder(repo, auditor)

	o, err := uc.Execute(context.Background(), clientP, CreateOrderInput{
		ServiceID:   100,
		Description: "fix the kitchen sink",
		Address:     "Chilonzor 5",
	})
	require.NoError(t, err)

	assert.Equal(t, uint(10), o.ClientID)
	assert.Equal(t, uint(100), o.ServiceID)
	assert.Equal(t, uint(7), o.MasterID, "master snapshotted from service")
	assert.Equal(t, 150_000.0, o.Price, "price snapshotted from service")
	assert.Equal(t, "pending", o.Status)
	assert.NotZero(t, o.ID)

	assert.Equal(t, []string{"order_created"}, auditor.actions())
}

func TestCreateOrderUnknownService(t *testing.T) {
	uc := NewCreateOrder(seededRepo(), &fakeAuditor{})

	_, err := uc.Execute(context.Background(), clientP, CreateOrderInput{ServiceID: 999})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound))
}

func TestCreateOrderInactiveService(t *testing.T) {
	uc := NewCreateOrder(seededRepo(), &fakeAuditor{})

	_, err := uc.Execute(context.Background(), clientP, CreateOrderInput{ServiceID: 101})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound))
}

func TestCreateOrderNonClientForbidden(t *testing.T) {
	uc := NewCreateOrder(seededRepo(), &fakeAuditor{})

	for _, p := range []principal.Principal{masterP, adminP} {
		_, err := uc.Execute(context.Background(), p, CreateOrderInput{ServiceID: 100})
		assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden), p.Role)
	}
}

// ======================================================
// TRANSITION
// ======================================================

func createPending(t *testing.T, repo *fakeRepo) *models.Order {
	t.Helper()
	uc := NewCreateOrder(repo, &fakeAuditor{})
	o, err := uc.Execute(context.Background(), clientP, CreateOrderInput{ServiceID: 100})
	require.NoError(t, err)
	return o
}

func TestHappyPathLifecycle(t *testing.T) {
	repo := seededRepo()
	auditor := &fakeAuditor{}
	uc := NewTransitionOrder(repo, auditor)
	o := createPending(t, repo)
	ctx := context.Background()

	steps := []struct {
		p  principal.Principal
		to domain.Status
	}{
		{masterP, domain.StatusAccepted},
		{masterP, domain.StatusInProgress},
		{masterP, domain.StatusCompleted},
	}

	for _, s := range steps {
		got, err := uc.Execute(ctx, s.p, o.ID, s.to)
		require.NoError(t, err, "to %s", s.to)
		assert.Equal(t, string(s.to), got.Status)
	}

	final, err := repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", final.Status)
	assert.NotNil(t, final.CompletedAt)

	assert.Equal(t,
		[]string{"order_accepted", "order_in_progress", "order_completed"},
		auditor.actions())

	m, err := repo.GetMasterByUserID(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, m.TotalOrders, "completion bumps the master counter")
}

func TestClientCancelsAccepted(t *testing.T) {
	repo := seededRepo()
	uc := NewTransitionOrder(repo, &fakeAuditor{})
	o := createPending(t, repo)
	ctx := context.Background()

	_, err := uc.Execute(ctx, masterP, o.ID, domain.StatusAccepted)
	require.NoError(t, err)

	got, err := uc.Execute(ctx, clientP, o.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Status)
	assert.NotNil(t, got.CancelledAt)

	// Terminal: nobody moves it again, not even admin.
	_, err = uc.Execute(ctx, adminP, o.ID, domain.StatusAccepted)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidTransition))
}

func TestInvalidTransitionIsUnprocessable(t *testing.T) {
	repo := seededRepo()
	uc := NewTransitionOrder(repo, &fakeAuditor{})
	o := createPending(t, repo)

	_, err := uc.Execute(context.Background(), masterP, o.ID, domain.StatusCompleted)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidTransition))
}

func TestStrangerMasterGetsForbidden(t *testing.T) {
	repo := seededRepo()
	uc := NewTransitionOrder(repo, &fakeAuditor{})
	o := createPending(t, repo)

	_, err := uc.Execute(context.Background(), otherMasterP, o.ID, domain.StatusAccepted)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))
}

func TestTransitionUnknownOrder(t *testing.T) {
	uc := NewTransitionOrder(seededRepo(), &fakeAuditor{})

	_, err := uc.Execute(context.Background(), adminP, 404, domain.StatusAccepted)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound))
}

func TestAdminOverrideIsAudited(t *testing.T) {
	repo := seededRepo()
	auditor := &fakeAuditor{}
	uc := NewTransitionOrder(repo, auditor)
	o := createPending(t, repo)

	got, err := uc.Execute(context.Background(), adminP, o.ID, domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", got.Status)

	require.Len(t, auditor.events, 1)
	meta, ok := auditor.events[0].Metadata.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, meta["admin_override"])
	assert.Equal(t, "pending", meta["from"])
	assert.Equal(t, "in_progress", meta["to"])
}

// Two racing transitions off the same pending order: exactly one wins,
// the loser sees conflict, and the row lands in a single valid state.
func TestConcurrentTransitionsOneWinner(t *testing.T) {
	repo := seededRepo()
	uc := NewTransitionOrder(repo, &fakeAuditor{})
	o := createPending(t, repo)
	ctx := context.Background()

	targets := []domain.Status{domain.StatusAccepted, domain.StatusRejected}
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to domain.Status) {
			defer wg.Done()
			_, errs[i] = uc.Execute(ctx, masterP, o.ID, to)
		}(i, to)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			ok := httperr.IsBusiness(err, httperr.CodeConflict) ||
				httperr.IsBusiness(err, httperr.CodeInvalidTransition)
			assert.True(t, ok, "loser got %v", err)
		}
	}
	assert.Equal(t, 1, winners)

	final, err := repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Contains(t, []string{"accepted", "rejected"}, final.Status)
}

// ======================================================
// GET / LIST
// ======================================================

func TestGetOrderVisibility(t *testing.T) {
	repo := seededRepo()
	uc := NewGetOrder(repo)
	o := createPending(t, repo)
	ctx := context.Background()

	for _, p := range []principal.Principal{clientP, masterP, adminP} {
		got, err := uc.Execute(ctx, p, o.ID)
		require.NoError(t, err, p.Role)
		assert.Equal(t, o.ID, got.ID)
	}

	// Strangers read the order as absent.
	for _, p := range []principal.Principal{otherClientP, otherMasterP} {
		_, err := uc.Execute(ctx, p, o.ID)
		assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound), p.Role)
	}
}

func TestListOrdersScoping(t *testing.T) {
	repo := seededRepo()
	createUC := NewCreateOrder(repo, &fakeAuditor{})
	listUC := NewListOrders(repo)
	ctx := context.Background()

	_, err := createUC.Execute(ctx, clientP, CreateOrderInput{ServiceID: 100})
	require.NoError(t, err)
	_, err = createUC.Execute(ctx, otherClientP, CreateOrderInput{ServiceID: 100})
	require.NoError(t, err)

	mine, err := listUC.Execute(ctx, clientP, ListOrdersInput{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, uint(10), mine[0].ClientID)

	masters, err := listUC.Execute(ctx, masterP, ListOrdersInput{})
	require.NoError(t, err)
	assert.Len(t, masters, 2, "both orders target master 7")

	other, err := listUC.Execute(ctx, otherMasterP, ListOrdersInput{})
	require.NoError(t, err)
	assert.Empty(t, other)

	all, err := listUC.Execute(ctx, adminP, ListOrdersInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	narrowed, err := listUC.Execute(ctx, adminP, ListOrdersInput{ClientID: 11})
	require.NoError(t, err)
	require.Len(t, narrowed, 1)
	assert.Equal(t, uint(11), narrowed[0].ClientID)
}

func TestListOrdersStatusFilter(t *testing.T) {
	repo := seededRepo()
	listUC := NewListOrders(repo)
	transitionUC := NewTransitionOrder(repo, &fakeAuditor{})
	ctx := context.Background()

	a := createPending(t, repo)
	createPending(t, repo)

	_, err := transitionUC.Execute(ctx, masterP, a.ID, domain.StatusAccepted)
	require.NoError(t, err)

	accepted, err := listUC.Execute(ctx, clientP, ListOrdersInput{Status: domain.StatusAccepted})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, a.ID, accepted[0].ID)

	_, err = listUC.Execute(ctx, clientP, ListOrdersInput{Status: "bogus"})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeValidation))
}

func TestListOrdersMasterWithoutProfile(t *testing.T) {
	repo := seededRepo()
	listUC := NewListOrders(repo)
	createPending(t, repo)

	orphan := principal.Principal{UserID: 30, Role: models.RoleMaster}
	out, err := listUC.Execute(context.Background(), orphan, ListOrdersInput{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

// ======================================================
// HARD DELETE
// ======================================================

func TestHardDeleteAdminOnly(t *testing.T) {
	repo := seededRepo()
	auditor := &fakeAuditor{}
	uc := NewHardDeleteOrder(repo, auditor)
	o := createPending(t, repo)
	ctx := context.Background()

	for _, p := range []principal.Principal{clientP, masterP} {
		err := uc.Execute(ctx, p, o.ID)
		assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden), p.Role)
	}

	require.NoError(t, uc.Execute(ctx, adminP, o.ID))
	assert.Equal(t, []string{"order_hard_deleted"}, auditor.actions())

	_, err := repo.GetOrder(ctx, o.ID)
	assert.Error(t, err)

	err = uc.Execute(ctx, adminP, o.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound))
}

// ======================================================
// STORAGE OUTAGE
// ======================================================

// An unreachable database must read as unavailable, not as a missing
// order or service.
func TestReadOutageIsUnavailable(t *testing.T) {
	repo := seededRepo()
	o := createPending(t, repo)
	repo.readErr = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	ctx := context.Background()

	_, err := NewGetOrder(repo).Execute(ctx, clientP, o.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeUnavailable), "get: %v", err)

	_, err = NewTransitionOrder(repo, &fakeAuditor{}).
		Execute(ctx, masterP, o.ID, domain.StatusAccepted)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeUnavailable), "transition: %v", err)

	err = NewHardDeleteOrder(repo, &fakeAuditor{}).Execute(ctx, adminP, o.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeUnavailable), "hard delete: %v", err)

	_, err = NewCreateOrder(repo, &fakeAuditor{}).
		Execute(ctx, clientP, CreateOrderInput{ServiceID: 100})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeUnavailable), "create: %v", err)
}
