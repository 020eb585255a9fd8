//go:build integration

package marketinfra_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/contractorconnect/migrations"
	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/dbx"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/bid"
	"github.com/Abraxas-365/contractorconnect/pkg/market/marketinfra"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Run with:
//
//	CONTRACTORCONNECT_TEST_DATABASE_URL=postgres://... go test -tags integration ./pkg/market/marketinfra/
const testDatabaseEnv = "CONTRACTORCONNECT_TEST_DATABASE_URL"

type pgStore struct {
	db       *sqlx.DB
	requests *marketinfra.PostgresRequestRepository
	bids     *marketinfra.PostgresBidRepository
	prefix   string
}

// forEachDriver runs fn against a migrated database once per supported driver.
func forEachDriver(t *testing.T, fn func(t *testing.T, s *pgStore)) {
	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	for _, driver := range []string{dbx.DriverPQ, dbx.DriverPGX} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			db, err := dbx.Open(ctx, config.DatabaseConfig{
				Driver:          driver,
				URL:             url,
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: time.Minute,
			})
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			t.Cleanup(func() { _ = db.Close() })

			if _, err := dbx.Migrate(ctx, db, migrations.FS); err != nil {
				t.Fatalf("migrate: %v", err)
			}

			s := &pgStore{
				db:       db,
				requests: marketinfra.NewPostgresRequestRepository(db),
				bids:     marketinfra.NewPostgresBidRepository(db),
				prefix:   uuid.NewString()[:8] + "-",
			}
			t.Cleanup(s.cleanup)
			fn(t, s)
		})
	}
}

func (s *pgStore) id(name string) string { return s.prefix + name }

func (s *pgStore) cleanup() {
	ctx := context.Background()
	like := s.prefix + "%"
	_, _ = s.db.ExecContext(ctx, `DELETE FROM work_requests WHERE id LIKE $1`, like)
	_, _ = s.db.ExecContext(ctx, `DELETE FROM users WHERE id LIKE $1`, like)
}

func (s *pgStore) seedUser(t *testing.T, name string, role kernel.Role) kernel.UserID {
	t.Helper()
	id := s.id(name)
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO users (id, phone_number, role, name) VALUES ($1, $2, $3, $4)`,
		id, "+91"+id, role, name)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return kernel.UserID(id)
}

func (s *pgStore) seedRequest(t *testing.T, name string, society kernel.UserID) *workrequest.WorkRequest {
	t.Helper()
	req := &workrequest.WorkRequest{
		ID:          workrequest.ID(s.id(name)),
		SocietyID:   society,
		Title:       "Repaint parking basement",
		Description: "Walls and pillars in the basement parking need two coats of paint.",
		Category:    workrequest.CategoryPainting,
		Status:      workrequest.StatusOpen,
		City:        "Pune",
		State:       "Maharashtra",
		Images:      []string{},
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
	if err := s.requests.Create(context.Background(), req); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func (s *pgStore) seedBid(t *testing.T, name string, reqID workrequest.ID, contractor kernel.UserID, amount float64) bid.ID {
	t.Helper()
	b := &bid.Bid{
		ID: bid.ID(s.id(name)), RequestID: reqID, ContractorID: contractor, Amount: amount,
		Proposal: "proposal", Status: bid.StatusPending, CreatedAt: t0, UpdatedAt: t0,
	}
	if err := s.bids.Create(context.Background(), b); err != nil {
		t.Fatalf("seed bid: %v", err)
	}
	return b.ID
}

// --- Postgres bid repository tests ---

func TestPostgres_CreateMapsConstraintErrors(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *pgStore) {
		ctx := context.Background()
		society := s.seedUser(t, "society", kernel.RoleSociety)
		c1 := s.seedUser(t, "c1", kernel.RoleContractor)
		req := s.seedRequest(t, "r1", society)
		first := s.seedBid(t, "b1", req.ID, c1, 19.99)

		dup := &bid.Bid{ID: bid.ID(s.id("b2")), RequestID: req.ID, ContractorID: c1, Amount: 90, Proposal: "p", Status: bid.StatusPending, CreatedAt: t0, UpdatedAt: t0}
		if err := s.bids.Create(ctx, dup); !errx.IsCode(err, market.ErrDuplicateBid) {
			t.Fatalf("expected duplicate bid from the unique index, got %v", err)
		}

		// a withdrawn bid frees the slot
		if _, err := s.bids.SetStatus(ctx, first, bid.StatusPending, bid.StatusWithdrawn, t0); err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if err := s.bids.Create(ctx, dup); err != nil {
			t.Fatalf("expected a fresh bid after withdrawal, got %v", err)
		}

		orphan := &bid.Bid{ID: bid.ID(s.id("b3")), RequestID: workrequest.ID(s.id("missing")), ContractorID: c1, Amount: 90, Proposal: "p", Status: bid.StatusPending, CreatedAt: t0, UpdatedAt: t0}
		if err := s.bids.Create(ctx, orphan); !errx.IsCode(err, market.ErrRequestNotFound) {
			t.Fatalf("expected request not found from the foreign key, got %v", err)
		}

		got, err := s.bids.FindByID(ctx, first)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.Amount != 19.99 {
			t.Fatalf("expected amount to round-trip, got %v", got.Amount)
		}
	})
}

func TestPostgres_AcceptAppliesAllThreeWrites(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *pgStore) {
		ctx := context.Background()
		society := s.seedUser(t, "society", kernel.RoleSociety)
		c1 := s.seedUser(t, "c1", kernel.RoleContractor)
		c2 := s.seedUser(t, "c2", kernel.RoleContractor)
		r1 := s.seedRequest(t, "r1", society)
		r2 := s.seedRequest(t, "r2", society)
		b1 := s.seedBid(t, "b1", r1.ID, c1, 100)
		b2 := s.seedBid(t, "b2", r1.ID, c2, 120)
		b3 := s.seedBid(t, "b3", r2.ID, c2, 130)

		at := t0.Add(time.Hour)
		accepted, err := s.bids.Accept(ctx, b1, at)
		if err != nil {
			t.Fatalf("accept: %v", err)
		}
		if accepted.Status != bid.StatusAccepted {
			t.Fatalf("expected accepted, got %s", accepted.Status)
		}

		if sibling, _ := s.bids.FindByID(ctx, b2); sibling.Status != bid.StatusRejected {
			t.Fatalf("expected sibling rejected, got %s", sibling.Status)
		}
		if other, _ := s.bids.FindByID(ctx, b3); other.Status != bid.StatusPending {
			t.Fatalf("bid on another request must stay pending, got %s", other.Status)
		}

		req, err := s.requests.FindByID(ctx, r1.ID)
		if err != nil {
			t.Fatalf("find request: %v", err)
		}
		if req.Status != workrequest.StatusInProgress || !req.IsAssignedTo(c1) || req.StartedAt == nil || !req.StartedAt.Equal(at) {
			t.Fatalf("unexpected request after accept: %+v", req)
		}

		if _, err := s.bids.Accept(ctx, b2, at); !errx.IsCode(err, market.ErrInvalidState) {
			t.Fatalf("expected invalid state on a started request, got %v", err)
		}
		if _, err := s.bids.Accept(ctx, bid.ID(s.id("missing")), at); !errx.IsCode(err, market.ErrBidNotFound) {
			t.Fatalf("expected bid not found, got %v", err)
		}
	})
}

func TestPostgres_ConcurrentAcceptSingleWinner(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *pgStore) {
		ctx := context.Background()
		society := s.seedUser(t, "society", kernel.RoleSociety)
		req := s.seedRequest(t, "r1", society)

		var ids []bid.ID
		for i, name := range []string{"b1", "b2", "b3", "b4", "b5"} {
			c := s.seedUser(t, "c-"+name, kernel.RoleContractor)
			ids = append(ids, s.seedBid(t, name, req.ID, c, float64(100+i)))
		}

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins []bid.ID
		)
		for _, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.bids.Accept(ctx, id, t0); err == nil {
					mu.Lock()
					wins = append(wins, id)
					mu.Unlock()
				} else if !errx.IsCode(err, market.ErrInvalidState) {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if len(wins) != 1 {
			t.Fatalf("expected one winner, got %v", wins)
		}
		stats, err := s.bids.Statistics(ctx, req.ID)
		if err != nil {
			t.Fatalf("statistics: %v", err)
		}
		if stats.AcceptedBids != 1 || stats.RejectedBids != 4 {
			t.Fatalf("unexpected stats after race: %+v", stats)
		}
	})
}

// --- Postgres request repository tests ---

func TestPostgres_ConditionalWrites(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *pgStore) {
		ctx := context.Background()
		society := s.seedUser(t, "society", kernel.RoleSociety)
		c1 := s.seedUser(t, "c1", kernel.RoleContractor)
		req := s.seedRequest(t, "r1", society)
		b1 := s.seedBid(t, "b1", req.ID, c1, 100)

		if _, err := s.bids.SetStatus(ctx, b1, bid.StatusPending, bid.StatusWithdrawn, t0); err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if _, err := s.bids.SetStatus(ctx, b1, bid.StatusPending, bid.StatusWithdrawn, t0); !errx.IsCode(err, market.ErrInvalidState) {
			t.Fatalf("expected invalid state on a second withdraw, got %v", err)
		}

		first, _ := s.requests.FindByID(ctx, req.ID)
		second, _ := s.requests.FindByID(ctx, req.ID)
		if err := first.Transition(workrequest.StatusCancelled, nil, t0); err != nil {
			t.Fatalf("transition: %v", err)
		}
		if err := s.requests.UpdateStatus(ctx, first, workrequest.StatusOpen); err != nil {
			t.Fatalf("first write: %v", err)
		}
		if err := second.Transition(workrequest.StatusInProgress, nil, t0); err != nil {
			t.Fatalf("transition: %v", err)
		}
		if err := s.requests.UpdateStatus(ctx, second, workrequest.StatusOpen); !errx.IsCode(err, market.ErrInvalidState) {
			t.Fatalf("expected stale write to fail, got %v", err)
		}

		if err := s.requests.AppendImage(ctx, req.ID, "requests/x/a.jpg", t0); err != nil {
			t.Fatalf("append image: %v", err)
		}
		got, _ := s.requests.FindByID(ctx, req.ID)
		if got.Status != workrequest.StatusCancelled || len(got.Images) != 1 {
			t.Fatalf("unexpected request %+v", got)
		}
	})
}

func TestPostgres_DeleteCascadesBids(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *pgStore) {
		ctx := context.Background()
		society := s.seedUser(t, "society", kernel.RoleSociety)
		c1 := s.seedUser(t, "c1", kernel.RoleContractor)
		req := s.seedRequest(t, "r1", society)
		b1 := s.seedBid(t, "b1", req.ID, c1, 100)

		if err := s.requests.Delete(ctx, req.ID, workrequest.StatusInProgress); !errx.IsCode(err, market.ErrInvalidState) {
			t.Fatalf("expected status guard, got %v", err)
		}
		if err := s.requests.Delete(ctx, req.ID, workrequest.StatusOpen); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.bids.FindByID(ctx, b1); !errx.IsCode(err, market.ErrBidNotFound) {
			t.Fatalf("expected bid to be cascaded away, got %v", err)
		}
		if err := s.requests.Delete(ctx, req.ID, workrequest.StatusOpen); !errx.IsCode(err, market.ErrRequestNotFound) {
			t.Fatalf("expected not found on second delete, got %v", err)
		}
	})
}

// --- Migration tests ---

func TestPostgres_MigrateIsIdempotent(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *pgStore) {
		n, err := dbx.Migrate(context.Background(), s.db, migrations.FS)
		if err != nil {
			t.Fatalf("migrate: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected nothing left to apply, got %d", n)
		}
	})
}
