package marketinfra_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/bid"
	"github.com/Abraxas-365/contractorconnect/pkg/market/marketinfra"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
)

var t0 = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func seedRequest(t *testing.T, store *marketinfra.MemoryStore, id workrequest.ID) *workrequest.WorkRequest {
	t.Helper()
	req := &workrequest.WorkRequest{
		ID:          id,
		SocietyID:   "society-1",
		Title:       "Replace lobby tiles",
		Description: "Cracked vitrified tiles in the main lobby need replacing.",
		Category:    workrequest.CategoryFlooring,
		Status:      workrequest.StatusOpen,
		City:        "Pune",
		State:       "Maharashtra",
		Images:      []string{},
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
	if err := store.Requests().Create(context.Background(), req); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func seedBid(t *testing.T, store *marketinfra.MemoryStore, id bid.ID, reqID workrequest.ID, contractor kernel.UserID, amount float64) {
	t.Helper()
	b := &bid.Bid{
		ID: id, RequestID: reqID, ContractorID: contractor, Amount: amount,
		Proposal: "proposal", Status: bid.StatusPending, CreatedAt: t0, UpdatedAt: t0,
	}
	if err := store.Bids().Create(context.Background(), b); err != nil {
		t.Fatalf("seed bid: %v", err)
	}
}

// --- Request repository tests ---

func TestUpdateStatus_StaleWriteFails(t *testing.T) {
	store := marketinfra.NewMemoryStore()
	ctx := context.Background()
	seedRequest(t, store, "r1")

	first, _ := store.Requests().FindByID(ctx, "r1")
	second, _ := store.Requests().FindByID(ctx, "r1")

	if err := first.Transition(workrequest.StatusCancelled, nil, t0); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := store.Requests().UpdateStatus(ctx, first, workrequest.StatusOpen); err != nil {
		t.Fatalf("first write: %v", err)
	}

	if err := second.Transition(workrequest.StatusInProgress, nil, t0); err != nil {
		t.Fatalf("transition: %v", err)
	}
	err := store.Requests().UpdateStatus(ctx, second, workrequest.StatusOpen)
	if !errx.IsCode(err, market.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}

	got, _ := store.Requests().FindByID(ctx, "r1")
	if got.Status != workrequest.StatusCancelled {
		t.Fatalf("expected cancelled to stick, got %s", got.Status)
	}
}

func TestFindByID_ReturnsCopy(t *testing.T) {
	store := marketinfra.NewMemoryStore()
	ctx := context.Background()
	seedRequest(t, store, "r1")

	got, _ := store.Requests().FindByID(ctx, "r1")
	got.Title = "changed"
	got.Images = append(got.Images, "x")

	again, _ := store.Requests().FindByID(ctx, "r1")
	if again.Title == "changed" || len(again.Images) != 0 {
		t.Fatalf("store leaked a mutable reference: %+v", again)
	}
}

func TestList_PaginatesNewestFirst(t *testing.T) {
	store := marketinfra.NewMemoryStore()
	ctx := context.Background()
	for i, id := range []workrequest.ID{"a", "b", "c"} {
		req := seedRequest(t, store, id)
		req.CreatedAt = t0.Add(time.Duration(i) * time.Hour)
		if err := store.Requests().Create(ctx, req); err != nil {
			t.Fatalf("reseed: %v", err)
		}
	}

	page, err := store.Requests().List(ctx, workrequest.ListFilter{}, kernel.PaginationOptions{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page.Total != 3 || page.Page.Pages != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page: %+v", page.Page)
	}
	if page.Items[0].ID != "c" || page.Items[1].ID != "b" {
		t.Fatalf("expected c,b got %s,%s", page.Items[0].ID, page.Items[1].ID)
	}
	if !page.HasNext() {
		t.Fatal("expected another page")
	}
}

// --- Bid repository tests ---

func TestCreate_OneActiveBidPerContractor(t *testing.T) {
	store := marketinfra.NewMemoryStore()
	ctx := context.Background()
	seedRequest(t, store, "r1")
	seedBid(t, store, "b1", "r1", "c1", 100)

	dup := &bid.Bid{ID: "b2", RequestID: "r1", ContractorID: "c1", Amount: 90, Status: bid.StatusPending}
	if err := store.Bids().Create(ctx, dup); !errx.IsCode(err, market.ErrDuplicateBid) {
		t.Fatalf("expected duplicate bid, got %v", err)
	}

	orphan := &bid.Bid{ID: "b3", RequestID: "missing", ContractorID: "c1", Amount: 90, Status: bid.StatusPending}
	if err := store.Bids().Create(ctx, orphan); !errx.IsCode(err, market.ErrRequestNotFound) {
		t.Fatalf("expected request not found, got %v", err)
	}
}

func TestAccept_AppliesAllThreeWrites(t *testing.T) {
	store := marketinfra.NewMemoryStore()
	ctx := context.Background()
	seedRequest(t, store, "r1")
	seedRequest(t, store, "r2")
	seedBid(t, store, "b1", "r1", "c1", 100)
	seedBid(t, store, "b2", "r1", "c2", 120)
	seedBid(t, store, "b3", "r2", "c2", 130)

	at := t0.Add(time.Hour)
	accepted, err := store.Bids().Accept(ctx, "b1", at)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != bid.StatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}

	sibling, _ := store.Bids().FindByID(ctx, "b2")
	if sibling.Status != bid.StatusRejected {
		t.Fatalf("expected sibling rejected, got %s", sibling.Status)
	}
	other, _ := store.Bids().FindByID(ctx, "b3")
	if other.Status != bid.StatusPending {
		t.Fatalf("bid on another request must stay pending, got %s", other.Status)
	}

	req, _ := store.Requests().FindByID(ctx, "r1")
	if req.Status != workrequest.StatusInProgress || !req.IsAssignedTo("c1") || req.StartedAt == nil || !req.StartedAt.Equal(at) {
		t.Fatalf("unexpected request after accept: %+v", req)
	}
}

func TestAccept_ConcurrentSingleWinner(t *testing.T) {
	store := marketinfra.NewMemoryStore()
	ctx := context.Background()
	seedRequest(t, store, "r1")

	ids := []bid.ID{"b1", "b2", "b3", "b4", "b5"}
	for i, id := range ids {
		seedBid(t, store, id, "r1", kernel.UserID("c"+string(id)), float64(100+i))
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
			if _, err := store.Bids().Accept(ctx, id, t0); err == nil {
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
	stats, _ := store.Bids().Statistics(ctx, "r1")
	if stats.AcceptedBids != 1 || stats.RejectedBids != 4 {
		t.Fatalf("unexpected stats after race: %+v", stats)
	}
	req, _ := store.Requests().FindByID(ctx, "r1")
	b, _ := store.Bids().FindByID(ctx, wins[0])
	if !req.IsAssignedTo(b.ContractorID) {
		t.Fatalf("request assigned to %v, winner was %s", req.AssignedContractorID, b.ContractorID)
	}
}

func TestSetStatus_Conditional(t *testing.T) {
	store := marketinfra.NewMemoryStore()
	ctx := context.Background()
	seedRequest(t, store, "r1")
	seedBid(t, store, "b1", "r1", "c1", 100)

	if _, err := store.Bids().SetStatus(ctx, "b1", bid.StatusPending, bid.StatusWithdrawn, t0); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	_, err := store.Bids().SetStatus(ctx, "b1", bid.StatusPending, bid.StatusWithdrawn, t0)
	if !errx.IsCode(err, market.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}
