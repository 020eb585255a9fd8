package bid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
)

type ID string

func (id ID) String() string { return string(id) }

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", market.Validation(fmt.Sprintf("unknown bid status %q", s))
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	default:
		return false
	}
}

// IsActive reports whether s counts toward the one-active-bid-per-contractor rule.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusAccepted
}

// MaxProposalLength bounds the proposal text.
const MaxProposalLength = 2000

// Bid is a contractor's offer on a work request.
type Bid struct {
	ID           ID             `db:"id" json:"id"`
	RequestID    workrequest.ID `db:"request_id" json:"request_id"`
	ContractorID kernel.UserID  `db:"contractor_id" json:"contractor_id"`
	Amount       float64        `db:"amount" json:"amount"`
	Proposal     string         `db:"proposal" json:"proposal"`
	Status       Status         `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

func (b *Bid) IsPending() bool { return b.Status == StatusPending }

func (b *Bid) IsSubmittedBy(id kernel.UserID) bool {
	return !id.IsEmpty() && b.ContractorID == id
}

// Amount bounds of the NUMERIC(14, 2) column.
const (
	MinAmount = 0.01
	MaxAmount = 999_999_999_999.99
)

// ValidateAmount requires a finite amount in [min, MaxAmount] with at most two
// decimal places. A min below MinAmount is raised to it.
func ValidateAmount(amount, min float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return market.Validation("amount must be greater than 0")
	}
	if min < MinAmount {
		min = MinAmount
	}
	if amount < min {
		return market.Validation(fmt.Sprintf("amount must be at least %s", formatAmount(min))).
			WithDetail("min_amount", min)
	}
	if amount > MaxAmount {
		return market.Validation(fmt.Sprintf("amount must be at most %s", formatAmount(MaxAmount))).
			WithDetail("max_amount", MaxAmount)
	}
	if s := strconv.FormatFloat(amount, 'f', -1, 64); strings.Contains(s, ".") && len(s)-strings.Index(s, ".")-1 > 2 {
		return market.Validation("amount must have at most 2 decimal places")
	}
	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// NormalizeProposal trims the proposal and checks its length against minLength.
func NormalizeProposal(proposal string, minLength int) (string, error) {
	proposal = strings.TrimSpace(proposal)
	n := utf8.RuneCountInString(proposal)
	if n < minLength {
		return "", market.Validation(fmt.Sprintf("proposal must be at least %d characters", minLength)).
			WithDetail("min_length", minLength)
	}
	if n > MaxProposalLength {
		return "", market.Validation(fmt.Sprintf("proposal must be at most %d characters", MaxProposalLength))
	}
	return proposal, nil
}

// Statistics summarizes the bids on one request. Amount figures cover
// pending bids only and are nil when there are none.
type Statistics struct {
	TotalBids     int      `json:"total_bids"`
	PendingBids   int      `json:"pending_bids"`
	AcceptedBids  int      `json:"accepted_bids"`
	RejectedBids  int      `json:"rejected_bids"`
	WithdrawnBids int      `json:"withdrawn_bids"`
	AverageAmount *float64 `json:"average_bid_amount"`
	LowestAmount  *float64 `json:"lowest_bid"`
	HighestAmount *float64 `json:"highest_bid"`
}

// ComputeStatistics folds bids into Statistics.
func ComputeStatistics(bids []Bid) Statistics {
	var st Statistics
	var sum float64
	for _, b := range bids {
		st.TotalBids++
		switch b.Status {
		case StatusPending:
			st.PendingBids++
			sum += b.Amount
			if st.LowestAmount == nil || b.Amount < *st.LowestAmount {
				v := b.Amount
				st.LowestAmount = &v
			}
			if st.HighestAmount == nil || b.Amount > *st.HighestAmount {
				v := b.Amount
				st.HighestAmount = &v
			}
		case StatusAccepted:
			st.AcceptedBids++
		case StatusRejected:
			st.RejectedBids++
		case StatusWithdrawn:
			st.WithdrawnBids++
		}
	}
	if st.PendingBids > 0 {
		avg := sum / float64(st.PendingBids)
		st.AverageAmount = &avg
	}
	return st
}
