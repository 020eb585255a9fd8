package workrequest

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
)

type ID string

func (id ID) String() string { return string(id) }

// ============================================================================
// Status
// ============================================================================

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusOnHold     Status = "on_hold"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", market.Validation(fmt.Sprintf("unknown request status %q", s))
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled, StatusOnHold:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// HasAssignee reports whether a request in status s may carry an assigned contractor.
func (s Status) HasAssignee() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusOnHold:
		return true
	default:
		return false
	}
}

// CanTransition is the request state table.
//
//	open        -> in_progress | cancelled
//	in_progress -> completed | on_hold | cancelled
//	on_hold     -> in_progress | cancelled
//	completed, cancelled: terminal
func CanTransition(from, to Status) bool {
	switch from {
	case StatusOpen:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusOnHold || to == StatusCancelled
	case StatusOnHold:
		return to == StatusInProgress || to == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false
	default:
		return false
	}
}

// ============================================================================
// Category
// ============================================================================

type Category string

const (
	CategoryConstruction   Category = "construction"
	CategoryRenovation     Category = "renovation"
	CategoryPlumbing       Category = "plumbing"
	CategoryElectrical     Category = "electrical"
	CategoryPainting       Category = "painting"
	CategoryFlooring       Category = "flooring"
	CategoryRoofing        Category = "roofing"
	CategoryLandscaping    Category = "landscaping"
	CategoryInteriorDesign Category = "interior_design"
	CategoryOther          Category = "other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryConstruction, CategoryRenovation, CategoryPlumbing, CategoryElectrical,
		CategoryPainting, CategoryFlooring, CategoryRoofing, CategoryLandscaping,
		CategoryInteriorDesign, CategoryOther,
	}
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", market.Validation(fmt.Sprintf("unknown category %q", s))
	}
	return c, nil
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryConstruction, CategoryRenovation, CategoryPlumbing, CategoryElectrical,
		CategoryPainting, CategoryFlooring, CategoryRoofing, CategoryLandscaping,
		CategoryInteriorDesign, CategoryOther:
		return true
	default:
		return false
	}
}

// ============================================================================
// WorkRequest
// ============================================================================

// WorkRequest is a job posted by a society that contractors bid on.
type WorkRequest struct {
	ID                   ID             `db:"id" json:"id"`
	SocietyID            kernel.UserID  `db:"society_id" json:"society_id"`
	AssignedContractorID *kernel.UserID `db:"assigned_contractor_id" json:"assigned_contractor_id,omitempty"`

	Title       string   `db:"title" json:"title"`
	Description string   `db:"description" json:"description"`
	Category    Category `db:"category" json:"category"`
	Status      Status   `db:"status" json:"status"`

	Location *string `db:"location" json:"location,omitempty"`
	City     string  `db:"city" json:"city"`
	State    string  `db:"state" json:"state"`
	Pincode  *string `db:"pincode" json:"pincode,omitempty"`

	EstimatedDurationDays *int       `db:"estimated_duration_days" json:"estimated_duration_days,omitempty"`
	RequiredSkills        *string    `db:"required_skills" json:"required_skills,omitempty"`
	PreferredStartDate    *time.Time `db:"preferred_start_date" json:"preferred_start_date,omitempty"`

	// Images are storage paths, persisted as a text array.
	Images []string `db:"-" json:"images"`

	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

func (r *WorkRequest) IsOpen() bool { return r.Status == StatusOpen }

func (r *WorkRequest) IsOwnedBy(id kernel.UserID) bool {
	return !id.IsEmpty() && r.SocietyID == id
}

func (r *WorkRequest) IsAssignedTo(id kernel.UserID) bool {
	return r.AssignedContractorID != nil && !id.IsEmpty() && *r.AssignedContractorID == id
}

// CanBeManagedBy reports whether actor may edit or delete the request.
func (r *WorkRequest) CanBeManagedBy(actor kernel.Actor) bool {
	return actor.IsAdmin() || r.IsOwnedBy(actor.UserID)
}

// CanChangeStatus reports whether actor may move the request through the state table.
func (r *WorkRequest) CanChangeStatus(actor kernel.Actor) bool {
	return r.CanBeManagedBy(actor) || r.IsAssignedTo(actor.UserID)
}

// CanBeDeleted is false while work is in flight or finished.
func (r *WorkRequest) CanBeDeleted() bool {
	return r.Status != StatusInProgress && r.Status != StatusCompleted
}

// Transition applies a status change from the state table. Entering
// in_progress records contractor (when given) and started_at, entering
// completed records completed_at, and cancelling clears the assignee.
func (r *WorkRequest) Transition(to Status, contractor *kernel.UserID, at time.Time) error {
	if !to.IsValid() {
		return market.Validation(fmt.Sprintf("unknown request status %q", to))
	}
	if !CanTransition(r.Status, to) {
		return market.InvalidTransition(string(r.Status), string(to))
	}

	switch to {
	case StatusInProgress:
		if contractor != nil && !contractor.IsEmpty() {
			id := *contractor
			r.AssignedContractorID = &id
		}
		if r.StartedAt == nil {
			r.StartedAt = &at
		}
	case StatusCompleted:
		r.CompletedAt = &at
	case StatusCancelled:
		r.AssignedContractorID = nil
	}

	r.Status = to
	r.UpdatedAt = at
	return nil
}

// AddImage appends a stored image path.
func (r *WorkRequest) AddImage(path string, at time.Time) {
	r.Images = append(r.Images, path)
	r.UpdatedAt = at
}

// SkillList splits the comma separated required skills.
func (r *WorkRequest) SkillList() []string {
	if r.RequiredSkills == nil {
		return nil
	}
	var skills []string
	for _, s := range strings.Split(*r.RequiredSkills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// Validate checks the editable fields.
func (r *WorkRequest) Validate() error {
	if n := utf8.RuneCountInString(r.Title); n < 5 || n > 255 {
		return market.Validation("title must be between 5 and 255 characters")
	}
	if utf8.RuneCountInString(r.Description) < 20 {
		return market.Validation("description must be at least 20 characters")
	}
	if !r.Category.IsValid() {
		return market.Validation(fmt.Sprintf("unknown category %q", r.Category))
	}
	if n := utf8.RuneCountInString(r.City); n < 2 || n > 100 {
		return market.Validation("city must be between 2 and 100 characters")
	}
	if n := utf8.RuneCountInString(r.State); n < 2 || n > 100 {
		return market.Validation("state must be between 2 and 100 characters")
	}
	if r.Pincode != nil && len(*r.Pincode) > 10 {
		return market.Validation("pincode must be at most 10 characters")
	}
	if r.EstimatedDurationDays != nil && *r.EstimatedDurationDays < 1 {
		return market.Validation("estimated_duration_days must be at least 1")
	}
	return nil
}
