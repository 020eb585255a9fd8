package marketsrv

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/fsx"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/Abraxas-365/contractorconnect/pkg/market"
	"github.com/Abraxas-365/contractorconnect/pkg/market/workrequest"
	"github.com/Abraxas-365/contractorconnect/pkg/ptrx"
	"github.com/google/uuid"
)

// CreateRequestInput is the payload for posting a work request.
type CreateRequestInput struct {
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	Category              string     `json:"category"`
	Location              *string    `json:"location,omitempty"`
	City                  string     `json:"city"`
	State                 string     `json:"state"`
	Pincode               *string    `json:"pincode,omitempty"`
	EstimatedDurationDays *int       `json:"estimated_duration_days,omitempty"`
	RequiredSkills        *string    `json:"required_skills,omitempty"`
	PreferredStartDate    *time.Time `json:"preferred_start_date,omitempty"`
}

// UpdateRequestInput patches the editable fields; nil fields are left alone.
type UpdateRequestInput struct {
	Title                 *string    `json:"title,omitempty"`
	Description           *string    `json:"description,omitempty"`
	Category              *string    `json:"category,omitempty"`
	Location              *string    `json:"location,omitempty"`
	City                  *string    `json:"city,omitempty"`
	State                 *string    `json:"state,omitempty"`
	Pincode               *string    `json:"pincode,omitempty"`
	EstimatedDurationDays *int       `json:"estimated_duration_days,omitempty"`
	RequiredSkills        *string    `json:"required_skills,omitempty"`
	PreferredStartDate    *time.Time `json:"preferred_start_date,omitempty"`
}

// ListRequestsInput filters a listing or search. Query is only used by Search.
type ListRequestsInput struct {
	Status   string
	Category string
	City     string
	State    string
	Query    string
	kernel.PaginationOptions
}

// TransitionInput asks for a status change. AssignedContractorID is only
// honoured on the way into in_progress.
type TransitionInput struct {
	Status               string         `json:"status"`
	AssignedContractorID *kernel.UserID `json:"assigned_contractor_id,omitempty"`
}

// ImageUpload is an image to attach to a request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var allowedImageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

type RequestService struct {
	requests workrequest.Repository
	files    fsx.FileSystem
	cfg      config.MarketConfig
	settings
}

func NewRequestService(requests workrequest.Repository, files fsx.FileSystem, cfg config.MarketConfig, opts ...Option) *RequestService {
	return &RequestService{
		requests: requests,
		files:    files,
		cfg:      cfg,
		settings: applyOptions(opts),
	}
}

func (s *RequestService) Create(ctx context.Context, actor kernel.Actor, in CreateRequestInput) (*workrequest.WorkRequest, error) {
	if !actor.IsSociety() {
		return nil, market.Forbidden("only societies can post work requests")
	}

	category, err := workrequest.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	req := &workrequest.WorkRequest{
		ID:                    workrequest.ID(uuid.NewString()),
		SocietyID:             actor.UserID,
		Title:                 strings.TrimSpace(in.Title),
		Description:           strings.TrimSpace(in.Description),
		Category:              category,
		Status:                workrequest.StatusOpen,
		Location:              ptrx.TrimmedOrNil(in.Location),
		City:                  strings.TrimSpace(in.City),
		State:                 strings.TrimSpace(in.State),
		Pincode:               ptrx.TrimmedOrNil(in.Pincode),
		EstimatedDurationDays: in.EstimatedDurationDays,
		RequiredSkills:        ptrx.TrimmedOrNil(in.RequiredSkills),
		PreferredStartDate:    in.PreferredStartDate,
		Images:                []string{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"request_id": req.ID,
		"society_id": req.SocietyID,
		"category":   req.Category,
	}).Info("Work request created")

	return req, nil
}

func (s *RequestService) Get(ctx context.Context, id workrequest.ID) (*workrequest.WorkRequest, error) {
	return s.requests.FindByID(ctx, id)
}

func (s *RequestService) filter(in ListRequestsInput) (workrequest.ListFilter, error) {
	f := workrequest.ListFilter{
		City:  strings.TrimSpace(in.City),
		State: strings.TrimSpace(in.State),
	}
	if in.Status != "" {
		st, err := workrequest.ParseStatus(in.Status)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	if in.Category != "" {
		c, err := workrequest.ParseCategory(in.Category)
		if err != nil {
			return f, err
		}
		f.Category = c
	}
	return f, nil
}

func (s *RequestService) page(opts kernel.PaginationOptions) kernel.PaginationOptions {
	return opts.Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
}

// List returns requests newest first, filtered by status, category and location.
func (s *RequestService) List(ctx context.Context, in ListRequestsInput) (kernel.Paginated[workrequest.WorkRequest], error) {
	f, err := s.filter(in)
	if err != nil {
		return kernel.Paginated[workrequest.WorkRequest]{}, err
	}
	return s.requests.List(ctx, f, s.page(in.PaginationOptions))
}

// Search is List plus a text query over title, description and required skills.
func (s *RequestService) Search(ctx context.Context, in ListRequestsInput) (kernel.Paginated[workrequest.WorkRequest], error) {
	f, err := s.filter(in)
	if err != nil {
		return kernel.Paginated[workrequest.WorkRequest]{}, err
	}
	f.Query = strings.TrimSpace(in.Query)
	return s.requests.List(ctx, f, s.page(in.PaginationOptions))
}

// MyRequests lists the requests the actor posted.
func (s *RequestService) MyRequests(ctx context.Context, actor kernel.Actor, in ListRequestsInput) (kernel.Paginated[workrequest.WorkRequest], error) {
	f, err := s.filter(in)
	if err != nil {
		return kernel.Paginated[workrequest.WorkRequest]{}, err
	}
	f.SocietyID = actor.UserID
	return s.requests.List(ctx, f, s.page(in.PaginationOptions))
}

// AssignedRequests lists the requests assigned to the acting contractor.
func (s *RequestService) AssignedRequests(ctx context.Context, actor kernel.Actor, in ListRequestsInput) (kernel.Paginated[workrequest.WorkRequest], error) {
	f, err := s.filter(in)
	if err != nil {
		return kernel.Paginated[workrequest.WorkRequest]{}, err
	}
	f.AssignedContractorID = actor.UserID
	return s.requests.List(ctx, f, s.page(in.PaginationOptions))
}

// Update edits the descriptive fields. Status only changes through TransitionStatus.
func (s *RequestService) Update(ctx context.Context, actor kernel.Actor, id workrequest.ID, in UpdateRequestInput) (*workrequest.WorkRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.CanBeManagedBy(actor) {
		return nil, market.Forbidden("only the owner or an admin can edit this request")
	}
	if req.Status.IsTerminal() {
		return nil, market.InvalidState(fmt.Sprintf("cannot edit a %s request", req.Status))
	}

	if in.Title != nil {
		req.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		req.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		c, err := workrequest.ParseCategory(*in.Category)
		if err != nil {
			return nil, err
		}
		req.Category = c
	}
	if in.City != nil {
		req.City = strings.TrimSpace(*in.City)
	}
	if in.State != nil {
		req.State = strings.TrimSpace(*in.State)
	}
	req.Location = patch(req.Location, in.Location)
	req.Pincode = patch(req.Pincode, in.Pincode)
	req.RequiredSkills = patch(req.RequiredSkills, in.RequiredSkills)
	if in.EstimatedDurationDays != nil {
		req.EstimatedDurationDays = in.EstimatedDurationDays
	}
	if in.PreferredStartDate != nil {
		req.PreferredStartDate = in.PreferredStartDate
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	req.UpdatedAt = s.now().UTC()
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// TransitionStatus moves a request through the state table. The owner, the
// assigned contractor or an admin may do so; only the owner or an admin may
// name a contractor.
func (s *RequestService) TransitionStatus(ctx context.Context, actor kernel.Actor, id workrequest.ID, in TransitionInput) (*workrequest.WorkRequest, error) {
	to, err := workrequest.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.CanChangeStatus(actor) {
		return nil, market.Forbidden("not allowed to change the status of this request")
	}

	var contractor *kernel.UserID
	if to == workrequest.StatusInProgress && in.AssignedContractorID != nil && !in.AssignedContractorID.IsEmpty() {
		if !req.CanBeManagedBy(actor) {
			return nil, market.Forbidden("only the owner or an admin can assign a contractor")
		}
		if err := s.checkContractor(ctx, *in.AssignedContractorID); err != nil {
			return nil, err
		}
		contractor = in.AssignedContractorID
	}

	from := req.Status
	if err := req.Transition(to, contractor, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.requests.UpdateStatus(ctx, req, from); err != nil {
		return nil, err
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"request_id": req.ID,
		"from":       from,
		"to":         to,
		"actor_id":   actor.UserID,
	}).Info("Work request status changed")

	return req, nil
}

func (s *RequestService) checkContractor(ctx context.Context, id kernel.UserID) error {
	if id == "" {
		return market.Validation("assigned_contractor_id is empty")
	}
	if s.users == nil {
		return nil
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errx.IsCode(err, user.CodeNotFound) {
			return market.Validation("assigned contractor does not exist").WithDetail("user_id", id.String())
		}
		return err
	}
	if u.Role != kernel.RoleContractor || !u.CanLogin() {
		return market.Validation("assigned user is not an active contractor").WithDetail("user_id", id.String())
	}
	return nil
}

// Delete removes a request and its bids. In-flight and completed work is kept.
func (s *RequestService) Delete(ctx context.Context, actor kernel.Actor, id workrequest.ID) error {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !req.CanBeManagedBy(actor) {
		return market.Forbidden("only the owner or an admin can delete this request")
	}
	if !req.CanBeDeleted() {
		return market.InvalidState(fmt.Sprintf("cannot delete a %s request", req.Status))
	}

	if err := s.requests.Delete(ctx, id, req.Status); err != nil {
		return err
	}

	if s.files != nil && len(req.Images) > 0 {
		if err := s.files.DeletePrefix(ctx, imageDir(id)); err != nil {
			logx.WithContext(ctx).WithError(err).WithField("request_id", id).Warn("Failed to remove request images")
		}
	}

	logx.WithContext(ctx).WithFields(logx.Fields{"request_id": id, "actor_id": actor.UserID}).Info("Work request deleted")
	return nil
}

func imageDir(id workrequest.ID) string {
	return path.Join("requests", id.String())
}

// AttachImage stores an image under requests/{id}/{uuid}{ext} and appends its path.
func (s *RequestService) AttachImage(ctx context.Context, actor kernel.Actor, id workrequest.ID, img ImageUpload) (*workrequest.WorkRequest, error) {
	if s.files == nil {
		return nil, errx.New("image storage is not configured", errx.TypeInternal)
	}

	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsOwnedBy(actor.UserID) {
		return nil, market.Forbidden("only the owner can add images")
	}

	ext := strings.ToLower(path.Ext(img.Filename))
	if !allowedImageExt[ext] {
		return nil, market.Validation("unsupported image type").WithDetail("extension", ext)
	}
	if img.Size <= 0 || img.Size > s.maxImageBytes {
		return nil, market.Validation(fmt.Sprintf("image must be between 1 and %d bytes", s.maxImageBytes))
	}

	contentType := img.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = fsx.ContentTypeFor(img.Filename)
	}

	stored := path.Join(imageDir(id), uuid.NewString()+ext)
	if err := s.files.WriteFileStream(ctx, stored, io.LimitReader(img.Body, s.maxImageBytes), contentType); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.requests.AppendImage(ctx, id, stored, now); err != nil {
		if delErr := s.files.DeleteFile(ctx, stored); delErr != nil {
			logx.WithContext(ctx).WithError(delErr).WithField("path", stored).Warn("Failed to remove orphaned image")
		}
		return nil, err
	}
	req.AddImage(stored, now)

	return req, nil
}

// OpenImage streams a stored image of a request.
func (s *RequestService) OpenImage(ctx context.Context, id workrequest.ID, name string) (io.ReadCloser, fsx.FileInfo, error) {
	if s.files == nil {
		return nil, fsx.FileInfo{}, errx.New("image storage is not configured", errx.TypeInternal)
	}
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, fsx.FileInfo{}, err
	}
	want := path.Join(imageDir(id), name)
	for _, p := range req.Images {
		if p == want {
			return s.files.ReadFileStream(ctx, p)
		}
	}
	return nil, fsx.FileInfo{}, fsx.NotFound(want)
}

// patch returns next trimmed when set, current otherwise. An empty string clears the field.
func patch(current, next *string) *string {
	if next == nil {
		return current
	}
	return ptrx.TrimmedOrNil(next)
}
