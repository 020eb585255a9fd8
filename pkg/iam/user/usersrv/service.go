package usersrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/Abraxas-365/contractorconnect/pkg/ptrx"
	"github.com/google/uuid"
)

// CreateInput is what registration collects before the OTP is verified.
type CreateInput struct {
	PhoneNumber string      `json:"phone_number"`
	Email       string      `json:"email,omitempty"`
	Name        string      `json:"name"`
	Role        kernel.Role `json:"role"`
}

// UpdateProfileInput patches a profile; nil fields are left alone.
type UpdateProfileInput struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	ProfileImage *string `json:"profile_image,omitempty"`
	Description  *string `json:"description,omitempty"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	Pincode      *string `json:"pincode,omitempty"`
}

type UserService struct {
	repo user.Repository
	now  func() time.Time
}

func NewUserService(repo user.Repository) *UserService {
	return &UserService{repo: repo, now: time.Now}
}

func (s *UserService) GetByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByIdentifier looks a user up by email when the identifier contains '@',
// by phone number otherwise.
func (s *UserService) FindByIdentifier(ctx context.Context, identifier string) (*user.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return s.repo.FindByEmail(ctx, strings.ToLower(identifier))
	}
	return s.repo.FindByPhone(ctx, user.NormalizePhone(identifier))
}

// CreatePending stores a new, unverified account.
func (s *UserService) CreatePending(ctx context.Context, in CreateInput) (*user.User, error) {
	phone := user.NormalizePhone(in.PhoneNumber)
	if err := user.ValidatePhone(phone); err != nil {
		return nil, err
	}
	if err := user.ValidateName(in.Name); err != nil {
		return nil, err
	}
	if in.Role != kernel.RoleContractor && in.Role != kernel.RoleSociety {
		return nil, user.ErrValidation("role must be contractor or society").WithDetail("field", "role")
	}

	var email *string
	if e := strings.ToLower(strings.TrimSpace(in.Email)); e != "" {
		if err := user.ValidateEmail(e); err != nil {
			return nil, err
		}
		email = ptrx.String(e)
	}

	now := s.now()
	u := &user.User{
		ID:          kernel.NewUserID(uuid.NewString()),
		PhoneNumber: phone,
		Email:       email,
		Role:        in.Role,
		Status:      user.StatusPending,
		Name:        strings.TrimSpace(in.Name),
		IsVerified:  false,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"user_id": u.ID,
		"role":    u.Role,
	}).Info("user registered, awaiting OTP verification")
	return u, nil
}

// MarkVerified activates a pending account after its registration OTP.
func (s *UserService) MarkVerified(ctx context.Context, u *user.User) error {
	if u.IsVerified {
		return nil
	}
	u.MarkVerified(s.now())
	return s.repo.Update(ctx, u)
}

// RecordLogin stamps last_login_at.
func (s *UserService) RecordLogin(ctx context.Context, u *user.User) error {
	now := s.now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	return s.repo.Update(ctx, u)
}

// UpdateProfile applies a patch to the user's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, id kernel.UserID, in UpdateProfileInput) (*user.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := user.ValidateName(*in.Name); err != nil {
			return nil, err
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*in.Email))
		if e == "" {
			u.Email = nil
		} else {
			if err := user.ValidateEmail(e); err != nil {
				return nil, err
			}
			u.Email = ptrx.String(e)
		}
	}
	if in.Pincode != nil && *in.Pincode != "" {
		if err := user.ValidatePincode(*in.Pincode); err != nil {
			return nil, err
		}
	}

	u.ProfileImage = patch(u.ProfileImage, in.ProfileImage)
	u.Description = patch(u.Description, in.Description)
	u.Address = patch(u.Address, in.Address)
	u.City = patch(u.City, in.City)
	u.State = patch(u.State, in.State)
	u.Pincode = patch(u.Pincode, in.Pincode)
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Deactivate soft-deletes the account. Existing tokens stop working because
// the auth middleware no longer finds an active user.
func (s *UserService) Deactivate(ctx context.Context, id kernel.UserID) error {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return nil
	}
	u.Deactivate(s.now())
	if err := s.repo.Update(ctx, u); err != nil {
		return errx.Wrap(err, "failed to deactivate user", errx.TypeInternal)
	}

	logx.WithField("user_id", u.ID).Info("user deactivated")
	return nil
}

// patch returns next when set, clearing the field on an empty string.
func patch(current, next *string) *string {
	if next == nil {
		return current
	}
	if v := strings.TrimSpace(*next); v != "" {
		return ptrx.String(v)
	}
	return nil
}
