package user

import (
	"context"

	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
)

// Repository persists users. Lookups return ErrNotFound when nothing matches;
// Create returns ErrAlreadyExists on a duplicate phone or email.
type Repository interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
