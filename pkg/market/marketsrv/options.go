package marketsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
)

// UserDirectory resolves users for checks that reach beyond the acting user,
// such as naming an assigned contractor. *usersrv.UserService satisfies it.
type UserDirectory interface {
	GetByID(ctx context.Context, id kernel.UserID) (*user.User, error)
}

type settings struct {
	now           func() time.Time
	users         UserDirectory
	maxImageBytes int64
}

func defaultSettings() settings {
	return settings{
		now:           time.Now,
		maxImageBytes: 5 << 20,
	}
}

type Option func(*settings)

// WithClock replaces time.Now. Tests use it to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithUserDirectory enables validation of contractors named in status changes.
func WithUserDirectory(users UserDirectory) Option {
	return func(s *settings) { s.users = users }
}

func WithMaxImageBytes(n int64) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxImageBytes = n
		}
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, o := range opts {
		o(&s)
	}
	return s
}
