package usersrv_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/contractorconnect/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/contractorconnect/pkg/kernel"
	"github.com/Abraxas-365/contractorconnect/pkg/ptrx"
)

func newService() *usersrv.UserService {
	return usersrv.NewUserService(userinfra.NewMemoryUserRepository())
}

func create(t *testing.T, svc *usersrv.UserService, in usersrv.CreateInput) *user.User {
	t.Helper()
	u, err := svc.CreatePending(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return u
}

// --- CreatePending tests ---

func TestCreatePending_Normalizes(t *testing.T) {
	svc := newService()
	u := create(t, svc, usersrv.CreateInput{
		PhoneNumber: " +91 98765-43210 ",
		Email:       "Ops@BuildRight.IN",
		Name:        "  BuildRight Contractors ",
		Role:        kernel.RoleContractor,
	})

	if u.PhoneNumber != "+919876543210" {
		t.Fatalf("expected normalized phone, got %q", u.PhoneNumber)
	}
	if ptrx.Value(u.Email) != "ops@buildright.in" {
		t.Fatalf("expected lowercased email, got %v", u.Email)
	}
	if u.Name != "BuildRight Contractors" {
		t.Fatalf("expected trimmed name, got %q", u.Name)
	}
	if u.Status != user.StatusPending || u.IsVerified || !u.IsActive {
		t.Fatalf("expected pending active account, got %+v", u)
	}
}

func TestCreatePending_Validation(t *testing.T) {
	cases := []struct {
		name string
		in   usersrv.CreateInput
	}{
		{"short phone", usersrv.CreateInput{PhoneNumber: "12345", Name: "Green Park", Role: kernel.RoleSociety}},
		{"letters in phone", usersrv.CreateInput{PhoneNumber: "98765abcde", Name: "Green Park", Role: kernel.RoleSociety}},
		{"short name", usersrv.CreateInput{PhoneNumber: "9876543210", Name: "G", Role: kernel.RoleSociety}},
		{"bad email", usersrv.CreateInput{PhoneNumber: "9876543210", Email: "nope", Name: "Green Park", Role: kernel.RoleSociety}},
		{"admin self-registration", usersrv.CreateInput{PhoneNumber: "9876543210", Name: "Green Park", Role: kernel.RoleAdmin}},
		{"unknown role", usersrv.CreateInput{PhoneNumber: "9876543210", Name: "Green Park", Role: "plumber"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newService().CreatePending(context.Background(), tc.in)
			if !errx.IsCode(err, user.CodeValidation) {
				t.Fatalf("expected %s, got %v", user.CodeValidation.Code, err)
			}
		})
	}
}

func TestCreatePending_Duplicates(t *testing.T) {
	svc := newService()
	create(t, svc, usersrv.CreateInput{PhoneNumber: "9876543210", Email: "a@b.in", Name: "Green Park", Role: kernel.RoleSociety})

	_, err := svc.CreatePending(context.Background(), usersrv.CreateInput{PhoneNumber: "98765 43210", Name: "Other", Role: kernel.RoleContractor})
	if !errx.IsCode(err, user.CodeAlreadyExists) {
		t.Fatalf("expected duplicate phone to fail, got %v", err)
	}

	_, err = svc.CreatePending(context.Background(), usersrv.CreateInput{PhoneNumber: "9876500000", Email: "A@B.in", Name: "Other", Role: kernel.RoleContractor})
	if !errx.IsCode(err, user.CodeAlreadyExists) {
		t.Fatalf("expected duplicate email to fail, got %v", err)
	}
}

// --- Lookup tests ---

func TestFindByIdentifier(t *testing.T) {
	svc := newService()
	u := create(t, svc, usersrv.CreateInput{PhoneNumber: "9876543210", Email: "board@greenpark.in", Name: "Green Park", Role: kernel.RoleSociety})

	for _, id := range []string{"9876543210", " 98765-43210 ", "Board@GreenPark.in"} {
		got, err := svc.FindByIdentifier(context.Background(), id)
		if err != nil {
			t.Fatalf("lookup %q: %v", id, err)
		}
		if got.ID != u.ID {
			t.Fatalf("lookup %q found %s, want %s", id, got.ID, u.ID)
		}
	}

	if _, err := svc.FindByIdentifier(context.Background(), "nobody@example.com"); !errx.IsCode(err, user.CodeNotFound) {
		t.Fatalf("expected %s, got %v", user.CodeNotFound.Code, err)
	}
}

// --- Lifecycle tests ---

func TestMarkVerifiedAndRecordLogin(t *testing.T) {
	svc := newService()
	u := create(t, svc, usersrv.CreateInput{PhoneNumber: "9876543210", Name: "Green Park", Role: kernel.RoleSociety})

	if err := svc.MarkVerified(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RecordLogin(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := svc.GetByID(context.Background(), u.ID)
	if !stored.IsVerified || stored.Status != user.StatusActive || stored.LastLoginAt == nil {
		t.Fatalf("expected verified active user with a login stamp, got %+v", stored)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := newService()
	u := create(t, svc, usersrv.CreateInput{PhoneNumber: "9876543210", Email: "a@b.in", Name: "Green Park", Role: kernel.RoleSociety})

	updated, err := svc.UpdateProfile(context.Background(), u.ID, usersrv.UpdateProfileInput{
		City:    ptrx.To(" Pune "),
		Pincode: ptrx.To("411001"),
		Email:   ptrx.To(""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ptrx.Value(updated.City) != "Pune" || ptrx.Value(updated.Pincode) != "411001" {
		t.Fatalf("unexpected profile %+v", updated)
	}
	if updated.Email != nil {
		t.Fatal("expected empty email to clear the field")
	}
	if updated.Name != "Green Park" {
		t.Fatalf("expected untouched name, got %q", updated.Name)
	}

	if _, err := svc.UpdateProfile(context.Background(), u.ID, usersrv.UpdateProfileInput{Pincode: ptrx.To("41100")}); !errx.IsCode(err, user.CodeValidation) {
		t.Fatalf("expected bad pincode to fail, got %v", err)
	}
	if _, err := svc.UpdateProfile(context.Background(), "missing", usersrv.UpdateProfileInput{}); !errx.IsCode(err, user.CodeNotFound) {
		t.Fatalf("expected %s, got %v", user.CodeNotFound.Code, err)
	}
}

func TestDeactivate(t *testing.T) {
	svc := newService()
	u := create(t, svc, usersrv.CreateInput{PhoneNumber: "9876543210", Name: "Green Park", Role: kernel.RoleSociety})

	if err := svc.Deactivate(context.Background(), u.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// idempotent
	if err := svc.Deactivate(context.Background(), u.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := svc.GetByID(context.Background(), u.ID)
	if stored.CanLogin() || stored.Status != user.StatusInactive {
		t.Fatalf("expected deactivated account, got %+v", stored)
	}
}
