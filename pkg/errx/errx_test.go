package errx_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	_ "github.com/Abraxas-365/contractorconnect/pkg/iam"
	_ "github.com/Abraxas-365/contractorconnect/pkg/iam/auth"
	_ "github.com/Abraxas-365/contractorconnect/pkg/iam/otp"
	_ "github.com/Abraxas-365/contractorconnect/pkg/iam/user"
	_ "github.com/Abraxas-365/contractorconnect/pkg/market"
	_ "github.com/Abraxas-365/contractorconnect/pkg/notifx"
)

var testErrors = errx.NewRegistry("TESTX")

var (
	codeMissing = testErrors.Register("MISSING", errx.TypeNotFound, 0, "Thing not found")
	codeTooMany = testErrors.Register("TOO_MANY", errx.TypeRateLimited, http.StatusTooManyRequests, "Slow down")
)

// --- Error tests ---

func TestNew_DefaultsFromType(t *testing.T) {
	cases := map[errx.Type]int{
		errx.TypeValidation:    400,
		errx.TypeAuthorization: 401,
		errx.TypeForbidden:     403,
		errx.TypeNotFound:      404,
		errx.TypeConflict:      409,
		errx.TypeBusiness:      422,
		errx.TypeRateLimited:   429,
		errx.TypeInternal:      500,
		errx.TypeExternal:      502,
		errx.Type("ODD"):       500,
	}
	for typ, want := range cases {
		if got := errx.New("x", typ).HTTPStatus; got != want {
			t.Fatalf("%s: expected %d, got %d", typ, want, got)
		}
	}
}

func TestWrap_KeepsCodeAndCopiesDetails(t *testing.T) {
	inner := testErrors.New(codeMissing).WithDetail("id", "r-1")
	outer := errx.Wrap(inner, "loading request", errx.TypeInternal).WithDetail("layer", "repo")

	if outer.Code != codeMissing.Code || outer.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected inner code and status, got %s %d", outer.Code, outer.HTTPStatus)
	}
	if outer.Details["id"] != "r-1" {
		t.Fatalf("expected inherited detail, got %v", outer.Details)
	}
	if _, leaked := inner.Details["layer"]; leaked {
		t.Fatal("details added to the wrapper must not leak into the cause")
	}
	if !errors.Is(outer, inner) || !errx.IsCode(outer, codeMissing) {
		t.Fatal("expected the cause to stay reachable")
	}

	plain := errx.Wrap(errors.New("dial tcp: refused"), "db down", errx.TypeExternal)
	if plain.Code != "EXTERNAL" || plain.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("unexpected wrap of a plain error: %+v", plain)
	}
	if errx.Wrap(nil, "x", errx.TypeInternal) != nil {
		t.Fatal("wrapping nil must return nil")
	}
}

func TestIsCode_WalksChain(t *testing.T) {
	err := fmt.Errorf("handler: %w", errx.Wrap(testErrors.New(codeTooMany), "issue", errx.TypeInternal))
	if !errx.IsCode(err, codeTooMany) {
		t.Fatal("expected code through fmt and errx wrapping")
	}
	if errx.IsCode(err, codeMissing) || errx.IsCode(nil, codeMissing) {
		t.Fatal("unexpected match")
	}
}

// --- HTTP tests ---

func TestFromError(t *testing.T) {
	e := errx.FromError(errors.New("pq: connection reset"))
	if e.HTTPStatus != 500 || e.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected mapping %+v", e)
	}
	if strings.Contains(e.Message, "pq") {
		t.Fatal("the cause must not reach the client message")
	}

	known := testErrors.New(codeMissing).WithDetail("id", "b-9")
	resp := errx.FromError(fmt.Errorf("wrapped: %w", known)).ToHTTPResponse("req-1")
	if resp.Code != codeMissing.Code || resp.Status != 404 || resp.RequestID != "req-1" || resp.Details["id"] != "b-9" {
		t.Fatalf("unexpected response %+v", resp)
	}

	if errx.FromError(nil) != nil {
		t.Fatal("expected nil for nil")
	}
}

// --- Registry tests ---

func TestRegistry_LookupAndDuplicates(t *testing.T) {
	if ec, ok := testErrors.Get("MISSING"); !ok || ec != codeMissing {
		t.Fatal("expected lookup by short name")
	}
	if codeMissing.Code != "TESTX_MISSING" {
		t.Fatalf("unexpected full code %s", codeMissing.Code)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected duplicate registration to panic")
		}
	}()
	testErrors.Register("MISSING", errx.TypeNotFound, 404, "again")
}

func TestCatalogue_CodesAreUniqueAndConsistent(t *testing.T) {
	seen := map[string]string{}
	for _, r := range errx.Registries() {
		for _, ec := range r.Codes() {
			if !strings.HasPrefix(ec.Code, r.Prefix()+"_") {
				t.Fatalf("%s is missing its registry prefix %s", ec.Code, r.Prefix())
			}
			if prev, dup := seen[ec.Code]; dup {
				t.Fatalf("%s registered by both %s and %s", ec.Code, prev, r.Prefix())
			}
			seen[ec.Code] = r.Prefix()
			if ec.HTTPStatus < 400 || ec.HTTPStatus > 599 {
				t.Fatalf("%s has non-error status %d", ec.Code, ec.HTTPStatus)
			}
			if ec.Message == "" {
				t.Fatalf("%s has no message", ec.Code)
			}
		}
	}
	for _, want := range []string{"MARKET_BID_NOT_FOUND", "OTP_RATE_LIMITED", "IAM_UNAUTHORIZED", "USER_NOT_FOUND"} {
		if _, ok := seen[want]; !ok {
			t.Fatalf("expected %s in the catalogue", want)
		}
	}
}
