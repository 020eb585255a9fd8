package notifxmsg91_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx"
	"github.com/Abraxas-365/contractorconnect/pkg/notifx/notifxmsg91"
)

func newServer(t *testing.T, respType string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authkey") != "key-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"type":"error","message":"bad key"}`))
			return
		}
		_ = json.NewDecoder(r.Body).Decode(seen)
		_, _ = w.Write([]byte(`{"type":"` + respType + `","request_id":"req-42","message":"ok"}`))
	}))
}

// --- Provider tests ---

func TestProvider_Success(t *testing.T) {
	seen := map[string]any{}
	srv := newServer(t, "success", &seen)
	defer srv.Close()

	p, err := notifxmsg91.NewProvider(config.MSG91Config{AuthKey: "key-1", SenderID: "CTRCTR", Route: "4", BaseURL: srv.URL}, "+91", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := p.Send(context.Background(), "9876543210", "123456", "login")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MessageID != "req-42" || res.Provider != "sms_msg91" {
		t.Fatalf("unexpected result %+v", res)
	}
	if seen["mobile"] != "919876543210" || seen["otp"] != "123456" || seen["sender"] != "CTRCTR" {
		t.Fatalf("unexpected payload %v", seen)
	}
}

func TestProvider_NonSuccessType(t *testing.T) {
	seen := map[string]any{}
	srv := newServer(t, "error", &seen)
	defer srv.Close()

	p, _ := notifxmsg91.NewProvider(config.MSG91Config{AuthKey: "key-1", BaseURL: srv.URL}, "+91", nil)
	_, err := p.Send(context.Background(), "9876543210", "123456", "login")
	if !errx.IsCode(err, notifx.ErrSendFailed) {
		t.Fatalf("expected send failed, got %v", err)
	}
}

func TestProvider_RequiresAuthKey(t *testing.T) {
	_, err := notifxmsg91.NewProvider(config.MSG91Config{}, "+91", nil)
	if !errx.IsCode(err, notifx.ErrProviderNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}

func TestMobile(t *testing.T) {
	if got := notifxmsg91.Mobile("+14155550000", "+91"); got != "14155550000" {
		t.Fatalf("got %q", got)
	}
	if got := notifxmsg91.Mobile("9876543210", "+91"); got != "919876543210" {
		t.Fatalf("got %q", got)
	}
}
