package otp_test

import (
	"testing"

	"github.com/Abraxas-365/contractorconnect/pkg/iam/otp"
)

func TestGenerateCode(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		for i := 0; i < 50; i++ {
			code, err := otp.GenerateCode(length)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(code) != length {
				t.Fatalf("expected length %d, got %q", length, code)
			}
			for _, c := range code {
				if c < '0' || c > '9' {
					t.Fatalf("non-numeric code %q", code)
				}
			}
		}
	}

	if _, err := otp.GenerateCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestParsePurpose(t *testing.T) {
	p, err := otp.ParsePurpose(" Login ")
	if err != nil || p != otp.PurposeLogin {
		t.Fatalf("got %q, %v", p, err)
	}
	if _, err := otp.ParsePurpose("password_reset"); err == nil {
		t.Fatal("expected error for unknown purpose")
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	cases := map[string]string{
		"+91 98765 43210":      "+919876543210",
		"+91-98765-43210":      "+919876543210",
		" +919876543210 ":      "+919876543210",
		"Asha@GreenPark.in":    "asha@greenpark.in",
		" ASHA@greenpark.in  ": "asha@greenpark.in",
	}
	for in, want := range cases {
		if got := otp.NormalizeIdentifier(in); got != want {
			t.Fatalf("NormalizeIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestChannelFor(t *testing.T) {
	if otp.ChannelFor("a@b.in") != otp.ChannelEmail {
		t.Fatal("expected email channel")
	}
	if otp.ChannelFor("+919876543210") != otp.ChannelSMS {
		t.Fatal("expected sms channel")
	}
}
