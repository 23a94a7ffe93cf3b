package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

const succeededBody = `{
  "id": "evt_1",
  "object": "event",
  "type": "payment_intent.succeeded",
  "data": {"object": {
    "id": "pi_1", "object": "payment_intent", "amount": 5000, "currency": "usd",
    "metadata": {"type": "private-lesson", "studentId": "s1", "lessonDate": "2024-06-01", "lessonTime": "10:00"}
  }}
}`

func TestVerifyAcceptsSignedEvent(t *testing.T) {
	body := []byte(succeededBody)
	ev, err := NewVerifier(testSecret).Verify(body, sign(body, testSecret, time.Now()))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ev.ID != "evt_1" || ev.Kind != KindSucceeded || ev.PaymentID != "pi_1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Amount != 5000 || ev.Currency != "usd" {
		t.Fatalf("unexpected amount: %d %s", ev.Amount, ev.Currency)
	}
	if ev.Purpose() != PurposePrivateLesson || ev.Meta(MetaStudentID) != "s1" {
		t.Fatalf("unexpected metadata: %v", ev.Metadata)
	}
	if !ev.MajorAmount().Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected 50, got %s", ev.MajorAmount())
	}
}

func TestVerifyRejectsBadSignatures(t *testing.T) {
	body := []byte(succeededBody)
	tests := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"garbage header", "nonsense"},
		{"wrong secret", sign(body, "whsec_other", time.Now())},
		{"stale timestamp", sign(body, testSecret, time.Now().Add(-time.Hour))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVerifier(testSecret).Verify(body, tt.header)
			if !IsAuthentication(err) {
				t.Fatalf("expected authentication error, got %v", err)
			}
		})
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	body := []byte(succeededBody)
	header := sign(body, testSecret, time.Now())
	tampered := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":1}}}`)
	if _, err := NewVerifier(testSecret).Verify(tampered, header); !IsAuthentication(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestVerifyRejectsMissingIntentID(t *testing.T) {
	body := []byte(`{"id":"evt_9","object":"event","type":"payment_intent.succeeded","data":{"object":{"object":"payment_intent","amount":100}}}`)
	_, err := NewVerifier(testSecret).Verify(body, sign(body, testSecret, time.Now()))
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyPassesOtherKindsThrough(t *testing.T) {
	body := []byte(`{"id":"evt_c","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)
	ev, err := NewVerifier(testSecret).Verify(body, sign(body, testSecret, time.Now()))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ev.Kind != "customer.created" || ev.PaymentID != "" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestPurposeFallback(t *testing.T) {
	ev := Event{Metadata: map[string]string{MetaPurposeFallback: PurposeSponsorship}}
	if ev.Purpose() != PurposeSponsorship {
		t.Fatalf("expected fallback purpose, got %q", ev.Purpose())
	}
}

func TestMajorToMinor(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"50", 5000, false},
		{"12.34", 1234, false},
		{"0.5", 50, false},
		{"1.005", 0, true},
	}
	for _, tt := range tests {
		got, err := MajorToMinor(decimal.RequireFromString(tt.in))
		if (err != nil) != tt.wantErr {
			t.Fatalf("MajorToMinor(%s) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("MajorToMinor(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

type fakeIntentAPI struct {
	params *stripe.PaymentIntentParams
	err    error
}

func (f *fakeIntentAPI) New(p *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.PaymentIntent{ID: "pi_new", ClientSecret: "pi_new_secret"}, nil
}

func TestCreateLessonIntent(t *testing.T) {
	api := &fakeIntentAPI{}
	in, err := NewIntentsWithAPI(api, "USD").CreateLessonIntent(context.Background(), LessonRequest{
		Amount: decimal.RequireFromString("75.50"), StudentID: "s1", LessonDate: "2024-06-01", LessonTime: "10:00",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if in.PaymentID != "pi_new" || in.ClientSecret != "pi_new_secret" {
		t.Fatalf("unexpected intent: %+v", in)
	}
	if *api.params.Amount != 7550 || *api.params.Currency != "usd" {
		t.Fatalf("unexpected params: %d %s", *api.params.Amount, *api.params.Currency)
	}
	if api.params.Metadata[MetaPurpose] != PurposePrivateLesson || api.params.Metadata[MetaStudentID] != "s1" {
		t.Fatalf("unexpected metadata: %v", api.params.Metadata)
	}
}

func TestCreateSponsorshipIntentOmitsEmptyMetadata(t *testing.T) {
	api := &fakeIntentAPI{}
	_, err := NewIntentsWithAPI(api, "").CreateSponsorshipIntent(context.Background(), SponsorshipRequest{
		Amount: decimal.NewFromInt(100), SponsorshipType: "general-donation", SponsorName: "Ana", SponsorEmail: "ana@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := api.params.Metadata[MetaStudentID]; ok {
		t.Fatalf("empty student id should not be sent: %v", api.params.Metadata)
	}
	if api.params.Metadata[MetaPurpose] != PurposeSponsorship {
		t.Fatalf("unexpected purpose: %v", api.params.Metadata)
	}
}

func TestCreateIntentRejectsBadAmounts(t *testing.T) {
	api := &fakeIntentAPI{}
	intents := NewIntentsWithAPI(api, "usd")
	for _, amt := range []string{"0", "-5", "1.001"} {
		_, err := intents.CreateLessonIntent(context.Background(), LessonRequest{Amount: decimal.RequireFromString(amt)})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %s: expected ErrInvalidAmount, got %v", amt, err)
		}
	}
	if api.params != nil {
		t.Fatal("api should not be called for invalid amounts")
	}
}

func TestCreateIntentPropagatesAPIError(t *testing.T) {
	boom := errors.New("card_declined")
	_, err := NewIntentsWithAPI(&fakeIntentAPI{err: boom}, "usd").CreateLessonIntent(context.Background(),
		LessonRequest{Amount: decimal.NewFromInt(10)})
	if !errors.Is(err, boom) {
		t.Fatalf("expected api error, got %v", err)
	}
}
