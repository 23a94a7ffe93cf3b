package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/neustalgic-grooves/internal/model"
	"github.com/iliyamo/neustalgic-grooves/internal/payment"
	"github.com/iliyamo/neustalgic-grooves/internal/queue"
	"github.com/iliyamo/neustalgic-grooves/internal/store"
	"github.com/iliyamo/neustalgic-grooves/internal/store/memory"
)

var fixedNow = time.Date(2024, 5, 1, 17, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.PaymentReconciledEvent
	err    error
}

func (n *recordingNotifier) PublishPaymentReconciled(_ context.Context, ev queue.PaymentReconciledEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func setup(t *testing.T) (*memory.Store, *Reconciler, *recordingNotifier) {
	t.Helper()
	s := memory.New()
	err := s.CreateStudent(context.Background(), &model.Student{
		ID: "s1", FirstName: "Marcus", LastName: "Lee", Email: "marcus@example.com", IsActive: true,
	})
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}
	n := &recordingNotifier{}
	return s, New(s, WithNotifier(n), WithClock(func() time.Time { return fixedNow })), n
}

func lessonEvent(id, pi, student string, amount int64) payment.Event {
	return payment.Event{
		ID: id, Kind: payment.KindSucceeded, PaymentID: pi, Amount: amount, Currency: "usd",
		Metadata: map[string]string{
			"type": "private-lesson", "studentId": student, "lessonDate": "2024-05-01", "lessonTime": "17:00",
		},
	}
}

func sponsorEvent(id, pi, kind, student string, amount int64) payment.Event {
	return payment.Event{
		ID: id, Kind: payment.KindSucceeded, PaymentID: pi, Amount: amount, Currency: "usd",
		Metadata: map[string]string{
			"type": "sponsorship", "sponsorshipType": kind, "sponsorName": "Ana Ruiz",
			"sponsorEmail": "ana@example.com", "studentId": student,
		},
	}
}

func mustStudent(t *testing.T, s *memory.Store, id string) *model.Student {
	t.Helper()
	st, err := s.GetStudent(context.Background(), id)
	if err != nil {
		t.Fatalf("get student %s: %v", id, err)
	}
	return st
}

func TestPrivateLessonApplied(t *testing.T) {
	s, r, n := setup(t)

	out, err := r.Apply(context.Background(), lessonEvent("evt_1", "pi_1", "s1", 5000))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out != OutcomeApplied {
		t.Fatalf("expected applied, got %s", out)
	}
	st := mustStudent(t, s, "s1")
	if st.PaymentStatus != model.PaymentPaid {
		t.Fatalf("expected paid, got %s", st.PaymentStatus)
	}
	if len(st.PaymentHistory) != 1 {
		t.Fatalf("expected one payment, got %d", len(st.PaymentHistory))
	}
	rec := st.PaymentHistory[0]
	if !rec.Amount.Equal(decimal.NewFromInt(50)) || rec.ExternalPaymentID != "pi_1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Description != "Private lesson - 2024-05-01 17:00" || !rec.Date.Equal(fixedNow) {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(n.events) != 1 || n.events[0].Outcome != string(OutcomeApplied) || n.events[0].StudentID != "s1" {
		t.Fatalf("unexpected notifications: %+v", n.events)
	}
}

func TestRedeliveryIsDuplicate(t *testing.T) {
	s, r, n := setup(t)
	ev := lessonEvent("evt_1", "pi_1", "s1", 5000)
	if _, err := r.Apply(context.Background(), ev); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	out, err := r.Apply(context.Background(), ev)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if out != OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %s", out)
	}
	if got := len(mustStudent(t, s, "s1").PaymentHistory); got != 1 {
		t.Fatalf("expected one payment after redelivery, got %d", got)
	}
	if len(n.events) != 1 {
		t.Fatalf("duplicate should not notify, got %d notifications", len(n.events))
	}
}

func TestSamePaymentUnderNewEventIDIsDuplicate(t *testing.T) {
	s, r, _ := setup(t)
	if _, err := r.Apply(context.Background(), lessonEvent("evt_1", "pi_1", "s1", 5000)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	out, err := r.Apply(context.Background(), lessonEvent("evt_1b", "pi_1", "s1", 5000))
	if err != nil || out != OutcomeDuplicate {
		t.Fatalf("expected duplicate, got %s %v", out, err)
	}
	if got := len(mustStudent(t, s, "s1").PaymentHistory); got != 1 {
		t.Fatalf("expected one payment, got %d", got)
	}
}

func TestConcurrentRedeliveryAppliesOnce(t *testing.T) {
	s, r, _ := setup(t)
	ev := lessonEvent("evt_1", "pi_1", "s1", 5000)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.Apply(context.Background(), ev)
			if err != nil {
				t.Errorf("apply: %v", err)
				return
			}
			if out == OutcomeApplied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if applied != 1 {
		t.Fatalf("expected exactly one applied, got %d", applied)
	}
	if got := len(mustStudent(t, s, "s1").PaymentHistory); got != 1 {
		t.Fatalf("expected one payment, got %d", got)
	}
}

func TestMissingStudentIsTerminalAndUnclaimed(t *testing.T) {
	s, r, n := setup(t)

	_, err := r.Apply(context.Background(), lessonEvent("evt_3", "pi_3", "ghost", 5000))
	var rnf *ReferenceNotFoundError
	if !errors.As(err, &rnf) || rnf.ID != "ghost" {
		t.Fatalf("expected ReferenceNotFoundError, got %v", err)
	}
	if !IsTerminal(err) || IsRetryable(err) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if len(s.ProcessedEvents()) != 0 {
		t.Fatalf("claim should be rolled back, got %+v", s.ProcessedEvents())
	}
	if len(n.events) != 0 {
		t.Fatalf("nothing should be published, got %+v", n.events)
	}
}

func TestSponsorshipForStudent(t *testing.T) {
	s, r, _ := setup(t)

	out, err := r.Apply(context.Background(), sponsorEvent("evt_4", "pi_4", "student-sponsor", "s1", 12000))
	if err != nil || out != OutcomeApplied {
		t.Fatalf("apply: %s %v", out, err)
	}
	sp, err := s.GetSponsorByPaymentID(context.Background(), "pi_4")
	if err != nil {
		t.Fatalf("get sponsor: %v", err)
	}
	if sp.PaymentStatus != model.SponsorPaymentCompleted || !sp.Amount.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("unexpected sponsor: %+v", sp)
	}
	if sp.SponsoredStudentID != "s1" || sp.Name != "Ana Ruiz" {
		t.Fatalf("unexpected sponsor: %+v", sp)
	}
	st := mustStudent(t, s, "s1")
	if st.SponsorID != sp.ID || st.ScholarshipStatus != model.ScholarshipApproved {
		t.Fatalf("student not attached: %+v", st)
	}
	if !st.ScholarshipAmount.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected scholarship amount 120, got %s", st.ScholarshipAmount)
	}
}

func TestSponsorshipWithoutStudent(t *testing.T) {
	s, r, _ := setup(t)

	out, err := r.Apply(context.Background(), sponsorEvent("evt_5", "pi_5", "general-donation", "", 2500))
	if err != nil || out != OutcomeApplied {
		t.Fatalf("apply: %s %v", out, err)
	}
	sp, err := s.GetSponsorByPaymentID(context.Background(), "pi_5")
	if err != nil {
		t.Fatalf("get sponsor: %v", err)
	}
	if sp.SponsoredStudentID != "" || !sp.Amount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected sponsor: %+v", sp)
	}
}

func TestKitForNamedStudentKeepsLink(t *testing.T) {
	s, r, _ := setup(t)

	out, err := r.Apply(context.Background(), sponsorEvent("evt_7", "pi_7", "dance-bag-kit", "s1", 4000))
	if err != nil || out != OutcomeApplied {
		t.Fatalf("apply: %s %v", out, err)
	}
	sp, err := s.GetSponsorByPaymentID(context.Background(), "pi_7")
	if err != nil {
		t.Fatalf("get sponsor: %v", err)
	}
	if sp.SponsoredStudentID != "s1" {
		t.Fatalf("expected kit to name s1, got %+v", sp)
	}
	if st := mustStudent(t, s, "s1"); st.SponsorID != "" || st.ScholarshipStatus != model.ScholarshipNone {
		t.Fatalf("only student-sponsor changes the student: %+v", st)
	}
}

func TestSponsorshipForMissingStudentRollsBack(t *testing.T) {
	s, r, _ := setup(t)

	_, err := r.Apply(context.Background(), sponsorEvent("evt_6", "pi_6", "student-sponsor", "ghost", 2500))
	if !IsTerminal(err) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if len(s.ListSponsors()) != 0 {
		t.Fatalf("no sponsor should be created, got %+v", s.ListSponsors())
	}
	if len(s.ProcessedEvents()) != 0 {
		t.Fatal("claim should be rolled back")
	}
}

func TestFailedSponsorship(t *testing.T) {
	tests := []struct {
		name   string
		seed   bool
		want   Outcome
		status model.SponsorPaymentStatus
	}{
		{"marks existing sponsor failed", true, OutcomeApplied, model.SponsorPaymentFailed},
		{"no prior sponsor is a no-op", false, OutcomeNoMatch, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, r, _ := setup(t)
			if tt.seed {
				if _, err := r.Apply(context.Background(), sponsorEvent("evt_ok", "pi_2", "dance-bag-kit", "", 4000)); err != nil {
					t.Fatalf("seed sponsor: %v", err)
				}
			}
			ev := payment.Event{
				ID: "evt_2", Kind: payment.KindFailed, PaymentID: "pi_2",
				Metadata: map[string]string{"type": "sponsorship"},
			}
			out, err := r.Apply(context.Background(), ev)
			if err != nil || out != tt.want {
				t.Fatalf("expected %s, got %s %v", tt.want, out, err)
			}
			if !tt.seed {
				if len(s.ListSponsors()) != 0 {
					t.Fatal("failure must not create a sponsor")
				}
				return
			}
			sp, err := s.GetSponsorByPaymentID(context.Background(), "pi_2")
			if err != nil {
				t.Fatalf("get sponsor: %v", err)
			}
			if sp.PaymentStatus != tt.status {
				t.Fatalf("expected %s, got %s", tt.status, sp.PaymentStatus)
			}
		})
	}
}

func TestIgnoredEvents(t *testing.T) {
	tests := []payment.Event{
		{ID: "evt_a", Kind: "customer.created"},
		{ID: "evt_b", Kind: payment.KindSucceeded, PaymentID: "pi_b", Metadata: map[string]string{"type": "merch"}},
		{ID: "evt_c", Kind: payment.KindFailed, PaymentID: "pi_c", Metadata: map[string]string{"type": "private-lesson"}},
	}
	for _, ev := range tests {
		t.Run(ev.ID, func(t *testing.T) {
			s, r, _ := setup(t)
			out, err := r.Apply(context.Background(), ev)
			if err != nil || out != OutcomeIgnored {
				t.Fatalf("expected ignored, got %s %v", out, err)
			}
			if st := mustStudent(t, s, "s1"); st.PaymentStatus != model.PaymentPending {
				t.Fatalf("student should be untouched: %+v", st)
			}
		})
	}
}

func TestMissingMetadataIsAcknowledged(t *testing.T) {
	noEmail := sponsorEvent("evt_v4", "pi_v4", "general-donation", "", 5000)
	delete(noEmail.Metadata, "sponsorEmail")

	tests := []struct {
		name string
		ev   payment.Event
	}{
		{"lesson without student", lessonEvent("evt_v1", "pi_v1", "", 5000)},
		{"sponsorship with unknown type", sponsorEvent("evt_v2", "pi_v2", "yacht", "", 5000)},
		{"zero amount", lessonEvent("evt_v3", "pi_v3", "s1", 0)},
		{"sponsorship without email", noEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, r, _ := setup(t)
			_, err := r.Apply(context.Background(), tt.ev)
			if !IsTerminal(err) || IsRetryable(err) {
				t.Fatalf("expected terminal error, got %v", err)
			}
			if got := TerminalOutcome(err); got != OutcomeInvalidMetadata {
				t.Fatalf("expected %s, got %s", OutcomeInvalidMetadata, got)
			}
			if len(s.ProcessedEvents()) != 0 {
				t.Fatal("nothing should be claimed")
			}
			if len(s.ListSponsors()) != 0 {
				t.Fatal("no sponsor should be created")
			}
		})
	}
}

func TestMissingPaymentIDIsValidationError(t *testing.T) {
	_, r, _ := setup(t)
	_, err := r.Apply(context.Background(), lessonEvent("evt_v5", "", "s1", 5000))
	if !payment.IsValidation(err) || IsTerminal(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// brokenLedger fails every claim, as a lost database connection would.
type brokenLedger struct{}

func (brokenLedger) WithinTx(ctx context.Context, fn func(store.LedgerTx) error) error {
	return fn(brokenTx{})
}

type brokenTx struct{ store.LedgerTx }

func (brokenTx) ClaimEvent(context.Context, model.ProcessedEvent) error {
	return errors.New("driver: bad connection")
}

func TestStoreFailureIsRetryable(t *testing.T) {
	r := New(brokenLedger{})
	_, err := r.Apply(context.Background(), lessonEvent("evt_1", "pi_1", "s1", 5000))
	if !IsRetryable(err) || IsTerminal(err) {
		t.Fatalf("expected retryable store error, got %v", err)
	}
}

func TestNotifierFailureDoesNotChangeOutcome(t *testing.T) {
	s, _, _ := setup(t)
	r := New(s, WithNotifier(&recordingNotifier{err: errors.New("broker down")}))
	out, err := r.Apply(context.Background(), lessonEvent("evt_1", "pi_1", "s1", 5000))
	if err != nil || out != OutcomeApplied {
		t.Fatalf("expected applied, got %s %v", out, err)
	}
}
