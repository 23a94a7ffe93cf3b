package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/neustalgic-grooves/internal/model"
	"github.com/iliyamo/neustalgic-grooves/internal/store"
)

// tickingClock returns a clock that advances one minute per call so
// creation order is reflected in timestamps.
func tickingClock() func() time.Time {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func seedStudent(t *testing.T, s *Store, id, first, email string) {
	t.Helper()
	err := s.CreateStudent(context.Background(), &model.Student{
		ID:        id,
		FirstName: first,
		LastName:  "Dancer",
		Email:     email,
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create student %s: %v", id, err)
	}
}

func TestCreateStudentRejectsDuplicateEmail(t *testing.T) {
	s := New()
	seedStudent(t, s, "s1", "Marcus", "marcus@example.com")

	err := s.CreateStudent(context.Background(), &model.Student{Email: "MARCUS@example.com"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestListStudentsSearchAndPaging(t *testing.T) {
	s := New(WithClock(tickingClock()))
	seedStudent(t, s, "s1", "Marcus", "marcus@example.com")
	seedStudent(t, s, "s2", "Sofia", "sofia@example.com")
	seedStudent(t, s, "s3", "Jamal", "jamal@example.com")

	items, total, err := s.ListStudents(context.Background(), store.StudentFilter{
		Pagination: store.Pagination{Page: 1, Limit: 2},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("expected 2 of 3, got %d of %d", len(items), total)
	}
	if items[0].ID != "s3" {
		t.Fatalf("expected newest first, got %s", items[0].ID)
	}

	items, total, err = s.ListStudents(context.Background(), store.StudentFilter{
		Search:     "SOF",
		Pagination: store.Pagination{Page: 1, Limit: 10},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || items[0].ID != "s2" {
		t.Fatalf("expected sofia, got %+v", items)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := New()
	seedStudent(t, s, "s1", "Marcus", "marcus@example.com")
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx store.LedgerTx) error {
		if err := tx.ClaimEvent(ctx, model.ProcessedEvent{EventID: "evt_1", PaymentID: "pi_1", Kind: "k"}); err != nil {
			return err
		}
		if err := tx.AppendStudentPayment(ctx, "s1", model.PaymentRecord{Amount: decimal.NewFromInt(50)}); err != nil {
			return err
		}
		sp := &model.Sponsor{ExternalPaymentID: "pi_1"}
		if err := tx.InsertSponsor(ctx, sp); err != nil {
			return err
		}
		if err := tx.AttachSponsor(ctx, "s1", sp.ID, decimal.NewFromInt(50)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	st, err := s.GetStudent(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(st.PaymentHistory) != 0 || st.PaymentStatus != model.PaymentPending || st.SponsorID != "" {
		t.Fatalf("expected student untouched, got %+v", st)
	}
	if len(s.ListSponsors()) != 0 {
		t.Fatal("expected sponsor insert rolled back")
	}
	if len(s.ProcessedEvents()) != 0 {
		t.Fatal("expected claim rolled back")
	}
}

func TestClaimEventIsInsertIfAbsent(t *testing.T) {
	s := New()
	ctx := context.Background()
	claim := func(ev model.ProcessedEvent) error {
		return s.WithinTx(ctx, func(tx store.LedgerTx) error { return tx.ClaimEvent(ctx, ev) })
	}

	if err := claim(model.ProcessedEvent{EventID: "evt_1", PaymentID: "pi_1", Kind: "payment_intent.succeeded"}); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	tests := []struct {
		name string
		ev   model.ProcessedEvent
		want error
	}{
		{"same event id", model.ProcessedEvent{EventID: "evt_1", PaymentID: "pi_9", Kind: "x"}, store.ErrDuplicate},
		{"same payment and kind", model.ProcessedEvent{EventID: "evt_2", PaymentID: "pi_1", Kind: "payment_intent.succeeded"}, store.ErrDuplicate},
		{"same payment other kind", model.ProcessedEvent{EventID: "evt_3", PaymentID: "pi_1", Kind: "payment_intent.payment_failed"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := claim(tt.ev); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestInsertSponsorUniqueExternalID(t *testing.T) {
	s := New()
	ctx := context.Background()
	insert := func() error {
		return s.WithinTx(ctx, func(tx store.LedgerTx) error {
			return tx.InsertSponsor(ctx, &model.Sponsor{ExternalPaymentID: "pi_7", PaymentStatus: model.SponsorPaymentCompleted})
		})
	}
	if err := insert(); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := insert(); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	sp, err := s.GetSponsorByPaymentID(ctx, "pi_7")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if sp.PaymentStatus != model.SponsorPaymentCompleted {
		t.Fatalf("unexpected status %s", sp.PaymentStatus)
	}
}

func TestScholarshipLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedStudent(t, s, "s1", "Marcus", "marcus@example.com")

	if err := s.CreateScholarship(ctx, &model.Scholarship{StudentID: "missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	sc := &model.Scholarship{StudentID: "s1", HouseholdIncome: "under-25k"}
	if err := s.CreateScholarship(ctx, sc); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := s.CreateScholarship(ctx, &model.Scholarship{StudentID: "s1"}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	st, _ := s.GetStudent(ctx, "s1")
	if st.ScholarshipStatus != model.ScholarshipApplied {
		t.Fatalf("expected applied, got %s", st.ScholarshipStatus)
	}

	got, err := s.ReviewScholarship(ctx, sc.ID, model.ScholarshipReview{
		Status:      model.ReviewApproved,
		ReviewedBy:  "admin",
		AwardAmount: decimal.NewFromInt(200),
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Student == nil || got.Student.ID != "s1" {
		t.Fatalf("expected populated student, got %+v", got.Student)
	}
	st, _ = s.GetStudent(ctx, "s1")
	if st.ScholarshipStatus != model.ScholarshipApproved || !st.ScholarshipAmount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected approved with 200, got %s %s", st.ScholarshipStatus, st.ScholarshipAmount)
	}

	stats, err := s.ScholarshipStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalApplications != 1 || stats.ApprovedApplications != 1 || !stats.TotalAmountAwarded.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestGalleryFiltersAndCounters(t *testing.T) {
	s := New(WithClock(tickingClock()))
	ctx := context.Background()
	items := []*model.GalleryItem{
		{ID: "g1", Type: model.MediaPhoto, Title: "Spring Jam", IsActive: true, IsPublic: true, Tags: []string{"battle"}},
		{ID: "g2", Type: model.MediaVideo, Title: "Practice", Instructor: "Ana Ruiz", IsActive: true, IsPublic: false},
		{ID: "g3", Type: model.MediaPhoto, Title: "Old", IsActive: false, IsPublic: true},
	}
	for _, g := range items {
		if err := s.CreateGalleryItem(ctx, g); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		name string
		f    store.GalleryFilter
		want []string
	}{
		{"active only", store.GalleryFilter{}, []string{"g2", "g1"}},
		{"public only", store.GalleryFilter{PublicOnly: true}, []string{"g1"}},
		{"tag search", store.GalleryFilter{Search: "BATTLE"}, []string{"g1"}},
		{"instructor substring", store.GalleryFilter{Instructor: "ruiz"}, []string{"g2"}},
		{"type", store.GalleryFilter{Type: model.MediaVideo}, []string{"g2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.f.Pagination = store.Pagination{Page: 1, Limit: 12}
			got, total, err := s.ListGalleryItems(ctx, tt.f)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if int(total) != len(tt.want) {
				t.Fatalf("expected %d items, got %d", len(tt.want), total)
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("item %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}

	if _, err := s.ViewGalleryItem(ctx, "g1"); err != nil {
		t.Fatalf("view: %v", err)
	}
	likes, err := s.LikeGalleryItem(ctx, "g1")
	if err != nil || likes != 1 {
		t.Fatalf("expected 1 like, got %d (%v)", likes, err)
	}
	g, _ := s.GetGalleryItem(ctx, "g1")
	if g.Views != 1 {
		t.Fatalf("expected 1 view, got %d", g.Views)
	}
	if err := s.DeleteGalleryItem(ctx, "g1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetGalleryItem(ctx, "g1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestOverviewAndMonthly(t *testing.T) {
	s := New(WithClock(tickingClock()))
	ctx := context.Background()
	seedStudent(t, s, "s1", "Marcus", "marcus@example.com")
	seedStudent(t, s, "s2", "Sofia", "sofia@example.com")
	if _, err := s.UpdatePaymentStatus(ctx, "s1", store.PaymentUpdate{Status: model.PaymentPaid}); err != nil {
		t.Fatalf("payment status: %v", err)
	}
	if err := s.CreateContact(ctx, &model.Contact{Name: "Org", OrganizationType: model.OrgSponsor}); err != nil {
		t.Fatalf("contact: %v", err)
	}
	err := s.WithinTx(ctx, func(tx store.LedgerTx) error {
		return tx.InsertSponsor(ctx, &model.Sponsor{
			ExternalPaymentID: "pi_1",
			SponsorshipType:   model.SponsorshipStudent,
			Amount:            decimal.NewFromInt(75),
			PaymentStatus:     model.SponsorPaymentCompleted,
		})
	})
	if err != nil {
		t.Fatalf("sponsor: %v", err)
	}

	o, err := s.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if o.Students.Total != 2 || o.Payments.Paid != 1 || o.Payments.PaidPercentage != 50 {
		t.Fatalf("unexpected student/payment counts %+v %+v", o.Students, o.Payments)
	}
	if o.Contacts.SponsorInquiries != 1 || o.Sponsorships.StudentSponsors != 1 {
		t.Fatalf("unexpected contact/sponsor counts %+v %+v", o.Contacts, o.Sponsorships)
	}
	if !o.Sponsorships.TotalAmount.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected 75 total, got %s", o.Sponsorships.TotalAmount)
	}
	if len(o.RecentActivity.Students) != 2 || o.RecentActivity.Students[0].ID != "s2" {
		t.Fatalf("unexpected recent students %+v", o.RecentActivity.Students)
	}

	months, err := s.Monthly(ctx, 2024)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	may := months[4]
	if may.MonthName != "May" || may.StudentsRegistered != 2 || may.ContactSubmissions != 1 {
		t.Fatalf("unexpected May bucket %+v", may)
	}
	if !may.SponsorshipAmount.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected 75 in May, got %s", may.SponsorshipAmount)
	}
}
