package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// ScholarshipHandler serves /api/scholarships.
type ScholarshipHandler struct {
    Scholarships store.ScholarshipStore
}

// NewScholarshipHandler constructs a ScholarshipHandler.
func NewScholarshipHandler(s store.ScholarshipStore) *ScholarshipHandler {
    return &ScholarshipHandler{Scholarships: s}
}

type applyScholarshipRequest struct {
    StudentID          string `json:"studentId" validate:"required"`
    HouseholdIncome    string `json:"householdIncome" validate:"required,oneof=under-25k 25k-50k 50k-75k 75k-100k over-100k"`
    NumberOfDependents *int   `json:"numberOfDependents" validate:"required,min=0"`
    WhyDanceImportant  string `json:"whyDanceImportant" validate:"min=50,max=500"`
    HowWillHelpChild   string `json:"howWillHelpChild" validate:"min=50,max=500"`
    AdditionalInfo     string `json:"additionalInfo" validate:"max=300"`
}

// Apply handles POST /api/scholarships/apply.
func (h *ScholarshipHandler) Apply(c echo.Context) error {
    var req applyScholarshipRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    s := &model.Scholarship{
        StudentID:          req.StudentID,
        HouseholdIncome:    req.HouseholdIncome,
        NumberOfDependents: *req.NumberOfDependents,
        WhyDanceImportant:  req.WhyDanceImportant,
        HowWillHelpChild:   req.HowWillHelpChild,
        AdditionalInfo:     req.AdditionalInfo,
        Status:             model.ReviewPending,
        AwardAmount:        decimal.Zero,
    }
    if err := h.Scholarships.CreateScholarship(c.Request().Context(), s); err != nil {
        return storeError(c, err, "Student not found", "Student already has a scholarship application")
    }
    return c.JSON(http.StatusCreated, map[string]any{
        "message":     "Scholarship application submitted successfully",
        "application": s,
    })
}

// List handles GET /api/scholarships?page=&limit=&status=.
func (h *ScholarshipHandler) List(c echo.Context) error {
    f := store.ScholarshipFilter{
        Status:     model.ReviewStatus(strings.TrimSpace(c.QueryParam("status"))),
        Pagination: pagination(c, 10),
    }
    items, total, err := h.Scholarships.ListScholarships(c.Request().Context(), f)
    if err != nil {
        return storeError(c, err, "", "")
    }
    return c.JSON(http.StatusOK, map[string]any{
        "scholarships":      items,
        "totalPages":        f.TotalPages(total),
        "currentPage":       f.Page,
        "totalApplications": total,
    })
}

// Get handles GET /api/scholarships/:id.
func (h *ScholarshipHandler) Get(c echo.Context) error {
    s, err := h.Scholarships.GetScholarship(c.Request().Context(), c.Param("id"))
    if err != nil {
        return storeError(c, err, "Scholarship application not found", "")
    }
    return c.JSON(http.StatusOK, s)
}

type reviewScholarshipRequest struct {
    Status        string           `json:"status" validate:"required,oneof=pending under-review approved denied"`
    ReviewedBy    string           `json:"reviewedBy" validate:"required"`
    ReviewNotes   string           `json:"reviewNotes"`
    AwardAmount   *decimal.Decimal `json:"awardAmount"`
    AwardDuration string           `json:"awardDuration"`
}

// Review handles PUT /api/scholarships/:id/review.
func (h *ScholarshipHandler) Review(c echo.Context) error {
    var req reviewScholarshipRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    amount := decimal.Zero
    if req.AwardAmount != nil {
        if req.AwardAmount.IsNegative() {
            return c.JSON(http.StatusBadRequest, errorBody("awardAmount must not be negative"))
        }
        amount = *req.AwardAmount
    }
    r := model.ScholarshipReview{
        Status:        model.ReviewStatus(req.Status),
        ReviewedBy:    req.ReviewedBy,
        ReviewNotes:   req.ReviewNotes,
        AwardAmount:   amount,
        AwardDuration: req.AwardDuration,
    }
    s, err := h.Scholarships.ReviewScholarship(c.Request().Context(), c.Param("id"), r)
    if err != nil {
        return storeError(c, err, "Scholarship application not found", "")
    }
    return c.JSON(http.StatusOK, map[string]any{
        "message":     "Scholarship application reviewed successfully",
        "scholarship": s,
    })
}

// Stats handles GET /api/scholarships/stats/overview.
func (h *ScholarshipHandler) Stats(c echo.Context) error {
    st, err := h.Scholarships.ScholarshipStats(c.Request().Context())
    if err != nil {
        return storeError(c, err, "", "")
    }
    return c.JSON(http.StatusOK, st)
}
