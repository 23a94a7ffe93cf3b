package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// StudentHandler serves /api/students.
type StudentHandler struct {
    Students store.StudentStore
    Now      func() time.Time
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(s store.StudentStore) *StudentHandler {
    return &StudentHandler{Students: s, Now: func() time.Time { return time.Now().UTC() }}
}

type registerStudentRequest struct {
    FirstName   string `json:"firstName" validate:"required"`
    LastName    string `json:"lastName" validate:"required"`
    Email       string `json:"email" validate:"required,email"`
    Phone       string `json:"phone" validate:"required"`
    DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`

    ParentName  string `json:"parentName"`
    ParentEmail string `json:"parentEmail" validate:"omitempty,email"`
    ParentPhone string `json:"parentPhone"`

    EmergencyContactName     string `json:"emergencyContactName" validate:"required"`
    EmergencyContactPhone    string `json:"emergencyContactPhone" validate:"required"`
    EmergencyContactRelation string `json:"emergencyContactRelation" validate:"required"`

    WaiverSignature string `json:"waiverSignature"`
}

// Register handles POST /api/students/register.
func (h *StudentHandler) Register(c echo.Context) error {
    var req registerStudentRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    dob, _ := time.Parse("2006-01-02", req.DateOfBirth) // format checked by the validator

    s := &model.Student{
        FirstName:                strings.TrimSpace(req.FirstName),
        LastName:                 strings.TrimSpace(req.LastName),
        Email:                    strings.ToLower(strings.TrimSpace(req.Email)),
        Phone:                    req.Phone,
        DateOfBirth:              dob,
        ParentName:               req.ParentName,
        ParentEmail:              strings.ToLower(req.ParentEmail),
        ParentPhone:              req.ParentPhone,
        EmergencyContactName:     req.EmergencyContactName,
        EmergencyContactPhone:    req.EmergencyContactPhone,
        EmergencyContactRelation: req.EmergencyContactRelation,
        PaymentStatus:            model.PaymentPending,
        ScholarshipStatus:        model.ScholarshipNone,
        IsActive:                 true,
    }
    if sig := strings.TrimSpace(req.WaiverSignature); sig != "" {
        now := h.Now()
        s.WaiverSigned = true
        s.WaiverSignedDate = &now
        s.WaiverSignature = sig
    }
    if err := h.Students.CreateStudent(c.Request().Context(), s); err != nil {
        return storeError(c, err, "Student not found", "Student with this email already exists")
    }
    return c.JSON(http.StatusCreated, map[string]any{
        "message": "Student registered successfully",
        "student": map[string]any{
            "id":           s.ID,
            "firstName":    s.FirstName,
            "lastName":     s.LastName,
            "email":        s.Email,
            "waiverSigned": s.WaiverSigned,
        },
    })
}

// List handles GET /api/students?page=&limit=&search=.
func (h *StudentHandler) List(c echo.Context) error {
    f := store.StudentFilter{
        Search:     strings.TrimSpace(c.QueryParam("search")),
        Pagination: pagination(c, 10),
    }
    items, total, err := h.Students.ListStudents(c.Request().Context(), f)
    if err != nil {
        return storeError(c, err, "", "")
    }
    return c.JSON(http.StatusOK, map[string]any{
        "students":      items,
        "totalPages":    f.TotalPages(total),
        "currentPage":   f.Page,
        "totalStudents": total,
    })
}

// Get handles GET /api/students/:id.
func (h *StudentHandler) Get(c echo.Context) error {
    s, err := h.Students.GetStudent(c.Request().Context(), c.Param("id"))
    if err != nil {
        return storeError(c, err, "Student not found", "")
    }
    return c.JSON(http.StatusOK, s)
}

type firstClassRequest struct {
    ClassName  string `json:"className"`
    Instructor string `json:"instructor"`
}

// MarkFirstClass handles PUT /api/students/:id/first-class.
func (h *StudentHandler) MarkFirstClass(c echo.Context) error {
    var req firstClassRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    class := model.ClassAttendance{ClassName: req.ClassName, Instructor: req.Instructor, Date: h.Now()}
    s, err := h.Students.MarkFirstClass(c.Request().Context(), c.Param("id"), class)
    if err != nil {
        return storeError(c, err, "Student not found", "")
    }
    return c.JSON(http.StatusOK, map[string]any{"message": "First class marked as taken", "student": s})
}

type paymentStatusRequest struct {
    PaymentStatus     string           `json:"paymentStatus" validate:"required,oneof=pending paid overdue"`
    Amount            *decimal.Decimal `json:"amount"`
    ExternalPaymentID string           `json:"externalPaymentId"`
    Description       string           `json:"description"`
}

// UpdatePaymentStatus handles PUT /api/students/:id/payment-status.  A
// history entry is appended only when both amount and external id are
// given.
func (h *StudentHandler) UpdatePaymentStatus(c echo.Context) error {
    var req paymentStatusRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    u := store.PaymentUpdate{Status: model.PaymentStatus(req.PaymentStatus)}
    if req.Amount != nil && req.Amount.IsPositive() && req.ExternalPaymentID != "" {
        desc := req.Description
        if desc == "" {
            desc = "Payment"
        }
        u.Record = &model.PaymentRecord{
            Amount:            *req.Amount,
            Date:              h.Now(),
            ExternalPaymentID: req.ExternalPaymentID,
            Description:       desc,
        }
    }
    s, err := h.Students.UpdatePaymentStatus(c.Request().Context(), c.Param("id"), u)
    if err != nil {
        return storeError(c, err, "Student not found", "")
    }
    return c.JSON(http.StatusOK, map[string]any{"message": "Payment status updated", "student": s})
}
