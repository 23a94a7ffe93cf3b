package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// ContactHandler serves /api/contacts.
type ContactHandler struct {
    Contacts store.ContactStore
    Now      func() time.Time
}

// NewContactHandler constructs a ContactHandler.
func NewContactHandler(s store.ContactStore) *ContactHandler {
    return &ContactHandler{Contacts: s, Now: func() time.Time { return time.Now().UTC() }}
}

type createContactRequest struct {
    Name             string `json:"name" validate:"required"`
    Email            string `json:"email" validate:"required,email"`
    Phone            string `json:"phone"`
    OrganizationName string `json:"organizationName"`
    OrganizationType string `json:"organizationType" validate:"required,oneof=nonprofit sponsor general other"`
    Subject          string `json:"subject" validate:"required"`
    Message          string `json:"message" validate:"required,min=10"`
}

// Create handles POST /api/contacts.
func (h *ContactHandler) Create(c echo.Context) error {
    var req createContactRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    ct := &model.Contact{
        Name:             strings.TrimSpace(req.Name),
        Email:            strings.ToLower(strings.TrimSpace(req.Email)),
        Phone:            req.Phone,
        OrganizationName: req.OrganizationName,
        OrganizationType: req.OrganizationType,
        Subject:          req.Subject,
        Message:          req.Message,
        Status:           model.ContactNew,
    }
    if err := h.Contacts.CreateContact(c.Request().Context(), ct); err != nil {
        return storeError(c, err, "", "")
    }
    return c.JSON(http.StatusCreated, map[string]any{
        "message": "Contact form submitted successfully",
        "contact": ct.Summary(),
    })
}

// List handles GET /api/contacts?page=&limit=&organizationType=&status=&search=.
func (h *ContactHandler) List(c echo.Context) error {
    f := store.ContactFilter{
        OrganizationType: strings.TrimSpace(c.QueryParam("organizationType")),
        Status:           model.ContactStatus(strings.TrimSpace(c.QueryParam("status"))),
        Search:           strings.TrimSpace(c.QueryParam("search")),
        Pagination:       pagination(c, 10),
    }
    items, total, err := h.Contacts.ListContacts(c.Request().Context(), f)
    if err != nil {
        return storeError(c, err, "", "")
    }
    return c.JSON(http.StatusOK, map[string]any{
        "contacts":      items,
        "totalPages":    f.TotalPages(total),
        "currentPage":   f.Page,
        "totalContacts": total,
    })
}

// Get handles GET /api/contacts/:id.
func (h *ContactHandler) Get(c echo.Context) error {
    ct, err := h.Contacts.GetContact(c.Request().Context(), c.Param("id"))
    if err != nil {
        return storeError(c, err, "Contact not found", "")
    }
    return c.JSON(http.StatusOK, ct)
}

type contactStatusRequest struct {
    Status     string `json:"status" validate:"required,oneof=new contacted in-progress completed closed"`
    AssignedTo string `json:"assignedTo"`
    Responded  *bool  `json:"responded"`
}

// UpdateStatus handles PUT /api/contacts/:id/status.
func (h *ContactHandler) UpdateStatus(c echo.Context) error {
    var req contactStatusRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    u := model.ContactStatusUpdate{
        Status:     model.ContactStatus(req.Status),
        AssignedTo: strings.TrimSpace(req.AssignedTo),
        Responded:  req.Responded,
    }
    ct, err := h.Contacts.UpdateContactStatus(c.Request().Context(), c.Param("id"), u)
    if err != nil {
        return storeError(c, err, "Contact not found", "")
    }
    return c.JSON(http.StatusOK, map[string]any{"message": "Contact status updated successfully", "contact": ct})
}

type contactNoteRequest struct {
    Note    string `json:"note" validate:"required"`
    AddedBy string `json:"addedBy" validate:"required"`
}

// AddNote handles POST /api/contacts/:id/notes.
func (h *ContactHandler) AddNote(c echo.Context) error {
    var req contactNoteRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    n := model.ContactNote{Note: req.Note, AddedBy: req.AddedBy, Date: h.Now()}
    ct, err := h.Contacts.AddContactNote(c.Request().Context(), c.Param("id"), n)
    if err != nil {
        return storeError(c, err, "Contact not found", "")
    }
    return c.JSON(http.StatusOK, map[string]any{"message": "Note added successfully", "contact": ct})
}

// Stats handles GET /api/contacts/stats/overview.
func (h *ContactHandler) Stats(c echo.Context) error {
    st, err := h.Contacts.ContactStats(c.Request().Context())
    if err != nil {
        return storeError(c, err, "", "")
    }
    return c.JSON(http.StatusOK, st)
}
