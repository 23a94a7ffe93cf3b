package model

import "time"

// ContactStatus is the follow-up state of a contact submission.
type ContactStatus string

const (
    ContactNew        ContactStatus = "new"
    ContactContacted  ContactStatus = "contacted"
    ContactInProgress ContactStatus = "in-progress"
    ContactCompleted  ContactStatus = "completed"
    ContactClosed     ContactStatus = "closed"
)

// Organization types a contact can declare.
const (
    OrgNonprofit = "nonprofit"
    OrgSponsor   = "sponsor"
    OrgGeneral   = "general"
    OrgOther     = "other"
)

// ContactNote is an internal follow-up note on a contact.
type ContactNote struct {
    Note    string    `json:"note"`
    AddedBy string    `json:"addedBy"`
    Date    time.Time `json:"date"`
}

// Contact is an inquiry submitted through the contact form.
type Contact struct {
    ID               string `json:"id"`
    Name             string `json:"name"`
    Email            string `json:"email"`
    Phone            string `json:"phone,omitempty"`
    OrganizationName string `json:"organizationName,omitempty"`
    OrganizationType string `json:"organizationType"`
    Subject          string `json:"subject"`
    Message          string `json:"message"`

    Status     ContactStatus `json:"status"`
    AssignedTo string        `json:"assignedTo,omitempty"`
    Notes      []ContactNote `json:"notes"`

    Responded    bool       `json:"responded"`
    ResponseDate *time.Time `json:"responseDate,omitempty"`

    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}

// ContactStatusUpdate is an administrative change to a contact.  Empty
// AssignedTo and nil Responded leave the current values untouched.
type ContactStatusUpdate struct {
    Status     ContactStatus
    AssignedTo string
    Responded  *bool
}

// Apply mutates c according to u.
func (c *Contact) Apply(u ContactStatusUpdate, now time.Time) {
    c.Status = u.Status
    if u.AssignedTo != "" {
        c.AssignedTo = u.AssignedTo
    }
    if u.Responded != nil {
        c.Responded = *u.Responded
        if *u.Responded {
            c.ResponseDate = &now
        }
    }
    c.UpdatedAt = now
}

// Clone returns a deep copy of c.
func (c *Contact) Clone() *Contact {
    if c == nil {
        return nil
    }
    out := *c
    out.Notes = append([]ContactNote(nil), c.Notes...)
    if c.ResponseDate != nil {
        t := *c.ResponseDate
        out.ResponseDate = &t
    }
    return &out
}

// ContactSummary is the trimmed view used for "recent activity" lists.
type ContactSummary struct {
    ID               string        `json:"id"`
    Name             string        `json:"name"`
    Email            string        `json:"email"`
    OrganizationType string        `json:"organizationType"`
    Subject          string        `json:"subject"`
    Status           ContactStatus `json:"status"`
    CreatedAt        time.Time     `json:"createdAt"`
}

// Summary returns the trimmed view of c.
func (c *Contact) Summary() ContactSummary {
    return ContactSummary{
        ID:               c.ID,
        Name:             c.Name,
        Email:            c.Email,
        OrganizationType: c.OrganizationType,
        Subject:          c.Subject,
        Status:           c.Status,
        CreatedAt:        c.CreatedAt,
    }
}
