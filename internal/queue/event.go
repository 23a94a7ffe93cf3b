// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// PaymentReconciledQueue is the durable queue reconciled payments are
// announced on.
const PaymentReconciledQueue = "payment.reconciled"

// PaymentReconciledEvent is published after a payment notification has been
// committed to the store.  It carries enough for the audit log without
// querying the primary database.
type PaymentReconciledEvent struct {
    EventID      string `json:"event_id"`
    PaymentID    string `json:"payment_id"`
    Kind         string `json:"kind"`
    Purpose      string `json:"purpose"`
    Outcome      string `json:"outcome"`
    StudentID    string `json:"student_id,omitempty"`
    SponsorID    string `json:"sponsor_id,omitempty"`
    Amount       string `json:"amount"`
    Currency     string `json:"currency,omitempty"`
    ReconciledAt string `json:"reconciled_at"`
}
