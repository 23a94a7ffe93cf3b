package model

import "time"

// ProcessedEvent is the idempotency record for a payment notification.  A
// row exists for every event whose side effects were committed.  EventID
// is unique, and so is the (PaymentID, Kind) pair so a processor resending
// the same outcome under a fresh event id is also recognised.
type ProcessedEvent struct {
    EventID     string    `json:"eventId"`
    PaymentID   string    `json:"paymentId"`
    Kind        string    `json:"kind"`
    Purpose     string    `json:"purpose"`
    ProcessedAt time.Time `json:"processedAt"`
}
