package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartPaymentConsumer connects to RabbitMQ, declares the payment.reconciled
// queue (durable) and appends each message to logPath as one line.  It
// reconnects with exponential backoff and returns only when ctx is done.
// A message that cannot be handled is rejected without requeue so one bad
// payload cannot stall the queue.
func StartPaymentConsumer(ctx context.Context, url, logPath string) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("payment-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, logPath)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("payment-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("payment-consumer: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(PaymentReconciledQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(PaymentReconciledQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := appendToLog(logPath, d.Body); err != nil {
                log.Printf("payment-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func appendToLog(path string, body []byte) error {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    return writeLine(f, body)
}

// writeLine decodes one message and writes its audit line to w.
func writeLine(w io.Writer, body []byte) error {
    var ev PaymentReconciledEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.EventID == "" {
        return errors.New("event id missing")
    }
    line := fmt.Sprintf("[%s] Payment %s | event_id=%s | payment_id=%s | kind=%s | purpose=%s | amount=%s %s",
        ev.ReconciledAt, ev.Outcome, ev.EventID, ev.PaymentID, ev.Kind, ev.Purpose, ev.Amount, ev.Currency)
    if ev.StudentID != "" {
        line += " | student_id=" + ev.StudentID
    }
    if ev.SponsorID != "" {
        line += " | sponsor_id=" + ev.SponsorID
    }
    if _, err := io.WriteString(w, line+"\n"); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
