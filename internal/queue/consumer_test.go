package queue

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteLine(t *testing.T) {
	body, _ := json.Marshal(PaymentReconciledEvent{
		EventID: "evt_1", PaymentID: "pi_1", Kind: "payment_intent.succeeded", Purpose: "private-lesson",
		Outcome: "applied", StudentID: "s1", Amount: "50", Currency: "usd", ReconciledAt: "2024-05-01T17:30:00Z",
	})
	var buf bytes.Buffer
	if err := writeLine(&buf, body); err != nil {
		t.Fatalf("writeLine: %v", err)
	}
	want := "[2024-05-01T17:30:00Z] Payment applied | event_id=evt_1 | payment_id=pi_1 | kind=payment_intent.succeeded | purpose=private-lesson | amount=50 usd | student_id=s1\n"
	if buf.String() != want {
		t.Fatalf("got %q\nwant %q", buf.String(), want)
	}
}

func TestWriteLineRejectsBadPayloads(t *testing.T) {
	for _, body := range []string{"not json", `{"payment_id":"pi_1"}`} {
		var buf bytes.Buffer
		if err := writeLine(&buf, []byte(body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
		if buf.Len() != 0 {
			t.Fatalf("nothing should be written for %q", body)
		}
	}
}

func TestAppendToLogCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "payments.log")
	body := []byte(`{"event_id":"evt_1","outcome":"applied"}`)
	for i := 0; i < 2; i++ {
		if err := appendToLog(path, body); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}
}
