package queue

import (
	"testing"

	"github.com/redis/go-redis/v9"

	"threadwatch.app/scout/internal/model"
)

func TestParseMessage(t *testing.T) {
	msg := redis.XMessage{
		ID: "1693526400000-0",
		Values: map[string]any{
			"approval_id": "Ab3xK",
			"action":      "edit",
			"user_id":     "U042",
			"edited_text": "Revised answer.",
			"attempt":     "2",
		},
	}

	got, err := ParseMessage(msg)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if got.ApprovalID != "Ab3xK" {
		t.Errorf("ApprovalID = %q, want %q", got.ApprovalID, "Ab3xK")
	}
	if got.Action != model.ActionEdit {
		t.Errorf("Action = %q, want %q", got.Action, model.ActionEdit)
	}
	if got.EditedText != "Revised answer." {
		t.Errorf("EditedText = %q, want %q", got.EditedText, "Revised answer.")
	}
	if got.Attempt != 2 {
		t.Errorf("Attempt = %d, want 2", got.Attempt)
	}
}

func TestParseMessageDefaults(t *testing.T) {
	msg := redis.XMessage{
		ID: "1-0",
		Values: map[string]any{
			"approval_id": "Ab3xK",
			"action":      "approve",
			"user_id":     "U042",
		},
	}

	got, err := ParseMessage(msg)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if got.Attempt != 1 {
		t.Errorf("Attempt = %d, want 1", got.Attempt)
	}
	if got.EditedText != "" {
		t.Errorf("EditedText = %q, want empty", got.EditedText)
	}
}

func TestParseMessageErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"missing approval_id", map[string]any{"action": "approve", "user_id": "U042"}},
		{"missing action", map[string]any{"approval_id": "Ab3xK", "user_id": "U042"}},
		{"unknown action", map[string]any{"approval_id": "Ab3xK", "action": "snooze", "user_id": "U042"}},
		{"bad attempt", map[string]any{"approval_id": "Ab3xK", "action": "reject", "user_id": "U042", "attempt": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage(redis.XMessage{ID: "1-0", Values: tt.values})
			if err == nil {
				t.Fatal("ParseMessage() error = nil, want error")
			}
		})
	}
}

func TestMessageValuesRoundTrip(t *testing.T) {
	msg := Message{
		ApprovalID: "Ab3xK",
		Action:     model.ActionApprove,
		UserID:     "U042",
		Attempt:    1,
	}

	values := messageValues(msg, 3)
	if values["attempt"] != 3 {
		t.Errorf("attempt = %v, want 3", values["attempt"])
	}
	if _, ok := values["edited_text"]; ok {
		t.Error("edited_text set for message without edits")
	}
}
