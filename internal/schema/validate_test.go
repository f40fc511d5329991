package schema

import (
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/supporthq/ticket-enrichment-platform/pkg/errors"
)

func validPayload() string {
	return `{
		"ticket_id": "DEMO-10001",
		"subject": "Cannot login to my account",
		"body": "I keep getting an invalid credentials error.",
		"created_at": 1756400000,
		"customer_id": "CUST-2001",
		"priority": "high",
		"metadata": {"source": "email", "language": "en", "tags": ["auth"]}
	}`
}

func TestValidateRawTicketValid(t *testing.T) {
	ticket, err := ValidateRawTicket([]byte(validPayload()))
	if err != nil {
		t.Fatalf("ValidateRawTicket() error: %v", err)
	}
	if ticket.TicketID != "DEMO-10001" {
		t.Errorf("TicketID = %q", ticket.TicketID)
	}
	if ticket.CreatedAt != 1756400000 {
		t.Errorf("CreatedAt = %d", ticket.CreatedAt)
	}
	if ticket.Priority != "high" {
		t.Errorf("Priority = %q", ticket.Priority)
	}
	if ticket.Metadata.Source != "email" {
		t.Errorf("Metadata.Source = %q", ticket.Metadata.Source)
	}
}

func TestValidateRawTicketReportsAllMissingFields(t *testing.T) {
	_, err := ValidateRawTicket([]byte(`{"subject": "hello"}`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	for _, field := range []string{"ticket_id", "body", "created_at", "customer_id", "metadata"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing field %q not reported; got %v", field, verr.Fields)
		}
	}
}

func TestValidateRawTicketRejectsStringTimestamp(t *testing.T) {
	payload := strings.Replace(validPayload(), `"created_at": 1756400000`, `"created_at": "1756400000"`, 1)
	_, err := ValidateRawTicket([]byte(payload))
	if err == nil {
		t.Fatal("expected validation error for string created_at")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if msg := verr.Fields["created_at"]; !strings.Contains(msg, "not a string") {
		t.Errorf("created_at message = %q, want string rejection", msg)
	}
}

func TestValidateRawTicketRejectsUnknownPriority(t *testing.T) {
	payload := strings.Replace(validPayload(), `"priority": "high"`, `"priority": "blocker"`, 1)
	_, err := ValidateRawTicket([]byte(payload))
	if err == nil {
		t.Fatal("expected validation error for unknown priority")
	}
}

func TestValidateRawTicketPriorityOptional(t *testing.T) {
	payload := strings.Replace(validPayload(), `"priority": "high",`, ``, 1)
	ticket, err := ValidateRawTicket([]byte(payload))
	if err != nil {
		t.Fatalf("ValidateRawTicket() error: %v", err)
	}
	if ticket.Priority != "" {
		t.Errorf("Priority = %q, want empty", ticket.Priority)
	}
}

func TestValidateRawTicketMetadataDefaults(t *testing.T) {
	payload := strings.Replace(validPayload(),
		`"metadata": {"source": "email", "language": "en", "tags": ["auth"]}`,
		`"metadata": {"source": "web"}`, 1)
	ticket, err := ValidateRawTicket([]byte(payload))
	if err != nil {
		t.Fatalf("ValidateRawTicket() error: %v", err)
	}
	if ticket.Metadata.Language != "en" {
		t.Errorf("Language = %q, want en default", ticket.Metadata.Language)
	}
	if ticket.Metadata.Tags == nil || len(ticket.Metadata.Tags) != 0 {
		t.Errorf("Tags = %v, want empty slice", ticket.Metadata.Tags)
	}
}

func TestValidateRawTicketRequiresMetadataSource(t *testing.T) {
	payload := strings.Replace(validPayload(),
		`"metadata": {"source": "email", "language": "en", "tags": ["auth"]}`,
		`"metadata": {"language": "en"}`, 1)
	_, err := ValidateRawTicket([]byte(payload))
	if err == nil {
		t.Fatal("expected validation error for missing metadata.source")
	}
}

func TestValidateRawTicketNotAnObject(t *testing.T) {
	_, err := ValidateRawTicket([]byte(`[1, 2, 3]`))
	if err == nil {
		t.Fatal("expected validation error for non-object payload")
	}
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	_, err := ValidateRawTicket([]byte(`{}`))
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("validation error does not match ErrValidation sentinel")
	}
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"subject":   "subject is required",
		"body":      "body is required",
		"ticket_id": "ticket_id is required",
	}}
	want := "body: body is required; subject: subject is required; ticket_id: ticket_id is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
