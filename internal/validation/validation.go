package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// Field validators return nil when the input is valid, otherwise an error
// whose message is the user-facing text the form layer shows verbatim. None
// of them touch storage.

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
	minPasswordLen    = 6
	minNameLen        = 2
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email requires a non-blank value shaped like local@domain.tld: no embedded
// whitespace, exactly one @, and at least one dot after it.
func Email(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("Email is required")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("Please enter a valid email address")
	}
	return nil
}

// Password requires at least 6 characters.
func Password(password string) error {
	if password == "" {
		return errors.New("Password is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return errors.New("Password must be at least 6 characters long")
	}
	return nil
}

// Name requires at least 2 characters after trimming surrounding whitespace.
func Name(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("Name is required")
	}
	if utf8.RuneCountInString(trimmed) < minNameLen {
		return errors.New("Name must be at least 2 characters long")
	}
	return nil
}

// PasswordMatch checks exact equality of the password and its confirmation.
func PasswordMatch(password, confirm string) error {
	if password != confirm {
		return errors.New("Passwords do not match")
	}
	return nil
}

// Required is the generic presence check shared by ad-hoc form fields.
// fieldName defaults to "This field" when empty.
func Required(value, fieldName string) error {
	if fieldName == "" {
		fieldName = "This field"
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// Fields maps a field name to its validation message. An empty map means the
// input passed.
type Fields map[string]string

// Valid reports whether no field failed.
func (f Fields) Valid() bool { return len(f) == 0 }

// TicketInput is the raw form payload checked before a ticket create or
// update. Status and priority are optional; blank means "let the store apply
// its default".
type TicketInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
}

// Ticket validates a ticket payload and returns the per-field messages.
// Title is required and capped at 100 characters; status and priority, when
// present, must be members of their enums; description is capped at 500.
func Ticket(in TicketInput) Fields {
	fields := Fields{}

	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "Title is required"
	} else if utf8.RuneCountInString(in.Title) > maxTitleLen {
		fields["title"] = "Title must be less than 100 characters"
	}

	if in.Status != "" && !domain.TicketStatus(in.Status).Valid() {
		fields["status"] = "Status must be one of: open, in_progress, closed"
	}

	if in.Priority != "" && !domain.TicketPriority(in.Priority).Valid() {
		fields["priority"] = "Priority must be one of: low, medium, high"
	}

	if in.Description != "" && utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		fields["description"] = "Description must be less than 500 characters"
	}

	return fields
}
