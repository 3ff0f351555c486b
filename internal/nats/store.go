package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName = "applywiz_events"

	// Event types
	EventTypeDraft       = "draft"
	EventTypeApplication = "application"
)

// OwnerToken turns an owner key into a subject-safe token.
func OwnerToken(owner string) string {
	if t := slug.Make(owner); t != "" {
		return t
	}
	return "anonymous"
}

// SubjectForApplicant returns the wildcard subject for every event of one
// applicant on one scholarship, e.g. "applywiz.42.6401234.>".
func SubjectForApplicant(scholarshipID int, owner string) string {
	return fmt.Sprintf("applywiz.%d.%s.>", scholarshipID, OwnerToken(owner))
}

// SubjectForEvent returns the subject of one event type,
// e.g. "applywiz.42.6401234.draft".
func SubjectForEvent(scholarshipID int, owner, eventType string) string {
	return fmt.Sprintf("applywiz.%d.%s.%s", scholarshipID, OwnerToken(owner), eventType)
}

// SubjectForScholarship matches every event of one scholarship.
func SubjectForScholarship(scholarshipID int) string {
	return fmt.Sprintf("applywiz.%d.>", scholarshipID)
}

// SetupStream creates or updates the applywiz_events stream with one year retention.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"applywiz.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   365 * 24 * time.Hour,
	})
}
