// Package store persists drafts and submitted applications as events in
// JetStream and rebuilds an applicant's state by replaying them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mark3labs/applywiz/internal/logger"
	"github.com/mark3labs/applywiz/internal/nats"
)

// Event is one entry of the append-only log.
type Event struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	ScholarshipID int             `json:"scholarship_id"`
	Owner         string          `json:"owner"`
	Type          string          `json:"type"`   // draft, application
	Action        string          `json:"action"` // save, submit
	Meta          json.RawMessage `json:"meta"`
	Data          string          `json:"data"` // serialized form state
}

// Store publishes and replays applicant events.
type Store struct {
	js     jetstream.JetStream
	stream jetstream.Stream
}

// NewStore wraps a JetStream context and the applywiz_events stream.
func NewStore(js jetstream.JetStream, stream jetstream.Stream) *Store {
	return &Store{js: js, stream: stream}
}

// PublishEvent appends an event to the log.
func (s *Store) PublishEvent(ctx context.Context, event Event) (*jetstream.PubAck, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := nats.SubjectForEvent(event.ScholarshipID, event.Owner, event.Type)
	logger.Debug("Publishing event: scholarship=%d owner=%s type=%s action=%s",
		event.ScholarshipID, event.Owner, event.Type, event.Action)

	ack, err := s.js.Publish(ctx, subject, data)
	if err != nil {
		logger.Error("Failed to publish event to subject %s: %v", subject, err)
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}
	return ack, nil
}

// Draft is the latest open draft of one applicant.
type Draft struct {
	ScholarshipID int       `json:"scholarship_id"`
	CurrentStep   int       `json:"current_step"`
	DraftData     string    `json:"draft_data"`
	LastSavedAt   time.Time `json:"last_saved_at"`
	AutoSave      bool      `json:"auto_save"`
}

// Application is a submitted application.
type Application struct {
	ID            string    `json:"id"`
	ScholarshipID int       `json:"scholarship_id"`
	Owner         string    `json:"owner"`
	Step          int       `json:"step"`
	StepData      string    `json:"step_data"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// State is one applicant's view of one scholarship, reduced from events.
type State struct {
	ScholarshipID int
	Owner         string
	Draft         *Draft // nil when there is no open draft
	Applications  []*Application
	DraftSaves    int
}

type draftMeta struct {
	Step     int  `json:"step"`
	AutoSave bool `json:"auto_save"`
}

type applicationMeta struct {
	ApplicationID string `json:"application_id"`
	Step          int    `json:"step"`
}

// Apply folds one event into the state.
func (st *State) Apply(event Event) {
	switch event.Type {
	case nats.EventTypeDraft:
		st.applyDraftEvent(event)
	case nats.EventTypeApplication:
		st.applyApplicationEvent(event)
	}
}

func (st *State) applyDraftEvent(event Event) {
	switch event.Action {
	case "save":
		var meta draftMeta
		_ = json.Unmarshal(event.Meta, &meta)
		st.Draft = &Draft{
			ScholarshipID: event.ScholarshipID,
			CurrentStep:   meta.Step,
			DraftData:     event.Data,
			LastSavedAt:   event.Timestamp,
			AutoSave:      meta.AutoSave,
		}
		st.DraftSaves++
	}
}

func (st *State) applyApplicationEvent(event Event) {
	switch event.Action {
	case "submit":
		var meta applicationMeta
		_ = json.Unmarshal(event.Meta, &meta)
		st.Applications = append(st.Applications, &Application{
			ID:            meta.ApplicationID,
			ScholarshipID: event.ScholarshipID,
			Owner:         event.Owner,
			Step:          meta.Step,
			StepData:      event.Data,
			SubmittedAt:   event.Timestamp,
		})
		// Submission closes the draft.
		st.Draft = nil
	}
}

// SaveDraft overwrites the applicant's draft.
func (s *Store) SaveDraft(ctx context.Context, owner string, scholarshipID, step int, data string, auto bool) (*Draft, error) {
	meta, _ := json.Marshal(draftMeta{Step: step, AutoSave: auto})
	event := Event{
		Timestamp:     time.Now().UTC(),
		ScholarshipID: scholarshipID,
		Owner:         owner,
		Type:          nats.EventTypeDraft,
		Action:        "save",
		Meta:          meta,
		Data:          data,
	}
	if _, err := s.PublishEvent(ctx, event); err != nil {
		return nil, err
	}
	return &Draft{
		ScholarshipID: scholarshipID,
		CurrentStep:   step,
		DraftData:     data,
		LastSavedAt:   event.Timestamp,
		AutoSave:      auto,
	}, nil
}

// Submit records a final application and closes the draft.
func (s *Store) Submit(ctx context.Context, owner string, scholarshipID, step int, data string) (*Application, error) {
	id := uuid.NewString()
	meta, _ := json.Marshal(applicationMeta{ApplicationID: id, Step: step})
	event := Event{
		Timestamp:     time.Now().UTC(),
		ScholarshipID: scholarshipID,
		Owner:         owner,
		Type:          nats.EventTypeApplication,
		Action:        "submit",
		Meta:          meta,
		Data:          data,
	}
	if _, err := s.PublishEvent(ctx, event); err != nil {
		return nil, err
	}
	return &Application{
		ID:            id,
		ScholarshipID: scholarshipID,
		Owner:         owner,
		Step:          step,
		StepData:      data,
		SubmittedAt:   event.Timestamp,
	}, nil
}

// ErrNoDraft is returned by LoadDraft when the applicant has no open draft.
var ErrNoDraft = errors.New("no open draft")

// LoadDraft returns the applicant's open draft.
func (s *Store) LoadDraft(ctx context.Context, owner string, scholarshipID int) (*Draft, error) {
	st, err := s.LoadState(ctx, owner, scholarshipID)
	if err != nil {
		return nil, err
	}
	if st.Draft == nil {
		return nil, ErrNoDraft
	}
	return st.Draft, nil
}

// LoadState replays every event of one applicant on one scholarship.
func (s *Store) LoadState(ctx context.Context, owner string, scholarshipID int) (*State, error) {
	st := &State{ScholarshipID: scholarshipID, Owner: owner}
	err := s.replay(ctx, nats.SubjectForApplicant(scholarshipID, owner), st.Apply)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Applications lists every submission for a scholarship across applicants.
func (s *Store) Applications(ctx context.Context, scholarshipID int) ([]*Application, error) {
	var apps []*Application
	err := s.replay(ctx, nats.SubjectForScholarship(scholarshipID), func(e Event) {
		if e.Type != nats.EventTypeApplication {
			return
		}
		st := State{}
		st.Apply(e)
		apps = append(apps, st.Applications...)
	})
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// replay feeds every event matching subject, oldest first, to apply.
func (s *Store) replay(ctx context.Context, subject string, apply func(Event)) error {
	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: subject,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	defer func() {
		if err := s.stream.DeleteConsumer(context.WithoutCancel(ctx), consumer.CachedInfo().Name); err != nil {
			logger.Debug("Failed to delete replay consumer: %v", err)
		}
	}()

	const batchSize = 1000
	malformed := 0
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			break
		}

		count := 0
		for msg := range msgs.Messages() {
			count++
			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				malformed++
				_ = msg.Ack()
				continue
			}
			if event.ID == "" {
				if meta, err := msg.Metadata(); err == nil {
					event.ID = strconv.FormatUint(meta.Sequence.Stream, 10)
				}
			}
			apply(event)
			_ = msg.Ack()
		}

		if count < batchSize {
			break
		}
	}

	if malformed > 0 {
		logger.Warn("Skipped %d malformed events on %s", malformed, subject)
	}
	return nil
}
