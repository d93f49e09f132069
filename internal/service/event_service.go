package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/eventify/internal/model"
	"github.com/iliyamo/eventify/internal/repository"
)

// NewTicketType describes one ticket type of a new event.
type NewTicketType struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// NewEvent is the input of CreateEvent.
type NewEvent struct {
	Title       string
	Venue       string
	StartsAt    time.Time
	TicketTypes []NewTicketType
}

// CreateEvent stores a DRAFT event owned by the calling organizer.
// Every ticket type starts with nothing sold.
func (s *BookingService) CreateEvent(ctx context.Context, in NewEvent, actor Actor) (*model.Event, error) {
	if !actor.isAdmin() && actor.Role != model.RoleOrganizer {
		return nil, repository.ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if in.StartsAt.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", ErrInvalidEvent)
	}
	if len(in.TicketTypes) == 0 {
		return nil, fmt.Errorf("%w: at least one ticket type is required", ErrInvalidEvent)
	}

	e := &model.Event{
		OrganizerID: actor.ID,
		Title:       title,
		Venue:       strings.TrimSpace(in.Venue),
		StartsAt:    in.StartsAt.UTC(),
		Status:      model.EventDraft,
	}
	seen := make(map[string]bool, len(in.TicketTypes))
	for _, tt := range in.TicketTypes {
		key := model.NormalizeTicketTypeName(tt.Name)
		switch {
		case key == "":
			return nil, fmt.Errorf("%w: ticket type name is required", ErrInvalidEvent)
		case seen[key]:
			return nil, fmt.Errorf("%w: duplicate ticket type %q", ErrInvalidEvent, tt.Name)
		case tt.Price.IsNegative():
			return nil, fmt.Errorf("%w: price of %q must not be negative", ErrInvalidEvent, tt.Name)
		case tt.Quantity < 0:
			return nil, fmt.Errorf("%w: quantity of %q must not be negative", ErrInvalidEvent, tt.Name)
		}
		seen[key] = true
		e.TicketTypes = append(e.TicketTypes, model.TicketType{
			Name:     strings.TrimSpace(tt.Name),
			Price:    tt.Price,
			Quantity: tt.Quantity,
		})
	}

	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	s.log.Info("event created", zap.Uint64("event_id", e.ID), zap.Uint64("organizer_id", actor.ID))
	return e, nil
}

// PublishEvent opens a DRAFT event for booking.
func (s *BookingService) PublishEvent(ctx context.Context, eventID uint64, actor Actor) (*model.Event, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.isAdmin() && e.OrganizerID != actor.ID {
		return nil, repository.ErrForbidden
	}
	if e.Status != model.EventDraft {
		return nil, ErrEventNotDraft
	}
	if err := s.store.SetEventStatus(ctx, eventID, model.EventPublished); err != nil {
		return nil, err
	}
	e.Status = model.EventPublished
	s.log.Info("event published", zap.Uint64("event_id", e.ID))
	return e, nil
}

// GetEvent returns a published event with its current ledger.  Drafts
// are not visible.
func (s *BookingService) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.Status == model.EventDraft {
		return nil, repository.ErrEventNotFound
	}
	return e, nil
}
