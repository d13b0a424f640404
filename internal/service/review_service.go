package service

import (
	"context"
	"strings"

	"github.com/iliyamo/event-reservation/internal/apperror"
	"github.com/iliyamo/event-reservation/internal/model"
)

type ReviewService struct {
	reviews       ReviewStore
	users         UserStore
	events        EventStore
	allowMultiple bool
}

// NewReviewService builds the service. With allowMultiple false a user may
// hold only one active review per event.
func NewReviewService(reviews ReviewStore, users UserStore, events EventStore, allowMultiple bool) *ReviewService {
	return &ReviewService{reviews: reviews, users: users, events: events, allowMultiple: allowMultiple}
}

type CreateReviewInput struct {
	UserID  uint64 `json:"userId"`
	EventID uint64 `json:"eventId"`
	Rating  *int   `json:"rating"`
	Text    string `json:"reviewText"`
}

// Create validates in, checks that user and event are active and stores
// the review.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (model.ReviewDetail, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" || in.Rating == nil || in.UserID == 0 || in.EventID == 0 {
		return model.ReviewDetail{}, apperror.Validation("userId, eventId, rating and reviewText are required")
	}
	if *in.Rating < 0 || *in.Rating > 5 {
		return model.ReviewDetail{}, apperror.Validation("rating must be between 0 and 5")
	}

	u, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return model.ReviewDetail{}, orNotFound(err, apperror.ErrUserNotFound, "could not load user")
	}
	e, err := s.events.GetByID(ctx, in.EventID)
	if err != nil {
		return model.ReviewDetail{}, orNotFound(err, apperror.ErrEventNotFound, "could not load event")
	}

	if !s.allowMultiple {
		exists, err := s.reviews.ExistsActive(ctx, in.UserID, in.EventID)
		if err != nil {
			return model.ReviewDetail{}, apperror.Internal("could not check reviews", err)
		}
		if exists {
			return model.ReviewDetail{}, apperror.ErrDuplicateReview
		}
	}

	rv := model.Review{UserID: in.UserID, EventID: in.EventID, Rating: *in.Rating, Text: text}
	if err := s.reviews.Create(ctx, &rv); err != nil {
		return model.ReviewDetail{}, apperror.Internal("could not create review", err)
	}
	return model.ReviewDetail{
		Review: rv,
		User:   &model.UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email},
		Event: &model.EventSummary{
			ID: e.ID, Name: e.Name, StartDate: e.StartDate, EndDate: e.EndDate,
			Venue: e.Venue, City: e.City, Country: e.Country, Status: e.Status,
		},
	}, nil
}

// Get returns an active review.
func (s *ReviewService) Get(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return model.Review{}, orNotFound(err, apperror.ErrReviewNotFound, "could not load review")
	}
	return rv, nil
}

// Delete soft-deletes a review.
func (s *ReviewService) Delete(ctx context.Context, id uint64) error {
	if err := s.reviews.SoftDelete(ctx, id); err != nil {
		return orNotFound(err, apperror.ErrReviewNotFound, "could not delete review")
	}
	return nil
}

// ListByEvent returns the active reviews of an active event.
func (s *ReviewService) ListByEvent(ctx context.Context, eventID uint64) ([]model.ReviewDetail, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, orNotFound(err, apperror.ErrEventNotFound, "could not load event")
	}
	list, err := s.reviews.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperror.Internal("could not list reviews", err)
	}
	return list, nil
}
