package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/dom/tekky-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	maxIdeaTitleLength       = 200
	maxIdeaDescriptionLength = 5000
)

type IdeaService struct {
	ideaRepo     repository.IdeaRepository
	interestRepo repository.InterestRepository
	userRepo     repository.UserRepository
	notifier     Notifier
	now          func() time.Time
}

func NewIdeaService(ideaRepo repository.IdeaRepository, interestRepo repository.InterestRepository, userRepo repository.UserRepository, notifier Notifier, now func() time.Time) *IdeaService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &IdeaService{
		ideaRepo:     ideaRepo,
		interestRepo: interestRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		now:          now,
	}
}

type IdeaInput struct {
	Title       string
	Description string
	TechStacks  []string
	LookingFor  []string
}

type InterestView struct {
	ID        uuid.UUID           `json:"id"`
	IdeaID    uuid.UUID           `json:"ideaId"`
	UserID    uuid.UUID           `json:"userId"`
	CreatedAt time.Time           `json:"createdAt"`
	User      *domain.UserSummary `json:"user,omitempty"`
}

type IdeaView struct {
	ID          uuid.UUID           `json:"id"`
	OwnerID     uuid.UUID           `json:"ownerId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	TechStacks  []string            `json:"techStacks"`
	LookingFor  []string            `json:"lookingFor"`
	CreatedAt   time.Time           `json:"createdAt"`
	Owner       *domain.UserSummary `json:"owner,omitempty"`
	Interests   []InterestView      `json:"interests,omitempty"`
}

func newInterestView(in *domain.Interest) InterestView {
	view := InterestView{
		ID:        in.ID,
		IdeaID:    in.IdeaID,
		UserID:    in.UserID,
		CreatedAt: in.CreatedAt,
	}
	if in.User != nil {
		summary := in.User.Summary()
		view.User = &summary
	}
	return view
}

func newIdeaView(idea *domain.Idea) IdeaView {
	view := IdeaView{
		ID:          idea.ID,
		OwnerID:     idea.OwnerID,
		Title:       idea.Title,
		Description: idea.Description,
		TechStacks:  nonNil(idea.TechStacks),
		LookingFor:  nonNil(idea.LookingFor),
		CreatedAt:   idea.CreatedAt,
	}
	if idea.Owner != nil {
		owner := idea.Owner.Summary()
		view.Owner = &owner
	}
	return view
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func (s *IdeaService) List(ctx context.Context) ([]IdeaView, error) {
	ideas, err := s.ideaRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]IdeaView, len(ideas))
	for i, idea := range ideas {
		views[i] = newIdeaView(idea)
	}
	return views, nil
}

// Get returns an idea with its owner and every interest sent to it.
func (s *IdeaService) Get(ctx context.Context, ideaID uuid.UUID) (*IdeaView, error) {
	idea, err := s.ideaRepo.GetByID(ctx, ideaID)
	if err != nil {
		return nil, ideaLookupError(err)
	}

	view := newIdeaView(idea)
	view.Interests = make([]InterestView, len(idea.Interests))
	for i, in := range idea.Interests {
		view.Interests[i] = newInterestView(in)
	}
	return &view, nil
}

func (s *IdeaService) Create(ctx context.Context, ownerID uuid.UUID, input IdeaInput) (*IdeaView, error) {
	title := sanitizeText(input.Title)
	description := sanitizeText(input.Description)
	if title == "" || description == "" {
		return nil, domain.NewValidationError("Missing fields")
	}
	if len([]rune(title)) > maxIdeaTitleLength || len([]rune(description)) > maxIdeaDescriptionLength {
		return nil, domain.NewValidationError("Title or description is too long")
	}

	idea := &domain.Idea{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		TechStacks:  datatypes.JSONSlice[string](sanitizeList(input.TechStacks)),
		LookingFor:  datatypes.JSONSlice[string](sanitizeList(input.LookingFor)),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.ideaRepo.Create(ctx, idea); err != nil {
		return nil, err
	}

	view := newIdeaView(idea)
	return &view, nil
}

// SendInterest records that userID wants to join ideaID. Owners cannot
// apply to their own ideas and each user may apply once.
func (s *IdeaService) SendInterest(ctx context.Context, ideaID, userID uuid.UUID) (*InterestView, error) {
	idea, err := s.ideaRepo.GetByID(ctx, ideaID)
	if err != nil {
		return nil, ideaLookupError(err)
	}

	if idea.OwnerID == userID {
		return nil, domain.NewValidationError("You cannot apply to your own idea")
	}

	if _, err := s.interestRepo.Get(ctx, ideaID, userID); err == nil {
		return nil, domain.NewConflictError("Interest already sent")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	interest := &domain.Interest{
		ID:        uuid.New(),
		IdeaID:    ideaID,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.interestRepo.Create(ctx, interest); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.NewConflictError("Interest already sent")
		}
		return nil, err
	}

	if user, err := s.userRepo.GetByID(ctx, userID); err == nil {
		s.notifier.Notify(idea.OwnerID, domain.Notification{
			Type:    domain.NotificationIdeaInterest,
			Payload: domain.IdeaInterestPayload{IdeaID: ideaID, By: user.Summary()},
		})
	}

	view := newInterestView(interest)
	return &view, nil
}

func ideaLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewNotFoundError("Idea not found")
	}
	return err
}
