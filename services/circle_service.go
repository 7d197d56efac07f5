package services

import (
	"context"
	"fmt"

	"github.com/akinalp/circles/embedding"
	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/repository"
	"go.uber.org/zap"
)

type CircleService interface {
	// Create makes actorID the circle's representative.
	Create(ctx context.Context, actorID string, req *models.CircleRequest) (*models.Circle, error)
	Update(ctx context.Context, actorID, circleID string, req *models.CircleRequest) (*models.Circle, error)
	// Delete is reserved to the representative.
	Delete(ctx context.Context, actorID, circleID string) error
	Get(ctx context.Context, circleID string) (*models.Circle, error)
	List(ctx context.Context) ([]models.Circle, error)
	Members(ctx context.Context, circleID string) ([]models.CircleMember, error)
}

// CandidateInvalidator is notified whenever circle embeddings may change.
type CandidateInvalidator interface {
	InvalidateCandidates()
}

type circleService struct {
	store       *repository.Store
	embedder    embedding.Embedder
	invalidator CandidateInvalidator
	log         *zap.Logger
}

func NewCircleService(
	store *repository.Store,
	embedder embedding.Embedder,
	invalidator CandidateInvalidator,
	logger *zap.Logger,
) CircleService {
	return &circleService{
		store:       store,
		embedder:    embedder,
		invalidator: invalidator,
		log:         logger.Named("circle"),
	}
}

// Create inserts the circle with its tags, instructors and the creator as
// representative in one transaction.
func (s *circleService) Create(ctx context.Context, actorID string, req *models.CircleRequest) (*models.Circle, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if err := s.checkName(ctx, req.Name, ""); err != nil {
		return nil, err
	}
	if err := s.checkInstructors(ctx, req.InstructorIDs); err != nil {
		return nil, err
	}

	circle := &models.Circle{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		ImagePath:   req.ImagePath,
		ActivityDay: req.ActivityDay,
		Embedding:   s.embed(ctx, req),
	}

	err := s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if err := tx.Circles.Create(ctx, circle); err != nil {
			return err
		}
		if err := tx.Circles.AddTags(ctx, circle.ID, req.Tags); err != nil {
			return err
		}
		if err := tx.Circles.AddInstructors(ctx, circle.ID, req.InstructorIDs); err != nil {
			return err
		}
		return tx.Members.Add(ctx, &models.CircleMember{
			CircleID: circle.ID,
			UserID:   actorID,
			Role:     models.RoleRepresentative,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.InvalidateCandidates()
	s.log.Info("circle created", zap.String("circle_id", circle.ID), zap.String("by", actorID))

	return s.store.Circles.GetByID(ctx, circle.ID)
}

// Update rewrites the circle and diffs its tags and instructors against the
// request. The embedding is regenerated from the new text.
func (s *circleService) Update(ctx context.Context, actorID, circleID string, req *models.CircleRequest) (*models.Circle, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if _, err := requireAdmin(ctx, s.store.Repos, circleID, actorID); err != nil {
		return nil, err
	}

	circle, err := s.store.Circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}

	if err := s.checkName(ctx, req.Name, circleID); err != nil {
		return nil, err
	}
	if err := s.checkInstructors(ctx, req.InstructorIDs); err != nil {
		return nil, err
	}

	circle.Name = req.Name
	circle.Description = req.Description
	circle.Location = req.Location
	circle.ImagePath = req.ImagePath
	circle.ActivityDay = req.ActivityDay
	// A failed or empty re-embed keeps the stored vector.
	if vec := s.embed(ctx, req); len(vec) > 0 {
		circle.Embedding = vec
	}

	err = s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if err := tx.Circles.Update(ctx, circle); err != nil {
			return err
		}
		if len(circle.Embedding) > 0 {
			if err := tx.Circles.UpdateEmbedding(ctx, circleID, circle.Embedding); err != nil {
				return err
			}
		}

		tags, err := tx.Circles.ListTags(ctx, circleID)
		if err != nil {
			return err
		}
		addTags, removeTags := models.SetDiff(tags, req.Tags)
		if err := tx.Circles.RemoveTags(ctx, circleID, removeTags); err != nil {
			return err
		}
		if err := tx.Circles.AddTags(ctx, circleID, addTags); err != nil {
			return err
		}

		instructors, err := tx.Circles.ListInstructorIDs(ctx, circleID)
		if err != nil {
			return err
		}
		addIDs, removeIDs := models.SetDiff(instructors, req.InstructorIDs)
		if err := tx.Circles.RemoveInstructors(ctx, circleID, removeIDs); err != nil {
			return err
		}
		return tx.Circles.AddInstructors(ctx, circleID, addIDs)
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.InvalidateCandidates()

	return s.store.Circles.GetByID(ctx, circleID)
}

func (s *circleService) Delete(ctx context.Context, actorID, circleID string) error {
	member, err := requireMember(ctx, s.store.Repos, circleID, actorID)
	if err != nil {
		return err
	}
	if member.Role != models.RoleRepresentative {
		return fmt.Errorf("%w: only the representative can delete the circle", pkg.ErrForbidden)
	}

	if err := s.store.Circles.SoftDelete(ctx, circleID); err != nil {
		return err
	}

	s.invalidator.InvalidateCandidates()
	s.log.Info("circle deleted", zap.String("circle_id", circleID), zap.String("by", actorID))
	return nil
}

func (s *circleService) Get(ctx context.Context, circleID string) (*models.Circle, error) {
	return s.store.Circles.GetByID(ctx, circleID)
}

func (s *circleService) List(ctx context.Context) ([]models.Circle, error) {
	circles, err := s.store.Circles.List(ctx)
	if err != nil {
		return nil, err
	}
	if circles == nil {
		circles = []models.Circle{}
	}
	return circles, nil
}

func (s *circleService) Members(ctx context.Context, circleID string) ([]models.CircleMember, error) {
	if _, err := s.store.Circles.GetByID(ctx, circleID); err != nil {
		return nil, err
	}
	members, err := s.store.Members.ListActive(ctx, circleID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []models.CircleMember{}
	}
	return members, nil
}

func (s *circleService) checkName(ctx context.Context, name, excludeID string) error {
	taken, err := s.store.Circles.NameTaken(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: circle name already taken", pkg.ErrAlreadyExists)
	}
	return nil
}

func (s *circleService) checkInstructors(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.store.Users.ExistingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return fmt.Errorf("%w: unknown instructor id", pkg.ErrBadRequest)
	}
	return nil
}

// embed returns nil when the provider fails; the circle is saved without a
// vector and picked up later by the backfill command.
func (s *circleService) embed(ctx context.Context, req *models.CircleRequest) []float32 {
	text := models.EmbeddingText(req.Name, req.Tags, req.Description)
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.log.Warn("failed to embed circle", zap.String("name", req.Name), zap.String("engine", s.embedder.Name()), zap.Error(err))
		return nil
	}
	return vec
}
