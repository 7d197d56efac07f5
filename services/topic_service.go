package services

import (
	"context"
	"fmt"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/i18n"
	"github.com/akinalp/circles/repository"
	"go.uber.org/zap"
)

// TopicService manages threads, announcements and their comments.
//
// Any active member may open a thread; announcements are for admins.
// Threads can be edited or removed by their author or an admin,
// announcements by admins only.
type TopicService interface {
	Create(ctx context.Context, userID, circleID string, t models.TopicType, req *models.TopicRequest) (*models.Topic, error)
	Update(ctx context.Context, userID, topicID string, req *models.TopicRequest) (*models.Topic, error)
	Delete(ctx context.Context, userID, topicID string) error
	List(ctx context.Context, circleID string, t models.TopicType) ([]models.Topic, error)
	// Get returns the topic with its comments, oldest first.
	Get(ctx context.Context, topicID string) (*models.Topic, error)

	CreateComment(ctx context.Context, userID, topicID string, req *models.CommentRequest) (*models.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID string) error
}

type topicService struct {
	store         *repository.Store
	notifications NotificationService
	language      string
	log           *zap.Logger
}

func NewTopicService(
	store *repository.Store,
	notifications NotificationService,
	defaultLanguage string,
	logger *zap.Logger,
) TopicService {
	return &topicService{
		store:         store,
		notifications: notifications,
		language:      defaultLanguage,
		log:           logger.Named("topic"),
	}
}

func (s *topicService) Create(ctx context.Context, userID, circleID string, t models.TopicType, req *models.TopicRequest) (*models.Topic, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: invalid topic type", pkg.ErrBadRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	circle, err := s.store.Circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}

	member, err := requireMember(ctx, s.store.Repos, circleID, userID)
	if err != nil {
		return nil, err
	}
	if t == models.TopicAnnouncement && !member.Role.IsAdmin() {
		return nil, fmt.Errorf("%w: only circle admins can post announcements", pkg.ErrForbidden)
	}

	topic := &models.Topic{
		CircleID:    circleID,
		UserID:      userID,
		Type:        t,
		Title:       req.Title,
		Content:     req.Content,
		IsImportant: t == models.TopicAnnouncement && req.IsImportant,
	}
	if err := s.store.Topics.Create(ctx, topic); err != nil {
		return nil, err
	}

	s.notifyMembers(ctx, circle, topic)

	return s.store.Topics.GetByID(ctx, topic.ID)
}

func (s *topicService) Update(ctx context.Context, userID, topicID string, req *models.TopicRequest) (*models.Topic, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	topic, err := s.store.Topics.GetByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if err := s.canModify(ctx, topic, userID); err != nil {
		return nil, err
	}

	topic.Title = req.Title
	topic.Content = req.Content
	topic.IsImportant = topic.Type == models.TopicAnnouncement && req.IsImportant

	if err := s.store.Topics.Update(ctx, topic); err != nil {
		return nil, err
	}
	return s.store.Topics.GetByID(ctx, topicID)
}

func (s *topicService) Delete(ctx context.Context, userID, topicID string) error {
	topic, err := s.store.Topics.GetByID(ctx, topicID)
	if err != nil {
		return err
	}
	if err := s.canModify(ctx, topic, userID); err != nil {
		return err
	}
	return s.store.Topics.SoftDelete(ctx, topicID)
}

func (s *topicService) List(ctx context.Context, circleID string, t models.TopicType) ([]models.Topic, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: invalid topic type", pkg.ErrBadRequest)
	}
	topics, err := s.store.Topics.ListByCircle(ctx, circleID, t)
	if err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []models.Topic{}
	}
	return topics, nil
}

func (s *topicService) Get(ctx context.Context, topicID string) (*models.Topic, error) {
	topic, err := s.store.Topics.GetByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.Topics.ListComments(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	topic.Comments = comments
	return topic, nil
}

func (s *topicService) CreateComment(ctx context.Context, userID, topicID string, req *models.CommentRequest) (*models.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	topic, err := s.store.Topics.GetByID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.store.Repos, topic.CircleID, userID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TopicID: topicID,
		UserID:  userID,
		Content: req.Content,
	}
	if err := s.store.Topics.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return s.store.Topics.GetComment(ctx, comment.ID)
}

// DeleteComment is allowed to the comment's author and circle admins.
func (s *topicService) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := s.store.Topics.GetComment(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != userID {
		topic, err := s.store.Topics.GetByID(ctx, comment.TopicID)
		if err != nil {
			return err
		}
		if _, err := requireAdmin(ctx, s.store.Repos, topic.CircleID, userID); err != nil {
			return err
		}
	}

	return s.store.Topics.SoftDeleteComment(ctx, commentID)
}

func (s *topicService) canModify(ctx context.Context, topic *models.Topic, userID string) error {
	if topic.Type == models.TopicThread && topic.UserID == userID {
		return nil
	}
	_, err := requireAdmin(ctx, s.store.Repos, topic.CircleID, userID)
	return err
}

func (s *topicService) notifyMembers(ctx context.Context, circle *models.Circle, topic *models.Topic) {
	members, err := s.store.Members.ListActiveUserIDs(ctx, circle.ID)
	if err != nil {
		s.log.Warn("failed to list circle members", zap.String("circle_id", circle.ID), zap.Error(err))
		return
	}

	l := i18n.NewLocalizer(s.language)
	n := &models.NewNotification{
		Content:         strPtr(topic.Title),
		CircleID:        &circle.ID,
		RelatedEntityID: &topic.ID,
		RecipientIDs:    without(members, topic.UserID),
	}
	params := map[string]string{"circle": circle.Name}
	if topic.Type == models.TopicAnnouncement {
		n.Type = models.NotificationCircleAnnouncement
		n.Title = l.TWithParams("notification.announcement_title", params)
	} else {
		n.Type = models.NotificationCircleThread
		n.Title = l.TWithParams("notification.thread_title", params)
	}

	if _, err := s.notifications.Notify(ctx, n); err != nil {
		s.log.Warn("failed to notify topic", zap.String("topic_id", topic.ID), zap.Error(err))
	}
}
