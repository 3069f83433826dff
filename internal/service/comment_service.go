package service

import (
	"context"
	"errors"

	"twitt/internal/authz"
	"twitt/internal/models"
	"twitt/internal/repository"
	"twitt/internal/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
}

type CreateCommentInput struct {
	UserID  uuid.UUID
	PostID  string
	Comment string
}

type CreateReplyInput struct {
	UserID    uuid.UUID
	CommentID string
	Comment   string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo, userRepo: userRepo}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	postID, err := validation.ParsePostID(in.PostID)
	if err != nil {
		return nil, err
	}
	text, err := validation.Comment(in.Comment)
	if err != nil {
		return nil, err
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, storeError(err, models.ErrPostNotFound)
	}
	author, err := loadActor(ctx, s.userRepo, in.UserID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{UserID: author.ID, PostID: postID, Comment: text}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	comment.User = author
	return comment, nil
}

// CreateReply attaches a comment to a parent. The post is taken from the parent.
func (s *CommentService) CreateReply(ctx context.Context, in CreateReplyInput) (*models.Comment, error) {
	parentID, err := validation.ParseCommentID(in.CommentID)
	if err != nil {
		return nil, err
	}
	text, err := validation.Comment(in.Comment)
	if err != nil {
		return nil, err
	}
	parent, err := s.commentRepo.GetByID(ctx, parentID)
	if err != nil {
		return nil, storeError(err, models.ErrCommentNotFound)
	}
	author, err := loadActor(ctx, s.userRepo, in.UserID)
	if err != nil {
		return nil, err
	}

	reply := &models.Comment{
		UserID:    author.ID,
		PostID:    parent.PostID,
		ReplyToID: &parent.ID,
		Comment:   text,
	}
	if err := s.commentRepo.Create(ctx, reply); err != nil {
		return nil, models.NewInternalError(err)
	}
	reply.User = author
	return reply, nil
}

// ListComments returns a post's top-level comments with their replies.
func (s *CommentService) ListComments(ctx context.Context, rawPostID string) ([]models.Comment, error) {
	postID, err := validation.ParsePostID(rawPostID)
	if err != nil {
		return nil, err
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, storeError(err, models.ErrPostNotFound)
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// DeleteComment removes a comment and its replies. Only the author may delete.
func (s *CommentService) DeleteComment(ctx context.Context, actorID uuid.UUID, rawCommentID string) error {
	commentID, err := validation.ParseCommentID(rawCommentID)
	if err != nil {
		return err
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return storeError(err, models.ErrCommentNotFound)
	}
	actor, err := loadActor(ctx, s.userRepo, actorID)
	if err != nil {
		return err
	}
	if !authz.CanDeleteComment(actor, comment) {
		return models.NewForbiddenError()
	}
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrCommentNotFound
		}
		return models.NewInternalError(err)
	}
	return nil
}
