package server

import (
	"twitt/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CommentRequest is the body for comments and replies.
type CommentRequest struct {
	Comment string `json:"comment" form:"comment"`
}

// ListComments handles GET /api/posts/:id/comments
// @Summary List comments
// @Description Top-level comments of a post with their replies, oldest first
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} models.APIResponse{data=[]models.Comment}
// @Failure 404 {object} models.APIResponse
// @Router /posts/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Comments retrieved successfully", comments)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} models.APIResponse{data=models.Comment}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  userID,
		PostID:  c.Params("id"),
		Comment: req.Comment,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Comment created successfully", comment)
}

// CreateReply handles POST /api/comments/:id/replies
// @Summary Reply to a comment
// @Description The reply belongs to the parent comment's post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent comment ID"
// @Param request body CommentRequest true "Reply"
// @Success 201 {object} models.APIResponse{data=models.Comment}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /comments/{id}/replies [post]
func (s *Server) CreateReply(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}

	reply, err := s.commentService.CreateReply(c.UserContext(), service.CreateReplyInput{
		UserID:    userID,
		CommentID: c.Params("id"),
		Comment:   req.Comment,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Reply comment created successfully", reply)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Description Author only. Replies are deleted with it.
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.commentService.DeleteComment(c.UserContext(), userID, c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Comment deleted successfully", nil)
}
