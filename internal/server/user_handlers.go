package server

import (
	"twitt/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FollowRequest names the edge to create or remove. Follow uses FollowerID as
// the user to follow; unfollow accepts either field.
type FollowRequest struct {
	FollowerID  string `json:"follower_id" form:"follower_id" query:"follower_id"`
	FollowingID string `json:"following_id" form:"following_id" query:"following_id"`
}

// GetMe handles GET /api/users/me
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.User}
// @Failure 401 {object} models.APIResponse
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	user, err := s.authService.Me(c.UserContext(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "User retrieved successfully", user)
}

// GetFollowers handles GET /api/users/:id/followers
// @Summary List followers
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} models.APIResponse{data=[]models.Following}
// @Failure 404 {object} models.APIResponse
// @Router /users/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	edges, err := s.followService.ListFollowers(c.UserContext(), service.ListFollowsInput{
		UserID: c.Params("id"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Followers retrieved successfully", edges)
}

// GetFollowing handles GET /api/users/:id/following
// @Summary List followed users
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} models.APIResponse{data=[]models.Following}
// @Failure 404 {object} models.APIResponse
// @Router /users/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	edges, err := s.followService.ListFollowing(c.UserContext(), service.ListFollowsInput{
		UserID: c.Params("id"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Following retrieved successfully", edges)
}

// Follow handles POST /api/follows
// @Summary Follow a user
// @Tags follows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FollowRequest true "follower_id is the user to follow"
// @Success 201 {object} models.APIResponse{data=models.Following}
// @Success 200 {object} models.APIResponse{data=models.Following}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /follows [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	var req FollowRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}

	edge, created, err := s.followService.Follow(c.UserContext(), userID, req.FollowerID)
	if err != nil {
		return s.respondError(c, err)
	}
	if !created {
		return respond(c, fiber.StatusOK, "Already followed", edge)
	}
	return respond(c, fiber.StatusCreated, "Followed successfully", edge)
}

// Unfollow handles DELETE /api/follows
// @Summary Unfollow a user
// @Description Identify the edge by following_id (edge id) or follower_id (followed user id)
// @Tags follows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FollowRequest true "Edge or user to unfollow"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Router /follows [delete]
func (s *Server) Unfollow(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	var req FollowRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return s.respondError(c, errInvalidBody)
		}
	} else if err := c.QueryParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}

	deleted, err := s.followService.Unfollow(c.UserContext(), service.UnfollowInput{
		UserID:      userID,
		FollowingID: req.FollowingID,
		FollowerID:  req.FollowerID,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	if !deleted {
		return respond(c, fiber.StatusOK, "Already unfollowed.", nil)
	}
	return respond(c, fiber.StatusOK, "Unfollowed successfully", nil)
}

// GetFeed handles GET /api/feed
// @Summary Home feed
// @Description Posts by followed users, newest first, plus follow suggestions
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} models.APIResponse{data=models.Feed}
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	page := parsePagination(c, defaultPageSize)

	feed, err := s.feedService.Feed(c.UserContext(), service.FeedInput{
		UserID: userID,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Feed retrieved successfully", feed)
}
