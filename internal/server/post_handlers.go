package server

import (
	"strings"

	"twitt/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdatePostRequest is the JSON form of PATCH /api/posts/:id.
type UpdatePostRequest struct {
	Caption *string `json:"caption"`
}

// ListPosts handles GET /api/posts
// @Summary List my posts
// @Description Returns the authenticated user's posts, newest first
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} models.APIResponse{data=[]models.Post}
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}
	page := parsePagination(c, defaultPageSize)

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		UserID: userID,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Posts retrieved successfully", posts)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Upload an image with a caption. Followers are notified.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Post image"
// @Param caption formData string true "Caption"
// @Success 201 {object} models.APIResponse{data=models.Post}
// @Failure 400 {object} models.APIResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	image, err := readFormFile(c, "image")
	if err != nil {
		return s.respondError(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:  userID,
		Image:   image,
		Caption: c.FormValue("caption"),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Post created successfully", post)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Description Owner or admin only
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} models.APIResponse{data=models.Post}
// @Failure 400 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	post, err := s.postService.GetPost(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Post retrieved successfully", post)
}

// UpdatePost handles PATCH /api/posts/:id
// @Summary Update a post
// @Description Partial update of caption and/or image. Omitted fields are kept.
// @Tags posts
// @Accept multipart/form-data,json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param image formData file false "New image"
// @Param caption formData string false "New caption"
// @Success 200 {object} models.APIResponse{data=models.Post}
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	in := service.UpdatePostInput{UserID: userID, PostID: c.Params("id")}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return s.respondError(c, errInvalidBody)
		}
		if vals, ok := form.Value["caption"]; ok && len(vals) > 0 {
			caption := vals[0]
			in.Caption = &caption
		}
		if in.Image, err = readFormFile(c, "image"); err != nil {
			return s.respondError(c, err)
		}
	} else if len(c.Body()) > 0 {
		var req UpdatePostRequest
		if err := c.BodyParser(&req); err != nil {
			return s.respondError(c, errInvalidBody)
		}
		in.Caption = req.Caption
	}

	post, err := s.postService.UpdatePost(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Post updated successfully", post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Removes the post with its likes, comments and stored image
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.postService.DeletePost(c.UserContext(), userID, c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Post Deleted Successfully", nil)
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like a post
// @Description Liking twice is a no-op. The post owner is notified of new likes.
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 201 {object} models.APIResponse{data=models.Post}
// @Success 200 {object} models.APIResponse{data=models.Post}
// @Failure 404 {object} models.APIResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	res, err := s.likeService.Like(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	if !res.Changed {
		return respond(c, fiber.StatusOK, "Already Liked Post", res.Post)
	}
	return respond(c, fiber.StatusCreated, "Liked Post Successfully", res.Post)
}

// DislikePost handles DELETE /api/posts/:id/like
// @Summary Remove a like
// @Description The like counter is not decremented.
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} models.APIResponse{data=models.Post}
// @Failure 404 {object} models.APIResponse
// @Router /posts/{id}/like [delete]
func (s *Server) DislikePost(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	res, err := s.likeService.Dislike(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return s.respondError(c, err)
	}
	if !res.Changed {
		return respond(c, fiber.StatusOK, "you have not liked post earlier or already disliked the post.", res.Post)
	}
	return respond(c, fiber.StatusOK, "Disliked Post Successfully", res.Post)
}
