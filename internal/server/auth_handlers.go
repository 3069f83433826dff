package server

import (
	"twitt/internal/cache"
	"twitt/internal/middleware"
	"twitt/internal/models"
	"twitt/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Username  string `json:"username" form:"username"`
	Email     string `json:"email" form:"email"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Password  string `json:"password" form:"password"`
	Password2 string `json:"password2" form:"password2"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// RefreshRequest carries a refresh token for refresh and logout.
type RefreshRequest struct {
	Refresh string `json:"refresh" form:"refresh"`
}

var errInvalidBody = models.NewValidationError("Request", "Invalid request body")

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new user account and return a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup request"
// @Success 201 {object} models.APIResponse{data=models.AuthPayload}
// @Failure 400 {object} models.APIResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}

	payload, err := s.authService.Signup(c.UserContext(), service.SignupInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Password2: req.Password2,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "User created successfully", payload)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} models.APIResponse{data=models.AuthPayload}
// @Failure 401 {object} models.APIResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}

	payload, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "User Successfully Logged In", payload)
}

// Refresh handles POST /api/auth/refresh
// @Summary Refresh tokens
// @Description Rotate a refresh token; the presented token is revoked
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} models.APIResponse{data=models.TokenPair}
// @Failure 401 {object} models.APIResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	if req.Refresh == "" {
		return s.respondError(c, models.NewValidationError("refresh", "Please provide refresh token."))
	}

	pair, err := s.authService.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Token refreshed successfully", pair)
}

// Logout handles POST /api/auth/logout
// @Summary User logout
// @Description Revoke the access token in use and the supplied refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RefreshRequest false "Refresh token"
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	var req RefreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return s.respondError(c, errInvalidBody)
		}
	}

	if err := s.authService.Logout(c.UserContext(), middleware.Claims(c), req.Refresh); err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "User Successfully Logged out", nil)
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue WebSocket ticket
// @Description Returns a one-time ticket, valid for 30 seconds, for /api/ws/notifications
// @Tags websocket
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=object{ticket=string,expires_in=int}}
// @Failure 503 {object} models.APIResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return s.respondError(c, err)
	}

	ticket, err := s.authService.IssueWSTicket(c.UserContext(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Ticket issued", fiber.Map{
		"ticket":     ticket,
		"expires_in": int(cache.WSTicketTTL.Seconds()),
	})
}
