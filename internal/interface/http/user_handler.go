package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-registration/internal/application"
	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
	"github.com/oksasatya/go-ddd-user-registration/pkg/response"
	"github.com/oksasatya/go-ddd-user-registration/pkg/validation"
)

// UserCreator is the use case behind POST /users.
type UserCreator interface {
	Execute(ctx context.Context, in application.CreateUserInput) (application.UserOutput, error)
}

type UserHandler struct {
	Svc    UserCreator
	Logger *logrus.Logger
}

func NewUserHandler(svc UserCreator, logger *logrus.Logger) *UserHandler {
	validation.Init()
	return &UserHandler{Svc: svc, Logger: logger}
}

// CreateUserRequest is the registration payload as it arrives at the boundary.
type CreateUserRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	Email    string  `json:"email" binding:"required,email,max=255"`
	RoleID   int64   `json:"role_id" binding:"required,gt=0"`
	Password *string `json:"password" binding:"omitempty,notblank,pwd,max=255"`
}

// Normalize strips surrounding whitespace from every string field and
// lowercases the email domain. It runs before validation.
func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	if r.Password != nil {
		p := strings.TrimSpace(*r.Password)
		r.Password = &p
	}
}

// Validate normalizes the request and checks it against the binding rules.
func (r *CreateUserRequest) Validate() error {
	r.Normalize()
	return validation.Struct(r)
}

func (r *CreateUserRequest) Input() application.CreateUserInput {
	return application.CreateUserInput{
		Name:     r.Name,
		Email:    r.Email,
		RoleID:   r.RoleID,
		Password: r.Password,
	}
}

// the local part is case sensitive, the domain is not
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := validation.DecodeJSON(c.Request.Body, &req); err != nil {
		response.Problem(c, problem.InvalidPayload(validation.ToDetails(err)))
		return
	}
	if err := req.Validate(); err != nil {
		response.Problem(c, problem.InvalidPayload(validation.ToDetails(err)))
		return
	}

	out, err := h.Svc.Execute(c.Request.Context(), req.Input())
	if err != nil {
		response.Error(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusCreated, out)
}
