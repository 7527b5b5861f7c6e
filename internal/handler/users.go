package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/akave-ai/userapi/internal/model"
	"github.com/akave-ai/userapi/internal/repository"
	"github.com/akave-ai/userapi/internal/response"
)

// UserHandler serves the users resource. Storage failures are returned as
// errors and answered by the error handler; only client mistakes are answered
// here.
type UserHandler struct {
	Users    repository.UserRepository
	Validate *validator.Validate
}

// NewUserHandler returns a UserHandler whose validation messages use JSON field names.
func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{Users: users, Validate: newValidator()}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Register mounts the routes on g.
func (h *UserHandler) Register(g *echo.Group) {
	g.GET("/users", h.ListUsers)
	g.POST("/users", h.CreateUser)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/users/:id", h.UpdateUser)
	g.DELETE("/users/:id", h.DeleteUser)
}

// ListUsers returns all users, newest first (GET /users).
func (h *UserHandler) ListUsers(c echo.Context) error {
	list, err := h.Users.List(c.Request().Context())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return response.OK(c, list, "")
}

// CreateUser validates and stores a new user (POST /users).
func (h *UserHandler) CreateUser(c echo.Context) error {
	in, ok, err := h.bindInput(c)
	if !ok {
		return err
	}

	var u model.User
	in.Apply(&u)
	if err := h.Users.Create(c.Request().Context(), &u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return response.Conflict(c, "email already in use")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return response.Created(c, u, "user created")
}

// GetUser returns one user (GET /users/:id).
func (h *UserHandler) GetUser(c echo.Context) error {
	id, ok := userID(c)
	if !ok {
		return response.NotFound(c, "user not found")
	}

	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return fmt.Errorf("get user %s: %w", id, err)
	}
	return response.OK(c, u, "")
}

// UpdateUser replaces name and email of a user (PUT /users/:id).
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, ok := userID(c)
	if !ok {
		return response.NotFound(c, "user not found")
	}

	in, ok, err := h.bindInput(c)
	if !ok {
		return err
	}

	u := model.User{ID: id}
	in.Apply(&u)
	if err := h.Users.Update(c.Request().Context(), &u); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return response.NotFound(c, "user not found")
		case errors.Is(err, repository.ErrDuplicateEmail):
			return response.Conflict(c, "email already in use")
		}
		return fmt.Errorf("update user %s: %w", id, err)
	}
	return response.OK(c, u, "user updated")
}

// DeleteUser removes a user (DELETE /users/:id).
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, ok := userID(c)
	if !ok {
		return response.NotFound(c, "user not found")
	}

	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return response.OK(c, map[string]string{"id": id}, "user deleted")
}

// bindInput decodes and validates the request body. When ok is false the
// client has already been answered and err is what the handler must return.
func (h *UserHandler) bindInput(c echo.Context) (in model.UserInput, ok bool, err error) {
	if err := c.Bind(&in); err != nil {
		return in, false, response.BadRequest(c, "invalid request body", "body must be a JSON object with string fields")
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := h.Validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return in, false, response.BadRequest(c, "validation failed", describe(verrs))
		}
		return in, false, fmt.Errorf("validate user input: %w", err)
	}
	return in, true, nil
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email address")
		case "max":
			msgs = append(msgs, fe.Field()+" must be at most "+fe.Param()+" characters")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// userID returns the path id when it is a well-formed UUID.
func userID(c echo.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
