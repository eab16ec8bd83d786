package handlers

import (
	"errors"
	"strings"

	"github.com/arnold/goalgraph-api/internal/middleware"
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func (a *API) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx := c.UserContext()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Check if teammate exists
	if _, err := a.Store.TeammateByEmail(ctx, email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	teammate := models.Teammate{
		Email:     email,
		Password:  string(hashedPassword),
		Name:      req.Name,
		OrgUnitID: req.OrgUnitID,
	}
	if err := a.Store.CreateTeammate(ctx, &teammate); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create teammate",
		})
	}

	token, err := middleware.GenerateToken(a.JWTSecret, teammate.ID, teammate.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
		Token:    token,
		Teammate: teammate,
	})
}

func (a *API) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	teammate, err := a.Store.TeammateByEmail(c.UserContext(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid credentials",
			})
		}
		return respondError(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teammate.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := middleware.GenerateToken(a.JWTSecret, teammate.ID, teammate.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(models.AuthResponse{
		Token:    token,
		Teammate: *teammate,
	})
}

func (a *API) GetMe(c *fiber.Ctx) error {
	teammate, err := a.viewer(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(teammate)
}
