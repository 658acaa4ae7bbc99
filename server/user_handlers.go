package server

import (
	"somnia/models"
	"somnia/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// GetUserData handles GET /api/getUserData
func (s *Server) GetUserData(c *fiber.Ctx) error {
	sess := s.sessionUser(c)

	user, err := s.userRepo.GetByID(c.Context(), sess.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User not found"))
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"user":   user.Public(),
	})
}

// UpdateUser handles POST /api/updateUser. Only the session's own user is
// ever updated; no target id is accepted from the client.
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	sess := s.sessionUser(c)

	var req models.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := models.Validate(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid profile fields"))
	}

	user, err := s.userRepo.GetByID(c.Context(), sess.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User not found"))
	}

	if req.Username != "" && req.Username != user.Username {
		if err := validation.ValidateUsername(req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		existing, err := s.userRepo.GetByUsername(c.Context(), req.Username)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if existing != nil {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("Username is already taken"))
		}
		user.Username = req.Username
	}

	if req.Email != "" && req.Email != user.Email {
		existing, err := s.userRepo.GetByEmail(c.Context(), req.Email)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if existing != nil {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("Email is already registered"))
		}
		user.Email = req.Email
	}

	user.Age = req.Age
	user.Gender = req.Gender
	user.Stress = req.Stress
	user.DreamTheme = req.DreamTheme

	if err := s.userRepo.UpdateProfile(c.Context(), user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	// Keep the session snapshot in step with the new username.
	if sid, ok := c.Locals("sessionID").(string); ok && sid != "" {
		if err := s.sessions.Update(c.Context(), sid, models.SessionUser{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
		}); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"user":   user.Public(),
	})
}

// ChangePassword handles POST /api/changePassword
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	sess := s.sessionUser(c)

	var req models.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := models.Validate(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Current and new password are required"))
	}
	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	user, err := s.userRepo.GetByID(c.Context(), sess.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User not found"))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Current password is incorrect"))
	}

	if req.NewPassword == req.CurrentPassword {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("New password must differ from the current password"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.userRepo.UpdatePassword(c.Context(), user.ID, string(hashedPassword)); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Password changed",
	})
}

// DeleteAccount handles DELETE /api/deleteAccount. The session goes first:
// a failed row delete leaves the user logged out, never a live session
// pointing at a deleted user.
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	sess := s.sessionUser(c)

	sid, _ := c.Locals("sessionID").(string)
	if err := s.sessions.Destroy(c.Context(), sid); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.userRepo.Delete(c.Context(), sess.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	s.clearSessionCookie(c)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Account deleted",
	})
}
