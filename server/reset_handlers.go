package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"somnia/models"
	"somnia/repository"
	"somnia/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = 10 * time.Minute

const resetRequestedMsg = "If the account exists, a password reset email has been sent"

// generateResetToken returns 32 random bytes, hex encoded.
func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// PasswordResetRequest handles POST /api/passwordResetRequest. A new request
// overwrites any pending token for the user.
func (s *Server) PasswordResetRequest(c *fiber.Ctx) error {
	var req models.PasswordResetRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := models.Validate(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username and a valid email are required"))
	}

	user, err := s.userRepo.GetByUsernameAndEmail(c.Context(), req.Username, req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		if s.config.RevealAccountExistence {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("No account matches that username and email"))
		}
		// Do not reveal whether the account exists.
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": resetRequestedMsg,
		})
	}

	token, err := generateResetToken()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	expiresAt := time.Now().Add(resetTokenTTL)
	if err := s.userRepo.SetResetToken(c.Context(), user.ID, token, expiresAt); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	resetURL := s.config.ResetBaseURL + "/" + token
	if err := s.mailer.SendPasswordReset(c.Context(), user.Email, resetURL); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": resetRequestedMsg,
	})
}

// PasswordReset handles POST /api/passwordReset/:token. Redemption is
// single-use: the token clears in the same transaction as the password
// update, and a fresh session is established on success.
func (s *Server) PasswordReset(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid or expired reset token"))
	}

	var req models.PasswordResetRedeemRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := models.Validate(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A new password is required"))
	}
	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user, err := s.userRepo.RedeemResetToken(c.Context(), token, string(hashedPassword))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidResetToken) {
			// Unknown and expired tokens are deliberately indistinguishable.
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid or expired reset token"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	sid, err := s.sessions.Create(c.Context(), models.SessionUser{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	s.setSessionCookie(c, sid)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Password updated",
	})
}
