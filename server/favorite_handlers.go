package server

import (
	"encoding/json"
	"errors"
	"strconv"

	"somnia/models"
	"somnia/repository"

	"github.com/gofiber/fiber/v2"
)

// GetFavorites handles GET /api/favorites, newest first.
func (s *Server) GetFavorites(c *fiber.Ctx) error {
	sess := s.sessionUser(c)

	favorites, err := s.favoriteRepo.ListByUser(c.Context(), sess.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"status":    "success",
		"favorites": favorites,
	})
}

// AddFavorite handles POST /api/favorites
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	sess := s.sessionUser(c)

	var req models.AddFavoriteRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := models.Validate(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("chatHistory must contain at least one entry"))
	}

	conversation, err := json.Marshal(req.ChatHistory)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	favorite := &models.Favorite{
		UserID:       sess.ID,
		Conversation: string(conversation),
	}

	if err := s.favoriteRepo.Create(c.Context(), favorite); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":   "success",
		"favorite": favorite,
	})
}

// DeleteFavorite handles DELETE /api/favorites/:id. A favorite owned by
// another user reads as not-found, never forbidden.
func (s *Server) DeleteFavorite(c *fiber.Ctx) error {
	sess := s.sessionUser(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid favorite id"))
	}

	if err := s.favoriteRepo.DeleteOwned(c.Context(), uint(id), sess.ID); err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Favorite not found"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Favorite deleted",
	})
}
