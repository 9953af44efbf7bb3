package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/queries"
	"github.com/DedS3t/monopoly-engine/platform/session"
	"github.com/go-pg/pg/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Rooms reads the live state of a room.
type Rooms interface {
	Session(ctx context.Context, id string) (*session.Session, error)
}

type GameController struct {
	DB    *pg.DB
	Rooms Rooms
}

func (g *GameController) CreateGame(c *fiber.Ctx) error {
	gameCreateDto := new(models.GameCreateDto)
	if err := c.BodyParser(gameCreateDto); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	name := strings.TrimSpace(gameCreateDto.Name)
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	game, err := queries.CreateGame(c.Context(), name, gameCreateDto.Seats, g.DB)
	if err != nil {
		log.WithError(err).Error("create game")
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": game.Id, "seats": game.Seats})
}

func (g *GameController) VerifyGame(c *fiber.Ctx) error {
	verifyGameDto := new(models.VerifyGameDto)
	if err := c.QueryParser(verifyGameDto); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	return c.JSON(fiber.Map{"status": queries.VerifyGame(c.Context(), verifyGameDto.Code, g.DB)})
}

// GameState returns the current snapshot of a room.
func (g *GameController) GameState(c *fiber.Ctx) error {
	if _, err := currentIdentity(c); err != nil {
		return fiber.ErrUnauthorized
	}
	s, err := g.Rooms.Session(c.Context(), c.Params("id"))
	if errors.Is(err, queries.ErrGameNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		log.WithError(err).WithField("room", c.Params("id")).Error("load room")
		return fiber.ErrInternalServerError
	}
	room, err := s.Snapshot(c.Context())
	if err != nil {
		return fiber.ErrServiceUnavailable
	}
	return c.JSON(room)
}
