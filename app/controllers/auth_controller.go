package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/identity"
	"github.com/DedS3t/monopoly-engine/platform/queries"
	jwt "github.com/form3tech-oss/jwt-go"
	"github.com/go-pg/pg/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct {
	DB       *pg.DB
	Secret   []byte
	TokenTTL time.Duration
}

func (a *AuthController) CreateUser(c *fiber.Ctx) error {
	userDto := new(models.UserDto)
	if err := c.BodyParser(userDto); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	userDto.Email = strings.TrimSpace(strings.ToLower(userDto.Email))
	if userDto.Email == "" || len(userDto.Pass) < 6 {
		return fiber.NewError(fiber.StatusBadRequest, "email and a password of at least 6 characters are required")
	}
	if userDto.Name == "" {
		userDto.Name = strings.Split(userDto.Email, "@")[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(userDto.Pass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := queries.NewUser(userDto.Email, userDto.Name, string(hash))
	if err := queries.CreateUser(c.Context(), user, a.DB); err != nil {
		var pgErr pg.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		}
		log.WithError(err).Error("create user")
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": user.Id})
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	userDto := new(models.UserDto)
	if err := c.BodyParser(userDto); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	user, err := queries.GetUserByEmail(c.Context(), strings.TrimSpace(strings.ToLower(userDto.Email)), a.DB)
	if errors.Is(err, queries.ErrUserNotFound) {
		return fiber.ErrUnauthorized
	}
	if err != nil {
		log.WithError(err).Error("login")
		return fiber.ErrInternalServerError
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(userDto.Pass)) != nil {
		return fiber.ErrUnauthorized
	}

	t, err := identity.Issue(a.Secret, identity.Identity{UserId: user.Id, Name: user.Name}, a.TokenTTL, time.Now())
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"access_token": t})
}

func (a *AuthController) Cur(c *fiber.Ctx) error {
	id, err := currentIdentity(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	user, err := queries.GetUserData(c.Context(), id.UserId, a.DB)
	if errors.Is(err, queries.ErrUserNotFound) {
		return fiber.ErrNotFound
	}
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(user)
}

// currentIdentity reads the token gofiber/jwt left in the locals.
func currentIdentity(c *fiber.Ctx) (identity.Identity, error) {
	token, _ := c.Locals("user").(*jwt.Token)
	return identity.FromToken(token)
}
