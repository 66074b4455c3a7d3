package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidColor is returned when a category color is not a hex color.
var ErrInvalidColor = errors.New("color must be a hex value like #a1b2c3")

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Category groups a user's tasks under a named label.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCategory creates a category for the given owner.
func NewCategory(userID uuid.UUID, name, color string) (*Category, error) {
	now := time.Now().UTC()
	c := &Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the category's fields.
func (c *Category) Validate() error {
	if c.ID == uuid.Nil || c.UserID == uuid.Nil {
		return ErrInvalidID
	}
	if c.Name == "" {
		return ErrEmptyTitle
	}
	if c.Color != "" && !hexColorRegex.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}
