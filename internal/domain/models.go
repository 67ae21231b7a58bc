package domain

import (
	"math"
	"time"

	"cardshare/internal/validate"
)

// Card is one published record in the card store document.
type Card struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Image       string    `json:"image" yaml:"image"`
	BackImage   string    `json:"backImage" yaml:"backImage"`
	Description string    `json:"description" yaml:"description"`
	BackDetails string    `json:"backDetails" yaml:"backDetails"`
	Price       float64   `json:"price" yaml:"price"`
	UploadTime  time.Time `json:"uploadTime" yaml:"uploadTime"`
}

// CardFields are the caller-supplied parts of a Card. Image and BackImage
// are already-resolved asset references.
type CardFields struct {
	Name        string
	Description string
	BackDetails string
	Price       float64
	Image       string
	BackImage   string
}

// NewCard builds a Card, sanitising text and rejecting anything that would
// break the store invariants.
func NewCard(id string, f CardFields, now time.Time) (Card, error) {
	if id == "" {
		return Card{}, Validation("id", "card id is required")
	}
	name, ok := validate.Text(f.Name)
	if !ok {
		return Card{}, Validation("name", "name is required")
	}
	desc, ok := validate.Text(f.Description)
	if !ok {
		return Card{}, Validation("description", "description is required")
	}
	back, ok := validate.Text(f.BackDetails)
	if !ok {
		return Card{}, Validation("backDetails", "back details are required")
	}
	if math.IsNaN(f.Price) || math.IsInf(f.Price, 0) || f.Price <= 0 {
		return Card{}, Validation("price", "price must be greater than 0")
	}
	if f.Image == "" {
		return Card{}, MissingAsset("image")
	}
	if f.BackImage == "" {
		return Card{}, MissingAsset("backImage")
	}
	return Card{
		ID:          id,
		Name:        name,
		Image:       f.Image,
		BackImage:   f.BackImage,
		Description: desc,
		BackDetails: back,
		Price:       f.Price,
		UploadTime:  now.UTC().Truncate(time.Second),
	}, nil
}

// PublicCardView is a stored card with every image reference made absolute.
type PublicCardView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BackDetails string    `json:"backDetails"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	BackImage   string    `json:"backImage"`
	Images      []string  `json:"images"`
	FirstImage  string    `json:"firstImage"`
	ShareLink   string    `json:"shareLink"`
	UploadTime  time.Time `json:"uploadTime"`
}
