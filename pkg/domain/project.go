package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a project on the portfolio page.
type Category string

const (
	CategoryConstruction   Category = "construction"
	CategoryReconstruction Category = "reconstruction"
	CategoryRenovation     Category = "renovation"
)

// Categories lists the valid categories in display order.
var Categories = []Category{CategoryConstruction, CategoryReconstruction, CategoryRenovation}

// ParseCategory normalizes s. An empty string is construction.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return CategoryConstruction, nil
	}
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidProject, s)
}

// MediaType is the kind of a media file.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaTypeOf classifies a MIME content type. Anything that is not video is an image.
func MediaTypeOf(contentType string) MediaType {
	if strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return MediaVideo
	}
	return MediaImage
}

// Project is a portfolio entry.
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	Media       []Media   `json:"media,omitempty"`
}

// Validate trims the text fields and checks that the project can be stored.
func (p *Project) Validate() error {
	var err error
	if p.Title, err = Sanitize("title", p.Title, MaxTitleLength); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if p.Description, err = Sanitize("description", p.Description, MaxDescriptionLength); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidProject)
	}
	c, err := ParseCategory(string(p.Category))
	if err != nil {
		return err
	}
	p.Category = c
	return nil
}

// Cover returns the first media item, if any.
func (p Project) Cover() (Media, bool) {
	if len(p.Media) == 0 {
		return Media{}, false
	}
	return p.Media[0], true
}

// Media is an image or video belonging to a project.
type Media struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	URL          string    `json:"url"`
	Type         MediaType `json:"type"`
	DisplayOrder int       `json:"display_order"`
	// Path is the object key inside the media bucket.
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}
