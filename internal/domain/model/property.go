//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLen    = 200
	maxDetailsLen  = 5000
	MaxImages      = 20
	MaxImageBytes  = 5 << 20
	refDigits      = 6
	defaultRefBase = "REF"
)

// PropertyTypes lists the catalog categories offered in filters and forms.
var PropertyTypes = []string{
	"Casa",
	"Sobrado",
	"Apartamento",
	"Kitnet",
	"Comercial",
	"Terreno",
	"Chácara",
	"Cobertura",
	"Studio",
}

// PropertyStatus filters the catalog by sold flag.
type PropertyStatus string

const (
	PropertyStatusAll       PropertyStatus = "all"
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusSold      PropertyStatus = "sold"
)

// ParsePropertyStatus normalizes a status filter, defaulting to all.
func ParsePropertyStatus(v string) PropertyStatus {
	switch PropertyStatus(strings.ToLower(strings.TrimSpace(v))) {
	case PropertyStatusAvailable:
		return PropertyStatusAvailable
	case PropertyStatusSold:
		return PropertyStatusSold
	default:
		return PropertyStatusAll
	}
}

// Property is a listing shown in the public catalog.
type Property struct {
	ID        string    `json:"id"         db:"id"`
	Title     string    `json:"title"      db:"title"`
	Location  string    `json:"location"   db:"location"`
	Type      string    `json:"type"       db:"type"`
	Price     string    `json:"price"      db:"price"`
	Details   string    `json:"details"    db:"details"`
	Ref       string    `json:"ref"        db:"ref"`
	ImageURL  string    `json:"image_url"  db:"image_url"`
	Images    []string  `json:"images"     db:"images"`
	Sold      bool      `json:"sold"       db:"sold"`
	Likes     int       `json:"likes"      db:"likes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Gallery returns the images to show, falling back to the cover image.
func (p *Property) Gallery() []string {
	if len(p.Images) > 0 {
		return p.Images
	}
	if p.ImageURL != "" {
		return []string{p.ImageURL}
	}
	return nil
}

// PropertyListOptions controls filtering and paging for catalog listings.
type PropertyListOptions struct {
	Type   string
	Status PropertyStatus
	Limit  int
	Offset int
}

// CreatePropertyRequest carries the fields needed to create a listing.
type CreatePropertyRequest struct {
	Title    string   `json:"title"`
	Location string   `json:"location"`
	Type     string   `json:"type"`
	Price    string   `json:"price"`
	Details  string   `json:"details"`
	Ref      string   `json:"ref"`
	Images   []string `json:"images"`
	Sold     bool     `json:"sold"`
}

// UpdatePropertyRequest carries a partial update. Nil fields are left untouched.
type UpdatePropertyRequest struct {
	Title    *string   `json:"title,omitempty"`
	Location *string   `json:"location,omitempty"`
	Type     *string   `json:"type,omitempty"`
	Price    *string   `json:"price,omitempty"`
	Details  *string   `json:"details,omitempty"`
	Ref      *string   `json:"ref,omitempty"`
	Images   *[]string `json:"images,omitempty"`
	Sold     *bool     `json:"sold,omitempty"`
}

// Validate validates CreatePropertyRequest and trims its text fields.
func (r *CreatePropertyRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Location = strings.TrimSpace(r.Location)
	r.Type = strings.TrimSpace(r.Type)
	r.Price = strings.TrimSpace(r.Price)
	r.Details = strings.TrimSpace(r.Details)
	r.Ref = strings.TrimSpace(r.Ref)

	if err := validateTitle(r.Title); err != nil {
		return err
	}
	if r.Price == "" {
		return fieldError("price", "Informe o preço.")
	}
	if err := validateDetails(r.Details); err != nil {
		return err
	}
	if r.Type != "" && !IsPropertyType(r.Type) {
		return fieldError("type", "Tipo de imóvel inválido.")
	}
	return validateImages(r.Images)
}

// HasUpdates reports whether any field is set in UpdatePropertyRequest.
func (r *UpdatePropertyRequest) HasUpdates() bool {
	return r.Title != nil || r.Location != nil || r.Type != nil || r.Price != nil ||
		r.Details != nil || r.Ref != nil || r.Images != nil || r.Sold != nil
}

// Validate validates UpdatePropertyRequest, ensuring at least one field is set.
func (r *UpdatePropertyRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Title != nil {
		*r.Title = strings.TrimSpace(*r.Title)
		if err := validateTitle(*r.Title); err != nil {
			return err
		}
	}
	if r.Price != nil && strings.TrimSpace(*r.Price) == "" {
		return fieldError("price", "Informe o preço.")
	}
	if r.Details != nil {
		*r.Details = strings.TrimSpace(*r.Details)
		if err := validateDetails(*r.Details); err != nil {
			return err
		}
	}
	if r.Type != nil && *r.Type != "" && !IsPropertyType(*r.Type) {
		return fieldError("type", "Tipo de imóvel inválido.")
	}
	if r.Images != nil {
		return validateImages(*r.Images)
	}
	return nil
}

// IsPropertyType reports whether t is one of PropertyTypes (exact match).
func IsPropertyType(t string) bool {
	for _, v := range PropertyTypes {
		if v == t {
			return true
		}
	}
	return false
}

// DefaultRef builds the fallback reference code "REF" followed by six digits.
func DefaultRef(n int64) string {
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("%s%0*d", defaultRefBase, refDigits, n%1_000_000)
}

// FieldError is a validation failure on one form field. Message is user-facing.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func fieldError(field, msg string) error { return &FieldError{Field: field, Message: msg} }

func validateTitle(title string) error {
	if title == "" {
		return fieldError("title", "Informe o título.")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return fieldError("title", fmt.Sprintf("O título pode ter no máximo %d caracteres.", maxTitleLen))
	}
	return nil
}

func validateDetails(details string) error {
	if details == "" {
		return fieldError("details", "Informe os detalhes do imóvel.")
	}
	if utf8.RuneCountInString(details) > maxDetailsLen {
		return fieldError("details", fmt.Sprintf("Os detalhes podem ter no máximo %d caracteres.", maxDetailsLen))
	}
	return nil
}

func validateImages(images []string) error {
	if len(images) == 0 {
		return fieldError("images", "Adicione pelo menos uma imagem.")
	}
	if len(images) > MaxImages {
		return fieldError("images", fmt.Sprintf("Máximo de %d imagens por imóvel.", MaxImages))
	}
	return nil
}
