package domain

import "time"

// Profile guarda los datos opcionales asociados uno-a-uno con User.
type Profile struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Avatar      string     `json:"avatar"`
	Bio         string     `json:"bio"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	PhoneNumber string     `json:"phone_number"`
	Address     string     `json:"address"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DefaultAvatar se asigna cuando el usuario no sube una imagen propia.
const DefaultAvatar = "default.jpg"
