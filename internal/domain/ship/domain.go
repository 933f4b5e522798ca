package ship

import "errors"

var (
	ErrNotFound = errors.New("spaceship not found")
	ErrExists   = errors.New("spaceship already exists")
)

type Spaceship struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
}
