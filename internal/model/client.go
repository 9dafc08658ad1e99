package model

import "time"

// Client is a row of the `clients` table. Clients are immutable once
// registered.
type Client struct {
	ID        int64     // clients.id
	FirstName string    // clients.first_name
	LastName  string    // clients.last_name
	CreatedAt time.Time // clients.created_at
}

// DisplayName renders the client the way listings and reports show it:
// "last, first".
func (c Client) DisplayName() string {
	return c.LastName + ", " + c.FirstName
}

// NewClient trims and validates both name parts.
func NewClient(firstName, lastName string) (Client, error) {
	first, err := CleanName("first_name", firstName)
	if err != nil {
		return Client{}, err
	}
	last, err := CleanName("last_name", lastName)
	if err != nil {
		return Client{}, err
	}
	return Client{FirstName: first, LastName: last}, nil
}
