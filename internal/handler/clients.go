package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CreateClient handles POST /v1/clients with {"first_name", "last_name"}.
func (h *Handler) CreateClient(c echo.Context) error {
	var body struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.Bind(&body); err != nil {
		return badBody(c)
	}
	client, err := h.Ledger.RegisterClient(c.Request().Context(), body.FirstName, body.LastName)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, newClientView(client))
}

// ListClients handles GET /v1/clients, sorted by last name then first name.
func (h *Handler) ListClients(c echo.Context) error {
	clients, err := h.Ledger.Clients(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]clientView, 0, len(clients))
	for _, cl := range clients {
		out = append(out, newClientView(cl))
	}
	return c.JSON(http.StatusOK, echo.Map{"clients": out})
}
