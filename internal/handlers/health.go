package handlers

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type HealthHandler struct {
	client *mongo.Client
}

func NewHealthHandler(client *mongo.Client) *HealthHandler {
	return &HealthHandler{client: client}
}

// Health reports liveness of the service and its database connection.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	if err := h.client.Ping(r.Context(), readpref.Primary()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":    "unhealthy",
			"timestamp": timestamp,
			"error":     err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": timestamp,
		"database":  "connected",
	})
}
