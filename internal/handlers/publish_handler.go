package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"clubsite/internal/models"
)

// PublishFunctionHandler serves POST /api/publish-data: it commits the
// members, news and events given in the body to the data repository.
type PublishFunctionHandler struct {
	publisher Publisher
}

// NewPublishFunctionHandler creates the publish endpoint
func NewPublishFunctionHandler(publisher Publisher) *PublishFunctionHandler {
	return &PublishFunctionHandler{publisher: publisher}
}

func (h *PublishFunctionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		respondWithError(w, http.StatusMethodNotAllowed, ErrMethodNotAllowed, "", nil)
		return
	}

	if err := h.publisher.CheckConfig(); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error(), "Publish configuration invalid", err)
		return
	}

	data, err := decodeDataset(w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMissingPublishPayload, "Rejected publish request", err)
		return
	}

	result, err := h.publisher.Publish(r.Context(), data)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = ErrPublishFailed
		}
		respondWithError(w, http.StatusInternalServerError, msg, "Error during publish process", err)
		return
	}

	log.Printf("Publish request from %s committed %s", r.RemoteAddr, result.CommitSHA)
	respondJSON(w, http.StatusOK, messageResponse{Message: result.Message})
}

// decodeDataset requires the three collections to be present and not null
func decodeDataset(w http.ResponseWriter, r *http.Request) (models.Dataset, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<20)).Decode(&raw); err != nil {
		return models.Dataset{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	for _, name := range models.Collections {
		value, ok := raw[string(name)]
		if !ok || string(value) == "null" {
			return models.Dataset{}, fmt.Errorf("missing %s", name)
		}
	}

	var data models.Dataset
	if err := json.Unmarshal(raw[string(models.CollectionMembers)], &data.Members); err != nil {
		return models.Dataset{}, fmt.Errorf("invalid members: %w", err)
	}
	if err := json.Unmarshal(raw[string(models.CollectionNews)], &data.News); err != nil {
		return models.Dataset{}, fmt.Errorf("invalid news: %w", err)
	}
	if err := json.Unmarshal(raw[string(models.CollectionEvents)], &data.Events); err != nil {
		return models.Dataset{}, fmt.Errorf("invalid events: %w", err)
	}
	return data, nil
}
