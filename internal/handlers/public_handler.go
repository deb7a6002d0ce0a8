package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"clubsite/internal/models"
	"clubsite/internal/service"
)

// PublicHandler serves the visitor-facing API
type PublicHandler struct {
	club    *service.ClubService
	dataDir string
}

// NewPublicHandler creates a new public handler. dataDir holds the published
// members.json, news.json and events.json.
func NewPublicHandler(club *service.ClubService, dataDir string) *PublicHandler {
	return &PublicHandler{club: club, dataDir: dataDir}
}

// registrationResponse is returned after a successful registration
type registrationResponse struct {
	Member models.Member `json:"member"`
	Mailto string        `json:"mailto"`
}

// DataFile serves /data/{file} from the published data directory.
// Unpublished local edits are never visible here.
func (h *PublicHandler) DataFile(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	name, err := models.ParseCollectionName(strings.TrimSuffix(file, ".json"))
	if err != nil || file != name.FileName() || h.dataDir == "" {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.dataDir, name.FileName())
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}

// News lists the news, newest first
func (h *PublicHandler) News(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.club.SortedNews())
}

// Events lists the calendar, earliest first
func (h *PublicHandler) Events(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.club.SortedEvents())
}

// Appearance returns the logo, banner and call-to-action settings
func (h *PublicHandler) Appearance(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.club.Appearance())
}

// Register adds a member from the registration form
func (h *PublicHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input models.MemberInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "Error decoding registration", err)
		return
	}

	member, err := h.club.AddMember(r.Context(), input)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			respondWithError(w, status, err.Error(), "", nil)
			return
		}
		respondWithError(w, status, ErrInternalServerError, "Error registering member", err)
		return
	}

	mail := service.NewRegistrationMail(h.club.Setting(models.SettingAdminEmail), member)
	respondJSON(w, http.StatusCreated, registrationResponse{Member: member, Mailto: mail.MailtoURL()})
}
