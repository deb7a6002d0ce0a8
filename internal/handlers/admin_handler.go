package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"clubsite/internal/models"
	"clubsite/internal/security"
	"clubsite/internal/service"
	"clubsite/internal/validation"
)

// Publisher commits a dataset to the data repository
type Publisher interface {
	CheckConfig() error
	Publish(ctx context.Context, data models.Dataset) (service.PublishResult, error)
}

// MemberMailer delivers admin messages to members
type MemberMailer interface {
	IsEnabled() bool
	SendMemberMail(ctx context.Context, msg service.MailMessage) error
}

// AdminHandler handles the password-gated admin API
type AdminHandler struct {
	club        *service.ClubService
	publisher   Publisher
	mailer      MemberMailer
	credentials *security.AdminCredentials
	sessions    *security.SessionManager
	middleware  *Middleware
	now         func() time.Time
	newID       func() string
}

// NewAdminHandler creates a new admin handler. mailer may be nil, then member
// e-mails are only returned as mailto: links.
func NewAdminHandler(club *service.ClubService, publisher Publisher, mailer MemberMailer, credentials *security.AdminCredentials, sessions *security.SessionManager, middleware *Middleware, newID func() string) *AdminHandler {
	return &AdminHandler{
		club:        club,
		publisher:   publisher,
		mailer:      mailer,
		credentials: credentials,
		sessions:    sessions,
		middleware:  middleware,
		now:         time.Now,
		newID:       newID,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username  string `json:"username"`
	CSRFToken string `json:"csrfToken"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

type syncResult struct {
	Collection models.CollectionName `json:"collection"`
	Updated    bool                  `json:"updated"`
	Count      int                   `json:"count"`
	Error      string                `json:"error,omitempty"`
}

type syncResponse struct {
	Message string       `json:"message"`
	Results []syncResult `json:"results"`
}

type emailResponse struct {
	Mailto     string `json:"mailto"`
	Recipients int    `json:"recipients"`
	Sent       bool   `json:"sent"`
}

// Login checks the administrator credentials and opens a session
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "Error decoding login", err)
		return
	}

	if !h.credentials.Check(req.Username, req.Password) {
		log.Printf("Failed admin login for %q from %s", req.Username, security.GetClientIP(r))
		respondWithError(w, http.StatusUnauthorized, ErrInvalidCredentials, "", nil)
		return
	}

	token, expires, err := h.sessions.Issue(req.Username)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error issuing session", err)
		return
	}
	csrfToken, err := h.middleware.GetCSRFToken(token)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, token, expires))
	log.Printf("Admin %s logged in", req.Username)
	respondJSON(w, http.StatusOK, sessionResponse{
		Username:  req.Username,
		CSRFToken: csrfToken,
		ExpiresAt: expires.UTC().Format(time.RFC3339),
	})
}

// Logout clears the session cookie
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r))
	respondJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

// Session returns the current administrator and CSRF token
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}
	csrfToken, err := h.middleware.GetCSRFToken(cookie.Value)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		Username:  GetAdminFromContext(r.Context()),
		CSRFToken: csrfToken,
	})
}

// ListCollection returns a collection in storage order
func (h *AdminHandler) ListCollection(w http.ResponseWriter, r *http.Request) {
	name, err := models.ParseCollectionName(r.PathValue("collection"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrUnknownCollection, "", nil)
		return
	}

	data := h.club.Snapshot()
	switch name {
	case models.CollectionMembers:
		respondJSON(w, http.StatusOK, data.Members)
	case models.CollectionNews:
		respondJSON(w, http.StatusOK, data.News)
	case models.CollectionEvents:
		respondJSON(w, http.StatusOK, data.Events)
	}
}

// UpsertRecord creates or replaces the record with the id in the path.
// The id "new" asks for a generated identifier.
func (h *AdminHandler) UpsertRecord(w http.ResponseWriter, r *http.Request) {
	name, err := models.ParseCollectionName(r.PathValue("collection"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrUnknownCollection, "", nil)
		return
	}
	id := r.PathValue("id")
	if id == "new" {
		id = h.newID()
	}
	body := http.MaxBytesReader(w, r.Body, 1<<20)

	var result any
	switch name {
	case models.CollectionMembers:
		var member models.Member
		if err := json.NewDecoder(body).Decode(&member); err != nil {
			respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "Error decoding member", err)
			return
		}
		member.ID = id
		if member.RegistrationDate == "" {
			member.RegistrationDate = h.now().UTC().Format(models.RegistrationDateLayout)
		}
		if err := validation.ValidateMember(member); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
			return
		}
		result, err = h.club.ApplyMemberAction(r.Context(), models.Upsert[models.Member]{Record: member})

	case models.CollectionNews:
		var item models.NewsItem
		if err := json.NewDecoder(body).Decode(&item); err != nil {
			respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "Error decoding news", err)
			return
		}
		item.ID = id
		if item.Date == "" {
			item.Date = h.now().UTC().Format(models.RegistrationDateLayout)
		}
		if err := validation.ValidateNewsItem(item); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
			return
		}
		result, err = h.club.ApplyNewsAction(r.Context(), models.Upsert[models.NewsItem]{Record: item})

	case models.CollectionEvents:
		var event models.CalendarEvent
		if err := json.NewDecoder(body).Decode(&event); err != nil {
			respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "Error decoding event", err)
			return
		}
		event.ID = id
		if err := validation.ValidateEvent(event); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
			return
		}
		result, err = h.club.ApplyEventAction(r.Context(), models.Upsert[models.CalendarEvent]{Record: event})
	}

	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, fmt.Sprintf("Error saving %s", name), err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// DeleteRecord removes a record; deleting an unknown id is not an error
func (h *AdminHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	name, err := models.ParseCollectionName(r.PathValue("collection"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrUnknownCollection, "", nil)
		return
	}
	id := r.PathValue("id")

	var result any
	switch name {
	case models.CollectionMembers:
		result, err = h.club.ApplyMemberAction(r.Context(), models.Delete[models.Member]{ID: id})
	case models.CollectionNews:
		result, err = h.club.ApplyNewsAction(r.Context(), models.Delete[models.NewsItem]{ID: id})
	case models.CollectionEvents:
		result, err = h.club.ApplyEventAction(r.Context(), models.Delete[models.CalendarEvent]{ID: id})
	}

	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, fmt.Sprintf("Error deleting from %s", name), err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Settings returns every setting, including the administrator e-mail
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.club.Settings())
}

// UpdateSetting stores one setting. The body is {"value": "..."}.
func (h *AdminHandler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key, err := models.ParseSettingKey(r.PathValue("key"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrUnknownSetting, "", nil)
		return
	}

	var req struct {
		Value *string `json:"value"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20)).Decode(&req); err != nil || req.Value == nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "Error decoding setting", err)
		return
	}
	if key == models.SettingAdminEmail {
		if err := validation.ValidateEmail(*req.Value); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
			return
		}
	}

	if err := h.club.UpdateSetting(r.Context(), key, *req.Value); err != nil {
		respondWithError(w, statusFor(err), ErrInternalServerError, "Error saving setting", err)
		return
	}
	respondJSON(w, http.StatusOK, h.club.Settings())
}

// Sync replaces local data with the published files. It requires confirm=true.
func (h *AdminHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		respondWithError(w, http.StatusBadRequest, ErrSyncNotConfirmed, "", nil)
		return
	}

	report, err := h.club.RefreshFromNetwork(r.Context(), service.RefreshManual)
	if err != nil {
		respondWithError(w, statusFor(err), "Synchronisation impossible : "+err.Error(), "Manual sync failed", err)
		return
	}

	resp := syncResponse{
		Message: fmt.Sprintf("Synchronisation terminée : %d/%d collections mises à jour.", report.Updated(), len(report.Results)),
		Results: make([]syncResult, len(report.Results)),
	}
	for i, result := range report.Results {
		resp.Results[i] = syncResult{Collection: result.Collection, Updated: result.Updated, Count: result.Count}
		if result.Err != nil {
			resp.Results[i].Error = result.Err.Error()
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// Publish commits the current collections to the data repository
func (h *AdminHandler) Publish(w http.ResponseWriter, r *http.Request) {
	result, err := h.publisher.Publish(r.Context(), h.club.Snapshot())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error(), "Publish failed", err)
		return
	}
	log.Printf("Data published by %s: %s", GetAdminFromContext(r.Context()), result.CommitSHA)
	respondJSON(w, http.StatusOK, result)
}

// Export downloads one collection as the JSON file the site serves
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	name, err := models.ParseCollectionName(r.PathValue("collection"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrUnknownCollection, "", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name.FileName()))

	data := h.club.Snapshot()
	switch name {
	case models.CollectionMembers:
		err = service.ExportCollection(w, data.Members)
	case models.CollectionNews:
		err = service.ExportCollection(w, data.News)
	case models.CollectionEvents:
		err = service.ExportCollection(w, data.Events)
	}
	if err != nil {
		log.Printf("Error exporting %s: %v", name, err)
		return
	}

	log.Printf("%s exported by %s", name.FileName(), GetAdminFromContext(r.Context()))
}

// SendEmail composes a message to all or selected members. The mailto: link is
// always returned; the message is also sent when SES is enabled.
func (h *AdminHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req service.MemberMailRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "Error decoding member email", err)
		return
	}

	msg, err := h.club.ComposeMemberMail(req)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error(), "Error composing member email", err)
		return
	}

	resp := emailResponse{Mailto: msg.MailtoURL(), Recipients: len(msg.To)}
	if h.mailer != nil && h.mailer.IsEnabled() {
		if err := h.mailer.SendMemberMail(r.Context(), msg); err != nil {
			respondWithError(w, http.StatusBadGateway, ErrEmailFailed, "Error sending member email", err)
			return
		}
		resp.Sent = true
	}

	log.Printf("Member email %q by %s: %d recipients, sent=%t", msg.Subject, GetAdminFromContext(r.Context()), resp.Recipients, resp.Sent)
	respondJSON(w, http.StatusOK, resp)
}
