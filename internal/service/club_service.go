package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clubsite/internal/apperrors"
	"clubsite/internal/models"
	"clubsite/internal/repository"
	"clubsite/internal/validation"
)

// notifyTimeout bounds the background administrator notification
const notifyTimeout = 30 * time.Second

// RefreshMode selects how a network refresh behaves
type RefreshMode int

const (
	// RefreshStartup runs on launch and only logs failures
	RefreshStartup RefreshMode = iota
	// RefreshManual is operator-triggered, bypasses caches and fails when nothing could be fetched
	RefreshManual
)

func (m RefreshMode) String() string {
	if m == RefreshManual {
		return "manual"
	}
	return "startup"
}

// RefreshResult is the outcome of refreshing one collection
type RefreshResult struct {
	Collection models.CollectionName `json:"collection"`
	Updated    bool                  `json:"updated"`
	Count      int                   `json:"count"`
	Err        error                 `json:"-"`
}

// RefreshReport collects the per-collection outcomes of a refresh
type RefreshReport struct {
	Results []RefreshResult `json:"results"`
}

// Updated returns how many collections were replaced
func (r RefreshReport) Updated() int {
	n := 0
	for _, result := range r.Results {
		if result.Updated {
			n++
		}
	}
	return n
}

// ClubService owns the members, news, events and settings for the running site
type ClubService struct {
	store    repository.Store
	fetcher  CollectionFetcher
	notifier Notifier
	now      func() time.Time
	newID    func() string
	debug    bool

	// notifications tracks in-flight notifier calls
	notifications sync.WaitGroup

	mu       sync.RWMutex
	members  []models.Member
	news     []models.NewsItem
	events   []models.CalendarEvent
	settings map[models.SettingKey]string
}

// NewClubService creates the controller. Until Initialize is called it holds the built-in defaults.
func NewClubService(store repository.Store, fetcher CollectionFetcher, notifier Notifier, debug bool) *ClubService {
	settings := make(map[models.SettingKey]string, len(models.SettingDefaults))
	for key, value := range models.SettingDefaults {
		settings[key] = value
	}
	return &ClubService{
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.NewString,
		debug:    debug,
		members:  []models.Member{},
		news:     models.DefaultNews(),
		events:   models.DefaultEvents(),
		settings: settings,
	}
}

// Initialize loads the collections and settings from the local store.
// Missing or unreadable values fall back to the built-in defaults.
func (s *ClubService) Initialize(ctx context.Context) error {
	members, err := repository.LoadJSON(ctx, s.store, models.CollectionMembers.StoreKey(), []models.Member{})
	if err != nil {
		log.Printf("Using default members: %v", err)
	}
	news, err := repository.LoadJSON(ctx, s.store, models.CollectionNews.StoreKey(), models.DefaultNews())
	if err != nil {
		log.Printf("Using default news: %v", err)
	}
	events, err := repository.LoadJSON(ctx, s.store, models.CollectionEvents.StoreKey(), models.DefaultEvents())
	if err != nil {
		log.Printf("Using default events: %v", err)
	}

	settings := make(map[models.SettingKey]string, len(models.SettingKeys))
	for _, key := range models.SettingKeys {
		value, err := repository.LoadJSON(ctx, s.store, key.StoreKey(), models.SettingDefaults[key])
		if err != nil {
			log.Printf("Using default %s setting: %v", key, err)
		}
		settings[key] = value
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = nonNil(members)
	s.news = nonNil(news)
	s.events = nonNil(events)
	s.settings = settings

	if s.debug {
		log.Printf("[DEBUG] Loaded %d members, %d news, %d events from local store",
			len(s.members), len(s.news), len(s.events))
	}
	return nil
}

// RefreshFromNetwork fetches the three published collections concurrently.
// Every successful fetch replaces and persists its collection; every failed
// one leaves the current value in place. In manual mode an error is returned
// when no collection could be fetched.
// Without a fetcher nothing is refreshed; manual mode then reports a
// configuration error.
func (s *ClubService) RefreshFromNetwork(ctx context.Context, mode RefreshMode) (RefreshReport, error) {
	if s.fetcher == nil {
		log.Printf("Refresh (%s) skipped: DATA_BASE_URL is not set", mode)
		if mode == RefreshManual {
			return RefreshReport{}, apperrors.NewConfigError("DATA_BASE_URL", "No published data source configured. Please set DATA_BASE_URL.")
		}
		return RefreshReport{}, nil
	}

	cacheBust := mode == RefreshManual

	var (
		wg      sync.WaitGroup
		members []models.Member
		news    []models.NewsItem
		events  []models.CalendarEvent
		errs    [3]error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		members, errs[0] = s.fetcher.FetchMembers(ctx, cacheBust)
	}()
	go func() {
		defer wg.Done()
		news, errs[1] = s.fetcher.FetchNews(ctx, cacheBust)
	}()
	go func() {
		defer wg.Done()
		events, errs[2] = s.fetcher.FetchEvents(ctx, cacheBust)
	}()
	wg.Wait()

	report := RefreshReport{Results: []RefreshResult{
		refreshCollection(ctx, s, models.CollectionMembers, members, errs[0], &s.members),
		refreshCollection(ctx, s, models.CollectionNews, news, errs[1], &s.news),
		refreshCollection(ctx, s, models.CollectionEvents, events, errs[2], &s.events),
	}}

	var failures []error
	for _, result := range report.Results {
		if result.Err != nil {
			log.Printf("Refresh (%s) kept local %s: %v", mode, result.Collection, result.Err)
			failures = append(failures, result.Err)
		}
	}

	if mode == RefreshManual && len(failures) == len(report.Results) {
		return report, apperrors.NewNetworkError("data refresh", errors.Join(failures...))
	}

	log.Printf("Refresh (%s) complete: %d of %d collections updated", mode, report.Updated(), len(report.Results))
	return report, nil
}

// refreshCollection applies one fetch outcome to target
func refreshCollection[T models.Record](ctx context.Context, s *ClubService, name models.CollectionName, fetched []T, fetchErr error, target *[]T) RefreshResult {
	result := RefreshResult{Collection: name, Err: fetchErr}
	if fetchErr != nil {
		s.mu.RLock()
		result.Count = len(*target)
		s.mu.RUnlock()
		return result
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	*target = fetched
	result.Updated = true
	result.Count = len(fetched)

	// The in-memory value is already the fetched one, a persist failure only costs offline fallback
	if err := repository.SaveJSON(ctx, s.store, name.StoreKey(), fetched); err != nil {
		log.Printf("Failed to persist refreshed %s: %v", name, err)
	}
	return result
}

// ApplyMemberAction mutates the members and persists them
func (s *ClubService) ApplyMemberAction(ctx context.Context, action models.Action[models.Member]) ([]models.Member, error) {
	return applyAction(ctx, s, models.CollectionMembers, &s.members, action)
}

// ApplyNewsAction mutates the news and persists them
func (s *ClubService) ApplyNewsAction(ctx context.Context, action models.Action[models.NewsItem]) ([]models.NewsItem, error) {
	return applyAction(ctx, s, models.CollectionNews, &s.news, action)
}

// ApplyEventAction mutates the calendar and persists it
func (s *ClubService) ApplyEventAction(ctx context.Context, action models.Action[models.CalendarEvent]) ([]models.CalendarEvent, error) {
	return applyAction(ctx, s, models.CollectionEvents, &s.events, action)
}

// applyAction persists before swapping the collection in, so a failed save leaves memory unchanged
func applyAction[T models.Record](ctx context.Context, s *ClubService, name models.CollectionName, target *[]T, action models.Action[T]) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := models.Apply(*target, action)
	if err := repository.SaveJSON(ctx, s.store, name.StoreKey(), updated); err != nil {
		return models.Clone(*target), fmt.Errorf("failed to persist %s: %w", name, err)
	}
	*target = updated

	if s.debug {
		log.Printf("[DEBUG] %s now holds %d records", name, len(updated))
	}
	return models.Clone(updated), nil
}

// AddMember registers a new member and notifies the administrator in the background
func (s *ClubService) AddMember(ctx context.Context, input models.MemberInput) (models.Member, error) {
	if err := validation.ValidateMemberInput(input); err != nil {
		return models.Member{}, err
	}

	member := input.ToMember(s.newID(), s.now())
	if _, err := s.ApplyMemberAction(ctx, models.Upsert[models.Member]{Record: member}); err != nil {
		return models.Member{}, err
	}
	log.Printf("New member registered: %s", member.ID)

	if s.notifier != nil {
		adminEmail := s.Setting(models.SettingAdminEmail)
		notifyCtx := context.WithoutCancel(ctx)
		s.notifications.Add(1)
		go func() {
			defer s.notifications.Done()
			timeoutCtx, cancel := context.WithTimeout(notifyCtx, notifyTimeout)
			defer cancel()
			if err := s.notifier.NotifyNewMember(timeoutCtx, adminEmail, member); err != nil {
				log.Printf("Failed to notify %s of new member %s: %v", adminEmail, member.ID, err)
			}
		}()
	}

	return member, nil
}

// MemberMailRequest selects the recipients of an admin message: every member
// when All is set, otherwise the members listed in MemberIDs
type MemberMailRequest struct {
	All       bool     `json:"all"`
	MemberIDs []string `json:"memberIds"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
}

// ComposeMemberMail resolves the recipients of req. Each address appears once,
// members without an e-mail are skipped.
func (s *ClubService) ComposeMemberMail(req MemberMailRequest) (MailMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	selected := s.members
	if !req.All {
		byID := make(map[string]models.Member, len(s.members))
		for _, m := range s.members {
			byID[m.ID] = m
		}
		selected = make([]models.Member, 0, len(req.MemberIDs))
		for _, id := range req.MemberIDs {
			m, ok := byID[id]
			if !ok {
				return MailMessage{}, apperrors.NewValidationError("memberIds", "unknown member "+id)
			}
			selected = append(selected, m)
		}
	}

	seen := make(map[string]bool, len(selected))
	var recipients []string
	for _, m := range selected {
		email := strings.TrimSpace(m.Email)
		if email == "" || seen[strings.ToLower(email)] {
			continue
		}
		seen[strings.ToLower(email)] = true
		recipients = append(recipients, email)
	}
	if len(recipients) == 0 {
		return MailMessage{}, apperrors.NewValidationError("", "Veuillez sélectionner au moins un destinataire.")
	}

	return MailMessage{To: recipients, Subject: req.Subject, Body: req.Body}, nil
}

// WaitForNotifications blocks until every background notification has finished
func (s *ClubService) WaitForNotifications() {
	s.notifications.Wait()
}

// Members returns the members in storage order
func (s *ClubService) Members() []models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Clone(s.members)
}

// News returns the news in storage order
func (s *ClubService) News() []models.NewsItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Clone(s.news)
}

// Events returns the events in storage order
func (s *ClubService) Events() []models.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Clone(s.events)
}

// SortedNews returns the news newest first
func (s *ClubService) SortedNews() []models.NewsItem {
	return models.SortNews(s.News())
}

// SortedEvents returns the events earliest first
func (s *ClubService) SortedEvents() []models.CalendarEvent {
	return models.SortEvents(s.Events())
}

// Snapshot copies the three collections for publishing or export
func (s *ClubService) Snapshot() models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make([]models.Member, len(s.members))
	for i, member := range s.members {
		member.Sports = models.Clone(member.Sports)
		members[i] = member
	}
	return models.Dataset{
		Members: members,
		News:    models.Clone(s.news),
		Events:  models.Clone(s.events),
	}
}

// Settings returns a copy of every setting
func (s *ClubService) Settings() map[models.SettingKey]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings := make(map[models.SettingKey]string, len(s.settings))
	for key, value := range s.settings {
		settings[key] = value
	}
	return settings
}

// Setting returns one setting value
func (s *ClubService) Setting(key models.SettingKey) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings[key]
}

// UpdateSetting persists a setting and makes it current
func (s *ClubService) UpdateSetting(ctx context.Context, key models.SettingKey, value string) error {
	if _, err := models.ParseSettingKey(string(key)); err != nil {
		return apperrors.NewValidationError("key", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := repository.SaveJSON(ctx, s.store, key.StoreKey(), value); err != nil {
		return err
	}
	s.settings[key] = value
	return nil
}

// Appearance returns the public settings
func (s *ClubService) Appearance() models.Appearance {
	return models.NewAppearance(s.Settings())
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
