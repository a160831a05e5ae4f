package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"venue-cms/internal/apperr"
	"venue-cms/internal/auth"
	"venue-cms/internal/config"
	"venue-cms/internal/logger"
	"venue-cms/internal/models"
	"venue-cms/internal/utils"
)

var (
	ErrNotFound   = errors.New("catalog entity not found")
	ErrSlugExists = errors.New("slug already exists")
)

type Store interface {
	InsertShow(ctx context.Context, show *models.Show) error
	GetShowByID(ctx context.Context, id string) (*models.Show, error)
	GetShowBySlug(ctx context.Context, slug string) (*models.Show, error)
	ListShows(ctx context.Context, publicOnly bool) ([]models.Show, error)
	UpdateShow(ctx context.Context, show *models.Show) error
	DeleteShow(ctx context.Context, id string) error

	InsertPage(ctx context.Context, page *models.Page) error
	GetPageByID(ctx context.Context, id string) (*models.Page, error)
	GetPageBySlug(ctx context.Context, slug string) (*models.Page, error)
	ListPages(ctx context.Context) ([]models.Page, error)
	UpdatePage(ctx context.Context, page *models.Page) error
	DeletePage(ctx context.Context, id string) error

	GetSettings(ctx context.Context) (*models.SiteSettings, error)
	UpsertSettings(ctx context.Context, settings *models.SiteSettings) error

	InsertFAQ(ctx context.Context, item *models.FAQItem) error
	GetFAQByID(ctx context.Context, id string) (*models.FAQItem, error)
	ListFAQ(ctx context.Context, publicOnly bool) ([]models.FAQItem, error)
	UpdateFAQ(ctx context.Context, item *models.FAQItem) error
	DeleteFAQ(ctx context.Context, id string) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLogEntry)
}

type Service struct {
	Store    Store
	Audit    AuditRecorder
	Logger   *logger.Logger
	settings *settingsCache
}

func NewService(store Store, audit AuditRecorder, cfg config.CatalogConfig, log *logger.Logger) *Service {
	return &Service{
		Store:    store,
		Audit:    audit,
		Logger:   log,
		settings: newSettingsCache(cfg.SettingsTTL),
	}
}

// ---------------- SHOWS ----------------

type TierInput struct {
	Label    string  `json:"label"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

type ShowInput struct {
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Date         time.Time   `json:"date"`
	VenueName    string      `json:"venue_name"`
	VenueAddress string      `json:"venue_address"`
	Description  string      `json:"description"`
	TicketTiers  []TierInput `json:"ticket_tiers"`
	Published    bool        `json:"published"`
	Archived     bool        `json:"archived"`
	Status       string      `json:"status"`
}

func validShowStatus(s string) bool {
	switch s {
	case models.ShowStatusAvailable, models.ShowStatusSoldOut, models.ShowStatusClosed, models.ShowStatusFewLeft:
		return true
	}
	return false
}

func (in *ShowInput) validate() error {
	var details []string
	if strings.TrimSpace(in.Title) == "" {
		details = append(details, "title is required")
	}
	if strings.TrimSpace(in.Slug) == "" {
		details = append(details, "slug is required")
	}
	if in.Date.IsZero() {
		details = append(details, "date is required")
	}
	if in.Status == "" {
		in.Status = models.ShowStatusAvailable
	} else if !validShowStatus(in.Status) {
		details = append(details, "invalid status")
	}
	for i, t := range in.TicketTiers {
		if strings.TrimSpace(t.Label) == "" {
			details = append(details, fmt.Sprintf("ticket_tiers[%d]: label is required", i))
		}
		if t.Price < 0 {
			details = append(details, fmt.Sprintf("ticket_tiers[%d]: price must not be negative", i))
		}
	}
	if len(details) > 0 {
		return apperr.Validation("invalid show", details...)
	}
	return nil
}

func (in *ShowInput) tiers(showID string) []models.TicketTier {
	tiers := make([]models.TicketTier, len(in.TicketTiers))
	for i, t := range in.TicketTiers {
		currency := t.Currency
		if currency == "" {
			currency = "EUR"
		}
		tiers[i] = models.TicketTier{
			ID:       utils.NewID(),
			ShowID:   showID,
			Label:    strings.TrimSpace(t.Label),
			Price:    t.Price,
			Currency: currency,
			Position: i,
		}
	}
	return tiers
}

func (s *Service) CreateShow(ctx context.Context, actor auth.Identity, in ShowInput) (*models.Show, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	show := &models.Show{
		ID:           utils.NewID(),
		Title:        strings.TrimSpace(in.Title),
		Slug:         strings.ToLower(strings.TrimSpace(in.Slug)),
		Date:         in.Date,
		VenueName:    in.VenueName,
		VenueAddress: in.VenueAddress,
		Description:  in.Description,
		Published:    in.Published,
		Archived:     in.Archived,
		Status:       in.Status,
		CreatedAt:    time.Now().UTC(),
	}
	show.TicketTiers = in.tiers(show.ID)

	if err := s.Store.InsertShow(ctx, show); err != nil {
		if errors.Is(err, ErrSlugExists) {
			return nil, apperr.Conflict("a show with this slug already exists")
		}
		return nil, fmt.Errorf("insert show: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionCreate,
		EntityType:  "show",
		EntityID:    show.ID,
		Summary:     show.Title,
	})
	return show, nil
}

func (s *Service) UpdateShow(ctx context.Context, actor auth.Identity, id string, in ShowInput) (*models.Show, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	existing, err := s.Store.GetShowByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("show not found")
		}
		return nil, fmt.Errorf("lookup show: %w", err)
	}

	existing.Title = strings.TrimSpace(in.Title)
	existing.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	existing.Date = in.Date
	existing.VenueName = in.VenueName
	existing.VenueAddress = in.VenueAddress
	existing.Description = in.Description
	existing.Published = in.Published
	existing.Archived = in.Archived
	existing.Status = in.Status
	existing.UpdatedAt = time.Now().UTC()
	existing.TicketTiers = in.tiers(existing.ID)

	if err := s.Store.UpdateShow(ctx, existing); err != nil {
		if errors.Is(err, ErrSlugExists) {
			return nil, apperr.Conflict("a show with this slug already exists")
		}
		return nil, fmt.Errorf("update show: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionUpdate,
		EntityType:  "show",
		EntityID:    existing.ID,
		Summary:     existing.Title,
	})
	return existing, nil
}

func (s *Service) DeleteShow(ctx context.Context, actor auth.Identity, id string) error {
	show, err := s.Store.GetShowByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("show not found")
		}
		return fmt.Errorf("lookup show: %w", err)
	}
	if err := s.Store.DeleteShow(ctx, id); err != nil {
		return fmt.Errorf("delete show: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionDelete,
		EntityType:  "show",
		EntityID:    show.ID,
		Summary:     show.Title,
	})
	return nil
}

// ShowByID returns any show, published or not. Used by the admin API and
// by the order workflow for its snapshot lookup.
func (s *Service) ShowByID(ctx context.Context, id string) (*models.Show, error) {
	show, err := s.Store.GetShowByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("show not found")
		}
		return nil, fmt.Errorf("lookup show: %w", err)
	}
	return show, nil
}

// PublicShowBySlug returns a published, non-archived show.
func (s *Service) PublicShowBySlug(ctx context.Context, slug string) (*models.Show, error) {
	show, err := s.Store.GetShowBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("show not found")
		}
		return nil, fmt.Errorf("lookup show: %w", err)
	}
	if !show.Published || show.Archived {
		return nil, apperr.NotFound("show not found")
	}
	return show, nil
}

func (s *Service) ListShows(ctx context.Context, publicOnly bool) ([]models.Show, error) {
	return s.Store.ListShows(ctx, publicOnly)
}

// ---------------- PAGES ----------------

type PageInput struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

func (s *Service) CreatePage(ctx context.Context, actor auth.Identity, in PageInput) (*models.Page, error) {
	if strings.TrimSpace(in.Slug) == "" || strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("slug and title are required")
	}
	page := &models.Page{
		ID:        utils.NewID(),
		Slug:      strings.ToLower(strings.TrimSpace(in.Slug)),
		Title:     strings.TrimSpace(in.Title),
		Body:      in.Body,
		Published: in.Published,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.InsertPage(ctx, page); err != nil {
		if errors.Is(err, ErrSlugExists) {
			return nil, apperr.Conflict("a page with this slug already exists")
		}
		return nil, fmt.Errorf("insert page: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionCreate,
		EntityType:  "page",
		EntityID:    page.ID,
		Summary:     page.Slug,
	})
	return page, nil
}

func (s *Service) UpdatePage(ctx context.Context, actor auth.Identity, id string, in PageInput) (*models.Page, error) {
	page, err := s.Store.GetPageByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("page not found")
		}
		return nil, fmt.Errorf("lookup page: %w", err)
	}
	if in.Slug != "" {
		page.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	}
	if in.Title != "" {
		page.Title = strings.TrimSpace(in.Title)
	}
	page.Body = in.Body
	page.Published = in.Published
	page.UpdatedAt = time.Now().UTC()

	if err := s.Store.UpdatePage(ctx, page); err != nil {
		if errors.Is(err, ErrSlugExists) {
			return nil, apperr.Conflict("a page with this slug already exists")
		}
		return nil, fmt.Errorf("update page: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionUpdate,
		EntityType:  "page",
		EntityID:    page.ID,
		Summary:     page.Slug,
	})
	return page, nil
}

func (s *Service) DeletePage(ctx context.Context, actor auth.Identity, id string) error {
	page, err := s.Store.GetPageByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("page not found")
		}
		return fmt.Errorf("lookup page: %w", err)
	}
	if err := s.Store.DeletePage(ctx, id); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionDelete,
		EntityType:  "page",
		EntityID:    page.ID,
		Summary:     page.Slug,
	})
	return nil
}

func (s *Service) PublicPageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	page, err := s.Store.GetPageBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("page not found")
		}
		return nil, fmt.Errorf("lookup page: %w", err)
	}
	if !page.Published {
		return nil, apperr.NotFound("page not found")
	}
	return page, nil
}

func (s *Service) ListPages(ctx context.Context) ([]models.Page, error) {
	return s.Store.ListPages(ctx)
}

// ---------------- SETTINGS ----------------

// Settings serves reads through the single-slot TTL cache.
func (s *Service) Settings(ctx context.Context) (*models.SiteSettings, error) {
	if cached, ok := s.settings.get(); ok {
		return cached, nil
	}
	settings, err := s.Store.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("settings not found")
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}
	s.settings.set(settings)
	return settings, nil
}

type SettingsInput struct {
	SiteTitle    string `json:"site_title"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Address      string `json:"address"`
	FooterText   string `json:"footer_text"`
}

// UpdateSettings writes through and synchronously invalidates the cache.
func (s *Service) UpdateSettings(ctx context.Context, actor auth.Identity, in SettingsInput) (*models.SiteSettings, error) {
	if strings.TrimSpace(in.SiteTitle) == "" {
		return nil, apperr.Validation("site_title is required")
	}
	settings := &models.SiteSettings{
		ID:           models.SiteSettingsID,
		SiteTitle:    strings.TrimSpace(in.SiteTitle),
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		Address:      in.Address,
		FooterText:   in.FooterText,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.Store.UpsertSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	s.settings.invalidate()

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionUpdate,
		EntityType:  "settings",
		EntityID:    models.SiteSettingsID,
	})
	return settings, nil
}

// ---------------- FAQ ----------------

type FAQInput struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Position  int    `json:"position"`
	Published bool   `json:"published"`
}

func (s *Service) CreateFAQ(ctx context.Context, actor auth.Identity, in FAQInput) (*models.FAQItem, error) {
	if strings.TrimSpace(in.Question) == "" || strings.TrimSpace(in.Answer) == "" {
		return nil, apperr.Validation("question and answer are required")
	}
	item := &models.FAQItem{
		ID:        utils.NewID(),
		Question:  strings.TrimSpace(in.Question),
		Answer:    strings.TrimSpace(in.Answer),
		Position:  in.Position,
		Published: in.Published,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.InsertFAQ(ctx, item); err != nil {
		return nil, fmt.Errorf("insert faq item: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionCreate,
		EntityType:  "faq",
		EntityID:    item.ID,
	})
	return item, nil
}

func (s *Service) UpdateFAQ(ctx context.Context, actor auth.Identity, id string, in FAQInput) (*models.FAQItem, error) {
	item, err := s.Store.GetFAQByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("faq item not found")
		}
		return nil, fmt.Errorf("lookup faq item: %w", err)
	}
	if in.Question != "" {
		item.Question = strings.TrimSpace(in.Question)
	}
	if in.Answer != "" {
		item.Answer = strings.TrimSpace(in.Answer)
	}
	item.Position = in.Position
	item.Published = in.Published
	item.UpdatedAt = time.Now().UTC()

	if err := s.Store.UpdateFAQ(ctx, item); err != nil {
		return nil, fmt.Errorf("update faq item: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionUpdate,
		EntityType:  "faq",
		EntityID:    item.ID,
	})
	return item, nil
}

func (s *Service) DeleteFAQ(ctx context.Context, actor auth.Identity, id string) error {
	if _, err := s.Store.GetFAQByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("faq item not found")
		}
		return fmt.Errorf("lookup faq item: %w", err)
	}
	if err := s.Store.DeleteFAQ(ctx, id); err != nil {
		return fmt.Errorf("delete faq item: %w", err)
	}

	s.Audit.Record(ctx, models.AuditLogEntry{
		ActorUserID: actor.UserID,
		ActorEmail:  actor.Email,
		Action:      models.AuditActionDelete,
		EntityType:  "faq",
		EntityID:    id,
	})
	return nil
}

func (s *Service) ListFAQ(ctx context.Context, publicOnly bool) ([]models.FAQItem, error) {
	return s.Store.ListFAQ(ctx, publicOnly)
}
