// Package contact stores messages sent through the contact form and mails
// the staff reply back to the sender.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pay2me/storefront/internal/logging"
	"github.com/pay2me/storefront/internal/models"
	"github.com/pay2me/storefront/internal/notify"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Create(ctx context.Context, m *models.ContactMessage) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

func (r *GormRepo) Get(ctx context.Context, id uint) (*models.ContactMessage, error) {
	var m models.ContactMessage
	if err := r.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormRepo) List(ctx context.Context, q string, offset, limit int) (int64, []models.ContactMessage, error) {
	query := r.DB.WithContext(ctx).Model(&models.ContactMessage{})
	if q != "" {
		query = query.Where("LOWER(subject) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.ContactMessage
	if err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// MarkReplied stores reply only if no reply was stored before.
func (r *GormRepo) MarkReplied(ctx context.Context, id uint, reply string, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Where("id = ? AND replied_at IS NULL", id).
		Updates(map[string]any{"admin_reply": reply, "replied_at": at})
	return res.RowsAffected == 1, res.Error
}

type Service struct {
	Repo     *GormRepo
	Notifier notify.Dispatcher
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

type SubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.ContactMessage, error) {
	m := &models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if m.Name == "" || m.Subject == "" || m.Message == "" {
		return nil, fmt.Errorf("%w: name, subject and message are required", ErrValidation)
	}
	if len(m.Name) > 255 || len(m.Subject) > 255 {
		return nil, fmt.Errorf("%w: name and subject are limited to 255 characters", ErrValidation)
	}
	addr, err := mail.ParseAddress(m.Email)
	if err != nil || addr.Address != m.Email {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if m.Phone != "" && !phonePattern.MatchString(m.Phone) {
		return nil, fmt.Errorf("%w: phone must look like +999999999 with up to 15 digits", ErrValidation)
	}

	if err := s.Repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, q string, offset, limit int) (int64, []models.ContactMessage, error) {
	return s.Repo.List(ctx, strings.TrimSpace(q), offset, limit)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.ContactMessage, error) {
	m, err := s.Repo.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("contact message %d: %w", id, ErrNotFound)
	}
	return m, err
}

// Reply answers a message once. The reply is stored before the email is
// queued, so a second reply is refused even if mailing later fails.
func (s *Service) Reply(ctx context.Context, id uint, reply string) (*models.ContactMessage, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("%w: reply is required", ErrValidation)
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Replied() {
		return nil, fmt.Errorf("%w: message %d was already answered", ErrConflict, id)
	}

	at := s.now()
	ok, err := s.Repo.MarkReplied(ctx, id, reply, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: message %d was already answered", ErrConflict, id)
	}
	m.AdminReply, m.RepliedAt = &reply, &at

	if s.Notifier != nil {
		s.Notifier.Submit(ctx, notify.Task{
			To:       []string{m.Email},
			Subject:  "Re: " + m.Subject,
			Template: notify.TemplateContactReply,
			Context: map[string]any{
				"name":    m.Name,
				"subject": m.Subject,
				"message": m.Message,
				"reply":   reply,
				"sent_at": m.CreatedAt.Format("2006-01-02"),
			},
		})
	}
	logging.FromContext(ctx).Info("contact_reply_queued", "contact_id", id)
	return m, nil
}
