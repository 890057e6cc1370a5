package contact

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
)

const defaultInboxLimit = 100

// Message is a stored contact submission
type Message struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:200;not null" json:"name"`
	Email   string `gorm:"size:320;not null;index" json:"email"`
	Subject string `gorm:"size:300" json:"subject"`
	Message string `gorm:"type:text;not null" json:"message"`
	// Relayed is true once the relay endpoint accepted the message
	Relayed   bool      `gorm:"not null;default:false" json:"relayed"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// TableName implements gorm's tabler
func (Message) TableName() string {
	return "contact_messages"
}

// Inbox keeps every contact message in a gorm database
type Inbox struct {
	db *gorm.DB
}

// NewInbox wraps db
func NewInbox(db *gorm.DB) (*Inbox, error) {
	if db == nil {
		return nil, errors.New("gorm db is required")
	}
	return &Inbox{db: db}, nil
}

// Migrate creates the inbox table
func (i *Inbox) Migrate(ctx context.Context) error {
	return errors.Wrap(i.db.WithContext(ctx).AutoMigrate(&Message{}), "auto migrate contact messages")
}

// Save stores form and returns the new message
func (i *Inbox) Save(ctx context.Context, form dto.ContactForm) (*Message, error) {
	msg := &Message{
		Name:    form.Name,
		Email:   form.Email,
		Subject: form.Subject,
		Message: form.Message,
	}
	if err := i.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, errors.Wrap(err, "save contact message")
	}
	return msg, nil
}

// MarkRelayed flags message id as delivered
func (i *Inbox) MarkRelayed(ctx context.Context, id uint) error {
	err := i.db.WithContext(ctx).Model(&Message{}).
		Where("id = ?", id).
		Update("relayed", true).Error
	return errors.Wrapf(err, "mark message %d relayed", id)
}

// List returns up to limit messages, newest first
func (i *Inbox) List(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = defaultInboxLimit
	}

	var msgs []Message
	if err := i.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, errors.Wrap(err, "list contact messages")
	}
	return msgs, nil
}
