package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	pkgerrors "github.com/nguyenhuy-dev/storelane-backend/pkg/errors"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
)

// Notifier publishes a buyer-facing message. Callers treat delivery as
// fire-and-forget; a failed send is logged, never propagated to the flow
// that triggered it.
type Notifier interface {
	Send(ctx context.Context, userID uuid.UUID, template enums.NotificationTemplate, payload map[string]any) error
}

// Publisher is the outbound transport seam. The production implementation
// wraps a Pub/Sub topic publisher.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

// TopicPublisher adapts a Pub/Sub publisher handle to the Publisher seam,
// waiting synchronously for the server ack.
type TopicPublisher struct {
	pub *pubsub.Publisher
}

// NewTopicPublisher wraps the given topic publisher.
func NewTopicPublisher(pub *pubsub.Publisher) (*TopicPublisher, error) {
	if pub == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &TopicPublisher{pub: pub}, nil
}

// Publish sends one message and blocks until the server acks or ctx expires.
func (p *TopicPublisher) Publish(ctx context.Context, data []byte, attributes map[string]string) error {
	result := p.pub.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attributes,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// ServiceParams configure the notifier.
type ServiceParams struct {
	Logger    *logger.Logger
	DB        *gorm.DB
	Publisher Publisher
}

type service struct {
	logg      *logger.Logger
	db        *gorm.DB
	publisher Publisher
}

// NewService builds a notifier that records each notification and publishes
// it to the notification topic.
func NewService(params ServiceParams) (Notifier, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	return &service{
		logg:      params.Logger,
		db:        params.DB,
		publisher: params.Publisher,
	}, nil
}

// Send persists the notification row first, then publishes. The row is the
// audit trail; a publish failure leaves it in place for replay tooling.
func (s *service) Send(ctx context.Context, userID uuid.UUID, template enums.NotificationTemplate, payload map[string]any) error {
	record := &models.Notification{
		UserID:   userID,
		Template: template,
		Payload:  payload,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record notification")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notification payload")
	}

	attributes := map[string]string{
		"notification_id": record.ID.String(),
		"user_id":         userID.String(),
		"template":        template.String(),
	}
	if err := s.publisher.Publish(ctx, data, attributes); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish notification")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"template": template.String(),
		"user_id":  userID.String(),
	})
	s.logg.Info(logCtx, "notification published")
	return nil
}
