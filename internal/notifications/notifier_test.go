package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nguyenhuy-dev/storelane-backend/pkg/db/models"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/enums"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
)

type stubPublisher struct {
	err        error
	data       [][]byte
	attributes []map[string]string
}

func (p *stubPublisher) Publish(_ context.Context, data []byte, attributes map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.data = append(p.data, data)
	p.attributes = append(p.attributes, attributes)
	return nil
}

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:notifications_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	return db
}

func newNotifier(t *testing.T, db *gorm.DB, pub Publisher) Notifier {
	t.Helper()

	notifier, err := NewService(ServiceParams{
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:        db,
		Publisher: pub,
	})
	require.NoError(t, err)
	return notifier
}

func TestSendRecordsAndPublishes(t *testing.T) {
	db := setupNotificationsTestDB(t)
	pub := &stubPublisher{}
	notifier := newNotifier(t, db, pub)
	userID := uuid.New()

	err := notifier.Send(context.Background(), userID, enums.NotificationOrderStatusChanged, map[string]any{
		"order_id": uuid.NewString(),
		"status":   "confirmed",
	})
	require.NoError(t, err)

	var stored models.Notification
	require.NoError(t, db.First(&stored, "user_id = ?", userID).Error)
	assert.Equal(t, enums.NotificationOrderStatusChanged, stored.Template)
	assert.Equal(t, "confirmed", stored.Payload["status"])

	require.Len(t, pub.attributes, 1)
	assert.Equal(t, userID.String(), pub.attributes[0]["user_id"])
	assert.Equal(t, "order_status_changed", pub.attributes[0]["template"])
}

func TestSendKeepsRecordWhenPublishFails(t *testing.T) {
	db := setupNotificationsTestDB(t)
	pub := &stubPublisher{err: errors.New("topic unavailable")}
	notifier := newNotifier(t, db, pub)
	userID := uuid.New()

	err := notifier.Send(context.Background(), userID, enums.NotificationOrderCreated, map[string]any{"total": 1000})
	require.Error(t, err)

	// The audit row survives for replay even though publishing failed.
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
