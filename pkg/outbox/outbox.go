// Package outbox 实现事务发件箱：事件随业务事务落库，由后台中继投递到 Kafka
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"github.com/wyfcoding/pointofsale/pkg/logger"
	"github.com/wyfcoding/pointofsale/pkg/mq"
	"gorm.io/gorm"
)

const (
	statusPending = "pending"
	statusSent    = "sent"
	statusFailed  = "failed"

	maxAttempts = 5
)

// EventModel 发件箱表
type EventModel struct {
	ID        uint   `gorm:"primarykey"`
	EventID   string `gorm:"type:varchar(36);uniqueIndex;not null"`
	EventType string `gorm:"type:varchar(100);not null"`
	Payload   []byte `gorm:"type:json;not null"`
	Status    string `gorm:"type:varchar(20);not null;default:pending;index"`
	Attempts  int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定表名
func (EventModel) TableName() string {
	return "outbox_events"
}

// Publisher 在业务事务内写入事件行
type Publisher struct {
	db *gorm.DB
}

// NewPublisher 构造函数
func NewPublisher(database *gorm.DB) *Publisher {
	return &Publisher{db: database}
}

// Publish 写入一条待投递事件；调用方处于事务中时共用同一事务
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &EventModel{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   data,
		Status:    statusPending,
	}
	return db.FromContext(ctx, p.db).WithContext(ctx).Create(event).Error
}

// Relay 轮询待投递事件并发送到 Kafka
type Relay struct {
	db       *gorm.DB
	producer *mq.KafkaProducer
	topic    string
	interval time.Duration
}

// NewRelay 构造函数
func NewRelay(database *gorm.DB, producer *mq.KafkaProducer, topic string, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{db: database, producer: producer, topic: topic, interval: interval}
}

// Run 阻塞运行中继循环，直到 ctx 取消
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info(ctx, "Outbox relay started", "topic", r.topic, "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				logger.Error(ctx, "Outbox relay drain failed", "error", err)
			}
		}
	}
}

func (r *Relay) drain(ctx context.Context) error {
	var events []EventModel
	err := r.db.WithContext(ctx).
		Where("status = ?", statusPending).
		Order("id ASC").
		Limit(50).
		Find(&events).Error
	if err != nil {
		return err
	}

	for i := range events {
		event := &events[i]
		sendErr := r.producer.SendRaw(ctx, r.topic, event.EventType, event.Payload)

		updates := map[string]any{"attempts": event.Attempts + 1}
		if sendErr != nil {
			if event.Attempts+1 >= maxAttempts {
				updates["status"] = statusFailed
				logger.Error(ctx, "Outbox event gave up after max attempts",
					"event_id", event.EventID, "event_type", event.EventType)
			}
		} else {
			updates["status"] = statusSent
		}

		if err := r.db.WithContext(ctx).Model(&EventModel{}).
			Where("id = ?", event.ID).
			Updates(updates).Error; err != nil {
			return err
		}
	}
	return nil
}
