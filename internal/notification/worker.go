package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"bin-status-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans offline alerts out to push subscribers. The liveness
// sweep dispatches a job per offline transition; workers look up the
// subscriptions for the bin's location and push an alert to each.
type WorkerPool struct {
	size    int
	jobs    chan model.BinKey
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.BinKey, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Alert worker %d started", id)
	for {
		select {
		case key := <-wp.jobs:
			wp.alertSubscribers(ctx, key)
		case <-ctx.Done():
			log.Printf("Alert worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an offline alert for the given bin. It never blocks
// the caller: when the queue is full the alert is dropped, since the
// offline sweep must not stall behind slow push endpoints.
func (wp *WorkerPool) Dispatch(key model.BinKey) {
	select {
	case wp.jobs <- key:
	default:
		log.Printf("Alert queue full, dropping offline alert for bin %s", key.TrackerKey())
	}
}

// alertSubscribers fetches the location's subscriptions and sends an
// offline alert to each.
func (wp *WorkerPool) alertSubscribers(ctx context.Context, key model.BinKey) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("location = ?", key.Location).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for location %q: %v", key.Location, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d offline alerts for bin %s", len(subscriptions), key.TrackerKey())
	message := fmt.Sprintf("Bin %d at %s has gone offline", key.ID, key.Location)
	for _, sub := range subscriptions {
		wp.sendAlert(ctx, sub, []byte(message))
	}
}

// sendAlert sends a single web push notification, deleting the
// subscription when the push service reports it gone.
func (wp *WorkerPool) sendAlert(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending alert to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
