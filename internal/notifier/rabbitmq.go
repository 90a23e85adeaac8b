package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Exchange and routing keys for push-dispatcher events. Delivery and retry
// to devices is the dispatcher's job; publishing here is fire-and-forget.
const (
	Exchange           = "drivepool.events"
	RoutingTripScored  = "trip.scored"
	RoutingAchievement = "achievement.unlocked"
)

// TripScoredEvent notifies the push dispatcher that a trip was scored.
type TripScoredEvent struct {
	TripID   string `json:"tripId"`
	DriverID string `json:"driverId"`
	Score    int    `json:"score"`
	At       int64  `json:"at"`
}

// AchievementEvent notifies the push dispatcher of an unlocked milestone.
type AchievementEvent struct {
	DriverID    string `json:"driverId"`
	Achievement string `json:"achievement"`
	At          int64  `json:"at"`
}

// Publisher publishes core events to the push-notification broker.
// A nil Publisher is a no-op, so the core runs without a broker configured.
type Publisher struct {
	conn *amqp091.Connection
	ch   *amqp091.Channel
}

// Connect dials the broker and declares the event exchange. Returns nil
// (publishing disabled) when url is empty.
func Connect(url string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

// Close shuts down the broker connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}

// TripScored publishes a trip.scored event. Failures are logged, never
// propagated; scoring does not depend on notification delivery.
func (p *Publisher) TripScored(tripID, driverID string, score int) {
	if p == nil {
		return
	}
	p.publish(RoutingTripScored, TripScoredEvent{
		TripID:   tripID,
		DriverID: driverID,
		Score:    score,
		At:       time.Now().Unix(),
	})
}

// AchievementUnlocked publishes an achievement.unlocked event.
func (p *Publisher) AchievementUnlocked(driverID, achievement string) {
	if p == nil {
		return
	}
	p.publish(RoutingAchievement, AchievementEvent{
		DriverID:    driverID,
		Achievement: achievement,
		At:          time.Now().Unix(),
	})
}

func (p *Publisher) publish(routingKey string, event interface{}) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Notifier] Failed to marshal %s event: %v", routingKey, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		log.Printf("[Notifier] Failed to publish %s event: %v", routingKey, err)
	}
}
