package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub"

	"github.com/pearlpos/api/internal/platform/textutil"
	"github.com/pearlpos/api/internal/services"
)

// PubSubOrderPublisher publishes submitted-order events to a Pub/Sub topic.
type PubSubOrderPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubOrderPublisher constructs a Pub/Sub backed order event publisher.
func NewPubSubOrderPublisher(topic *pubsub.Topic) (*PubSubOrderPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order publisher: topic is required")
	}
	return &PubSubOrderPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishOrderSubmitted enqueues an order-submitted event on the configured topic.
func (p *PubSubOrderPublisher) PublishOrderSubmitted(ctx context.Context, message services.OrderSubmittedMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub order publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal order event: %w", err)
	}

	attrs := textutil.NormalizeStringMap(map[string]string{
		"orderId":    message.OrderID,
		"employeeId": message.EmployeeID,
		"location":   message.Location,
	})

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish order event: %w", err)
	}
	return id, nil
}

// PubSubRestockPublisher publishes low-stock alerts to a Pub/Sub topic.
type PubSubRestockPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubRestockPublisher constructs a Pub/Sub backed restock alert publisher.
func NewPubSubRestockPublisher(topic *pubsub.Topic) (*PubSubRestockPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub restock publisher: topic is required")
	}
	return &PubSubRestockPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishRestockAlert enqueues a restock alert on the configured topic.
func (p *PubSubRestockPublisher) PublishRestockAlert(ctx context.Context, message services.RestockAlertMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub restock publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal restock alert: %w", err)
	}

	attrs := textutil.NormalizeStringMap(map[string]string{
		"inventoryId": message.InventoryID,
		"name":        message.Name,
		"quantity":    strconv.FormatFloat(message.Quantity, 'f', -1, 64),
	})

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish restock alert: %w", err)
	}
	return id, nil
}
