package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub"

	"github.com/Teletobimy/landingpage-irunica/internal/platform/textutil"
	"github.com/Teletobimy/landingpage-irunica/internal/services"
)

const assetsReadyEventType = "vip.assets.ready"

// PubSubAssetEventPublisher announces completed lead asset generations on a Pub/Sub topic.
type PubSubAssetEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubAssetEventPublisher constructs a Pub/Sub backed asset event publisher.
func NewPubSubAssetEventPublisher(topic *pubsub.Topic) (*PubSubAssetEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub asset publisher: topic is required")
	}
	return &PubSubAssetEventPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishAssetsReady publishes the event and waits for the server-assigned message id.
func (p *PubSubAssetEventPublisher) PublishAssetsReady(ctx context.Context, event services.AssetsReadyEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub asset publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal assets ready event: %w", err)
	}

	attrs := textutil.CompactStringMap(map[string]string{
		"eventType":      assetsReadyEventType,
		"eventId":        event.EventID,
		"leadId":         event.LeadID,
		"industry":       event.Industry,
		"fallbackImages": strconv.Itoa(event.FallbackImages),
	})

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish assets ready event: %w", err)
	}
	return id, nil
}
