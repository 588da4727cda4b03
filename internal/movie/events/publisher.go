package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
)

const (
	TopicSearchCached = "movie.search.cached"
	TopicMovieCached  = "movie.detail.cached"
	TopicFlagCached   = "country.flag.cached"
)

// EventPublisher announces every resource written to the cache store.
type EventPublisher struct {
	producer sarama.SyncProducer
}

func NewEventPublisher(brokers []string) (*EventPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return NewEventPublisherWithProducer(producer), nil
}

func NewEventPublisherWithProducer(producer sarama.SyncProducer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func (p *EventPublisher) PublishSearchCached(ctx context.Context,
	key string, result *domain.SearchResult) error {

	ids := make([]string, 0, len(result.Search))
	for _, stub := range result.Search {
		ids = append(ids, stub.ImdbID)
	}

	event := map[string]interface{}{
		"event_type": "search_cached",
		"timestamp":  time.Now(),
		"data": map[string]interface{}{
			"search_key":    key,
			"total_results": result.TotalResults,
			"imdb_ids":      ids,
		},
	}

	return p.publish(TopicSearchCached, key, event)
}

func (p *EventPublisher) PublishMovieCached(ctx context.Context,
	record *domain.MovieRecord) error {

	event := map[string]interface{}{
		"event_type": "movie_cached",
		"timestamp":  time.Now(),
		"data": map[string]interface{}{
			"imdb_id":   record.Detail.ImdbID,
			"title":     record.Detail.Title,
			"year":      record.Detail.Year,
			"countries": record.Countries,
		},
	}

	return p.publish(TopicMovieCached, record.Detail.ImdbID, event)
}

func (p *EventPublisher) PublishFlagCached(ctx context.Context,
	flag *domain.CountryFlag) error {

	event := map[string]interface{}{
		"event_type": "flag_cached",
		"timestamp":  time.Now(),
		"data": map[string]interface{}{
			"country_name": flag.CountryName,
			"flag_url":     flag.FlagURL,
		},
	}

	return p.publish(TopicFlagCached, flag.CountryName, event)
}

func (p *EventPublisher) publish(topic, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	_, _, err = p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (p *EventPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishSearchCached(context.Context, string, *domain.SearchResult) error {
	return nil
}

func (NoopPublisher) PublishMovieCached(context.Context, *domain.MovieRecord) error {
	return nil
}

func (NoopPublisher) PublishFlagCached(context.Context, *domain.CountryFlag) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}

var (
	_ domain.EventPublisher = (*EventPublisher)(nil)
	_ domain.EventPublisher = NoopPublisher{}
)
