package repository

import (
	"context"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	pkgkafka "PriceCast/pkg/kafka"
)

// KafkaQuotePublisher writes quotes as JSON keyed by symbol.
type KafkaQuotePublisher struct {
	p *pkgkafka.Producer
}

func NewKafkaQuotePublisher(p *pkgkafka.Producer) *KafkaQuotePublisher {
	return &KafkaQuotePublisher{p: p}
}

func (k *KafkaQuotePublisher) PublishQuote(ctx context.Context, q models.PriceQuote) error {
	return k.p.Publish(ctx, []byte(q.Symbol), q)
}

func (k *KafkaQuotePublisher) Close() error { return k.p.Close() }

var _ domrepo.QuotePublisher = (*KafkaQuotePublisher)(nil)
