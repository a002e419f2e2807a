package service

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/gamewiki/issuestore/internal/domain"
	"github.com/gamewiki/issuestore/internal/usecase"
)

const DefaultAchievementChannel = "issuestore:achievements"

// SignalService publishes achievement events on a redis channel.
type SignalService struct {
	rdb     *redis.Client
	channel string
}

var _ usecase.EventPublisher = (*SignalService)(nil)

func NewSignalService(redisClient *redis.Client, channel string) *SignalService {
	if channel == "" {
		channel = DefaultAchievementChannel
	}
	return &SignalService{
		rdb:     redisClient,
		channel: channel,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.AchievementEvent) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.Publish")
	defer span.End()

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, s.channel, jsonstr).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "SignalService.Publish: redis publish failed")
	}

	return nil
}
