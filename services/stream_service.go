package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// Broadcaster pushes a lifecycle update to every party watching a group
type Broadcaster interface {
	BroadcastLifecycle(groupID string, payload interface{})
}

// StreamWatcher tails a DynamoDB stream and notifies watchers when a
// group's row (or one of its votes) changes, so clients re-derive lifecycle
// state without polling the API themselves.
type StreamWatcher struct {
	Streams      *dynamodbstreams.Client
	Broadcast    Broadcaster
	PollInterval time.Duration
}

func NewStreamWatcher(streams *dynamodbstreams.Client, broadcast Broadcaster) *StreamWatcher {
	return &StreamWatcher{
		Streams:      streams,
		Broadcast:    broadcast,
		PollInterval: 2 * time.Second,
	}
}

// Watch polls the stream's shards from LATEST until the context is done or
// every shard closes. Changes only nudge watchers to re-read; the store
// remains the single source of truth.
func (w *StreamWatcher) Watch(ctx context.Context, streamArn string) error {
	description, err := w.Streams.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
		StreamArn: aws.String(streamArn),
	})
	if err != nil {
		return fmt.Errorf("failed to describe stream %s: %w", streamArn, err)
	}

	iterators := map[string]string{}
	for _, shard := range description.StreamDescription.Shards {
		output, err := w.Streams.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
			StreamArn:         aws.String(streamArn),
			ShardId:           shard.ShardId,
			ShardIteratorType: streamtypes.ShardIteratorTypeLatest,
		})
		if err != nil {
			log.Printf("Failed to get shard iterator for %s: %v", aws.ToString(shard.ShardId), err)
			continue
		}
		if output.ShardIterator != nil {
			iterators[aws.ToString(shard.ShardId)] = *output.ShardIterator
		}
	}

	for len(iterators) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.PollInterval):
		}

		for shardID, iterator := range iterators {
			output, err := w.Streams.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
				ShardIterator: aws.String(iterator),
			})
			if err != nil {
				log.Printf("Failed to read records from shard %s: %v", shardID, err)
				delete(iterators, shardID)
				continue
			}

			for _, record := range output.Records {
				w.notify(record)
			}

			if output.NextShardIterator == nil {
				delete(iterators, shardID)
				continue
			}
			iterators[shardID] = *output.NextShardIterator
		}
	}

	log.Printf("Stream %s has no open shards left, watcher exiting", streamArn)
	return nil
}

func (w *StreamWatcher) notify(record streamtypes.Record) {
	if record.Dynamodb == nil {
		return
	}

	groupID := stringKey(record.Dynamodb.Keys, "groupId")
	if groupID == "" {
		return
	}

	w.Broadcast.BroadcastLifecycle(groupID, map[string]interface{}{
		"groupId":   groupID,
		"eventName": string(record.EventName),
	})
}

func stringKey(keys map[string]streamtypes.AttributeValue, name string) string {
	if attr, ok := keys[name]; ok {
		if v, ok := attr.(*streamtypes.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}
