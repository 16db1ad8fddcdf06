package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"folio/logger"
)

// KafkaEventBus는 confluent-kafka-go 라이브러리를 사용한 EventBus 구현체입니다.
type KafkaEventBus struct {
	Producer *kafka.Producer
	Brokers  string
}

// NewKafkaEventBus는 Kafka Producer를 초기화합니다.
func NewKafkaEventBus(brokers string) (*KafkaEventBus, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           5,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka Producer 생성 실패: %w", err)
	}

	// 전달 보고서 중 Publish 가 기다리지 않는 것들만 여기로 온다.
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					logger.ErrorWithFields("kafka delivery failed", logger.Fields{
						"topic": topicName(ev),
						"error": ev.TopicPartition.Error.Error(),
					})
				}
			case kafka.Error:
				logger.ErrorWithFields("kafka error", logger.Fields{"error": ev.Error()})
			}
		}
	}()

	return &KafkaEventBus{
		Producer: p,
		Brokers:  brokers,
	}, nil
}

func topicName(m *kafka.Message) string {
	if m.TopicPartition.Topic == nil {
		return ""
	}
	return *m.TopicPartition.Topic
}

// Close는 Producer를 안전하게 종료합니다.
func (k *KafkaEventBus) Close() {
	if k.Producer == nil {
		return
	}
	if remaining := k.Producer.Flush(5000); remaining > 0 {
		logger.Log.Warnf("플러시 후에도 %d개의 메시지가 남아 있습니다.", remaining)
	}
	k.Producer.Close()
	logger.Log.Info("Kafka Producer 종료.")
}

// Publish는 지정된 토픽에 이벤트를 발행하고 전달 보고서를 기다립니다.
func (k *KafkaEventBus) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("이벤트 마샬링 실패: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	err = k.Producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
		Key:            []byte(event.ID),
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("메시지 발행 실패: %w", err)
	}

	select {
	case ev := <-deliveryChan:
		if m, ok := ev.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			return fmt.Errorf("메시지 전달 실패: %w", m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (k *KafkaEventBus) newConsumer(groupID string, topics []string) (*kafka.Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":             k.Brokers,
		"group.id":                      groupID,
		"auto.offset.reset":             "earliest",
		"enable.auto.commit":            false, // 재시도 로직을 위해 수동 커밋 사용
		"partition.assignment.strategy": "range",
	})
	if err != nil {
		return nil, fmt.Errorf("kafka Consumer 생성 실패: %w", err)
	}
	if err := c.SubscribeTopics(topics, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("토픽 구독 실패 %v: %w", topics, err)
	}
	logger.InfoWithFields("kafka consumer started", logger.Fields{
		"group_id": groupID,
		"topics":   strings.Join(topics, ","),
	})
	return c, nil
}

// readMessage 는 타임아웃을 (nil, nil) 로 돌려준다.
func readMessage(c *kafka.Consumer) (*kafka.Message, error) {
	msg, err := c.ReadMessage(100 * time.Millisecond)
	if err != nil {
		if kerr, ok := err.(kafka.Error); ok {
			if kerr.Code() == kafka.ErrTimedOut {
				return nil, nil
			}
			if kerr.IsFatal() {
				return nil, fmt.Errorf("컨슈머 치명적 오류: %w", err)
			}
		}
		logger.Log.Errorf("ReadMessage 오류: %v", err)
		time.Sleep(500 * time.Millisecond)
		return nil, nil
	}
	return msg, nil
}

// Subscribe는 기본 토픽을 구독하고 handler 를 실행합니다.
// 실패한 이벤트는 재시도 토픽 또는 DLQ 로 옮긴 뒤에만 오프셋을 커밋합니다.
func (k *KafkaEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	c, err := k.newConsumer(groupID, []string{topic.Base()})
	if err != nil {
		return err
	}
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("메인 컨슈머 종료 중.")
			return ctx.Err()
		default:
		}

		msg, err := readMessage(c)
		if err != nil {
			return err
		}
		if msg == nil {
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Log.Errorf("토픽 %s의 이벤트 페이로드 오류: %v. 메시지를 건너뛰고 커밋합니다.", topicName(msg), err)
			c.CommitMessage(msg)
			continue
		}

		next, handleErr := Dispatch(ctx, topic, evt, handler)
		if handleErr != nil {
			if err := k.Publish(ctx, next.Topic, next.Event); err != nil {
				logger.ErrorWithFields("failed to reschedule event, offset not committed", logger.Fields{
					"event_id": evt.ID,
					"topic":    next.Topic,
					"error":    err.Error(),
				})
				continue
			}
		}

		if _, err := c.CommitMessage(msg); err != nil {
			logger.Log.Errorf("오프셋 커밋 오류: %v", err)
		}
	}
}

// StartRetryReinjector는 모든 재시도 토픽을 구독하고 지연 시간이 지난 메시지를 기본 토픽으로 재발행합니다.
func (k *KafkaEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	c, err := k.newConsumer(groupID, topic.GetRetryTopics())
	if err != nil {
		return err
	}
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("재시도 재주입 컨슈머 종료 중.")
			return ctx.Err()
		default:
		}

		msg, err := readMessage(c)
		if err != nil {
			return err
		}
		if msg == nil {
			continue
		}

		delay, ok := ParseRetryFromTopicName(topicName(msg))
		if !ok {
			logger.Log.Errorf("재시도 토픽 이름 파싱 실패: %s. 메시지를 건너뛰고 커밋합니다.", topicName(msg))
			c.CommitMessage(msg)
			continue
		}

		if remaining := time.Until(msg.Timestamp.Add(delay)); remaining > 0 {
			// 컨슈머 전체를 오래 막지 않도록 짧게 대기 후 같은 메시지를 다시 읽는다.
			time.Sleep(min(max(remaining, 50*time.Millisecond), 500*time.Millisecond))
			if err := c.Seek(msg.TopicPartition, 0); err != nil {
				logger.Log.Errorf("재시도 메시지 seek 실패: %v", err)
			}
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Log.Errorf("재시도 토픽 %s의 이벤트 페이로드 오류: %v. 메시지를 건너뛰고 커밋합니다.", topicName(msg), err)
			c.CommitMessage(msg)
			continue
		}

		logger.InfoWithFields("reinjecting event", logger.Fields{
			"event_id": evt.ID,
			"from":     topicName(msg),
			"to":       topic.Base(),
			"retry":    evt.Retry,
		})
		if err := k.Publish(ctx, topic.Base(), evt); err != nil {
			logger.Log.Errorf("이벤트 %s 재주입 실패: %v. 오프셋 커밋 안함.", evt.ID, err)
			continue
		}
		if _, err := c.CommitMessage(msg); err != nil {
			logger.Log.Errorf("재주입 후 커밋 오류: %v", err)
		}
	}
}
