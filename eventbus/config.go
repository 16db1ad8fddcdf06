package eventbus

import (
	"folio/config"
	"folio/logger"
)

// DefaultPartitions 는 EnsureTopics 로 만드는 기본/재시도 토픽의 파티션 수다.
const DefaultPartitions = 3

// New 는 brokers 가 설정되어 있으면 Kafka 버스를, 아니면 메모리 버스를 반환한다.
// Kafka 를 사용할 때는 AllTopics 의 기본/재시도/DLQ 토픽을 먼저 보장한다.
func New(cfg config.EventBusConfig) (EventBus, error) {
	if cfg.Brokers == "" {
		logger.Log.Info("eventbus.brokers 미설정: 메모리 이벤트 버스를 사용합니다.")
		return NewMemoryEventBus(), nil
	}

	for _, topic := range AllTopics {
		if err := EnsureTopics(cfg.Brokers, topic, DefaultPartitions); err != nil {
			return nil, err
		}
	}
	return NewKafkaEventBus(cfg.Brokers)
}

// IsMemory 는 bus 가 프로세스 내부 버스인지 확인한다.
// 메모리 버스는 별도 워커 프로세스가 소비할 수 없으므로 API 가 직접 구독해야 한다.
func IsMemory(bus EventBus) bool {
	_, ok := bus.(*MemoryEventBus)
	return ok
}
