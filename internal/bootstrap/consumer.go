package bootstrap

import (
	"github.com/muhammadchandra19/orderbook-view/internal/consumer"
	"github.com/muhammadchandra19/orderbook-view/pkg/questdb"
)

// registerConsumer builds the Kafka ingestion path when it is enabled. Stored
// events notify the matching sessions.
func (b *Bootstrap) registerConsumer() {
	if !b.Config.OrderKafka.Enabled || b.Sources.Store == nil {
		return
	}

	b.Consumer = consumer.NewOrderEventConsumer(
		b.Config.OrderKafka,
		consumer.NewKafkaReader(b.Config.OrderKafka),
		b.Sources.Store,
		questdb.NewTransactor(b.QuestDB),
		b.Manager,
		b.Logger,
	)
}
