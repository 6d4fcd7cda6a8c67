// Package telemetry publishes played-back samples to a message broker so
// downstream consumers see them as if they came from a live inverter.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"github.com/levenlabs/go-lflag"

	"github.com/solarsim/solarsim/pkg/types"
)

// DefaultTopic is the MQTT topic and Kafka topic readings are published to.
const DefaultTopic = "solar/telemetry"

// Reading is the message published for every played-back sample.
type Reading struct {
	LocationID string       `json:"locationID"`
	ModelID    string       `json:"modelID"`
	Cursor     int          `json:"cursor"`
	Sample     types.Sample `json:"sample"`
}

// Publisher sends readings somewhere.
type Publisher interface {
	Publish(ctx context.Context, r Reading) error
	Close() error
}

// Configured sets up the Publisher based on flags.
func Configured() Publisher {
	provider := lflag.String("telemetry-provider", "none", "Telemetry publisher to use (available: none, mqtt, kafka)")
	topic := lflag.String("telemetry-topic", DefaultTopic, "Topic readings are published to")
	mqttBroker := lflag.String("mqtt-broker", "tcp://localhost:1883", "MQTT broker URL")
	mqttClientID := lflag.String("mqtt-client-id", "solarsim", "MQTT client id")
	kafkaBrokers := lflag.String("kafka-brokers", "localhost:9092", "Comma-separated list of Kafka brokers")

	var p struct{ Publisher }

	lflag.Do(func() {
		switch *provider {
		case "", "none":
			p.Publisher = Nop{}
		case "mqtt":
			mp, err := DialMQTT(*mqttBroker, *mqttClientID, *topic)
			if err != nil {
				panic(fmt.Sprintf("mqtt init failed: %v", err))
			}
			p.Publisher = mp
		case "kafka":
			brokers := splitList(*kafkaBrokers)
			if len(brokers) == 0 {
				panic("kafka-brokers is required for the kafka telemetry provider")
			}
			p.Publisher = NewKafka(brokers, *topic)
		default:
			panic(fmt.Sprintf("unknown telemetry provider: %s", *provider))
		}
	})

	return &p
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Nop discards every reading.
type Nop struct{}

func (Nop) Publish(context.Context, Reading) error { return nil }

func (Nop) Close() error { return nil }
