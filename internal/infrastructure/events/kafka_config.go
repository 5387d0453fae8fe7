package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// KafkaConfig configures the record publisher
type KafkaConfig struct {
	Brokers          []string
	Topic            string
	ClientID         string
	RequiredAcks     string
	CompressionCodec string
	RetryMax         int
	RetryBackoff     time.Duration
	Timeout          time.Duration
}

func parseRequiredAcks(v string) (sarama.RequiredAcks, error) {
	switch strings.ToLower(v) {
	case "", "all", "wait_for_all", "-1":
		return sarama.WaitForAll, nil
	case "none", "no_response", "0":
		return sarama.NoResponse, nil
	case "leader", "local", "wait_for_local", "1":
		return sarama.WaitForLocal, nil
	default:
		return sarama.WaitForAll, fmt.Errorf("invalid kafka required_acks: %s", v)
	}
}

func parseCompression(v string) (sarama.CompressionCodec, error) {
	switch strings.ToLower(v) {
	case "", "none":
		return sarama.CompressionNone, nil
	case "gzip":
		return sarama.CompressionGZIP, nil
	case "snappy":
		return sarama.CompressionSnappy, nil
	case "lz4":
		return sarama.CompressionLZ4, nil
	case "zstd":
		return sarama.CompressionZSTD, nil
	default:
		return sarama.CompressionNone, fmt.Errorf("invalid kafka compression codec: %s", v)
	}
}

// newSaramaConfig builds a producer configuration suitable for a SyncProducer
func newSaramaConfig(cfg KafkaConfig) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()

	acks, err := parseRequiredAcks(cfg.RequiredAcks)
	if err != nil {
		return nil, err
	}
	saramaConfig.Producer.RequiredAcks = acks

	codec, err := parseCompression(cfg.CompressionCodec)
	if err != nil {
		return nil, err
	}
	saramaConfig.Producer.Compression = codec

	if cfg.ClientID != "" {
		saramaConfig.ClientID = cfg.ClientID
	}
	if cfg.RetryMax > 0 {
		saramaConfig.Producer.Retry.Max = cfg.RetryMax
	}
	if cfg.RetryBackoff > 0 {
		saramaConfig.Producer.Retry.Backoff = cfg.RetryBackoff
	}
	if cfg.Timeout > 0 {
		saramaConfig.Producer.Timeout = cfg.Timeout
	}

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	return saramaConfig, nil
}
