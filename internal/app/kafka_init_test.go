package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	logger, hook := test.NewNullLogger()

	producer := initKafkaProducer(nil, logger.WithField("test", "kafka"))

	assert.Nil(t, producer)
	assert.Empty(t, hook.AllEntries())
}

func TestInitKafkaProducer_UnreachableBrokers(t *testing.T) {
	testCases := []struct {
		name    string
		brokers []string
	}{
		{name: "single", brokers: []string{"invalid-broker:9999"}},
		{name: "multiple", brokers: []string{"broker1:9092", "broker2:9092"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, hook := test.NewNullLogger()

			producer := initKafkaProducer(tc.brokers, logger.WithField("test", "kafka"))
			if producer != nil {
				closeKafka(producer, logger.WithField("test", "kafka"))
				t.Skip("unexpected kafka broker is reachable")
			}

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, log.WarnLevel, entry.Level)
			assert.Contains(t, entry.Message, "continuing without kafka")
		})
	}
}

func TestCloseKafka_NilProducer(_ *testing.T) {
	closeKafka(nil, log.WithField("test", "kafka"))
}
