package sink

import (
	"errors"
	"fmt"
	"strings"

	"github.com/constellation-lab/constellation-zkevm/config"
	"github.com/constellation-lab/constellation-zkevm/indexer"
	"github.com/constellation-lab/constellation-zkevm/indexer/sink/kafka"
	"github.com/constellation-lab/constellation-zkevm/indexer/sink/null"
	"github.com/constellation-lab/constellation-zkevm/indexer/sink/psql"
)

// EventSinksFromConfig constructs a slice of indexer.EventSink using the
// provided configuration. The psql schema is installed on first use.
func EventSinksFromConfig(cfg *config.EventSinkConfig, chainID string) ([]indexer.EventSink, error) {
	if len(cfg.Sinks) == 0 {
		return []indexer.EventSink{null.NewEventSink()}, nil
	}

	// check for duplicated sinks
	sinks := map[string]struct{}{}
	var order []string
	for _, s := range cfg.Sinks {
		sl := strings.ToLower(s)
		if _, ok := sinks[sl]; ok {
			return nil, errors.New("found duplicated sinks, please check the event-sink section in the config.toml")
		}
		sinks[sl] = struct{}{}
		order = append(order, sl)
	}

	eventSinks := []indexer.EventSink{}
	for _, k := range order {
		switch indexer.EventSinkType(k) {
		case indexer.NULL:
			// When we see null in the config, the eventsinks will be reset with the
			// nullEventSink.
			stopAll(eventSinks)
			return []indexer.EventSink{null.NewEventSink()}, nil

		case indexer.PSQL:
			if cfg.PsqlConn == "" {
				stopAll(eventSinks)
				return nil, errors.New("the psql connection settings cannot be empty")
			}
			es, err := psql.NewEventSink(cfg.PsqlConn, chainID)
			if err == nil {
				err = es.Migrate()
			}
			if err != nil {
				stopAll(eventSinks)
				return nil, fmt.Errorf("psql sink: %w", err)
			}
			eventSinks = append(eventSinks, es)

		case indexer.KAFKA:
			if len(cfg.KafkaBrokers) == 0 {
				stopAll(eventSinks)
				return nil, errors.New("the kafka brokers cannot be empty")
			}
			eventSinks = append(eventSinks, kafka.NewEventSink(cfg.KafkaBrokers, cfg.KafkaTopic, chainID))

		default:
			stopAll(eventSinks)
			return nil, fmt.Errorf("unsupported event sink type %q", k)
		}
	}
	return eventSinks, nil
}

func stopAll(sinks []indexer.EventSink) {
	for _, s := range sinks {
		_ = s.Stop()
	}
}
