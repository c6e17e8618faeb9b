package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ibs-source/batch/runner/golang/internal/mqttio"
	"github.com/ibs-source/batch/runner/golang/internal/redisio"
	"github.com/ibs-source/batch/runner/golang/internal/runner"
)

// newRelayCommand builds the redis → mqtt pipeline: stream entries are
// JSON-encoded and published one message per entry.
func newRelayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Drain a Redis stream and publish each entry to MQTT",
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			reader, err := redisio.NewStreamReader(env.cfg, env.log)
			if err != nil {
				return err
			}
			writer, err := mqttio.NewPublishWriter(env.cfg, env.log)
			if err != nil {
				return err
			}

			r, err := runner.New(runner.Params[redisio.Entry, []byte]{
				Config:  env.cfg.Pipeline,
				Task:    runner.TaskFunc[redisio.Entry, []byte](encodeEntries),
				Reader:  reader,
				Writer:  writer,
				Logger:  env.log,
				Metrics: env.metrics,
			})
			if err != nil {
				return err
			}

			return env.runPipeline(func(ctx context.Context) error {
				return r.Run(ctx)
			})
		},
	}
}

// encodeEntries serializes each stream entry as a standalone JSON document.
func encodeEntries(items []redisio.Entry) ([][]byte, error) {
	out := make([][]byte, 0, len(items))
	for _, e := range items {
		payload, err := json.Marshal(map[string]interface{}{
			"id":     e.ID,
			"values": e.Values,
		})
		if err != nil {
			return nil, fmt.Errorf("encode entry %s: %w", e.ID, err)
		}
		out = append(out, payload)
	}
	return out, nil
}
