package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibs-source/batch/runner/golang/internal/redisio"
	"github.com/ibs-source/batch/runner/golang/internal/runner"
)

// newMirrorCommand builds the redis → redis pipeline: entries are copied from
// the source stream to the sink stream with a relay timestamp.
func newMirrorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mirror",
		Short: "Copy a Redis stream into another stream",
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			reader, err := redisio.NewStreamReader(env.cfg, env.log)
			if err != nil {
				return err
			}
			writer, err := redisio.NewStreamWriter(env.cfg, env.log)
			if err != nil {
				return err
			}

			r, err := runner.New(runner.Params[redisio.Entry, redisio.Entry]{
				Config:  env.cfg.Pipeline,
				Task:    runner.TaskFunc[redisio.Entry, redisio.Entry](stampEntries),
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

// stampEntries copies each entry and records when it passed through the
// mirror. Source values are copied, never mutated: the map is shared with
// the reader's batch.
func stampEntries(items []redisio.Entry) ([]redisio.Entry, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	out := make([]redisio.Entry, 0, len(items))
	for _, e := range items {
		values := make(map[string]interface{}, len(e.Values)+1)
		for k, v := range e.Values {
			values[k] = v
		}
		values["mirrored_at"] = now
		out = append(out, redisio.Entry{ID: e.ID, Values: values})
	}
	return out, nil
}
