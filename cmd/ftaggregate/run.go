package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ftaggregate/internal/aggregate"
	"ftaggregate/internal/collaborators"
	"ftaggregate/internal/pipeline"

	"github.com/spf13/cobra"
)

// newRunCommand wires `ftaggregate run <index> <query> [args...]` against a
// small built-in demo dataset, exercising the full parse -> compile -> build
// -> drain path end to end without a real storage engine behind it.
func newRunCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <index> <query> [args...]",
		Short: "Run an aggregation request against the built-in demo dataset",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, query, rest := args[0], args[1], args[2:]

			req, err := aggregate.Parser{}.Parse(index, query, rest)
			if err != nil {
				return fmt.Errorf("parse: %w", err)
			}

			store, reader := demoDataset()
			registry := newExtensionRegistry()
			if err := pipeline.ApplyContext(req, collaborators.StubParser{}, registry, reader); err != nil {
				return fmt.Errorf("apply context: %w", err)
			}

			builder := pipeline.Builder{Reader: req.Iterator, Store: store, Registry: registry}
			proc, err := builder.Build(req)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}

			ctx := context.Background()
			rows := make([]map[string]string, 0)
			for {
				row, outcome, err := proc.Next(ctx)
				if err != nil {
					return fmt.Errorf("run: %w", err)
				}
				if outcome == pipeline.OutcomeEOF {
					break
				}
				if outcome == pipeline.OutcomePaused {
					logger.Debug("pipeline paused mid-scan, draining synchronously")
					continue
				}
				rows = append(rows, row.Fields)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}
	return cmd
}

// demoDataset builds a small fixed catalog of documents so `ftaggregate run`
// has something to query without a real index behind it.
func demoDataset() (collaborators.DocStore, collaborators.IndexReader) {
	docs := collaborators.MapDocStore{
		"doc1": {ID: "doc1", Fields: map[string]string{"title": "alpha", "category": "fruit", "price": "1.50"}},
		"doc2": {ID: "doc2", Fields: map[string]string{"title": "beta", "category": "fruit", "price": "2.25"}},
		"doc3": {ID: "doc3", Fields: map[string]string{"title": "gamma", "category": "vegetable", "price": "0.75"}},
	}
	items := []collaborators.ScoredID{
		{ID: "doc1", Score: 1.0},
		{ID: "doc2", Score: 0.8},
		{ID: "doc3", Score: 0.6},
	}
	return docs, collaborators.NewSliceIndexReader(items)
}
