// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package services contains the business logic for interacting with data sources.
// This file, `renders.go`, defines the RenderLogService, which records every
// published artifact in BigQuery and reads the history back.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"google.golang.org/api/iterator"
)

// RenderLogService is the data access layer of the render table.
type RenderLogService struct {
	BigqueryClient *bigquery.Client // Client for interacting with Google BigQuery.
	DatasetName    string           // The name of the BigQuery dataset.
	RenderTable    string           // The name of the table holding render records.
}

// Enabled reports whether a client and a table are configured.
func (s *RenderLogService) Enabled() bool {
	return s != nil && s.BigqueryClient != nil && len(s.DatasetName) > 0 && len(s.RenderTable) > 0
}

// GetFQN returns the fully qualified, query ready name of the render table,
// e.g. `gcp-project-id.shorts_ds.renders`.
func (s *RenderLogService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.RenderTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// Insert streams one record into the render table.
func (s *RenderLogService) Insert(ctx context.Context, record *model.RenderRecord) error {
	inserter := s.BigqueryClient.Dataset(s.DatasetName).Table(s.RenderTable).Inserter()
	if err := inserter.Put(ctx, record); err != nil {
		return fmt.Errorf("failed to insert render record %s: %w", record.ObjectKey, err)
	}
	return nil
}

// Recent returns up to limit records, newest first. An empty channel matches
// every channel.
//
// Inputs:
//   - ctx: The context for the query.
//   - channel: Optional channel name filter.
//   - limit: Maximum number of rows, clamped to [1, 500].
//
// Outputs:
//   - []*model.RenderRecord: The matching records.
//   - error: An error if the query or row scanning fails.
func (s *RenderLogService) Recent(ctx context.Context, channel string, limit int) ([]*model.RenderRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(QryRecentRenders, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "channel", Value: channel},
		{Name: "limit", Value: limit},
	}
	return s.read(ctx, q)
}

// ByObjectKey returns the record of one artifact, or nil when none exists.
func (s *RenderLogService) ByObjectKey(ctx context.Context, key string) (*model.RenderRecord, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryRenderByObjectKey, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "key", Value: key}}
	out, err := s.read(ctx, q)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return out[0], nil
}

func (s *RenderLogService) read(ctx context.Context, q *bigquery.Query) ([]*model.RenderRecord, error) {
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.RenderRecord, 0)
	for {
		var r model.RenderRecord
		err = itr.Next(&r)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, nil
}
