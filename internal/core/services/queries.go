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
// This file, `queries.go`, holds the BigQuery SQL used by the render log. The
// table name is injected with `fmt.Sprintf`; values are bound as named query
// parameters.
package services

const (
	// QryRecentRenders returns the newest render records, optionally narrowed
	// to one channel.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the render table.
	//
	// Parameters:
	// - `@channel`: Channel name, or the empty string for every channel.
	// - `@limit`: Maximum number of rows.
	QryRecentRenders = "SELECT * FROM `%s` WHERE (@channel = '' OR channel_name = @channel) ORDER BY create_date DESC LIMIT @limit"

	// QryRenderByObjectKey finds the record of one published artifact.
	QryRenderByObjectKey = "SELECT * FROM `%s` WHERE object_key = @key LIMIT 1"
)
