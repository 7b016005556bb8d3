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

package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
)

// ServiceClients holds every client used to talk to Google Cloud. It is
// created once at startup and shared by the API handlers and workflows.
type ServiceClients struct {
	StorageClient   *storage.Client                   // Client for Google Cloud Storage (GCS).
	PubsubClient    *pubsub.Client                    // Client for Google Cloud Pub/Sub.
	BiqQueryClient  *bigquery.Client                  // Client for Google Cloud BigQuery.
	IAMClient       *credentials.IamCredentialsClient // Client for IAM to sign GCS URLs.
	PubSubListeners map[string]*PubSubListener        // Listeners keyed by their name in the config.
	ObjectStore     ObjectStore                       // Artifact store over the output bucket.
	Signer          *URLSigner
	GCSReader       *GCSReader
}

// Close shuts down all client connections.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients creates the Storage, Pub/Sub, BigQuery and IAM
// clients for the configured project, one listener per configured
// subscription, and the artifact store over the output bucket.
//
// Listeners are created without a command; the command is attached once the
// workflows are built.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, err
	}

	subscriptions := make(map[string]*PubSubListener)
	for subKey := range config.TopicSubscriptions {
		values := config.TopicSubscriptions[subKey]
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	slog.Info("cloud clients ready",
		"project", config.Application.GoogleProjectId,
		"bucket", config.Storage.OutputBucket,
		"listeners", len(subscriptions))

	cloud = &ServiceClients{
		StorageClient:   sc,
		PubsubClient:    pc,
		BiqQueryClient:  bc,
		IAMClient:       iamClient,
		PubSubListeners: subscriptions,
		ObjectStore:     NewGCSObjectStore(sc, config.Storage.OutputBucket, config.PublicBaseURL()),
		Signer:          NewURLSigner(sc, iamClient, config.Application.SignerServiceAccountEmail),
		GCSReader:       NewGCSReader(sc),
	}
	return cloud, nil
}
