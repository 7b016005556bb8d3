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
	"fmt"
	"net/http"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// URLSigner produces V4 signed GET URLs for private artifacts. When a signer
// service account is configured the signature is produced by the IAM
// Credentials API, so no private key is needed on the host.
type URLSigner struct {
	storageClient *storage.Client
	iamClient     *credentials.IamCredentialsClient
	signerEmail   string
}

// NewURLSigner creates a signer that signs through the IAM credentials API
// as signerEmail, so no private key is needed on the host.
func NewURLSigner(storageClient *storage.Client, iamClient *credentials.IamCredentialsClient, signerEmail string) *URLSigner {
	return &URLSigner{storageClient: storageClient, iamClient: iamClient, signerEmail: signerEmail}
}

// SignedURL returns a GET URL for bucket/key valid for expires.
func (s *URLSigner) SignedURL(ctx context.Context, bucket string, key string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expires),
	}
	if s.iamClient != nil && len(s.signerEmail) > 0 {
		opts.GoogleAccessID = s.signerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) {
			resp, err := s.iamClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.signerEmail),
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		}
	}
	u, err := s.storageClient.Bucket(bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", bucket, key, err)
	}
	return u, nil
}
