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

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Dashboard serves summary figures of the artifact store.
func Dashboard(r *gin.RouterGroup, h *Handlers) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			listing, err := h.Artifacts.List(c.Request.Context(), c.Query("prefix"))
			if err != nil {
				c.Status(http.StatusInternalServerError)
				return
			}
			var total int64
			var oldest, newest time.Time
			for _, a := range listing {
				total += a.SizeBytes
				if oldest.IsZero() || a.CreatedAt.Before(oldest) {
					oldest = a.CreatedAt
				}
				if a.CreatedAt.After(newest) {
					newest = a.CreatedAt
				}
			}
			out := gin.H{"artifacts": len(listing), "total_bytes": total}
			if len(listing) > 0 {
				out["oldest"] = oldest
				out["newest"] = newest
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
