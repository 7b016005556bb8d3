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

// Package query turns the descriptive text of a video request into the short
// keyword query sent to the stock clip providers.
//
// Logic Flow:
//  1. The title, keyword hints, description, script and scene window are
//     joined into one corpus and split on whitespace.
//  2. Tokens are lower-cased; short tokens, tokens with non-letter runes and
//     stop words are dropped.
//  3. The remaining tokens are ranked by frequency, ties keeping first
//     occurrence order, and the top MaxTerms are kept.
//  4. Up to MaxHints explicit keyword hints are placed in front and the
//     combined list is truncated to MaxTerms entries.
//
// The same inputs always produce the same query.
package query

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

const (
	// MaxTerms bounds the number of entries in a query.
	MaxTerms = 5
	// MaxHints bounds how many comma separated keyword hints are used.
	MaxHints = 3
	// MinTokenLength is the rune length a corpus token must exceed.
	MinTokenLength = 3
	// FallbackQuery is used when nothing survives filtering.
	FallbackQuery = "people activity lifestyle"
)

// Build returns the provider query string for the given text fields.
func Build(title, keywordsCSV, description, script, sceneContext string) string {
	return BuildQuery(title, keywordsCSV, description, script, sceneContext).String()
}

// BuildQuery is Build returning the structured query. The fallback query is
// returned as its three words.
func BuildQuery(title, keywordsCSV, description, script, sceneContext string) model.SearchQuery {
	corpus := strings.Join([]string{title, keywordsCSV, description, script, sceneContext}, " ")
	ranked := RankKeywords(corpus, MaxTerms)
	hints := KeywordHints(keywordsCSV)

	terms := make([]string, 0, len(hints)+len(ranked))
	terms = append(terms, hints...)
	terms = append(terms, ranked...)
	if len(terms) > MaxTerms {
		terms = terms[:MaxTerms]
	}
	if len(terms) == 0 {
		return model.SearchQuery{Terms: strings.Fields(FallbackQuery)}
	}
	return model.SearchQuery{Terms: terms}
}

// KeywordHints returns the first MaxHints trimmed, non-empty entries of a
// comma separated list.
func KeywordHints(keywordsCSV string) []string {
	if len(strings.TrimSpace(keywordsCSV)) == 0 {
		return nil
	}
	out := make([]string, 0, MaxHints)
	for _, part := range strings.Split(keywordsCSV, ",") {
		part = strings.TrimSpace(part)
		if len(part) == 0 {
			continue
		}
		out = append(out, part)
		if len(out) == MaxHints {
			break
		}
	}
	return out
}

// RankKeywords returns up to limit distinct keywords of text ordered by
// descending frequency, ties broken by first occurrence.
func RankKeywords(text string, limit int) []string {
	type entry struct {
		token string
		count int
		first int
	}
	index := make(map[string]*entry)
	entries := make([]*entry, 0)
	for _, raw := range strings.Fields(strings.ToLower(text)) {
		if !isKeyword(raw) {
			continue
		}
		if e, ok := index[raw]; ok {
			e.count++
			continue
		}
		e := &entry{token: raw, count: 1, first: len(entries)}
		index[raw] = e
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].first < entries[j].first
	})

	if limit > len(entries) {
		limit = len(entries)
	}
	out := make([]string, 0, limit)
	for _, e := range entries[:limit] {
		out = append(out, e.token)
	}
	return out
}

func isKeyword(token string) bool {
	if utf8.RuneCountInString(token) <= MinTokenLength {
		return false
	}
	for _, r := range token {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return !IsStopWord(token)
}
