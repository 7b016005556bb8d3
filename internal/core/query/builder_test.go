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

package query_test

import (
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/query"
	"github.com/stretchr/testify/assert"
)

func TestBuildRanksByFrequencyThenFirstOccurrence(t *testing.T) {
	got := query.Build(
		"Ocean Sunset",
		"",
		"Waves crash on the beach at sunset",
		"The ocean waves roll onto the beach",
		"",
	)
	assert.Equal(t, "ocean sunset waves beach crash", got)
}

func TestBuildIsDeterministic(t *testing.T) {
	args := []string{"City Nights", "neon, traffic", "Neon lights over busy streets", "people walking through busy streets at night", "walking through busy"}
	first := query.Build(args[0], args[1], args[2], args[3], args[4])
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, query.Build(args[0], args[1], args[2], args[3], args[4]))
	}
}

func TestBuildHintsComeFirst(t *testing.T) {
	got := query.Build(
		"Morning Routine",
		"fitness, yoga , , health, running",
		"Stretching every morning",
		"morning stretching helps",
		"",
	)
	assert.Equal(t, "fitness yoga health morning stretching", got)

	q := query.BuildQuery("Morning Routine", "fitness, yoga , , health, running", "Stretching every morning", "morning stretching helps", "")
	assert.Equal(t, []string{"fitness", "yoga", "health"}, q.Terms[:3])
}

func TestBuildHintsArePrependedAsIs(t *testing.T) {
	got := query.Build("", "fitness, running", "running morning", "", "")
	assert.Equal(t, "fitness running running morning", got)

	q := query.BuildQuery("", "fitness, running", "running morning", "", "")
	assert.Equal(t, []string{"fitness", "running", "running", "morning"}, q.Terms)
}

func TestBuildFallback(t *testing.T) {
	assert.Equal(t, query.FallbackQuery, query.Build("", "", "", "", ""))
	assert.Equal(t, query.FallbackQuery, query.Build("a la the", "", "di da con", "", ""))
	assert.Equal(t, query.FallbackQuery, query.Build("", "", "della delle sono with from", "", ""))
	assert.Equal(t, query.FallbackQuery, query.Build("2024 top10 #travel", "", "", "", ""))
}

func TestBuildIsBounded(t *testing.T) {
	script := "mountains rivers forests deserts glaciers volcanoes canyons meadows islands lagoons"
	got := query.BuildQuery("", "alpha, beta, gamma, delta", "", script, "")
	assert.LessOrEqual(t, len(got.Terms), query.MaxTerms)
	// "delta" is past the hint limit but survives as a corpus token.
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta", "mountains"}, got.Terms)
	assert.NotEmpty(t, query.Build("", "", "", script, ""))
}

func TestBuildKeepsUnicodeLetters(t *testing.T) {
	assert.Equal(t, "città caffè", query.Build("", "", "città perché caffè", "", ""))
}

func TestBuildSceneContextCounts(t *testing.T) {
	withoutScene := query.Build("", "", "", "river forest", "")
	withScene := query.Build("", "", "", "river forest", "forest forest")
	assert.Equal(t, "river forest", withoutScene)
	assert.True(t, strings.HasPrefix(withScene, "forest"))
}

func TestKeywordHints(t *testing.T) {
	assert.Nil(t, query.KeywordHints("   "))
	assert.Equal(t, []string{"a b", "c"}, query.KeywordHints(" a b ,c"))
	assert.Equal(t, []string{"one", "two", "three"}, query.KeywordHints("one,two,three,four"))
}

func TestRankKeywords(t *testing.T) {
	assert.Equal(t, []string{"beta", "alpha"}, query.RankKeywords("alpha beta beta", 5))
	assert.Equal(t, []string{"beta"}, query.RankKeywords("alpha beta beta", 1))
	assert.Empty(t, query.RankKeywords("", 5))
}

func TestSceneWindow(t *testing.T) {
	words := strings.Fields("w one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen")
	assert.Len(t, words, 20)

	// 20 words over 10 seconds is 2 words/s; scene 2 of 5 starts at 4s.
	assert.Equal(t, "eight nine ten eleven twelve thirteen fourteen", query.SceneWindow(words, 2, 5, 10))
	assert.Equal(t, "sixteen seventeen eighteen nineteen", query.SceneWindow(words, 4, 5, 10))
	assert.Equal(t, "w one two three four five six", query.SceneWindow(words, 3, 5, 0))
	assert.Equal(t, "", query.SceneWindow(words, 5, 5, 10))
	assert.Equal(t, "", query.SceneWindow(nil, 0, 5, 10))
}
