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

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appendCommand struct {
	cor.BaseCommand
	suffix string
	fail   bool
	ran    *int
}

func newAppendCommand(name string, suffix string, fail bool, ran *int) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix, fail: fail, ran: ran}
}

func (c *appendCommand) Execute(context cor.Context) {
	*c.ran++
	if c.fail {
		c.Fail(context, errors.New("boom"))
		return
	}
	in := context.Get(c.GetInputParam()).(string)
	context.Add(c.GetOutputParam(), in+c.suffix)
	c.Succeed(context)
}

func newContext(ctx context.Context, in string) cor.Context {
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(cor.CtxIn, in)
	return chCtx
}

func TestChainPipesOutputToInput(t *testing.T) {
	ran := 0
	chain := cor.NewBaseChain("pipe").
		AddCommand(newAppendCommand("a", "-a", false, &ran)).
		AddCommand(newAppendCommand("b", "-b", false, &ran))

	chCtx := newContext(context.Background(), "x")
	chain.Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	assert.Equal(t, 2, ran)
	assert.Equal(t, "x-a-b", chCtx.Get(cor.CtxIn))
	assert.Nil(t, chCtx.Get(cor.CtxOut))
	assert.NoError(t, chCtx.Err())
}

func TestChainStopsOnFailure(t *testing.T) {
	ran := 0
	chain := cor.NewBaseChain("stop").
		AddCommand(newAppendCommand("a", "-a", true, &ran)).
		AddCommand(newAppendCommand("b", "-b", false, &ran))

	chCtx := newContext(context.Background(), "x")
	chain.Execute(chCtx)

	assert.Equal(t, 1, ran)
	assert.True(t, chCtx.HasErrors())
	assert.Contains(t, chCtx.GetErrors(), "a")
	assert.ErrorContains(t, chCtx.Err(), "boom")
}

func TestChainContinueOnFailure(t *testing.T) {
	ran := 0
	chain := cor.NewBaseChain("continue").
		AddCommand(newAppendCommand("a", "-a", true, &ran)).
		AddCommand(newAppendCommand("b", "-b", false, &ran)).
		ContinueOnFailure(true)

	chCtx := newContext(context.Background(), "x")
	chain.Execute(chCtx)

	// "a" wrote nothing, so the input of "b" is cleared and it is skipped.
	assert.Equal(t, 1, ran)

	ran = 0
	chain = cor.NewBaseChain("continue2").
		AddCommand(newAppendCommand("a", "-a", false, &ran)).
		AddCommand(newAppendCommand("f", "", true, &ran)).
		ContinueOnFailure(true)
	chCtx = newContext(context.Background(), "x")
	chain.Execute(chCtx)
	assert.Equal(t, 2, ran)
	assert.True(t, chCtx.HasErrors())
}

func TestChainStopsWhenContextCancelled(t *testing.T) {
	ran := 0
	chain := cor.NewBaseChain("cancel").
		AddCommand(newAppendCommand("a", "-a", false, &ran))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	chCtx := newContext(ctx, "x")
	chain.Execute(chCtx)

	assert.Equal(t, 0, ran)
	require.Contains(t, chCtx.GetErrors(), "cancel")
	assert.ErrorIs(t, chCtx.GetErrors()["cancel"], context.Canceled)
	assert.Equal(t, ctx, chCtx.GetContext())
}

func TestContextCloseRemovesTempFiles(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "a.mp4")
	gone := filepath.Join(dir, "b.mp4")
	require.NoError(t, os.WriteFile(kept, []byte("a"), 0o600))

	chCtx := cor.NewBaseContext()
	chCtx.AddTempFile(kept)
	chCtx.AddTempFile(gone)
	chCtx.AddTempFile("")
	assert.Len(t, chCtx.GetTempFiles(), 2)

	chCtx.Close()
	_, err := os.Stat(kept)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, chCtx.GetTempFiles())
}

func TestContextJoinsErrorsPerKey(t *testing.T) {
	chCtx := cor.NewBaseContext()
	first := errors.New("first")
	second := errors.New("second")

	var wg sync.WaitGroup
	for _, err := range []error{first, second} {
		wg.Add(1)
		go func(e error) {
			defer wg.Done()
			chCtx.AddError("scene", e)
		}(err)
	}
	wg.Wait()
	chCtx.AddError("scene", nil)

	assert.Len(t, chCtx.GetErrors(), 1)
	assert.ErrorIs(t, chCtx.Err(), first)
	assert.ErrorIs(t, chCtx.Err(), second)
}
