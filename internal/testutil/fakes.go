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

package test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type memoryObject struct {
	data      []byte
	createdAt time.Time
	size      int64
}

// MemoryStore is an in-memory object store. Listings report the time an
// object was stored, taken from Now.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]*memoryObject
	BaseURL string
	Now     func() time.Time
	// FailDelete makes Delete fail for the listed keys.
	FailDelete map[string]bool
	Deleted    []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:    make(map[string]*memoryObject),
		BaseURL:    "https://storage.example.test/test-bucket",
		Now:        time.Now,
		FailDelete: make(map[string]bool),
	}
}

// Seed stores an object of size bytes created at createdAt.
func (m *MemoryStore) Seed(key string, createdAt time.Time, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = &memoryObject{createdAt: createdAt, size: size}
}

func (m *MemoryStore) Put(ctx context.Context, key string, r io.Reader, _ string) (int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, err
	}
	if err = ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = &memoryObject{data: buf.Bytes(), createdAt: m.Now(), size: n}
	return n, nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]model.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Artifact, 0, len(m.objects))
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, model.Artifact{ObjectKey: key, CreatedAt: obj.createdAt, SizeBytes: obj.size})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObjectKey < out[j].ObjectKey })
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete[key] {
		return fmt.Errorf("delete %s: permission denied", key)
	}
	delete(m.objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

func (m *MemoryStore) PublicURL(key string) string {
	return m.BaseURL + "/" + key
}

// Keys returns the stored keys in order.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Data returns the stored bytes of key.
func (m *MemoryStore) Data(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return obj.data, true
}

// FakeRunner stands in for ffmpeg. Every call writes OutputBytes bytes to the
// output file of the argument list, unless the call matches FailOn.
type FakeRunner struct {
	mu          sync.Mutex
	Calls       [][]string
	OutputBytes int
	// FailOn fails calls whose arguments contain any of these substrings.
	FailOn []string
	// Block makes calls wait for their context to end.
	Block bool
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{OutputBytes: 4096}
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, append([]string{name}, args...))
	f.mu.Unlock()

	if f.Block {
		<-ctx.Done()
		return ctx.Err()
	}
	joined := strings.Join(args, " ")
	for _, s := range f.FailOn {
		if strings.Contains(joined, s) {
			return errors.New("exit status 1")
		}
	}
	output := OutputFile(args)
	if len(output) == 0 {
		return errors.New("no output file in arguments")
	}
	return os.WriteFile(output, append(append([]byte{}, Mp4Header...), make([]byte, f.OutputBytes)...), 0o600)
}

// CallCount returns the number of recorded calls.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// CallsContaining returns the calls whose arguments contain s.
func (f *FakeRunner) CallsContaining(s string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, 0)
	for _, c := range f.Calls {
		if strings.Contains(strings.Join(c, " "), s) {
			out = append(out, c)
		}
	}
	return out
}

// OutputFile returns the last .mp4 argument that is not an input.
func OutputFile(args []string) string {
	output := ""
	for i, a := range args {
		if !strings.HasSuffix(a, ".mp4") {
			continue
		}
		if i > 0 && args[i-1] == "-i" {
			continue
		}
		output = a
	}
	return output
}

// ArgValue returns the value following flag in args.
func ArgValue(args []string, flag string) (string, bool) {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

// FakeProbe replaces ffprobe. Durations are looked up by file name
// substring, falling back to Default; a non-positive result fails the probe.
type FakeProbe struct {
	mu        sync.Mutex
	Durations map[string]float64
	Default   float64
	Probed    []string
}

func (p *FakeProbe) Probe(fileName string, _ time.Duration, _ ffmpeg.KwArgs) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Probed = append(p.Probed, fileName)
	d := p.Default
	for part, v := range p.Durations {
		if strings.Contains(fileName, part) {
			d = v
		}
	}
	if d <= 0 {
		return "", errors.New("invalid data found when processing input")
	}
	return fmt.Sprintf(`{"format":{"duration":"%.3f"}}`, d), nil
}

// FakeProvider is a stock clip provider serving local mp4 stubs. Every search
// returns one candidate; fetches succeed until FetchLimit is reached.
type FakeProvider struct {
	ProviderName string
	Dir          string
	// FetchLimit bounds the successful fetches, negative for unlimited.
	FetchLimit int32
	Unset      bool

	searches int32
	fetches  int32
}

func NewFakeProvider(name string, dir string, fetchLimit int32) *FakeProvider {
	return &FakeProvider{ProviderName: name, Dir: dir, FetchLimit: fetchLimit}
}

func (f *FakeProvider) Name() string     { return f.ProviderName }
func (f *FakeProvider) Configured() bool { return !f.Unset }

func (f *FakeProvider) Search(_ context.Context, q model.SearchQuery) ([]*model.ClipCandidate, error) {
	n := atomic.AddInt32(&f.searches, 1)
	return []*model.ClipCandidate{{
		Provider: f.ProviderName,
		RemoteID: fmt.Sprintf("%s-%d", f.ProviderName, n),
		Width:    1920,
		Height:   1080,
		Text:     q.String(),
	}}, nil
}

func (f *FakeProvider) Choose(accepted []*model.ClipCandidate) *model.ClipCandidate {
	if len(accepted) == 0 {
		return nil
	}
	return accepted[0]
}

func (f *FakeProvider) FetchRendition(_ context.Context, _ *model.ClipCandidate, _ int) (string, error) {
	n := atomic.AddInt32(&f.fetches, 1)
	if f.FetchLimit >= 0 && n > f.FetchLimit {
		return "", errors.New("rendition download failed")
	}
	file, err := os.CreateTemp(f.Dir, f.ProviderName+"-clip-*.mp4")
	if err != nil {
		return "", err
	}
	_, err = file.Write(Mp4Header)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return file.Name(), err
}

// Searches returns the number of searches served.
func (f *FakeProvider) Searches() int {
	return int(atomic.LoadInt32(&f.searches))
}
