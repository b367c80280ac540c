package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/murmur/pkg/adapters/file"
	"github.com/aretw0/murmur/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cave = `
language: en
reveal:
  delay: 1ms
nodes:
  - id: intro
    lines: ["Hello.", "Pick one."]
    children: [left, right]
  - id: left
    branch: true
    lines: [Go left]
    children: [cave]
  - id: right
    branch: true
    contents:
      - en: Go right
        pt: Vá para a direita
  - id: cave
    contents:
      - en: { descriptor: Echo, body: A dark cave. }
`

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeDocument(t *testing.T) *Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cave), 0o644))
	doc, err := LoadDocument(path)
	require.NoError(t, err)
	return doc
}

func TestLoadDocument(t *testing.T) {
	doc := writeDocument(t)
	assert.Equal(t, "en", doc.Language)
	assert.Equal(t, "intro", doc.FirstNodeID())
	assert.Len(t, doc.Graph.ListNodes(), 4)
	assert.Len(t, doc.Reveal, 1)

	_, err := LoadDocument("")
	assert.Error(t, err)

	_, err = LoadDocument(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlay_Headless(t *testing.T) {
	var out bytes.Buffer
	err := Play(context.Background(), PlayOptions{
		Document:    writeDocument(t),
		BranchSlots: 2,
		Headless:    true,
	}, strings.NewReader("\n\n0\n\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"Hello.",
		"> Pick one.",
		"> [0] Go left",
		"[1] Go right",
		"> A dark cave.",
		"> (end)",
		">>> Finished at 'cave' node.",
		"",
	}, "\n"), out.String())
}

func TestPlay_Language(t *testing.T) {
	var out bytes.Buffer
	err := Play(context.Background(), PlayOptions{
		Document:    writeDocument(t),
		Language:    "pt",
		BranchSlots: 2,
		Headless:    true,
		Quiet:       true,
	}, strings.NewReader("\n\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[1] Vá para a direita")
	assert.NotContains(t, out.String(), ">>>")
}

func TestPlay_UnknownStart(t *testing.T) {
	err := Play(context.Background(), PlayOptions{
		Document: writeDocument(t),
		StartID:  "nowhere",
		Headless: true,
	}, strings.NewReader(""), io.Discard)
	assert.Error(t, err)
}

func TestPlay_RequiresDocument(t *testing.T) {
	assert.Error(t, Play(context.Background(), PlayOptions{}, strings.NewReader(""), io.Discard))
}

func TestPlay_ResumesSession(t *testing.T) {
	doc := writeDocument(t)
	dir := t.TempDir()
	opts := PlayOptions{
		Document:    doc,
		BranchSlots: 2,
		Headless:    true,
		SessionID:   "s1",
		SessionDir:  dir,
	}

	var first bytes.Buffer
	require.NoError(t, Play(context.Background(), opts, strings.NewReader("\n"), &first))
	assert.Contains(t, first.String(), ">>> Session 's1' active.")

	ids, err := file.New(dir).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	var second bytes.Buffer
	require.NoError(t, Play(context.Background(), opts, strings.NewReader("\n0\n"), &second))
	assert.Equal(t, strings.Join([]string{
		">>> Resuming session 's1' at 'intro' node...",
		"Pick one.",
		"> [0] Go left",
		"[1] Go right",
		"> A dark cave.",
		"> >>> Finished at 'cave' node.",
		"",
	}, "\n"), second.String())

	var fresh bytes.Buffer
	opts.Fresh = true
	require.NoError(t, Play(context.Background(), opts, strings.NewReader(""), &fresh))
	assert.Contains(t, fresh.String(), ">>> Session 's1' active.\nHello.")
}

func TestPlay_EncryptedSession(t *testing.T) {
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: bytes.Repeat([]byte{7}, middleware.KeySize)})
	require.NoError(t, err)
	dir := t.TempDir()
	opts := PlayOptions{
		Document:   writeDocument(t),
		Headless:   true,
		Quiet:      true,
		SessionID:  "secret",
		SessionDir: dir,
		Middleware: []middleware.Middleware{mw},
	}

	require.NoError(t, Play(context.Background(), opts, strings.NewReader(""), io.Discard))
	raw, err := os.ReadFile(filepath.Join(dir, "secret.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sealed"`)
	assert.NotContains(t, string(raw), "Hello.")

	var out bytes.Buffer
	require.NoError(t, Play(context.Background(), opts, strings.NewReader(""), &out))
	assert.Equal(t, "Hello.\n> ", out.String())
}

func TestPlay_Animated(t *testing.T) {
	var out bytes.Buffer
	err := Play(context.Background(), PlayOptions{
		Document: writeDocument(t),
		Quiet:    true,
	}, strings.NewReader("q\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Hello.\n> Bye!")
}

func TestPlay_Interrupted(t *testing.T) {
	in, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Play(ctx, PlayOptions{Document: writeDocument(t), Headless: true}, in, &out)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Hello.\n> ")
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("play did not stop after cancellation")
	}
	assert.Contains(t, out.String(), ">>> Interrupted at 'intro' node.")
}

func TestInspectMarkdown(t *testing.T) {
	doc := writeDocument(t)

	cave, _ := doc.Graph.FindNode("cave")
	md, err := InspectMarkdown(cave, "en")
	require.NoError(t, err)
	assert.Equal(t, "# cave\n\n- **parents**: `left`\n\n## 0\n\n**Echo**: A dark cave.\n\n", md)

	right, _ := doc.Graph.FindNode("right")
	md, err = InspectMarkdown(right, "pt")
	require.NoError(t, err)
	assert.Contains(t, md, "*branch node*")
	assert.Contains(t, md, "Vá para a direita")
}

func TestInspect_Render(t *testing.T) {
	doc := writeDocument(t)
	intro, _ := doc.Graph.FindNode("intro")

	var out bytes.Buffer
	upper := func(s string) (string, error) { return strings.ToUpper(s), nil }
	require.NoError(t, Inspect(&out, intro, "en", upper))
	assert.Contains(t, out.String(), "# INTRO")
	assert.Contains(t, out.String(), "**CHILDREN**: `LEFT`, `RIGHT`")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}

func TestSignalContext_Cancel(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}
