package reddl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/otofune/reddl/ctxdebugfs"
	"golang.org/x/xerrors"
)

// fakeMuxer concatenates its inputs into the output file.
type fakeMuxer struct {
	t         *testing.T
	finalFile string
	fail      error

	calls                     int
	video, audio, outputFile  string
	finalExistedDuringMuxCall bool
}

func (m *fakeMuxer) Mux(ctx context.Context, videoFile, audioFile, outputFile string) error {
	m.calls++
	m.video, m.audio, m.outputFile = videoFile, audioFile, outputFile

	if _, err := os.Stat(m.finalFile); err == nil {
		m.finalExistedDuringMuxCall = true
	}
	if m.fail != nil {
		return m.fail
	}

	v, err := os.ReadFile(videoFile)
	if err != nil {
		m.t.Errorf("video input missing: %v", err)
		return err
	}
	a, err := os.ReadFile(audioFile)
	if err != nil {
		m.t.Errorf("audio input missing: %v", err)
		return err
	}
	return os.WriteFile(outputFile, append(v, a...), 0o644)
}

func assertAbsent(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be absent", filepath.Base(path))
	}
}

func TestRun_VideoAndAudio(t *testing.T) {
	f := newFakeReddit(t, "abc123")
	cfg := newTestConfig(t, f.server.URL)
	finalFile := filepath.Join(cfg.Dir, "A cat video.mp4")

	m := &fakeMuxer{t: t, finalFile: finalFile}
	c := New(cfg).WithMuxer(m)

	got, err := c.Run(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != finalFile {
		t.Errorf("final file = %s, want %s", got, finalFile)
	}

	if f.hitCount("/v/abc123/HLS_AUDIO_128_K.aac") != 1 {
		t.Error("expected the 128K audio stream to be downloaded")
	}
	if f.hitCount("/v/abc123/HLS_AUDIO_64_K.aac") != 0 {
		t.Error("the 64K audio stream should not be downloaded")
	}

	if m.calls != 1 {
		t.Fatalf("expected one muxer call, got %d", m.calls)
	}
	if m.video != filepath.Join(cfg.Dir, "abc123_video.mp4") {
		t.Errorf("muxer video input = %s", m.video)
	}
	if m.audio != filepath.Join(cfg.Dir, "abc123_audio.aac") {
		t.Errorf("muxer audio input = %s", m.audio)
	}
	if m.outputFile != filepath.Join(cfg.Dir, "abc123.mp4") {
		t.Errorf("muxer output = %s", m.outputFile)
	}
	if m.finalExistedDuringMuxCall {
		t.Error("final file must not exist before the muxer finished")
	}

	b, err := os.ReadFile(finalFile)
	if err != nil {
		t.Fatalf("final file missing: %v", err)
	}
	if string(b) != f.video+f.audio {
		t.Errorf("final content = %q", b)
	}

	assertAbsent(t, m.video)
	assertAbsent(t, m.audio)
	assertAbsent(t, m.outputFile)
}

func TestRun_NoAudioVariants(t *testing.T) {
	f := newFakeReddit(t, "abc123")
	f.manifest = "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=2400000,RESOLUTION=1280x720\nHLS_720.m3u8\n"
	cfg := newTestConfig(t, f.server.URL)

	m := &fakeMuxer{t: t}
	c := New(cfg).WithMuxer(m)

	got, err := c.Run(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if m.calls != 0 {
		t.Errorf("muxer should not run without audio, got %d calls", m.calls)
	}
	if n := f.hitCount("/v/abc123/HLS_AUDIO_128_K.aac") + f.hitCount("/v/abc123/HLS_AUDIO_64_K.aac"); n != 0 {
		t.Errorf("no audio download expected, got %d", n)
	}

	b, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("final file missing: %v", err)
	}
	if string(b) != f.video {
		t.Errorf("final content = %q, want video only", b)
	}
	assertAbsent(t, filepath.Join(cfg.Dir, "abc123_video.mp4"))
}

func TestRun_NoManifestURL(t *testing.T) {
	f := newFakeReddit(t, "abc123")
	f.apiBody = strings.Replace(f.postJSON("clip"), f.postURL()+"/HLSPlaylist.m3u8", "", 1)
	cfg := newTestConfig(t, f.server.URL)

	c := New(cfg).WithMuxer(&fakeMuxer{t: t})
	got, err := c.Run(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.hitCount("/v/abc123/HLSPlaylist.m3u8") != 0 {
		t.Error("manifest should not be requested without hls_url")
	}
	if filepath.Base(got) != "clip.mp4" {
		t.Errorf("final file = %s", got)
	}
}

func TestRun_NoMedia(t *testing.T) {
	f := newFakeReddit(t, "abc123")
	f.apiBody = `{"data":{"children":[{"kind":"t3","data":{"title":"text post","url":"https://example.com","media":null}}]}}`
	cfg := newTestConfig(t, f.server.URL)

	c := New(cfg).WithMuxer(&fakeMuxer{t: t})
	_, err := c.Run(context.Background(), "abc123")

	if !xerrors.Is(err, ErrNoMedia) {
		t.Fatalf("expected ErrNoMedia, got %v", err)
	}
	var re *RunError
	if !xerrors.As(err, &re) || re.Stage != StageFetchingPost {
		t.Errorf("expected failure while fetching post, got %v", err)
	}
	if n := f.streamHits(); n != 0 {
		t.Errorf("no download expected, got %d", n)
	}
}

func TestRun_MuxerFails(t *testing.T) {
	f := newFakeReddit(t, "abc123")
	cfg := newTestConfig(t, f.server.URL)
	finalFile := filepath.Join(cfg.Dir, "A cat video.mp4")

	m := &fakeMuxer{t: t, finalFile: finalFile, fail: xerrors.New("exit status 1")}
	c := New(cfg).WithMuxer(m)

	_, err := c.Run(context.Background(), "abc123")
	var re *RunError
	if !xerrors.As(err, &re) || re.Stage != StageMerging {
		t.Fatalf("expected failure while merging, got %v", err)
	}
	assertAbsent(t, finalFile)
}

func TestRun_ReplacesStaleFiles(t *testing.T) {
	f := newFakeReddit(t, "abc123")
	cfg := newTestConfig(t, f.server.URL)
	finalFile := filepath.Join(cfg.Dir, "A cat video.mp4")

	for _, p := range []string{finalFile, filepath.Join(cfg.Dir, "abc123.mp4")} {
		if err := os.WriteFile(p, []byte("stale"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	m := &fakeMuxer{t: t, finalFile: finalFile}
	if _, err := New(cfg).WithMuxer(m).Run(context.Background(), "abc123"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.finalExistedDuringMuxCall {
		t.Error("stale final file should be removed before muxing")
	}
	if b, _ := os.ReadFile(finalFile); string(b) != f.video+f.audio {
		t.Errorf("final content = %q", b)
	}
}

func TestRun_LongTitle(t *testing.T) {
	f := newFakeReddit(t, "abc123")
	title := strings.Repeat("x", 250)
	f.apiBody = f.postJSON(title)
	cfg := newTestConfig(t, f.server.URL)

	got, err := New(cfg).WithMuxer(&fakeMuxer{t: t}).Run(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := title[:240] + ".mp4"; filepath.Base(got) != want {
		t.Errorf("final name length %d, want %d", len(filepath.Base(got)), len(want))
	}
}

func TestRun_DebugFS(t *testing.T) {
	f := newFakeReddit(t, "abc123")
	cfg := newTestConfig(t, f.server.URL)

	debugDir := filepath.Join(t.TempDir(), "debug")
	fs, err := ctxdebugfs.NewOSDebugFS(debugDir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := ctxdebugfs.WithDebugFS(context.Background(), fs)

	if _, err := New(cfg).WithMuxer(&fakeMuxer{t: t}).Run(ctx, "abc123"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, name := range []string{"post_abc123.json", "abc123.m3u8"} {
		b, err := os.ReadFile(filepath.Join(debugDir, name))
		if err != nil {
			t.Errorf("debug copy %s missing: %v", name, err)
			continue
		}
		if len(b) == 0 {
			t.Errorf("debug copy %s is empty", name)
		}
	}
}

func TestStage_String(t *testing.T) {
	if StageMerging.String() != "merging" {
		t.Errorf("unexpected %s", StageMerging)
	}
	if Stage(99).String() != "unknown" {
		t.Errorf("unexpected %s", Stage(99))
	}
}
