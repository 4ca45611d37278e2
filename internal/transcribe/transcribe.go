// Package transcribe turns a video's audio into text when the caption alone
// is not enough.
package transcribe

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/model"
	"github.com/sichef/sichef/internal/resilience"
	"github.com/sichef/sichef/pkg/whisper"
)

// Error messages reported in TranscriptionResult.Error.
const (
	ErrMissingAudio  = "Audio URL mancante"
	ErrEmptyAudio    = "File audio vuoto"
	ErrNotConfigured = "speech-to-text provider not configured"
)

// Config selects models and the temp directory for downloads.
type Config struct {
	PrimaryModel  string
	FallbackModel string
	TempDir       string
}

// Option configures a Gate.
type Option func(*Gate)

// WithHTTPClient sets the client used to download audio.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *Gate) {
		g.http = hc
	}
}

// Gate decides whether to transcribe and runs the transcription.
type Gate struct {
	stt  whisper.Client
	http *http.Client
	cfg  Config
}

// New creates a Gate. A nil stt client reports ErrNotConfigured and falls
// back to the caption.
func New(stt whisper.Client, cfg Config, opts ...Option) *Gate {
	if cfg.PrimaryModel == "" {
		cfg.PrimaryModel = "gpt-4o-transcribe"
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = "whisper-1"
	}
	g := &Gate{
		stt:  stt,
		http: &http.Client{Timeout: 2 * time.Minute},
		cfg:  cfg,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Transcribe returns usable text for the video. It never fails: on any error
// the caption is returned and Error explains why.
func (g *Gate) Transcribe(ctx context.Context, d model.VideoDetails) model.TranscriptionResult {
	caption := d.Description
	log := zap.L().With(zap.String("platform", string(d.Platform)))

	if d.AudioURL == "" {
		return model.TranscriptionResult{Text: caption, Error: ErrMissingAudio}
	}
	if ShouldSkip(caption) {
		log.Debug("transcribe: caption holds a full recipe, skipping")
		return model.TranscriptionResult{Text: caption, Skipped: true}
	}
	if g.stt == nil {
		return model.TranscriptionResult{Text: caption, Error: ErrNotConfigured}
	}

	text, err := g.run(ctx, d.AudioURL)
	if err != nil {
		log.Warn("transcribe: failed, using caption", zap.Error(err))
		return model.TranscriptionResult{Text: caption, Error: err.Error()}
	}
	return model.TranscriptionResult{Text: Merge(caption, text)}
}

func (g *Gate) run(ctx context.Context, audioURL string) (string, error) {
	f, err := os.CreateTemp(g.cfg.TempDir, "sichef-audio-*.mp3")
	if err != nil {
		return "", eris.Wrap(err, "transcribe: create temp file")
	}
	defer func() {
		f.Close() //nolint:errcheck
		if rmErr := os.Remove(f.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
			zap.L().Warn("transcribe: remove temp file", zap.String("path", f.Name()), zap.Error(rmErr))
		}
	}()

	size, err := g.download(ctx, audioURL, f)
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", eris.New(ErrEmptyAudio)
	}

	attempt := func(model string) resilience.Strategy[string] {
		return resilience.Strategy[string]{
			Name: model,
			Run: func(ctx context.Context) (string, error) {
				if _, err := f.Seek(0, io.SeekStart); err != nil {
					return "", eris.Wrap(err, "transcribe: rewind audio")
				}
				resp, err := g.stt.Transcribe(ctx, whisper.TranscribeRequest{
					Model:    model,
					Filename: f.Name(),
					Audio:    f,
				})
				if err != nil {
					return "", err
				}
				return resp.Text, nil
			},
		}
	}

	text, used, err := resilience.First(ctx, attempt(g.cfg.PrimaryModel), attempt(g.cfg.FallbackModel))
	if err != nil {
		return "", eris.Wrap(err, "transcribe: all models failed")
	}
	zap.L().Debug("transcribe: done", zap.String("model", used), zap.Int("chars", len(text)))
	return text, nil
}

func (g *Gate) download(ctx context.Context, audioURL string, dst io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return 0, eris.Wrap(err, "transcribe: create download request")
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "transcribe: download audio")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, eris.Errorf("transcribe: download audio: HTTP %d", resp.StatusCode)
	}
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, eris.Wrap(err, "transcribe: write audio")
	}
	return n, nil
}
