package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jplansink/whisper-transcription-tool/internal/apierr"
)

// Retry defaults, overridable through options.
const (
	defaultMaxRetries = 5
	defaultBaseDelay  = time.Second
	defaultMaxDelay   = 30 * time.Second
)

// audioTranscriber is the one method of the OpenAI client this engine
// calls. Tests substitute a scripted implementation.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var (
	_ Engine           = (*OpenAI)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAI transcribes audio using OpenAI's hosted whisper-1 model.
// Transient API errors are retried with exponential backoff.
type OpenAI struct {
	client     audioTranscriber
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// OpenAIOption configures an OpenAI engine.
type OpenAIOption func(*OpenAI)

// WithMaxRetries caps how many times a failed call is retried.
func WithMaxRetries(n int) OpenAIOption {
	return func(o *OpenAI) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithRetryDelays sets the first and the largest backoff delay.
func WithRetryDelays(base, max time.Duration) OpenAIOption {
	return func(o *OpenAI) {
		if base > 0 {
			o.baseDelay = base
		}
		if max > 0 {
			o.maxDelay = max
		}
	}
}

// WithHTTPClient sets a custom HTTP client for API requests.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		o.httpClient = c
	}
}

// NewOpenAI creates an OpenAI engine authenticated with the given API key.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &setupError{
			wrapped: fmt.Errorf("%w: missing OpenAI API key", ErrSetup),
			help:    "set the OPENAI_API_KEY environment variable",
		}
	}

	o := &OpenAI{
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(o)
	}

	config := openai.DefaultConfig(apiKey)
	if o.httpClient != nil {
		config.HTTPClient = o.httpClient
	}
	o.client = openai.NewClientWithConfig(config)

	return o, nil
}

// Transcribe sends the audio file to the transcription API and converts the
// verbose JSON response into timestamped segments. An empty language lets
// the API auto-detect.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath, language string) ([]Segment, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: language,
	}

	cfg := apierr.RetryConfig{
		MaxRetries: o.maxRetries,
		BaseDelay:  o.baseDelay,
		MaxDelay:   o.maxDelay,
	}

	return apierr.Retry(ctx, cfg, func() ([]Segment, error) {
		resp, err := o.client.CreateTranscription(ctx, req)
		if err != nil {
			return nil, translateError(err)
		}
		return responseSegments(resp), nil
	}, retryable)
}

// responseSegments converts a verbose JSON response into segments. When the
// API returns no segment timings, the whole text becomes a single segment
// spanning the reported duration.
func responseSegments(resp openai.AudioResponse) []Segment {
	if len(resp.Segments) == 0 {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return nil
		}
		return []Segment{{Start: 0, End: secondsToDuration(resp.Duration), Text: text}}
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Start: secondsToDuration(s.Start),
			End:   secondsToDuration(s.End),
			Text:  text,
		})
	}
	return segments
}

// secondsToDuration converts fractional API seconds to a time.Duration.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// statusSentinel maps an API HTTP status to the apierr sentinel it
// should carry. 429 is refined further in translateError: quota
// exhaustion is a billing problem, not a transient rate limit, and must
// not be retried.
var statusSentinel = map[int]error{
	http.StatusTooManyRequests:     apierr.ErrRateLimit,
	http.StatusUnauthorized:        apierr.ErrAuthFailed,
	http.StatusRequestTimeout:      apierr.ErrTimeout,
	http.StatusGatewayTimeout:      apierr.ErrTimeout,
	http.StatusBadRequest:          apierr.ErrBadRequest,
	http.StatusForbidden:           apierr.ErrBadRequest,
	http.StatusNotFound:            apierr.ErrBadRequest,
	http.StatusInternalServerError: apierr.ErrServerError,
	http.StatusBadGateway:          apierr.ErrServerError,
	http.StatusServiceUnavailable:  apierr.ErrServerError,
}

// translateError maps failures coming out of the OpenAI SDK onto
// apierr sentinels.
func translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if sentinel, known := statusSentinel[apiErr.HTTPStatusCode]; known {
			if errors.Is(sentinel, apierr.ErrRateLimit) && mentionsQuota(apiErr.Message) {
				sentinel = apierr.ErrQuotaExceeded
			}
			return fmt.Errorf("%s: %w", apiErr.Message, sentinel)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("no response before the deadline: %w", apierr.ErrTimeout)
	}

	return err
}

func mentionsQuota(msg string) bool {
	return strings.Contains(msg, "quota") || strings.Contains(msg, "billing")
}

// retryable reports whether the failure is worth another attempt.
// Rate limits, timeouts, and 5xx responses are; a canceled context
// never is.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, apierr.ErrRateLimit) ||
		errors.Is(err, apierr.ErrTimeout) ||
		errors.Is(err, apierr.ErrServerError)
}
