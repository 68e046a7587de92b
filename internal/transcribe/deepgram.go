package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

type prerecordedClient interface {
	DoStream(ctx context.Context, src io.Reader, options *interfaces.PreRecordedTranscriptionOptions, resBody interface{}) error
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Deepgram sends a whole recorded answer to the prerecorded listen API.
type Deepgram struct {
	client  prerecordedClient
	options *interfaces.PreRecordedTranscriptionOptions
}

func NewDeepgram(cfg Config) *Deepgram {
	model := cfg.Model
	if model == "" {
		model = "nova-2"
	}
	return &Deepgram{
		client: client.NewREST(cfg.APIKey, &interfaces.ClientOptions{Host: cfg.BaseURL}),
		options: &interfaces.PreRecordedTranscriptionOptions{
			Model:       model,
			Language:    cfg.Language,
			Punctuate:   true,
			SmartFormat: true,
		},
	}
}

func (d *Deepgram) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("deepgram: empty audio")
	}

	var resp deepgramResponse
	if err := d.client.DoStream(ctx, bytes.NewReader(audio), d.options, &resp); err != nil {
		return "", fmt.Errorf("deepgram transcription: %w", err)
	}

	var parts []string
	for _, ch := range resp.Results.Channels {
		if len(ch.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(ch.Alternatives[0].Transcript); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("deepgram: empty transcript")
	}
	return strings.Join(parts, "\n"), nil
}
