// Package tts renders chapter text to speech through a single-worker queue,
// tracking each rendering as an audio job in the store.
package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"writegeist/pkg/utils"
)

// maxChunkChars is the per-request input ceiling of the speech endpoint.
// Longer chapters are split on whitespace and the audio segments concatenated.
const maxChunkChars = 4000

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Client synthesizes speech with the OpenAI audio API.
type Client struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.AudioSpeechNewParamsVoice
}

func NewClient(apiKey string) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &client,
		model:  openai.SpeechModelTTS1,
		voice:  openai.AudioSpeechNewParamsVoiceAlloy,
	}
}

// Synthesize renders text as one MP3 stream. Chunks are requested in order
// and concatenated; MP3 frames are self-delimiting so plain concatenation
// plays back correctly.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	chunks := utils.ChunkText(text, maxChunkChars)
	if len(chunks) == 0 {
		return nil, errors.New("tts: no text to synthesize")
	}

	var buf bytes.Buffer
	for i, chunk := range chunks {
		resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
			Model:          c.model,
			Input:          chunk,
			Voice:          c.voice,
			ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		})
		if err != nil {
			return nil, fmt.Errorf("tts: synthesizing chunk %d/%d: %w", i+1, len(chunks), err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("tts: reading chunk %d/%d: %w", i+1, len(chunks), err)
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}
