package ai

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Gateway wraps the hosted model gateway: question generation, answer
// analysis, speech-to-text and text-to-speech. All calls are stateless
// request/response round-trips.
type Gateway interface {
	GenerateQuestion(ctx context.Context, req QuestionRequest) (string, error)
	AnalyzeAnswer(ctx context.Context, req AnalyzeRequest) (Analysis, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Config struct {
	BaseURL   string
	APIKey    string
	ChatModel string
	STTModel  string
	TTSModel  string
	Voice     string
	Timeout   time.Duration
}

func ReadConfig() *Config {
	viper.BindEnv("ai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("ai.base_url", "OPENAI_BASE_URL")

	cfg := &Config{
		BaseURL:   viper.GetString("ai.base_url"),
		APIKey:    viper.GetString("ai.api_key"),
		ChatModel: viper.GetString("ai.chat_model"),
		STTModel:  viper.GetString("ai.stt_model"),
		TTSModel:  viper.GetString("ai.tts_model"),
		Voice:     viper.GetString("ai.voice"),
		Timeout:   viper.GetDuration("ai.timeout"),
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.STTModel == "" {
		cfg.STTModel = string(openai.Whisper1)
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = string(openai.TTSModel1)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.VoiceAlloy)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}

// Client is the default Gateway backed by an OpenAI-compatible endpoint.
type Client struct {
	client *openai.Client
	config *Config
	logger *zap.Logger
}

func New(cfg *Config, logger *zap.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		logger: logger,
	}
}

// QuestionRequest carries everything the generator needs to produce the
// next question. PreviousQuestions is a best-effort non-repetition hint,
// not an enforced guarantee.
type QuestionRequest struct {
	Subject           string
	QuestionNumber    int32
	TotalQuestions    int32
	PreviousQuestions []string
}

type AnalyzeRequest struct {
	Question string
	Answer   string
	Subject  string
}

func (c *Client) GenerateQuestion(ctx context.Context, req QuestionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: questionSystemPrompt(req.Subject)},
			{Role: openai.ChatMessageRoleUser, Content: questionUserPrompt(req)},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", errors.Wrap(err, "question generation request failed")
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("question generation returned an empty response")
	}

	c.logger.Info("Question generated",
		zap.String("subject", req.Subject),
		zap.Int32("questionNumber", req.QuestionNumber))

	return resp.Choices[0].Message.Content, nil
}

// AnalyzeAnswer scores one answer. A malformed model payload never fails
// the call: the analysis degrades to score 0 and empty feedback.
func (c *Client) AnalyzeAnswer(ctx context.Context, req AnalyzeRequest) (Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analyzeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: analyzeUserPrompt(req)},
		},
		Temperature: 0.3,
		MaxTokens:   800,
	})
	if err != nil {
		return Analysis{}, errors.Wrap(err, "answer analysis request failed")
	}
	if len(resp.Choices) == 0 {
		return Analysis{}, errors.New("answer analysis returned no choices")
	}

	analysis, ok := ParseAnalysis(resp.Choices[0].Message.Content)
	if !ok {
		c.logger.Warn("Analysis payload was malformed, using defaults",
			zap.String("subject", req.Subject))
	}
	return analysis, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.config.STTModel,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
	})
	if err != nil {
		return "", errors.Wrap(err, "transcription request failed")
	}
	return resp.Text, nil
}

func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.config.TTSModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.config.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, errors.Wrap(err, "speech synthesis request failed")
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read synthesized audio")
	}
	return audio, nil
}
