package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/set-night/julie/internal/config"
	"github.com/set-night/julie/internal/domain"
)

// SystemPrompt is the persona given to the model. The rendered history is
// appended to it.
const SystemPrompt = "Tu es Julie une thérapeute et une coach personnelle. " +
	"Tu aides les gens à se sentir écoutés et soutenus. " +
	"N'hésite pas à poser des questions pour bien comprendre les problèmes des gens. " +
	"Sois attentive et gentille. Ne fais pas des messages trop longs. " +
	"Voici notre historique de conversation: "

type OpenAIService struct {
	apiKey          string
	baseURL         string
	chatModel       string
	transcribeModel string
	speechModel     string
	voice           string
	language        string
	httpClient      *http.Client
}

func NewOpenAIService(cfg *config.Config) *OpenAIService {
	return &OpenAIService{
		apiKey:          cfg.OpenAIKey,
		baseURL:         strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		chatModel:       cfg.OpenAIChatModel,
		transcribeModel: cfg.OpenAITranscribeModel,
		speechModel:     cfg.OpenAISpeechModel,
		voice:           cfg.OpenAISpeechVoice,
		language:        cfg.TranscribeLanguage,
		httpClient:      &http.Client{Timeout: config.RequestTimeout},
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Generate asks the chat model for Julie's answer to message given the
// rendered history.
func (s *OpenAIService) Generate(ctx context.Context, history, message string) (string, error) {
	payload, err := json.Marshal(ChatRequest{
		Model: s.chatModel,
		Messages: []ChatMessage{
			{Role: "system", Content: SystemPrompt + history},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	body, err := s.do(ctx, "/chat/completions", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrExternalService)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// Transcribe sends the audio file at path to the speech-to-text model.
func (s *OpenAIService) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	fields := map[string]string{
		"model":           s.transcribeModel,
		"response_format": "text",
		"language":        s.language,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	body, err := s.do(ctx, "/audio/transcriptions", w.FormDataContentType(), &buf)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", domain.ErrEmptyInput
	}
	return text, nil
}

// SynthesizeSpeech renders text as an OGG/Opus file in dir and returns its
// path. The caller owns the file.
func (s *OpenAIService) SynthesizeSpeech(ctx context.Context, text, dir string) (string, error) {
	payload, err := json.Marshal(speechRequest{
		Model:          s.speechModel,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: "opus",
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	body, err := s.do(ctx, "/audio/speech", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("speech request: %w", err)
	}

	f, err := os.CreateTemp(dir, "reply-*.ogg")
	if err != nil {
		return "", fmt.Errorf("create speech file: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write speech file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close speech file: %w", err)
	}
	return f.Name(), nil
}

func (s *OpenAIService) do(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: rate limited by OpenAI (429)", domain.ErrExternalService)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: OpenAI returned %d: %s", domain.ErrExternalService, resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
