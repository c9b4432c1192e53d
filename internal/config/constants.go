package config

import "time"

const (
	// AI request timeout
	RequestTimeout = 90 * time.Second

	// Payment gateway request timeout
	PaymentTimeout = 30 * time.Second

	// HTTP server
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 15 * time.Second

	// Stripe webhook payloads are small; anything larger is rejected.
	MaxWebhookBodyBytes = 64 << 10

	// Largest voice note accepted for transcription (Whisper limit).
	MaxVoiceBytes = 25 << 20

	// Role labels used when rendering history for the model.
	HistoryUserLabel      = "utilisateur"
	HistoryAssistantLabel = "toi"
)
