package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
)

const (
	GeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"
	chatTimeout    = 20 * time.Second
	maxChatMessage = 2000
)

var ErrAssistantDisabled = apperrors.Unavailable("Assistant is not configured")

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Assistant answers visitor questions about the marketplace through Gemini.
// The prompt lists the live specialties and cities.
type Assistant struct {
	endpoint  string
	apiKey    string
	client    *http.Client
	reference *ReferenceService
	log       zerolog.Logger
}

func NewAssistant(endpoint, apiKey string, client *http.Client, reference *ReferenceService, logger zerolog.Logger) *Assistant {
	if endpoint == "" {
		endpoint = GeminiEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: chatTimeout}
	}
	return &Assistant{
		endpoint:  endpoint,
		apiKey:    apiKey,
		client:    client,
		reference: reference,
		log:       logger.With().Str("service", "assistant").Logger(),
	}
}

func (a *Assistant) Reply(ctx context.Context, message string) (string, error) {
	if a.apiKey == "" {
		return "", ErrAssistantDisabled
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.Validation("Message cannot be empty")
	}
	if len(message) > maxChatMessage {
		return "", apperrors.Validationf("Message must be at most %d characters", maxChatMessage)
	}

	prompt, err := a.systemPrompt(ctx)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(geminiRequest{Contents: []geminiContent{
		{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		{Role: "model", Parts: []geminiPart{{Text: "Entendido. Solo responderé sobre mysimo."}}},
		{Role: "user", Parts: []geminiPart{{Text: message}}},
	}})
	if err != nil {
		return "", apperrors.Internal(err, "encode gemini request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Internal(err, "build gemini request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", apperrors.Internal(err, "call gemini")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.Internal(err, "read gemini response")
	}
	if resp.StatusCode != http.StatusOK {
		a.log.Error().Int("status", resp.StatusCode).Str("body", string(raw)).Msg("gemini returned an error")
		return "", apperrors.Internal(fmt.Errorf("gemini status %d", resp.StatusCode), "call gemini")
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", apperrors.Internal(err, "decode gemini response")
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.Internal(fmt.Errorf("empty candidate list"), "call gemini")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func (a *Assistant) systemPrompt(ctx context.Context) (string, error) {
	specialties, err := a.reference.ListSpecialties(ctx)
	if err != nil {
		return "", err
	}
	cities, err := a.reference.ListCities(ctx)
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(specialties))
	for _, sp := range specialties {
		names = append(names, sp.Name)
	}
	places := make([]string, 0, len(cities))
	for _, c := range cities {
		places = append(places, c.Name)
	}

	return fmt.Sprintf(`Eres el asistente de mysimo, un directorio de médicos en Ecuador. Reglas:
1. Solo ayudas a encontrar médicos, especialidades y ciudades, y a explicar cómo agendar una cita en mysimo.
2. Especialidades disponibles: %s.
3. Ciudades disponibles: %s.
4. No das diagnósticos ni consejos médicos. Ante una consulta médica recomienda agendar una cita con un especialista.
5. Responde en el idioma del usuario.`, strings.Join(names, ", "), strings.Join(places, ", ")), nil
}
