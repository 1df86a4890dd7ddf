package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/mysimo-api/internal/apperrors"
)

func TestAssistant_Disabled(t *testing.T) {
	f := newFixture(t)
	a := NewAssistant("", "", nil, f.reference, zerolog.Nop())

	_, err := a.Reply(context.Background(), "hola")
	assert.ErrorIs(t, err, ErrAssistantDisabled)
	requireKind(t, apperrors.KindUnavailable, err)
}

func TestAssistant_EmptyMessage(t *testing.T) {
	f := newFixture(t)
	a := NewAssistant("http://unused", "key", nil, f.reference, zerolog.Nop())

	_, err := a.Reply(context.Background(), "   ")
	requireKind(t, apperrors.KindValidation, err)
}

func TestAssistant_Reply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reference.Seed(ctx, SeedOptions{})
	require.NoError(t, err)

	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Tenemos cardiólogos en Quito."}]}}]}`))
	}))
	defer srv.Close()

	a := NewAssistant(srv.URL, "key-1", srv.Client(), f.reference, zerolog.Nop())
	reply, err := a.Reply(ctx, "¿Hay cardiólogos en Quito?")
	require.NoError(t, err)
	assert.Equal(t, "Tenemos cardiólogos en Quito.", reply)

	require.Len(t, got.Contents, 3)
	assert.Contains(t, got.Contents[0].Parts[0].Text, "Cardiología")
	assert.Contains(t, got.Contents[0].Parts[0].Text, "Jipijapa")
	assert.Equal(t, "¿Hay cardiólogos en Quito?", got.Contents[2].Parts[0].Text)
}

func TestAssistant_UpstreamError(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	a := NewAssistant(srv.URL, "bad", srv.Client(), f.reference, zerolog.Nop())
	_, err := a.Reply(context.Background(), "hola")
	requireKind(t, apperrors.KindInternal, err)
	assert.Equal(t, "Internal Server Error", apperrors.Message(err))
}

func TestAssistant_TransportErrorHidesKey(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint, client := srv.URL, srv.Client()
	srv.Close()

	a := NewAssistant(endpoint, "secret-key-123", client, f.reference, zerolog.Nop())
	_, err := a.Reply(context.Background(), "hola")
	requireKind(t, apperrors.KindInternal, err)
	assert.NotContains(t, err.Error(), "secret-key-123")
}
