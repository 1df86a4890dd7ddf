package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/harentsoaR/mysimo-api/internal/models"
)

func textbeltServer(t *testing.T, success bool, got *map[string]string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		if success {
			_, _ = w.Write([]byte(`{"success":true,"textId":"1"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error":"Out of quota"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func bookedAppointment() (*models.Doctor, *models.Appointment) {
	d := &models.Doctor{ID: "d1", FullName: "Dra. Vera", WhatsApp: strPtr("+593911111111")}
	a := &models.Appointment{ID: "a1", DoctorID: "d1", DateTime: time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)}
	return d, a
}

func TestNotification_SendsToDoctorPhone(t *testing.T) {
	var calls int32
	var payload map[string]string
	srv := textbeltServer(t, true, &payload, &calls)

	svc := NewNotificationService(srv.URL, "key-123", srv.Client(), zerolog.Nop())
	d, a := bookedAppointment()
	svc.AppointmentBooked(d, a)
	svc.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, "+593911111111", payload["phone"])
	assert.Equal(t, "key-123", payload["key"])
	assert.Contains(t, payload["message"], "Dra. Vera")
	assert.Contains(t, payload["message"], "01/06/2026 09:30")
}

func TestNotification_SkipsWithoutKeyOrPhone(t *testing.T) {
	var calls int32
	srv := textbeltServer(t, true, nil, &calls)

	disabled := NewNotificationService(srv.URL, "", srv.Client(), zerolog.Nop())
	assert.False(t, disabled.Enabled())
	d, a := bookedAppointment()
	disabled.AppointmentBooked(d, a)
	disabled.Wait()

	enabled := NewNotificationService(srv.URL, "key", srv.Client(), zerolog.Nop())
	d.WhatsApp = nil
	enabled.AppointmentBooked(d, a)
	enabled.Wait()

	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestNotification_FailureIsLogged(t *testing.T) {
	var calls int32
	srv := textbeltServer(t, false, nil, &calls)

	var buf bytes.Buffer
	svc := NewNotificationService(srv.URL, "key", srv.Client(), zerolog.New(&buf))
	d, a := bookedAppointment()
	svc.AppointmentBooked(d, a)
	svc.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Contains(t, buf.String(), "booking SMS failed")
	assert.Contains(t, buf.String(), "Out of quota")
}
