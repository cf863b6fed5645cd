package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"salonpro-booking/models"
)

type fakeSender struct {
	sent []*twilioApi.CreateMessageParams
	err  error
}

func (s *fakeSender) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	s.sent = append(s.sent, params)
	if s.err != nil {
		return nil, s.err
	}
	sid := "SM" + uuid.NewString()
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioNotifier_ChannelSelection(t *testing.T) {
	cfg := TwilioConfig{PhoneNumber: "+15550001111", WhatsAppNumber: "+15550002222"}
	tests := []struct {
		name        string
		whatsApp    bool
		sms         bool
		cfg         TwilioConfig
		phone       string
		wantChannel string
		wantTo      string
		wantFrom    string
	}{
		{name: "whatsapp preferred", whatsApp: true, sms: true, cfg: cfg, phone: "+919800000002",
			wantChannel: "whatsapp", wantTo: "whatsapp:+919800000002", wantFrom: "whatsapp:+15550002222"},
		{name: "sms when whatsapp disabled", sms: true, cfg: cfg, phone: "+919800000002",
			wantChannel: "sms", wantTo: "+919800000002", wantFrom: "+15550001111"},
		{name: "sms when phone has no country code", whatsApp: true, sms: true, cfg: cfg, phone: "9800000002",
			wantChannel: "sms", wantTo: "9800000002", wantFrom: "+15550001111"},
		{name: "sms when no whatsapp sender", whatsApp: true, sms: true, cfg: TwilioConfig{PhoneNumber: "+15550001111"}, phone: "+919800000002",
			wantChannel: "sms", wantTo: "+919800000002", wantFrom: "+15550001111"},
		{name: "both disabled", cfg: cfg, phone: "+919800000002"},
		{name: "no customer phone", whatsApp: true, sms: true, cfg: cfg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "0")
			require.NoError(t, f.db.Model(&f.salon).Updates(map[string]interface{}{
				"whats_app_notifications": tt.whatsApp,
				"sms_notifications":       tt.sms,
			}).Error)
			sender := &fakeSender{}
			n := newTwilioNotifier(f.db, sender, tt.cfg)

			e := Event{Type: EventAppointmentCreated, AppointmentID: uuid.New(), SalonID: f.salon.ID, CustomerName: "Asha", CustomerPhone: tt.phone}
			require.NoError(t, n.Notify(context.Background(), e))

			var logs []models.NotificationLog
			require.NoError(t, f.db.Find(&logs).Error)
			if tt.wantChannel == "" {
				assert.Empty(t, sender.sent)
				assert.Empty(t, logs)
				return
			}
			require.Len(t, sender.sent, 1)
			assert.Equal(t, tt.wantTo, *sender.sent[0].To)
			assert.Equal(t, tt.wantFrom, *sender.sent[0].From)
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantChannel, logs[0].Channel)
			assert.Equal(t, "sent", logs[0].Status)
			assert.Equal(t, string(EventAppointmentCreated), logs[0].Event)
			assert.Equal(t, e.AppointmentID, logs[0].AppointmentID)
		})
	}
}

func TestTwilioNotifier_SendFailureIsLogged(t *testing.T) {
	f := newFixture(t, "0")
	require.NoError(t, f.db.Model(&f.salon).Update("sms_notifications", true).Error)
	sender := &fakeSender{err: errors.New("unreachable")}
	n := newTwilioNotifier(f.db, sender, TwilioConfig{PhoneNumber: "+15550001111", Clock: fixedClock})

	err := n.Notify(context.Background(), Event{Type: EventAppointmentCancelled, AppointmentID: uuid.New(), SalonID: f.salon.ID, CustomerPhone: "+919800000002"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")

	var entry models.NotificationLog
	require.NoError(t, f.db.First(&entry).Error)
	assert.Equal(t, "failed", entry.Status)
	assert.Equal(t, "unreachable", entry.ErrorMessage)
	assert.Truef(t, entry.SentAt.Equal(fixedNow), "sent at %s", entry.SentAt)
}

func TestTwilioNotifier_UnknownSalon(t *testing.T) {
	f := newFixture(t, "0")
	n := newTwilioNotifier(f.db, &fakeSender{}, TwilioConfig{PhoneNumber: "+15550001111"})
	err := n.Notify(context.Background(), Event{SalonID: uuid.New(), CustomerPhone: "+919800000002"})
	require.Error(t, err)
}
