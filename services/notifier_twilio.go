package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"

	"salonpro-booking/models"
	"salonpro-booking/utils"
)

// messageSender is the part of the Twilio REST client the notifier uses.
type messageSender interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	WhatsAppNumber string
	// Clock stamps notification_logs rows; time.Now when nil.
	Clock utils.Clock
}

// TwilioNotifier texts the customer over WhatsApp or SMS, honouring the salon's
// notification switches, and records every attempt in notification_logs.
type TwilioNotifier struct {
	db       *gorm.DB
	sender   messageSender
	from     string
	whatsApp string
	clock    utils.Clock
}

func NewTwilioNotifier(db *gorm.DB, cfg TwilioConfig) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioNotifier(db, client.Api, cfg)
}

func newTwilioNotifier(db *gorm.DB, sender messageSender, cfg TwilioConfig) *TwilioNotifier {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TwilioNotifier{db: db, sender: sender, from: cfg.PhoneNumber, whatsApp: cfg.WhatsAppNumber, clock: clock}
}

func (n *TwilioNotifier) Name() string { return "twilio" }

func (n *TwilioNotifier) Notify(ctx context.Context, e Event) error {
	if e.CustomerPhone == "" {
		return nil
	}
	var salon models.Salon
	if err := n.db.WithContext(ctx).First(&salon, "id = ?", e.SalonID).Error; err != nil {
		return errors.Wrap(err, "load salon notification settings")
	}

	var channel, to, from string
	switch {
	case salon.WhatsAppNotifications && n.whatsApp != "" && strings.HasPrefix(e.CustomerPhone, "+"):
		channel = "whatsapp"
		to = "whatsapp:" + e.CustomerPhone
		from = "whatsapp:" + n.whatsApp
	case salon.SMSNotifications && n.from != "":
		channel = "sms"
		to = e.CustomerPhone
		from = n.from
	default:
		return nil
	}

	message := messageFor(e)
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(message)

	entry := models.NotificationLog{
		SalonID:       e.SalonID,
		AppointmentID: e.AppointmentID,
		Event:         string(e.Type),
		Message:       message,
		Status:        "sent",
		Channel:       channel,
		SentAt:        n.clock(),
	}

	resp, sendErr := n.sender.CreateMessage(params)
	if sendErr != nil {
		entry.Status = "failed"
		entry.ErrorMessage = sendErr.Error()
	} else if resp != nil && resp.Sid != nil {
		log.Debug().Str("sid", *resp.Sid).Str("channel", channel).Msg("message sent")
	}

	if err := n.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Error().Err(err).Str("appointment_id", e.AppointmentID.String()).Msg("failed to write notification log")
	}
	if sendErr != nil {
		return errors.Wrapf(sendErr, "send %s message", channel)
	}
	return nil
}

func messageFor(e Event) string {
	switch e.Type {
	case EventAppointmentCreated:
		return fmt.Sprintf("Hi %s, your appointment at %s on %s, %s is booked. Amount payable: %s.",
			e.CustomerName, e.SalonName, e.Date, e.Time, e.FinalPayableAmount.StringFixed(2))
	case EventAppointmentCancelled:
		return fmt.Sprintf("Hi %s, your appointment at %s on %s, %s has been cancelled.",
			e.CustomerName, e.SalonName, e.Date, e.Time)
	case EventAppointmentRescheduled:
		return fmt.Sprintf("Hi %s, your appointment at %s has been moved to %s, %s.",
			e.CustomerName, e.SalonName, e.Date, e.Time)
	case EventAppointmentReminder:
		return fmt.Sprintf("Reminder: %s, you have an appointment at %s on %s, %s.",
			e.CustomerName, e.SalonName, e.Date, e.Time)
	default:
		return fmt.Sprintf("Hi %s, your appointment at %s on %s, %s is now %s.",
			e.CustomerName, e.SalonName, e.Date, e.Time, strings.ToLower(e.Status))
	}
}
