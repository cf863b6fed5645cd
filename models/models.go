package models

// All returns every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Salon{},
		&Artist{},
		&Customer{},
		&Wallet{},
		&WalletTransaction{},
		&Service{},
		&ServiceOption{},
		&Offer{},
		&OfferRedemption{},
		&Appointment{},
		&AppointmentService{},
		&Invoice{},
		&InvoiceItem{},
		&NotificationLog{},
	}
}
