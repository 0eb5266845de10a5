package models

type EmailNotificationRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Content string `json:"content" validate:"required"`
}
