package sendGrid

// NewEmailServiceForTest sends through baseURL instead of the SendGrid API.
func NewEmailServiceForTest(apiKey, fromEmail, fromName, baseURL string) EmailService {
	service := NewEmailService(apiKey, fromEmail, fromName).(*emailService)
	service.client.Request.BaseURL = baseURL
	return service
}
