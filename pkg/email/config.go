package email

// Config holds outbound email configuration. The Postmark tokens are
// optional so environments without email delivery can still boot; the
// sender identity is required whenever a Postmark sender is constructed.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL"`
	SupportEmail         string `env:"SUPPORT_EMAIL"`
}
