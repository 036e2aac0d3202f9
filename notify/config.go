package notify

// Config holds email delivery configuration. The Postmark tokens are optional
// so development environments can run on the log provider alone; SenderEmail
// and SupportEmail establish the sender identity and reply-to behavior for all
// outbound mail.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"billing@example.com"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@example.com"`
	Subject              string `env:"NOTIFY_SUBJECT" envDefault:"Subscription update"`
}
