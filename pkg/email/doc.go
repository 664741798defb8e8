// Package email sends transactional email copies of notifications.
//
// Sender is the provider abstraction: NewPostmarkSender talks to Postmark,
// NewDevSender writes emails to disk for local development. Both validate
// the message before sending. NotificationSender adapts either one to the
// delivery pipeline's email hook.
package email
