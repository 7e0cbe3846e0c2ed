package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the log. It is used when SMTP is not
// configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, recipientID, subject, body string) error {
	n.logger.InfoContext(ctx, "Notification",
		slog.String("recipient_id", recipientID),
		slog.String("subject", subject),
		slog.String("body", body))
	return nil
}
