package broadcast

import (
	"github.com/bowerhall/albumbot/internal/logger"
	"github.com/google/uuid"
)

// Sender delivers a text message to one chat.
type Sender interface {
	SendText(chatID int64, text string) error
}

// Report summarizes one dispatch run.
type Report struct {
	JobID     string
	Delivered int
	Failed    int
}

// Dispatch sends text to every recipient except exclude, one attempt
// each. A failed delivery is logged and counted; it never stops the
// rest of the batch. This is a notification channel, not a guaranteed
// one, so there are no retries.
func Dispatch(sender Sender, text string, recipients []int64, exclude int64) Report {
	jobID := uuid.New().String()[:8]

	report := Report{JobID: jobID}

	logger.Info("broadcast started", "job", jobID, "recipients", len(recipients))

	for _, chatID := range recipients {
		if chatID == exclude {
			continue
		}

		if err := sender.SendText(chatID, text); err != nil {
			logger.Error("broadcast delivery failed", "job", jobID, "chatID", chatID, "error", err)
			report.Failed++
			continue
		}

		report.Delivered++
	}

	logger.Info("broadcast finished", "job", jobID, "delivered", report.Delivered, "failed", report.Failed)

	return report
}
