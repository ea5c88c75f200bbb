package jobs

import (
	"context"
	"fmt"
)

// MailNotifier queues submission receipt emails.
type MailNotifier struct {
	Client *Client
}

// SubmissionReceived enqueues a receipt email for a graded-later submission.
func (n *MailNotifier) SubmissionReceived(ctx context.Context, email, examTitle, receiptID string) error {
	if n == nil || n.Client == nil {
		return nil
	}
	payload := SendEmailPayload{
		To:      email,
		Subject: fmt.Sprintf("Submission received: %s", examTitle),
		Body:    fmt.Sprintf("Your answers for %q were received.\nReceipt: %s\n", examTitle, receiptID),
	}
	_, err := n.Client.EnqueueSendEmail(ctx, payload)
	return err
}
