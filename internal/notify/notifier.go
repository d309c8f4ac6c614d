// Package notify delivers digest messages to the configured channel.
package notify

import "context"

// Notifier sends plain-text messages to a single delivery channel.
type Notifier interface {
	// SendMessage delivers text to the channel. Implementations split or
	// truncate messages that exceed channel limits.
	SendMessage(ctx context.Context, text string) error
	// SendMessages delivers a batch in order, stopping at the first
	// failure; a returned error means the tail of the batch was not sent.
	// Channels with native batching may deliver the whole batch in one
	// call, the rest send sequentially.
	SendMessages(ctx context.Context, texts []string) error
	// Name identifies the channel for logging and metrics.
	Name() string
}

// sendSequential is the default SendMessages behavior: one SendMessage per
// text, in order, aborting on the first failure.
func sendSequential(ctx context.Context, n Notifier, texts []string) error {
	for _, text := range texts {
		if err := n.SendMessage(ctx, text); err != nil {
			return err
		}
	}
	return nil
}
