package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// TopicAll is the topic every registered device is subscribed to.
const TopicAll = "all"

var ErrDisabled = errors.New("push notifications are not configured")

type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Image string            `json:"image,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

type Notifier struct {
	client *messaging.Client
}

// New builds a Notifier from a service account file. An empty path returns a
// disabled Notifier whose calls fail with ErrDisabled.
func New(ctx context.Context, credentialsFile string) (*Notifier, error) {
	if credentialsFile == "" {
		return &Notifier{}, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}

	return &Notifier{client: client}, nil
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.client != nil
}

func (n *Notifier) Subscribe(ctx context.Context, token, topic string) error {
	if !n.Enabled() {
		return ErrDisabled
	}

	resp, err := n.client.SubscribeToTopic(ctx, []string{token}, topic)
	if err != nil {
		return err
	}

	if resp.FailureCount > 0 && len(resp.Errors) > 0 {
		return fmt.Errorf("subscribe to %s: %s", topic, resp.Errors[0].Reason)
	}

	return nil
}

// SendToTopic returns the message id assigned by FCM.
func (n *Notifier) SendToTopic(ctx context.Context, topic string, msg Message) (string, error) {
	if !n.Enabled() {
		return "", ErrDisabled
	}

	return n.client.Send(ctx, &messaging.Message{
		Topic: topic,
		Data:  msg.Data,
		Notification: &messaging.Notification{
			Title:    msg.Title,
			Body:     msg.Body,
			ImageURL: msg.Image,
		},
	})
}
