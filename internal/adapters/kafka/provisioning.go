package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"teamcalendar/internal/domain"
	"teamcalendar/internal/lib/logger/sl"
)

// OrganizationCreatedKind is the only message kind the provisioning consumer acts on.
const OrganizationCreatedKind = "organization.created"

const (
	defaultProvisionAttempts = 5
	defaultProvisionBackoff  = 500 * time.Millisecond
)

type organizationMessage struct {
	Kind           string `json:"kind"`
	OrganizationID string `json:"organization_id"`
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProvisioningConsumer seeds calendar data for organizations announced by the
// organization service. It is started with Run and stopped with Close.
type ProvisioningConsumer struct {
	reader      messageReader
	provisioner domain.Provisioner
	log         *slog.Logger
	attempts    int
	backoff     time.Duration
}

func NewProvisioningConsumer(brokers []string, topic, groupID string, provisioner domain.Provisioner, log *slog.Logger) *ProvisioningConsumer {
	return &ProvisioningConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 1 << 20,
			MaxWait:  time.Second,
		}),
		provisioner: provisioner,
		log:         log,
		attempts:    defaultProvisionAttempts,
		backoff:     defaultProvisionBackoff,
	}
}

// Run consumes until ctx is canceled or the reader is closed. A message is committed
// once it was handled or found undecodable. A message that still fails after the retries
// stops Run with an error and stays uncommitted, so the group redelivers it on restart.
func (c *ProvisioningConsumer) Run(ctx context.Context) error {
	const op = "kafka.ProvisioningConsumer.Run"

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := c.handleWithRetry(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s: offset %d: %w", op, msg.Offset, err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Warn("commit provisioning message failed", slog.String("op", op), sl.Err(err))
		}
	}
}

// handleWithRetry doubles the pause after every failed attempt.
func (c *ProvisioningConsumer) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	attempts := max(c.attempts, 1)
	wait := c.backoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = c.handle(ctx, msg); err == nil {
			return nil
		}
		c.log.Error("organization provisioning failed",
			slog.Int64("offset", msg.Offset), slog.Int("attempt", attempt), sl.Err(err))
		if attempt == attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (c *ProvisioningConsumer) handle(ctx context.Context, msg kafka.Message) error {
	var m organizationMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		c.log.Warn("skipping undecodable organization message", slog.Int64("offset", msg.Offset), sl.Err(err))
		return nil
	}
	if m.Kind != OrganizationCreatedKind {
		return nil
	}
	if !domain.IsUUID(m.OrganizationID) {
		c.log.Warn("skipping organization message without a valid id", slog.String("organization_id", m.OrganizationID))
		return nil
	}
	return c.provisioner.ProvisionOrganization(ctx, m.OrganizationID)
}

func (c *ProvisioningConsumer) Close() error {
	return c.reader.Close()
}
