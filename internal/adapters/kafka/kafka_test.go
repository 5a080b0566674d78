package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamcalendar/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	n := domain.EventNotification{
		Kind:           domain.EventCreated,
		EventID:        domain.NewID(),
		OrganizationID: domain.NewID(),
		Status:         domain.EventStatusScheduled,
		StartTime:      &start,
		OccurredAt:     start,
	}

	require.NoError(t, p.Publish(context.Background(), n))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte(n.EventID), w.msgs[0].Key)
	assert.Equal(t, "kind", w.msgs[0].Headers[0].Key)

	var decoded domain.EventNotification
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, n.Kind, decoded.Kind)
	assert.Equal(t, n.OrganizationID, decoded.OrganizationID)

	w.err = errors.New("leader not available")
	err := p.Publish(context.Background(), n)
	assert.ErrorContains(t, err, "kafka.Publisher.Publish")
}

type fakeReader struct {
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeProvisioner struct {
	orgs  []string
	fail  map[string]int // remaining failures per organization
	calls int
}

func (p *fakeProvisioner) ProvisionOrganization(ctx context.Context, orgID string) error {
	p.calls++
	if p.fail[orgID] > 0 {
		p.fail[orgID]--
		return errors.New("database unavailable")
	}
	p.orgs = append(p.orgs, orgID)
	return nil
}

func orgMessage(t *testing.T, offset int64, kind, orgID string) kafka.Message {
	t.Helper()
	value, err := json.Marshal(organizationMessage{Kind: kind, OrganizationID: orgID})
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: value}
}

func newTestConsumer(reader messageReader, provisioner domain.Provisioner) *ProvisioningConsumer {
	return &ProvisioningConsumer{reader: reader, provisioner: provisioner, log: testLogger, attempts: 3, backoff: time.Millisecond}
}

func TestProvisioningConsumer_Run(t *testing.T) {
	created, flaky := domain.NewID(), domain.NewID()
	reader := &fakeReader{queue: []kafka.Message{
		orgMessage(t, 1, OrganizationCreatedKind, created),
		orgMessage(t, 2, "organization.renamed", domain.NewID()),
		{Offset: 3, Value: []byte("{not json")},
		orgMessage(t, 4, OrganizationCreatedKind, flaky),
		orgMessage(t, 5, OrganizationCreatedKind, "org-1"),
	}}
	provisioner := &fakeProvisioner{fail: map[string]int{flaky: 2}}
	c := newTestConsumer(reader, provisioner)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{created, flaky}, provisioner.orgs)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, reader.committed)

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}

func TestProvisioningConsumer_RunStopsOnPersistentFailure(t *testing.T) {
	broken, later := domain.NewID(), domain.NewID()
	reader := &fakeReader{queue: []kafka.Message{
		orgMessage(t, 7, OrganizationCreatedKind, broken),
		orgMessage(t, 8, OrganizationCreatedKind, later),
	}}
	provisioner := &fakeProvisioner{fail: map[string]int{broken: 10}}
	c := newTestConsumer(reader, provisioner)

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "offset 7")
	assert.Equal(t, 3, provisioner.calls)
	assert.Empty(t, reader.committed, "a later message must not commit past the failed one")
	assert.Empty(t, provisioner.orgs)
}

func TestProvisioningConsumer_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newTestConsumer(&cancelingReader{}, &fakeProvisioner{})
	require.NoError(t, c.Run(ctx))
}

type cancelingReader struct{ fakeReader }

func (r *cancelingReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}
