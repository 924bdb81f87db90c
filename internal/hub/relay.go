package hub

import (
	"realestate-backend/internal/metrics"
	"realestate-backend/internal/models"

	"go.uber.org/zap"
)

type Outcome int

const (
	Missed Outcome = iota
	Delivered
)

func (o Outcome) String() string {
	if o == Delivered {
		return "delivered"
	}
	return "missed"
}

// Relay forwards messages that are already persisted to the receiver's live connection.
// Delivered only means the frame was queued on that connection, not that it was read.
type Relay struct {
	registry *Registry
	sugar    *zap.SugaredLogger
}

func NewRelay(sugar *zap.SugaredLogger) *Relay {
	return &Relay{registry: NewRegistry(), sugar: sugar}
}

func (r *Relay) Register(client *Client) {
	r.sugar.Debugf("Registering connection [%s] of user ID [%d]", client.ID, client.UserID)

	if replaced := r.registry.Register(client); replaced != nil {
		r.sugar.Debugf("Connection [%s] of user ID [%d] was replaced", replaced.ID, replaced.UserID)
		replaced.Close()
	}
	metrics.RelayConnections.Set(float64(r.registry.Len()))
}

func (r *Relay) Deregister(client *Client) bool {
	removed := r.registry.Deregister(client)
	if removed {
		r.sugar.Debugf("Deregistered connection [%s] of user ID [%d]", client.ID, client.UserID)
		metrics.RelayConnections.Set(float64(r.registry.Len()))
	}
	return removed
}

func (r *Relay) Connected(userID int64) bool {
	_, exists := r.registry.Lookup(userID)
	return exists
}

func (r *Relay) Connections() int {
	return r.registry.Len()
}

// Relay queues the message on the receiver's connection. A receiver that isn't connected,
// or whose buffer is full, is a miss. Slow receivers are disconnected and can catch up
// from the message history.
func (r *Relay) Relay(message models.Message) Outcome {
	outcome := r.relay(message)
	metrics.RelayOutcomes.WithLabelValues(outcome.String()).Inc()
	return outcome
}

func (r *Relay) relay(message models.Message) Outcome {
	client, exists := r.registry.Lookup(message.ReceiverID)
	if !exists {
		r.sugar.Debugf("User ID [%d] is not connected, message [%d] not delivered live", message.ReceiverID, message.ID)
		return Missed
	}

	frame, err := PrepareMessage(ReceiveMessage, message)
	if err != nil {
		r.sugar.Error(err)
		return Missed
	}

	if !client.enqueue(frame) {
		r.sugar.Warnf("Connection [%s] of user ID [%d] can't keep up, dropping it", client.ID, client.UserID)
		r.Deregister(client)
		client.Close()
		return Missed
	}

	return Delivered
}
