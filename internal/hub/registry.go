package hub

import (
	"sync"
)

// Registry maps a user id to the one live connection that receives messages addressed to it.
type Registry struct {
	mutex   sync.RWMutex
	clients map[int64]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[int64]*Client)}
}

// Register makes client the connection for its user and returns the connection it
// displaced, if any.
func (r *Registry) Register(client *Client) *Client {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	replaced := r.clients[client.UserID]
	r.clients[client.UserID] = client
	if replaced == client {
		return nil
	}
	return replaced
}

// Deregister removes client only if it is still the registered connection for its user,
// so a late disconnect of a replaced connection can't remove its successor.
func (r *Registry) Deregister(client *Client) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.clients[client.UserID] != client {
		return false
	}
	delete(r.clients, client.UserID)
	return true
}

func (r *Registry) Lookup(userID int64) (*Client, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	client, exists := r.clients[userID]
	return client, exists
}

func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.clients)
}
