package ssh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/imamik/hkube/internal/remote"
)

// Connector opens one Client per node and reuses it for the whole run.
type Connector struct {
	User        string
	PrivateKey  []byte
	Port        int
	DialTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration

	mu      sync.Mutex
	clients map[string]*Client
}

var _ remote.Connector = (*Connector)(nil)

// NewConnector creates a connector authenticating as user with privateKey.
func NewConnector(user string, privateKey []byte) *Connector {
	return &Connector{
		User:       user,
		PrivateKey: privateKey,
		clients:    make(map[string]*Client),
	}
}

// Connect returns the client for target, creating it on first use.
// The SSH connection itself is established lazily by the first command.
func (c *Connector) Connect(_ context.Context, target remote.Target) (remote.Executor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := target.Name + "@" + target.Address
	if client, ok := c.clients[key]; ok {
		return client, nil
	}

	client, err := NewClient(&Config{
		Host:        target.Address,
		Port:        c.Port,
		User:        c.User,
		PrivateKey:  c.PrivateKey,
		DialTimeout: c.DialTimeout,
		MaxRetries:  c.MaxRetries,
		RetryDelay:  c.RetryDelay,
	})
	if err != nil {
		return nil, err
	}
	if c.clients == nil {
		c.clients = make(map[string]*Client)
	}
	c.clients[key] = client
	return client, nil
}

// Close closes every client handed out so far.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for key, client := range c.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(c.clients, key)
	}
	return errors.Join(errs...)
}
