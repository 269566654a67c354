package payment

import (
	"context"
	"fmt"
	"sync"
)

// FakeProvider is an in-memory Provider for tests and local runs without
// processor credentials.
type FakeProvider struct {
	mu       sync.Mutex
	sessions map[string]*CheckoutSession
	nextID   int

	CreateErr error
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		sessions: make(map[string]*CheckoutSession),
	}
}

func (f *FakeProvider) CreateCheckoutSession(ctx context.Context, installationID string) (*CheckoutSession, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	session := &CheckoutSession{
		ID:             fmt.Sprintf("cs_test_%d", f.nextID),
		InstallationID: installationID,
	}
	session.URL = "https://checkout.example.com/pay/" + session.ID

	f.sessions[session.ID] = session
	return session, nil
}

func (f *FakeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, exists := f.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("no such checkout session: %s", sessionID)
	}

	sessionCopy := *session
	return &sessionCopy, nil
}

// CompleteSession marks a session as paid by attaching a customer id, the
// way a real processor would before firing the completion webhook.
func (f *FakeProvider) CompleteSession(sessionID, customerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if session, exists := f.sessions[sessionID]; exists {
		session.CustomerID = customerID
	}
}

// AddSession seeds a session directly, covering webhook-before-client races.
func (f *FakeProvider) AddSession(session *CheckoutSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
}
