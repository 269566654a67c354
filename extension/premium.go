package extension

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"promptpilot.app/cloud/internal/logger"
)

// Service is the background worker owning the entitlement state. All cache
// mutations funnel through it; UI contexts only ever read the broadcast flag
// or send it messages.
type Service struct {
	store    *Store
	client   *Client
	notifier *Notifier

	// CheckInterval is the periodic re-verification cadence.
	CheckInterval time.Duration
	// PollInterval and PollAttempts bound the pending-upgrade poll loop.
	PollInterval time.Duration
	PollAttempts int

	premium atomic.Bool

	// Verification results are applied in sequence order so a slow stale
	// response cannot overwrite a fresher one.
	verifySeq  atomic.Uint64
	appliedSeq atomic.Uint64

	inbox chan Message

	pollMu      sync.Mutex
	pollRunning bool
	pollStop    chan struct{}
}

func NewService(store *Store, client *Client, notifier *Notifier) *Service {
	return &Service{
		store:         store,
		client:        client,
		notifier:      notifier,
		CheckInterval: time.Hour,
		PollInterval:  2 * time.Second,
		PollAttempts:  10,
		inbox:         make(chan Message, 16),
	}
}

// IsPremium reads the cached entitlement flag. Possibly stale by design;
// the server lookup is the only authority.
func (s *Service) IsPremium() bool {
	return s.premium.Load()
}

// Send delivers a message to the background worker. Fire-and-forget: the
// caller gets no reply, results arrive over the broadcast channel.
func (s *Service) Send(msg Message) {
	select {
	case s.inbox <- msg:
	default:
		logger.Warn("Dropped message to background service", map[string]interface{}{
			"type": string(msg.Type),
		})
	}
}

// Run is the background worker loop: one verification at startup, one every
// CheckInterval, and message handling in between. Blocks until ctx ends.
func (s *Service) Run(ctx context.Context) {
	s.VerifyPremiumStatus(ctx)

	ticker := time.NewTicker(s.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.StopPolling()
			return
		case <-ticker.C:
			s.VerifyPremiumStatus(ctx)
		case msg := <-s.inbox:
			s.handleMessage(ctx, msg)
		}
	}
}

func (s *Service) handleMessage(ctx context.Context, msg Message) {
	switch msg.Type {
	case MsgCheckPremiumStatus:
		go s.VerifyPremiumStatus(ctx)
	case MsgPaymentSuccess:
		go s.handlePaymentSuccess(ctx, msg.SessionID)
	case MsgStartUpgradePolling:
		s.StartUpgradePolling(ctx)
	default:
		logger.Debug("Ignoring message", map[string]interface{}{
			"type": string(msg.Type),
		})
	}
}

// VerifyPremiumStatus re-checks the cached license key against the server
// and installs the result. Returns the fresh flag for callers that want it;
// everyone else learns about it from the broadcast.
func (s *Service) VerifyPremiumStatus(ctx context.Context) bool {
	seq := s.verifySeq.Inc()

	isPremium := false
	if licenseKey := s.store.LicenseKey(); licenseKey != "" {
		isPremium = s.client.Verify(ctx, licenseKey)
	}

	s.applyStatus(seq, isPremium)
	return isPremium
}

func (s *Service) applyStatus(seq uint64, isPremium bool) {
	for {
		cur := s.appliedSeq.Load()
		if seq <= cur {
			// a newer verification already landed
			return
		}
		if s.appliedSeq.CompareAndSwap(cur, seq) {
			break
		}
	}

	s.premium.Store(isPremium)

	if err := s.store.SetPremium(isPremium); err != nil {
		logger.Error("Failed to persist premium flag", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.notifier.Broadcast(Message{
		Type:      MsgPremiumStatusUpdated,
		IsPremium: isPremium,
	})
}

// InitiateUpgrade opens a checkout session for this installation and records
// the pending-upgrade marker. A failure leaves all state unchanged; the
// caller surfaces it to the user and may retry manually.
func (s *Service) InitiateUpgrade(ctx context.Context) (string, error) {
	installationID, err := GetInstallationID(s.store)
	if err != nil {
		return "", err
	}

	checkoutURL, err := s.client.CreateCheckoutSession(ctx, installationID)
	if err != nil {
		return "", err
	}

	if err := s.store.SetPendingUpgrade(installationID); err != nil {
		// Checkout already exists; worst case the poll loop never starts
		// and confirmation arrives via the success-page message instead.
		logger.Warn("Failed to record pending upgrade", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return checkoutURL, nil
}

func (s *Service) handlePaymentSuccess(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	licenseKey, err := s.client.ExchangeSessionForLicense(ctx, sessionID)
	if err != nil {
		logger.Error("Failed to exchange session for license", map[string]interface{}{
			"error":      err.Error(),
			"session_id": sessionID,
		})
		return
	}

	if err := s.store.SetLicenseKey(licenseKey); err != nil {
		logger.Error("Failed to persist license key", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.VerifyPremiumStatus(ctx)
}

// StartUpgradePolling begins the bounded confirmation loop after a checkout
// was initiated. At most one loop runs at a time.
func (s *Service) StartUpgradePolling(ctx context.Context) {
	s.pollMu.Lock()
	if s.pollRunning {
		s.pollMu.Unlock()
		return
	}
	s.pollRunning = true
	stop := make(chan struct{})
	s.pollStop = stop
	s.pollMu.Unlock()

	go s.pollForUpgrade(ctx, stop)
}

func (s *Service) pollForUpgrade(ctx context.Context, stop <-chan struct{}) {
	defer func() {
		s.pollMu.Lock()
		s.pollRunning = false
		s.pollMu.Unlock()
	}()

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
		}

		if s.VerifyPremiumStatus(ctx) {
			logger.Info("Upgrade confirmed", map[string]interface{}{
				"attempt": attempt,
			})
			s.clearPendingUpgrade()
			return
		}
	}

	// Exhausted: the cache stays as-is and the user must re-initiate.
	logger.Warn("Upgrade polling exhausted without confirmation", map[string]interface{}{
		"attempts": s.PollAttempts,
	})
	s.clearPendingUpgrade()
}

// StopPolling cancels a running poll loop, if any.
func (s *Service) StopPolling() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if s.pollRunning && s.pollStop != nil {
		close(s.pollStop)
		s.pollStop = nil
	}
}

func (s *Service) clearPendingUpgrade() {
	if err := s.store.ClearPendingUpgrade(); err != nil {
		logger.Error("Failed to clear pending upgrade marker", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
