// Package extension implements the background-worker half of the PromptPilot
// entitlement subsystem: installation identity, the local entitlement cache,
// the license service client, cross-context status broadcasting, and the
// freemium policy gate.
package extension

type MessageType string

const (
	// MsgCheckPremiumStatus asks the background service for an immediate
	// re-verification. Fire-and-forget; the fresh value arrives via the
	// broadcast channel, not a reply.
	MsgCheckPremiumStatus MessageType = "CHECK_PREMIUM_STATUS"

	// MsgPremiumStatusUpdated is broadcast to every subscribed context
	// whenever the cached entitlement changes.
	MsgPremiumStatusUpdated MessageType = "PREMIUM_STATUS_UPDATED"

	// MsgStartUpgradePolling starts the bounded post-checkout poll loop.
	MsgStartUpgradePolling MessageType = "START_UPGRADE_POLLING"

	// MsgPaymentSuccess is relayed from the checkout success page and
	// carries the completed session id.
	MsgPaymentSuccess MessageType = "PAYMENT_SUCCESS"

	MsgPaymentCancelled MessageType = "PAYMENT_CANCELLED"
)

type Message struct {
	Type      MessageType `json:"type"`
	IsPremium bool        `json:"isPremium,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
}
