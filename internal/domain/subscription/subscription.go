package subscription

// Status is the value stored in hebcal_shabbat_email.email_status.
type Status string

const (
	StatusActive Status = "active"
	StatusBounce Status = "bounce" // Inactive because of bounces
)

// AbuseReason is the bounce reason that qualifies an address regardless of count.
const AbuseReason = "amzn_abuse"

// Subscription represents a row of the subscriptions table.
type Subscription struct {
	EmailAddress string
	Status       Status
}

// Bounce represents a single recorded bounce for an address.
type Bounce struct {
	EmailAddress string
	StdReason    string
	Deactivated  bool
}

// BounceGroup is one (address, reason) group of non-deactivated bounces
// belonging to an active subscription.
type BounceGroup struct {
	EmailAddress string
	StdReason    string
	Count        int
}
