package audit

import (
	"time"

	"github.com/mssola/useragent"
)

// Event records a verification or lifecycle action against a credential.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	SubjectID string    `json:"subject_id"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Verifier  string    `json:"verifier,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Browser   string    `json:"browser,omitempty"`
	OS        string    `json:"os,omitempty"`
	Mobile    bool      `json:"mobile,omitempty"`
}

const (
	ActionVerified      = "degree_verified"
	ActionIssued        = "degree_issued"
	ActionRevoked       = "degree_revoked"
	ActionTxSponsored   = "transaction_sponsored"
	ActionSponsorDenied = "sponsorship_denied"
)

// EnrichUserAgent fills the client fields from a raw User-Agent header.
func (e *Event) EnrichUserAgent(rawUA string) {
	if rawUA == "" {
		return
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name != "" {
		e.Browser = name
		if version != "" {
			e.Browser = name + " " + version
		}
	}
	e.OS = ua.OS()
	e.Mobile = ua.Mobile()
}
