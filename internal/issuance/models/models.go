package models

import (
	"encoding/json"
	"time"

	directory "medcred/internal/directory/models"
)

// CredentialType is the Verified ID credential type name.
type CredentialType string

const (
	MedicalDoctorCredential         CredentialType = "MedicalDoctorCredential"
	FloridaMedicalLicenseCredential CredentialType = "FloridaMedicalLicenseCredential"
	UnitedHealthEmployeeCredential  CredentialType = "UnitedHealthEmployeeCredential"
	AMACredential                   CredentialType = "AMACredential"
	CMSProviderCredential           CredentialType = "CMSProviderCredential"
	SurgicalPrivilegesCredential    CredentialType = "SurgicalPrivilegesCredential"
)

func (t CredentialType) String() string {
	return string(t)
}

// Claims is the flat claims map placed in the issuance payload.
type Claims map[string]string

// Keys returns claim names without values, for logging.
func (c Claims) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Descriptor binds a route suffix to a manifest and credential type.
type Descriptor struct {
	Suffix   string
	Type     CredentialType
	Manifest string
}

// IssueRequest is one call into the requester.
type IssueRequest struct {
	Descriptor Descriptor
	// UserID selects the subject explicitly; empty means the active user.
	UserID directory.UserID
	Client ClientInfo
}

// ClientInfo describes the browser or wallet that started the flow.
type ClientInfo struct {
	Platform  string `json:"platform,omitempty"`
	UserAgent string `json:"-"`
}

// Payload is the body posted to the issuance API.
type Payload struct {
	Authority    string         `json:"authority"`
	Type         CredentialType `json:"type"`
	Manifest     string         `json:"manifest"`
	Callback     Callback       `json:"callback"`
	Registration *Registration  `json:"registration,omitempty"`
	Claims       Claims         `json:"claims"`
}

// Callback tells the issuance service where to report progress.
type Callback struct {
	URL     string            `json:"url"`
	State   string            `json:"state"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Registration carries the display name shown in the wallet.
type Registration struct {
	ClientName string `json:"clientName"`
}

// Response is a successful issuance API reply. Body is returned to the
// caller untouched.
type Response struct {
	Body       []byte
	StatusCode int
	RequestID  string
	State      string
}

// SessionStatus is the lifecycle of an outstanding issuance request.
type SessionStatus string

const (
	StatusPending            SessionStatus = "pending"
	StatusRequestRetrieved   SessionStatus = "request_retrieved"
	StatusIssuanceSuccessful SessionStatus = "issuance_successful"
	StatusIssuanceError      SessionStatus = "issuance_error"
)

// Terminal reports whether no further callbacks are expected.
func (s SessionStatus) Terminal() bool {
	return s == StatusIssuanceSuccessful || s == StatusIssuanceError
}

// ParseSessionStatus maps a callback requestStatus onto a session status.
func ParseSessionStatus(v string) (SessionStatus, bool) {
	switch SessionStatus(v) {
	case StatusPending, StatusRequestRetrieved, StatusIssuanceSuccessful, StatusIssuanceError:
		return SessionStatus(v), true
	}
	return "", false
}

// Session tracks one issuance request between the API call and its callbacks.
type Session struct {
	State     string           `json:"state"`
	RequestID string           `json:"requestId,omitempty"`
	Type      CredentialType   `json:"type"`
	UserID    directory.UserID `json:"userId"`
	Status    SessionStatus    `json:"status"`
	Error     *CallbackError   `json:"error,omitempty"`
	Client    ClientInfo       `json:"client"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Apply transitions the session for an incoming callback. Callbacks arriving
// after a terminal status are ignored and Apply returns false.
func (s *Session) Apply(ev CallbackEvent, now time.Time) bool {
	if s.Status.Terminal() {
		return false
	}
	status, ok := ParseSessionStatus(ev.RequestStatus)
	if !ok {
		return false
	}
	s.Status = status
	if ev.RequestID != "" {
		s.RequestID = ev.RequestID
	}
	if ev.Error != nil {
		s.Error = ev.Error
	}
	s.UpdatedAt = now
	return true
}

// CallbackEvent is a progress notification from the issuance service.
type CallbackEvent struct {
	RequestID     string          `json:"requestId"`
	RequestStatus string          `json:"requestStatus"`
	State         string          `json:"state"`
	Error         *CallbackError  `json:"error,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// CallbackError is the error object attached to failed callbacks.
type CallbackError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
