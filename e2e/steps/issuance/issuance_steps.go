//go:build e2e

package issuance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

const (
	stateHeader       = "X-Issuance-State"
	callbackKeyHeader = "api-key"
	pollInterval      = 250 * time.Millisecond
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	POSTWithHeaders(path string, body interface{}, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	GetCallbackSecret() string
	GetState() string
	SetState(state string)
	GetLastResponseHeader(name string) string
	GetLastResponseBody() []byte
	GetLastResponseStatus() int
}

// RegisterSteps registers issuance and callback step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &issuanceSteps{tc: tc}

	// Issuance steps
	ctx.Step(`^I request the "([^"]*)" credential$`, steps.requestCredential)
	ctx.Step(`^I request the "([^"]*)" credential for user "([^"]*)"$`, steps.requestCredentialForUser)
	ctx.Step(`^I request the "([^"]*)" credential for user "([^"]*)" via query$`, steps.requestCredentialViaQuery)
	ctx.Step(`^the response should carry an issuance state$`, steps.shouldCarryState)

	// Callback steps
	ctx.Step(`^the wallet reports "([^"]*)" for the issuance$`, steps.sendCallback)
	ctx.Step(`^the wallet reports "([^"]*)" for the issuance with key "([^"]*)"$`, steps.sendCallbackWithKey)

	// Session steps
	ctx.Step(`^I fetch the issuance session$`, steps.fetchSession)
	ctx.Step(`^the issuance session status should be "([^"]*)"$`, steps.sessionStatusShouldBe)
	ctx.Step(`^the issuance session should reach "([^"]*)" within (\d+) seconds$`, steps.sessionShouldReach)
}

type issuanceSteps struct {
	tc TestContext
}

func (s *issuanceSteps) requestCredential(ctx context.Context, credential string) error {
	return s.tc.POSTWithHeaders("/api/issue/"+credential, nil, nil)
}

func (s *issuanceSteps) requestCredentialForUser(ctx context.Context, credential, userID string) error {
	return s.tc.POST("/api/issue/"+credential, map[string]string{"userId": userID})
}

func (s *issuanceSteps) requestCredentialViaQuery(ctx context.Context, credential, userID string) error {
	return s.tc.GET("/api/issue/"+credential+"?userId="+userID, nil)
}

func (s *issuanceSteps) shouldCarryState(ctx context.Context) error {
	state := s.tc.GetLastResponseHeader(stateHeader)
	if state == "" {
		return fmt.Errorf("response has no %s header", stateHeader)
	}
	s.tc.SetState(state)
	return nil
}

func (s *issuanceSteps) sendCallback(ctx context.Context, status string) error {
	return s.sendCallbackWithKey(ctx, status, s.tc.GetCallbackSecret())
}

func (s *issuanceSteps) sendCallbackWithKey(ctx context.Context, status, key string) error {
	if s.tc.GetState() == "" {
		return fmt.Errorf("no issuance state saved; request a credential first")
	}
	body := map[string]string{
		"requestId":     "e2e-request",
		"requestStatus": status,
		"state":         s.tc.GetState(),
	}
	headers := map[string]string{}
	if key != "" {
		headers[callbackKeyHeader] = key
	}
	return s.tc.POSTWithHeaders("/api/callback", body, headers)
}

func (s *issuanceSteps) fetchSession(ctx context.Context) error {
	return s.tc.GET("/api/issuance/"+s.tc.GetState(), nil)
}

func (s *issuanceSteps) sessionStatusShouldBe(ctx context.Context, expected string) error {
	status, err := s.currentStatus()
	if err != nil {
		return err
	}
	if status != expected {
		return fmt.Errorf("expected session status %s but got %s", expected, status)
	}
	return nil
}

// sessionShouldReach polls until the mock issuer's callbacks have landed.
func (s *issuanceSteps) sessionShouldReach(ctx context.Context, expected string, seconds int) error {
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	var last string
	for time.Now().Before(deadline) {
		status, err := s.currentStatus()
		if err == nil && status == expected {
			return nil
		}
		last = status
		time.Sleep(pollInterval)
	}
	return fmt.Errorf("session did not reach %s within %ds (last status %q)", expected, seconds, last)
}

func (s *issuanceSteps) currentStatus() (string, error) {
	if err := s.fetchSession(context.Background()); err != nil {
		return "", err
	}
	if code := s.tc.GetLastResponseStatus(); code != 200 {
		return "", fmt.Errorf("session lookup returned %d", code)
	}
	var session struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &session); err != nil {
		return "", fmt.Errorf("failed to parse session: %w", err)
	}
	return session.Status, nil
}
