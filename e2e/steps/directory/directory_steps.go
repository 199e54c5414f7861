//go:build e2e

package directory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

const adminHeader = "X-Admin-Token"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POSTWithHeaders(path string, body interface{}, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetAdminToken() string
	GetLastResponseBody() []byte
	GetLastResponseStatus() int
}

// RegisterSteps registers directory and active-user step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &directorySteps{tc: tc}

	ctx.Step(`^I list the directory users$`, steps.listUsers)
	ctx.Step(`^I switch the active user to "([^"]*)"$`, steps.switchActiveUser)
	ctx.Step(`^I switch the active user to "([^"]*)" with admin token "([^"]*)"$`, steps.switchActiveUserWithToken)
	ctx.Step(`^the active user should be "([^"]*)"$`, steps.activeUserShouldBe)
	ctx.Step(`^the directory should list user "([^"]*)"$`, steps.directoryShouldList)
}

type directorySteps struct {
	tc TestContext
}

type userList struct {
	ActiveUserID string `json:"activeUserId"`
	Users        []struct {
		ID string `json:"id"`
	} `json:"users"`
}

func (s *directorySteps) listUsers(ctx context.Context) error {
	return s.tc.GET("/api/users", nil)
}

func (s *directorySteps) switchActiveUser(ctx context.Context, id string) error {
	return s.switchActiveUserWithToken(ctx, id, s.tc.GetAdminToken())
}

func (s *directorySteps) switchActiveUserWithToken(ctx context.Context, id, token string) error {
	headers := map[string]string{}
	if token != "" {
		headers[adminHeader] = token
	}
	return s.tc.POSTWithHeaders("/api/setUser/"+id, nil, headers)
}

func (s *directorySteps) activeUserShouldBe(ctx context.Context, id string) error {
	list, err := s.fetch()
	if err != nil {
		return err
	}
	if list.ActiveUserID != id {
		return fmt.Errorf("expected active user %s but got %s", id, list.ActiveUserID)
	}
	return nil
}

func (s *directorySteps) directoryShouldList(ctx context.Context, id string) error {
	list, err := s.fetch()
	if err != nil {
		return err
	}
	for _, u := range list.Users {
		if u.ID == id {
			return nil
		}
	}
	return fmt.Errorf("user %s not listed", id)
}

func (s *directorySteps) fetch() (userList, error) {
	var list userList
	if err := s.tc.GET("/api/users", nil); err != nil {
		return list, err
	}
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return list, fmt.Errorf("listing users returned %d", status)
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &list); err != nil {
		return list, fmt.Errorf("failed to parse user list: %w", err)
	}
	return list, nil
}
