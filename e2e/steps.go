//go:build e2e

package e2e

import (
	"github.com/cucumber/godog"

	"medcred/e2e/steps/common"
	"medcred/e2e/steps/directory"
	"medcred/e2e/steps/issuance"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	directory.RegisterSteps(ctx, tc)
	issuance.RegisterSteps(ctx, tc)
}
