package e2e

import (
	"github.com/cucumber/godog"

	"claimbridge/e2e/steps/claims"
	"claimbridge/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Generic requests and assertions
	common.RegisterSteps(ctx, tc)

	// Claim request lifecycle
	claims.RegisterSteps(ctx, tc)
}
