package claims

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GetResponseField(field string) (any, error)
	Address(wallet string) (string, error)
	PersonalSign(wallet, msg string) (string, error)
	Set(key, value string)
	Get(key string) string
}

// RegisterSteps registers claim request lifecycle steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &claimSteps{tc: tc}

	ctx.Step(`^"([^"]*)" submits a claim request to "([^"]*)" for topic (\d+)$`, steps.submit)
	ctx.Step(`^"([^"]*)" submits a claim request to "([^"]*)" for topic (\d+) signed by "([^"]*)"$`, steps.submitSignedBy)
	ctx.Step(`^"([^"]*)" (approves|rejects) the request$`, steps.review)
	ctx.Step(`^"([^"]*)" signs "(approved|rejected)" but submits "(approved|rejected)"$`, steps.reviewMismatched)
}

type claimSteps struct {
	tc TestContext
}

func (s *claimSteps) submit(ctx context.Context, requester, issuer string, topic int) error {
	return s.submitSignedBy(ctx, requester, issuer, topic, requester)
}

func (s *claimSteps) submitSignedBy(ctx context.Context, requester, issuer string, topic int, signer string) error {
	requesterAddr, err := s.tc.Address(requester)
	if err != nil {
		return err
	}
	issuerAddr, err := s.tc.Address(issuer)
	if err != nil {
		return err
	}
	msg := strings.Join([]string{
		"req:" + requesterAddr,
		"iss:" + issuerAddr,
		"topic:" + strconv.Itoa(topic),
		"t:" + strconv.FormatInt(time.Now().Unix(), 10),
	}, "|")
	sig, err := s.tc.PersonalSign(signer, msg)
	if err != nil {
		return err
	}
	if err := s.tc.POST("/requests", map[string]any{
		"requesterAddress": requesterAddr,
		"issuerAddress":    issuerAddr,
		"claimTopic":       topic,
		"message":          "please attest",
		"document":         map[string]any{"fileId": "file-e2e", "name": "proof.pdf", "contentType": "application/pdf", "size": 1024},
		"signedMessage":    msg,
		"signature":        sig,
	}); err != nil {
		return err
	}
	if v, err := s.tc.GetResponseField("id"); err == nil {
		s.tc.Set("request", fmt.Sprint(v))
	}
	return nil
}

func (s *claimSteps) review(ctx context.Context, issuer, verb string) error {
	decision := "approved"
	if verb == "rejects" {
		decision = "rejected"
	}
	return s.reviewMismatched(ctx, issuer, decision, decision)
}

func (s *claimSteps) reviewMismatched(ctx context.Context, issuer, signed, submitted string) error {
	requestID := s.tc.Get("request")
	if requestID == "" {
		return fmt.Errorf("no claim request has been created in this scenario")
	}
	msg := strings.Join([]string{
		"req:" + requestID,
		"decision:" + signed,
		"t:" + strconv.FormatInt(time.Now().Unix(), 10),
	}, "|")
	sig, err := s.tc.PersonalSign(issuer, msg)
	if err != nil {
		return err
	}
	return s.tc.POST("/requests/"+requestID+"/review", map[string]any{
		"status":              submitted,
		"issuerSignedMessage": msg,
		"issuerSignature":     sig,
		"reviewNote":          "checked",
	})
}
