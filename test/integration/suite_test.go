//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
)

// scenario holds state shared across the steps of one scenario.
type scenario struct {
	h            *harness
	client       *http.Client
	response     *http.Response
	responseBody []byte
	quoteID      string
}

func (s *scenario) reset() {
	s.response = nil
	s.responseBody = nil
	s.quoteID = ""
	s.h.provider.down.Store(false)
}

// initializeScenario registers the step definitions against h.
func initializeScenario(h *harness) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		s := &scenario{h: h, client: &http.Client{Timeout: 10 * time.Second}}

		ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
			s.reset()
			return ctx, nil
		})

		ctx.Step(`^the service is running$`, s.theServiceIsRunning)
		ctx.Step(`^user "([^"]*)" signs in with token "([^"]*)"$`, s.userSignsIn)
		ctx.Step(`^the identity provider is down$`, s.theIdentityProviderIsDown)
		ctx.Step(`^I request GET "([^"]*)"$`, s.iRequestGET)
		ctx.Step(`^"([^"]*)" creates a quote "([^"]*)" by "([^"]*)"$`, s.createsAQuote)
		ctx.Step(`^"([^"]*)" updates the quote to "([^"]*)" by "([^"]*)"$`, s.updatesTheQuote)
		ctx.Step(`^"([^"]*)" deletes the quote$`, s.deletesTheQuote)
		ctx.Step(`^"([^"]*)" lists their quotes$`, s.listsTheirQuotes)
		ctx.Step(`^"([^"]*)" sends (\w+) "([^"]*)" with body:$`, s.sendsWithBody)
		ctx.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
		ctx.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)
		ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	}
}

func (s *scenario) theServiceIsRunning() error {
	if err := s.do(http.MethodGet, "/-/live", "", ""); err != nil {
		return err
	}

	if s.response.StatusCode != http.StatusOK {
		return fmt.Errorf("liveness returned %d", s.response.StatusCode)
	}

	return nil
}

func (s *scenario) userSignsIn(user, token string) error {
	s.h.provider.issue(token, subject{ID: user, Email: user + "@example.com"})
	return nil
}

func (s *scenario) theIdentityProviderIsDown() error {
	s.h.provider.down.Store(true)
	return nil
}

func (s *scenario) iRequestGET(path string) error {
	return s.do(http.MethodGet, path, "", "")
}

func (s *scenario) createsAQuote(token, text, author string) error {
	if err := s.do(http.MethodPost, "/quotes", token, quoteBody(text, author)); err != nil {
		return err
	}

	if s.response.StatusCode == http.StatusOK {
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(s.responseBody, &created); err != nil {
			return fmt.Errorf("decoding created quote: %w", err)
		}

		s.quoteID = created.ID
	}

	return nil
}

func (s *scenario) updatesTheQuote(token, text, author string) error {
	if s.quoteID == "" {
		return errors.New("no quote was created in this scenario")
	}

	return s.do(http.MethodPut, "/quotes/"+s.quoteID, token, quoteBody(text, author))
}

func (s *scenario) deletesTheQuote(token string) error {
	if s.quoteID == "" {
		return errors.New("no quote was created in this scenario")
	}

	return s.do(http.MethodDelete, "/quotes/"+s.quoteID, token, "")
}

func (s *scenario) listsTheirQuotes(token string) error {
	return s.do(http.MethodGet, "/quotes/my", token, "")
}

func (s *scenario) sendsWithBody(token, method, path string, body *godog.DocString) error {
	return s.do(method, path, token, body.Content)
}

func (s *scenario) theResponseStatusShouldBe(expected int) error {
	if s.response == nil {
		return errors.New("no response received")
	}

	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expected, s.response.StatusCode, s.responseBody)
	}

	return nil
}

func (s *scenario) theResponseShouldContain(text string) error {
	if !strings.Contains(string(s.responseBody), text) {
		return fmt.Errorf("response body does not contain %q.\nBody: %s", text, s.responseBody)
	}

	return nil
}

func (s *scenario) theResponseFieldShouldBe(field, expected string) error {
	var body map[string]any
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("response is not a JSON object: %w", err)
	}

	if got := fmt.Sprint(body[field]); got != expected {
		return fmt.Errorf("field %q: expected %q, got %q", field, expected, got)
	}

	return nil
}

func (s *scenario) do(method, path, token, body string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.h.api.URL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	s.response = resp

	s.responseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return nil
}

func quoteBody(text, author string) string {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(map[string]string{"text": text, "author": author})

	return buf.String()
}

// TestFeatures runs the godog suite against an in-process API.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario(startHarness(t)),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
