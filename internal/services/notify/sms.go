package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultSMSBaseURL = "https://api.twilio.com/2010-04-01"

// SMSNotifier delivers messages through a Twilio-compatible REST API.
// Callers treat delivery as best effort; errors are reported, never
// retried here.
type SMSNotifier struct {
	accountID string
	authToken string
	from      string
	baseURL   string
	client    *http.Client
}

func NewSMSNotifier(accountID, authToken, from string) *SMSNotifier {
	return &SMSNotifier{
		accountID: accountID,
		authToken: authToken,
		from:      from,
		baseURL:   defaultSMSBaseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *SMSNotifier) Send(ctx context.Context, phone, message string) error {
	if phone == "" {
		return fmt.Errorf("sms: empty recipient")
	}

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", n.from)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", n.baseURL, n.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.SetBasicAuth(n.accountID, n.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms: provider returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
