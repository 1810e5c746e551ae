package client

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// MessengerClient dispatches SMS and WhatsApp messages through the
// messaging provider's API.
type MessengerClient struct {
	httpClient *http.Client
	baseURL    string
	accountSID string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewMessengerClient creates a messenger client. With an empty baseURL
// or accountSID the client runs in simulation mode.
func NewMessengerClient(httpClient *http.Client, baseURL, accountSID string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *MessengerClient {
	return &MessengerClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		accountSID: accountSID,
		cb:         cb,
		cfg:        cfg,
	}
}

func (c *MessengerClient) simulated() bool {
	return c.baseURL == "" || c.accountSID == ""
}

// SendSMS sends a plain SMS to the given phone number.
func (c *MessengerClient) SendSMS(ctx context.Context, phoneNumber, body string) (*domain.MessageReceipt, error) {
	return c.send(ctx, "sms", phoneNumber, body)
}

// SendWhatsApp sends a WhatsApp message to the given phone number.
func (c *MessengerClient) SendWhatsApp(ctx context.Context, phoneNumber, body string) (*domain.MessageReceipt, error) {
	return c.send(ctx, "whatsapp", phoneNumber, body)
}

func (c *MessengerClient) send(ctx context.Context, channel, phoneNumber, body string) (*domain.MessageReceipt, error) {
	ctx, span := tracer.Start(ctx, "MessengerClient.send")
	defer span.End()
	span.SetAttributes(attribute.String("message.channel", channel))

	if c.simulated() {
		return &domain.MessageReceipt{
			MessageID: simulatedMessageID(channel),
			Channel:   channel,
			To:        phoneNumber,
			Body:      body,
			Status:    "sent",
		}, nil
	}

	to := phoneNumber
	if channel == "whatsapp" {
		to = "whatsapp:" + phoneNumber
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("Body", body)

	var receipt domain.MessageReceipt
	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("messenger returned status %d", resp.StatusCode)
			}

			var out struct {
				SID    string `json:"sid"`
				Status string `json:"status"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			receipt = domain.MessageReceipt{
				MessageID: out.SID,
				Channel:   channel,
				To:        phoneNumber,
				Body:      body,
				Status:    out.Status,
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &receipt, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "messenger", Err: err}
	}
	return result.(*domain.MessageReceipt), nil
}

func simulatedMessageID(channel string) string {
	prefix := "SM"
	if channel == "whatsapp" {
		prefix = "WA"
	}
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return prefix + hex.EncodeToString(buf)
}
