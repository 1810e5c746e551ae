// Package client implements outbound adapters for the payment gateway
// and the SMS/WhatsApp messenger. Both fall back to a deterministic
// simulation mode when no API credentials are configured, so the service
// runs end to end without live accounts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/collectwise/emi-assistant-go/internal/domain"
	"github.com/collectwise/emi-assistant-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

var defaultPaymentMethods = []string{"upi", "netbanking", "card", "wallet"}

// GatewayClient talks to the payment gateway's link API.
type GatewayClient struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	linkTTL    time.Duration
}

// NewGatewayClient creates a gateway client. With an empty baseURL or
// keyID the client runs in simulation mode.
func NewGatewayClient(httpClient *http.Client, baseURL, keyID string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, linkTTL time.Duration) *GatewayClient {
	if linkTTL <= 0 {
		linkTTL = 24 * time.Hour
	}
	return &GatewayClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		keyID:      keyID,
		cb:         cb,
		cfg:        cfg,
		linkTTL:    linkTTL,
	}
}

func (c *GatewayClient) simulated() bool {
	return c.baseURL == "" || c.keyID == ""
}

// CreateLink creates a payment link for the given amount.
func (c *GatewayClient) CreateLink(ctx context.Context, customer *domain.CustomerContext, amount float64, paymentID string) (*domain.PaymentLink, error) {
	ctx, span := tracer.Start(ctx, "GatewayClient.CreateLink")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.id", paymentID),
		attribute.Float64("payment.amount", amount),
	)

	if c.simulated() {
		return c.simulateLink(amount, paymentID), nil
	}

	payload := map[string]any{
		"amount":       int64(amount * 100), // paise
		"currency":     "INR",
		"reference_id": paymentID,
		"customer": map[string]any{
			"name":    customer.Name,
			"contact": customer.PhoneNumber,
			"email":   customer.Email,
		},
		"expire_by": time.Now().Add(c.linkTTL).Unix(),
	}

	var link domain.PaymentLink
	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			url := fmt.Sprintf("%s/v1/payment_links", c.baseURL)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.SetBasicAuth(c.keyID, "")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("gateway returned status %d", resp.StatusCode)
			}

			var out struct {
				ID       string `json:"id"`
				ShortURL string `json:"short_url"`
				Status   string `json:"status"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			link = domain.PaymentLink{
				PaymentID:      paymentID,
				ShortURL:       out.ShortURL,
				Amount:         amount,
				Currency:       "INR",
				ExpiresAt:      time.Now().Add(c.linkTTL),
				Status:         out.Status,
				PaymentMethods: defaultPaymentMethods,
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &link, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gateway", Err: err}
	}
	return result.(*domain.PaymentLink), nil
}

func (c *GatewayClient) simulateLink(amount float64, paymentID string) *domain.PaymentLink {
	short := paymentID
	if len(short) > 8 {
		short = short[:8]
	}
	return &domain.PaymentLink{
		PaymentID:      paymentID,
		ShortURL:       fmt.Sprintf("https://rzp.io/l/%s", short),
		Amount:         amount,
		Currency:       "INR",
		ExpiresAt:      time.Now().Add(c.linkTTL),
		Status:         "created",
		PaymentMethods: defaultPaymentMethods,
	}
}

// VerifyPayment fetches the payment's capture state from the gateway.
func (c *GatewayClient) VerifyPayment(ctx context.Context, paymentID string) (*domain.GatewayPayment, error) {
	ctx, span := tracer.Start(ctx, "GatewayClient.VerifyPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	if c.simulated() {
		// Simulated payments always capture via UPI.
		return &domain.GatewayPayment{
			GatewayPaymentID: "plink_" + paymentID,
			Method:           "upi",
			Captured:         true,
		}, nil
	}

	var payment domain.GatewayPayment
	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/v1/payment_links/%s", c.baseURL, paymentID)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			req.SetBasicAuth(c.keyID, "")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return &domain.ErrNotFound{Resource: "payment", ID: paymentID}
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("gateway returned status %d", resp.StatusCode)
			}

			var out struct {
				ID          string `json:"id"`
				Status      string `json:"status"`
				Method      string `json:"method"`
				ErrorReason string `json:"error_reason"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return err
			}
			payment = domain.GatewayPayment{
				GatewayPaymentID: out.ID,
				Method:           out.Method,
				Captured:         out.Status == "paid",
				FailureReason:    out.ErrorReason,
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &payment, nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gateway", Err: err}
	}
	return result.(*domain.GatewayPayment), nil
}
