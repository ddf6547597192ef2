package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

func getPaystackConfig() (baseURL, secretKey string, err error) {
	baseURL = os.Getenv("PAYSTACK_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	secretKey = os.Getenv("PAYSTACK_SECRET_KEY")
	if secretKey == "" {
		return "", "", fmt.Errorf("PAYSTACK_SECRET_KEY is required")
	}
	return baseURL, secretKey, nil
}

type PaystackCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// PaystackTransaction is the data block of a verify response. Amount is in
// minor currency units.
type PaystackTransaction struct {
	Status    string           `json:"status"`
	Reference string           `json:"reference"`
	Amount    int64            `json:"amount"`
	Currency  string           `json:"currency"`
	PaidAt    *time.Time       `json:"paid_at"`
	Customer  PaystackCustomer `json:"customer"`
}

// PaystackVerification is the decoded outcome of a verify call. OK=false
// means Paystack itself rejected the reference (unknown or malformed); that
// is a definitive answer from the processor, not a transport error.
type PaystackVerification struct {
	OK      bool
	Message string
	Data    PaystackTransaction
}

type paystackEnvelope struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Data    PaystackTransaction `json:"data"`
}

// PaystackClient calls the Paystack transaction API.
type PaystackClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewPaystackClient reads credentials from the environment. Pass nil to use a
// default client with a 30s timeout.
func NewPaystackClient(client *http.Client) (*PaystackClient, error) {
	baseURL, secretKey, err := getPaystackConfig()
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &PaystackClient{baseURL: baseURL, secretKey: secretKey, client: client}, nil
}

// Verify checks a transaction reference. Network failures and unexpected
// status codes return an error; a parseable Paystack rejection (unknown
// reference and the like) returns OK=false instead.
func (c *PaystackClient) Verify(ctx context.Context, reference string) (*PaystackVerification, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("paystack verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack verify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("paystack verify read: %w", err)
	}

	var envelope paystackEnvelope
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("paystack verify decode: %w", err)
		}
		return &PaystackVerification{OK: envelope.Status, Message: envelope.Message, Data: envelope.Data}, nil
	}

	// Paystack answers unknown/malformed references with a 4xx envelope and
	// status=false. That is the processor's verdict, not a transport error.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
			return &PaystackVerification{OK: false, Message: envelope.Message}, nil
		}
	}

	return nil, fmt.Errorf("paystack verify: unexpected status %d", resp.StatusCode)
}
