package tripay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/faa999-tech/telebotshop/pkg/httpclient"
)

const (
	EndpointPaymentChannels   = "/merchant/payment-channel"
	EndpointFeeCalculator     = "/merchant/fee-calculator"
	EndpointCreateTransaction = "/transaction/create"
	EndpointTransactionDetail = "/transaction/detail"
)

type Client interface {
	CreateInvoice(ctx context.Context, cmd CreateInvoiceCommand) (*Invoice, error)
	ListChannels(ctx context.Context) ([]Channel, error)
	GetChannelInfo(ctx context.Context, code string) (*Channel, error)
	CalculateFee(ctx context.Context, amount int64, code string) (*FeeQuote, error)
	GetTransactionDetail(ctx context.Context, reference string) (*TransactionDetail, error)
	// VerifySignature checks a callback signature against the raw, unparsed
	// body in constant time. Malformed input simply does not verify.
	VerifySignature(ctx context.Context, signature string, rawBody []byte) bool
}

type client struct {
	client httpclient.HTTPClient
	creds  CredentialsProvider
	config Config
}

func NewClient(cfg Config, creds CredentialsProvider, httpClient httpclient.HTTPClient) Client {
	return &client{config: cfg, creds: creds, client: httpClient}
}

func (c *client) CreateInvoice(ctx context.Context, cmd CreateInvoiceCommand) (*Invoice, error) {
	creds, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}

	merchantRef := fmt.Sprintf("TU%s%d", cmd.UserID, time.Now().Unix())

	payload := createTransactionRequest{
		Method:       cmd.Method,
		MerchantRef:  merchantRef,
		Amount:       cmd.Amount,
		CustomerName: "User " + cmd.UserID,
		OrderItems: []OrderItem{{
			SKU:      "TOPUP",
			Name:     fmt.Sprintf("Top Up Saldo - %d", cmd.Amount),
			Price:    cmd.Amount,
			Quantity: 1,
		}},
		ReturnURL:   c.config.ReturnURL,
		ExpiredTime: time.Now().Add(InvoiceTTL).Unix(),
		Signature:   PayloadSignature(creds.PrivateKey, creds.MerchantCode, merchantRef, cmd.Amount),
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + creds.APIKey,
		"Content-Type":  "application/json",
	}

	resp, err := c.client.Post(ctx, creds.Mode.BaseURL()+EndpointCreateTransaction, &buf, headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var invoice Invoice
	if err := json.Unmarshal(env.Data, &invoice); err != nil {
		return nil, fmt.Errorf("decoding error: %w", err)
	}

	return &invoice, nil
}

func (c *client) ListChannels(ctx context.Context) ([]Channel, error) {
	creds, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}

	env, err := c.signedGet(ctx, creds, EndpointPaymentChannels, nil)
	if err != nil {
		return nil, err
	}

	var channels []Channel
	if err := json.Unmarshal(env.Data, &channels); err != nil {
		return nil, fmt.Errorf("decoding error: %w", err)
	}

	return channels, nil
}

func (c *client) GetChannelInfo(ctx context.Context, code string) (*Channel, error) {
	channels, err := c.ListChannels(ctx)
	if err != nil {
		return nil, err
	}

	for _, channel := range channels {
		if channel.Code == code {
			return &channel, nil
		}
	}

	return nil, ErrNotFound
}

func (c *client) CalculateFee(ctx context.Context, amount int64, code string) (*FeeQuote, error) {
	creds, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("amount", strconv.FormatInt(amount, 10))
	params.Set("code", code)

	env, err := c.signedGet(ctx, creds, EndpointFeeCalculator, params)
	if err != nil {
		return nil, err
	}

	var quotes []FeeQuote
	if err := json.Unmarshal(env.Data, &quotes); err != nil {
		return nil, fmt.Errorf("decoding error: %w", err)
	}

	if len(quotes) == 0 {
		return nil, ErrNotFound
	}

	return &quotes[0], nil
}

func (c *client) GetTransactionDetail(ctx context.Context, reference string) (*TransactionDetail, error) {
	creds, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("reference", reference)

	env, err := c.signedGet(ctx, creds, EndpointTransactionDetail, params)
	if err != nil {
		return nil, err
	}

	var detail TransactionDetail
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		return nil, fmt.Errorf("decoding error: %w", err)
	}

	return &detail, nil
}

func (c *client) VerifySignature(ctx context.Context, signature string, rawBody []byte) bool {
	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return false
	}

	return verifyCallbackSignature(creds.PrivateKey, signature, rawBody)
}

func (c *client) credentials(ctx context.Context) (Credentials, error) {
	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return Credentials{}, err
	}

	if !creds.Complete() {
		return Credentials{}, ErrConfigIncomplete
	}

	return creds, nil
}

func (c *client) signedGet(ctx context.Context, creds Credentials, endpoint string, params url.Values) (*envelope, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + creds.APIKey,
		"X-Signature":   RequestSignature(creds.PrivateKey, http.MethodGet, endpoint, ""),
	}

	resp, err := c.client.Get(ctx, creds.Mode.BaseURL()+endpoint, params, headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp)
}

func decodeEnvelope(resp *http.Response) (*envelope, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding error: %w", err)
	}

	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, env.Message)
	}

	return &env, nil
}
