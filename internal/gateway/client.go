// Package gateway содержит клиент платёжного шлюза Flutterwave: создание
// платёжной страницы и верификацию транзакции по ссылке tx_ref. Шлюз —
// источник истины об успехе оплаты, клиент сам ничего не ретраит: таймаут
// или сетевая ошибка отдаются вызывающему как ErrVerification либо
// ErrLinkCreation, решение о повторе за пользователем.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

// Ошибки клиента. Текст пригоден для показа пользователю.
var (
	ErrLinkCreation = errors.New("payment service temporarily unavailable")
	ErrVerification = errors.New("verification service temporarily unavailable")
)

// requestTimeout — предел на один вызов API шлюза.
const requestTimeout = 30 * time.Second

// Client клиент Flutterwave v3.
type Client struct {
	secretKey  string
	publicKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Flutterwave.
func NewClient(secretKey, publicKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		publicKey:  publicKey,
		apiURL:     "https://api.flutterwave.com/v3",
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// newTxRef генерирует уникальную ссылку платежа. Ссылка не выводится из
// пары пользователь+тариф: случайный суффикс и метка времени позволяют
// повторно покупать один и тот же тариф без коллизий.
func newTxRef(userID int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("premium_bot_%d_%s_%d", userID, suffix, time.Now().Unix())
}

// CreatePaymentLink создаёт платёжную страницу под свежий tx_ref.
func (c *Client) CreatePaymentLink(ctx context.Context, userID int64, plan models.Plan) (*PaymentLink, error) {
	const op = "gateway.CreatePaymentLink"

	txRef := newTxRef(userID)
	payload := createPaymentRequest{
		TxRef:    txRef,
		Amount:   float64(plan.Amount) / 100, // в кобо -> в найрах
		Currency: "NGN",
		Meta: paymentMeta{
			UserID: strconv.FormatInt(userID, 10),
			Plan:   plan.ID,
		},
		Customer: customer{
			Email: fmt.Sprintf("user%d@telegram.bot", userID),
			Name:  fmt.Sprintf("User %d", userID),
		},
		Customizations: customizations{
			Title:       "Premium Channel Access",
			Description: fmt.Sprintf("Payment for %s", plan.Name),
		},
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/payments", payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrLinkCreation, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s: %w: unexpected status %s", op, ErrLinkCreation, resp.Status)
	}

	var paymentResp createPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&paymentResp); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrLinkCreation, err)
	}
	if paymentResp.Status != "success" || paymentResp.Data.Link == "" {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrLinkCreation, paymentResp.Message)
	}

	return &PaymentLink{TxRef: txRef, URL: paymentResp.Data.Link}, nil
}

// VerifyPayment запрашивает у шлюза статус транзакции по tx_ref.
// Любая транспортная ошибка, не-2xx ответ или неуспешный статус API
// отдаются как ErrVerification — хранилище при этом трогать нельзя.
func (c *Client) VerifyPayment(ctx context.Context, txRef string) (*VerificationResult, error) {
	const op = "gateway.VerifyPayment"

	path := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrVerification, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: unexpected status %s", op, ErrVerification, resp.Status)
	}

	var verifyResp verifyPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrVerification, err)
	}
	if verifyResp.Status != "success" {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrVerification, verifyResp.Message)
	}

	switch verifyResp.Data.Status {
	case "successful":
		userID, err := strconv.ParseInt(verifyResp.Data.Meta.UserID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: bad user_id in meta", op, ErrVerification)
		}
		return &VerificationResult{
			Outcome: OutcomeSuccessful,
			PlanID:  verifyResp.Data.Meta.Plan,
			UserID:  userID,
		}, nil
	case "failed", "cancelled":
		return &VerificationResult{Outcome: OutcomeFailed}, nil
	default:
		return &VerificationResult{Outcome: OutcomePending}, nil
	}
}
