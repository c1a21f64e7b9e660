// Package gateway содержит HTTP клиент внешнего платежного шлюза.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bizforge/grantpay/internal/domain"
)

const RouteConfirm = "/api/v1/confirm"

type confirmRequest struct {
	OrderID        string          `json:"order_id"`
	Amount         decimal.Decimal `json:"amount"`
	TransactionRef string          `json:"transaction_ref"`
}

type confirmResponse struct {
	Accepted bool   `json:"accepted"`
	Method   string `json:"method"`
}

// HTTPClient реализация service.PaymentGateway поверх HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) HTTPClient {
	return HTTPClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// Confirm запрашивает у шлюза подтверждение транзакции. Явный отказ шлюза, - это
// успешный ответ с accepted=false; ошибка возвращается только при транспортных
// проблемах или статусе отличном от http.StatusOK (StatusCodeError).
//
//nolint:nonamedreturns
func (c HTTPClient) Confirm(
	ctx context.Context,
	orderID string,
	amount decimal.Decimal,
	transactionRef string,
) (confirmation *domain.GatewayConfirmation, err error) {
	payload, marshalErr := json.Marshal(confirmRequest{
		OrderID:        orderID,
		Amount:         amount,
		TransactionRef: transactionRef,
	})
	if marshalErr != nil {
		return nil, fmt.Errorf("marshal request: %s", marshalErr.Error())
	}

	url := c.baseURL + RouteConfirm

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %s", reqErr.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("do request: %s", doErr.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	// Статус отличный от http.StatusOK считаем транспортной проблемой шлюза.
	if resp.StatusCode != http.StatusOK {
		err = NewStatusCodeError(resp.StatusCode)
		return nil, err
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		err = fmt.Errorf("read response: %s", readErr.Error())
		return nil, err
	}

	var parsed confirmResponse
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr != nil {
		err = fmt.Errorf("parse response: %s", jsonErr.Error())
		return nil, err
	}

	return &domain.GatewayConfirmation{
		Accepted: parsed.Accepted,
		Method:   parsed.Method,
		Raw:      body,
	}, nil
}
