// Package sms реализует клиент HTTP-шлюза для отправки SMS.
// Номера без кода страны нормализуются в индийский формат +91.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	apiURL     string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewClient создаёт новый клиент SMS-шлюза.
func NewClient(apiURL, apiKey, from string) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured сообщает, задан ли шлюз. Без конфигурации отправка
// пропускается, это не ошибка.
func (c *Client) Configured() bool {
	return c.apiURL != "" && c.apiKey != ""
}

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// NormalizeNumber приводит номер к формату с кодом страны.
// Номер без префикса "+" считается индийским.
func NormalizeNumber(to string) string {
	if strings.HasPrefix(to, "+") {
		return to
	}
	if strings.HasPrefix(to, "0") {
		return "+91" + to[1:]
	}
	return "+91" + to
}

// Send отправляет SMS на указанный номер.
func (c *Client) Send(ctx context.Context, to, body string) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(sendRequest{
		From: c.from,
		To:   NormalizeNumber(to),
		Body: body,
	}); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+"/messages", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("unexpected status: " + resp.Status)
	}
	return nil
}
