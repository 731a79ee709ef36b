// Пакет dashboard - клиентская часть админки: HTTP-клиент API, кэш списков,
// мутация переупорядочивания и контроллер drag-and-drop
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"PortfolioCMS/internal/model"
)

// ErrUnauthorized возвращается на ответ 401
var ErrUnauthorized = errors.New("unauthorized")

// APIError - любой другой ответ не из 2xx
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Row - строка списка в том виде, в каком её показывает админка
type Row struct {
	ID       string
	Label    string
	Position *int
}

// APIClient - типизированный клиент REST API CMS
type APIClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPIClient создаёт клиент; при httpClient == nil используется клиент с таймаутом 10s
func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken задаёт токен сессии для следующих запросов
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token возвращает текущий токен сессии
func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login получает токен сессии и запоминает его в клиенте
func (c *APIClient) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

// List читает страницу коллекции в порядке отображения
func (c *APIClient) List(ctx context.Context, collection model.Collection, limit, offset int) ([]Row, model.PageMeta, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var page model.Page[map[string]json.RawMessage]
	if err := c.do(ctx, http.MethodGet, "/api/"+string(collection)+"?"+q.Encode(), nil, &page); err != nil {
		return nil, model.PageMeta{}, err
	}
	labelField := collection.Spec().LabelField
	rows := make([]Row, 0, len(page.Items))
	for _, item := range page.Items {
		var row Row
		if err := json.Unmarshal(item["id"], &row.ID); err != nil {
			return nil, model.PageMeta{}, fmt.Errorf("failed to decode row id: %w", err)
		}
		if raw, ok := item["position"]; ok {
			if err := json.Unmarshal(raw, &row.Position); err != nil {
				return nil, model.PageMeta{}, fmt.Errorf("failed to decode row position: %w", err)
			}
		}
		if raw, ok := item[labelField]; ok {
			_ = json.Unmarshal(raw, &row.Label)
		}
		rows = append(rows, row)
	}
	return rows, page.Meta, nil
}

// Reorder отправляет пакет позиций и возвращает сообщение сервера
func (c *APIClient) Reorder(ctx context.Context, collection model.Collection, items []model.PositionUpdate) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/"+string(collection)+"/reorder", model.ReorderRequest{Items: items}, &out)
	return out.Message, err
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
