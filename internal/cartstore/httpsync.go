package cartstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSyncer talks to the storefront API with the signed-in shopper's access
// token. Every push ships the full list; the server replaces its copy.
type HTTPSyncer struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPSyncer(baseURL, token string) *HTTPSyncer {
	return &HTTPSyncer{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPSyncer) PushCart(ctx context.Context, items []CartItem) error {
	if items == nil {
		items = []CartItem{}
	}
	return h.do(ctx, http.MethodPost, "/user/cart", map[string]interface{}{"items": items}, nil)
}

func (h *HTTPSyncer) PullCart(ctx context.Context) ([]CartItem, error) {
	var resp struct {
		Items []CartItem `json:"items"`
	}
	if err := h.do(ctx, http.MethodGet, "/user/cart", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (h *HTTPSyncer) PushFavorites(ctx context.Context, favorites []Product) error {
	ids := make([]string, 0, len(favorites))
	for _, p := range favorites {
		ids = append(ids, p.ID)
	}
	return h.do(ctx, http.MethodPut, "/user/wishlist", map[string]interface{}{"productIds": ids}, nil)
}

func (h *HTTPSyncer) PushReelLike(ctx context.Context, reelID string, liked bool) error {
	return h.do(ctx, http.MethodPost, "/reels/"+reelID+"/like", map[string]interface{}{"liked": liked}, nil)
}

func (h *HTTPSyncer) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+h.Token)

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
