// Package ghost talks to a Ghost blog: recipes are read through the Content API
// as an import source and shared back through the Admin API.
package ghost

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pantry-planner/internal/config"
	"pantry-planner/internal/recipe"

	"github.com/golang-jwt/jwt/v5"
)

const pageLimit = 50

// Post represents a single recipe post from the Ghost API.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	HTML      string `json:"html"`
	URL       string `json:"url"`
	Status    string `json:"status,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// postsResponse is the top-level structure of the Ghost API response for posts.
type postsResponse struct {
	Posts []Post `json:"posts"`
	Meta  struct {
		Pagination struct {
			Page  int  `json:"page"`
			Pages int  `json:"pages"`
			Next  *int `json:"next"`
		} `json:"pagination"`
	} `json:"meta"`
}

// Client is a Ghost API client (Content & Admin).
type Client struct {
	httpClient *http.Client
	baseURL    string
	contentKey string
	adminKey   string
	now        func() time.Time
}

// NewClient creates a new Ghost API client.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.GhostURL, "/"),
		contentKey: cfg.GhostContentKey,
		adminKey:   cfg.GhostAdminKey,
		now:        time.Now,
	}
}

// FetchPosts fetches every published post from the Content API, following
// pagination. A non-empty tag limits the result to posts with that tag slug.
func (c *Client) FetchPosts(ctx context.Context, tag string) ([]Post, error) {
	var posts []Post
	page := 1
	for {
		q := url.Values{}
		q.Set("key", c.contentKey)
		q.Set("formats", "html")
		q.Set("limit", fmt.Sprint(pageLimit))
		q.Set("page", fmt.Sprint(page))
		if tag != "" {
			q.Set("filter", "tag:"+tag)
		}

		var resp postsResponse
		if err := c.do(ctx, http.MethodGet, "/ghost/api/content/posts/?"+q.Encode(), "", nil, &resp); err != nil {
			return nil, fmt.Errorf("content api: %w", err)
		}
		posts = append(posts, resp.Posts...)

		next := resp.Meta.Pagination.Next
		if next == nil || *next <= page {
			return posts, nil
		}
		page = *next
	}
}

// CreatePost creates a new post using the Admin API.
func (c *Client) CreatePost(ctx context.Context, title, body string, publish bool) (*Post, error) {
	token, err := c.createAdminToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create admin token: %w", err)
	}

	status := "draft"
	if publish {
		status = "published"
	}

	payload := map[string][]map[string]string{
		"posts": {{"title": title, "html": body, "status": status}},
	}

	var resp postsResponse
	if err := c.do(ctx, http.MethodPost, "/ghost/api/admin/posts/?source=html", token, payload, &resp); err != nil {
		return nil, fmt.Errorf("admin api: %w", err)
	}
	if len(resp.Posts) == 0 {
		return nil, fmt.Errorf("no post returned from api")
	}
	return &resp.Posts[0], nil
}

// PublishRecipe shares a recipe as a Ghost post.
func (c *Client) PublishRecipe(ctx context.Context, r recipe.Recipe, publish bool) (*Post, error) {
	return c.CreatePost(ctx, r.Name, RecipeHTML(r), publish)
}

// RecipeHTML renders a recipe as a simple HTML post body.
func RecipeHTML(r recipe.Recipe) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<p><em>%s · serves %d · health %.0f/10</em></p>\n",
		html.EscapeString(string(r.Category)), r.Servings, r.HealthScore)

	sb.WriteString("<h2>Ingredients</h2>\n<ul>\n")
	for _, line := range recipe.SplitLines(r.Ingredients) {
		fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(line))
	}
	sb.WriteString("</ul>\n")

	if steps := recipe.SplitLines(r.Instructions); len(steps) > 0 {
		sb.WriteString("<h2>Instructions</h2>\n<ol>\n")
		for _, step := range steps {
			fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(step))
		}
		sb.WriteString("</ol>\n")
	}

	n := r.Nutrition
	fmt.Fprintf(&sb, "<h2>Nutrition per serving</h2>\n<p>%.0f kcal · %.0fg protein · %.0fg carbs · %.0fg fat</p>\n",
		n.Calories, n.Protein, n.Carbs, n.Fat)

	if len(r.Tags) > 0 {
		fmt.Fprintf(&sb, "<p>Tags: %s</p>\n", html.EscapeString(strings.Join(r.Tags, ", ")))
	}
	return sb.String()
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Version", "v5.0")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Ghost "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp any
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("status %d, body: %v", resp.StatusCode, errResp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// createAdminToken generates a short-lived JWT for the Admin API.
func (c *Client) createAdminToken() (string, error) {
	id, secretHex, ok := strings.Cut(c.adminKey, ":")
	if !ok || id == "" {
		return "", fmt.Errorf("invalid admin key format: expected id:secret")
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"aud": "/admin/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}
