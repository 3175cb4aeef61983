package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Level    int    `json:"level"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginResponse struct {
	AuthResponse
	DailyXP        int  `json:"dailyXP"`
	AlreadyClaimed bool `json:"alreadyClaimed"`
}

type Post struct {
	ID            string `json:"id"`
	Content       string `json:"content"`
	LikesCount    int64  `json:"likesCount"`
	CommentsCount int64  `json:"commentsCount"`
	AuthorID      string `json:"authorId"`
}

type FeedPage struct {
	Posts      []Post  `json:"posts"`
	NextCursor *string `json:"nextCursor"`
}

type Idea struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Session is a registered simulated user.
type Session struct {
	User         User
	Password     string
	AccessToken  string
	RefreshToken string
}

// RegisterUser creates a new account with a unique username
func (c *APIClient) RegisterUser(baseName string) (*Session, error) {
	suffix := time.Now().UnixNano() % 100000
	username := fmt.Sprintf("%s_%d", baseName, suffix)
	password := "simpassword123"

	body := map[string]string{
		"name":     baseName,
		"username": username,
		"email":    username + "@sim.local",
		"password": password,
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/register", body, "", http.StatusCreated, &result); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	return &Session{
		User:         result.User,
		Password:     password,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, nil
}

// Login authenticates by username and returns the daily reward outcome
func (c *APIClient) Login(username, password string) (*LoginResponse, error) {
	body := map[string]string{"identifier": username, "password": password}

	var result LoginResponse
	if err := c.do(http.MethodPost, "/auth/login", body, "", http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &result, nil
}

// Refresh rotates a refresh token
func (c *APIClient) Refresh(refreshToken string) (*AuthResponse, error) {
	body := map[string]string{"refreshToken": refreshToken}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/auth/refresh", body, "", http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return &result, nil
}

// RefreshStatus sends a refresh request and returns only the status code
func (c *APIClient) RefreshStatus(refreshToken string) (int, error) {
	resp, err := c.send(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refreshToken}, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// Logout revokes a refresh token
func (c *APIClient) Logout(refreshToken string) error {
	body := map[string]string{"refreshToken": refreshToken}
	return c.do(http.MethodPost, "/auth/logout", body, "", http.StatusOK, nil)
}

// CreatePost publishes a post as the token's user
func (c *APIClient) CreatePost(token, content string) (*Post, error) {
	var post Post
	if err := c.do(http.MethodPost, "/posts", map[string]string{"content": content}, token, http.StatusCreated, &post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// Feed fetches one page of the global feed
func (c *APIClient) Feed(token string, limit int) (*FeedPage, error) {
	var page FeedPage
	path := fmt.Sprintf("/posts?limit=%d", limit)
	if err := c.do(http.MethodGet, path, nil, token, http.StatusOK, &page); err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	return &page, nil
}

// ToggleLike likes or unlikes a post
func (c *APIClient) ToggleLike(token, postID string) error {
	return c.do(http.MethodPost, "/posts/"+postID+"/like", nil, token, http.StatusOK, nil)
}

// Comment adds a comment to a post
func (c *APIClient) Comment(token, postID, content string) error {
	return c.do(http.MethodPost, "/comments/"+postID, map[string]string{"content": content}, token, http.StatusCreated, nil)
}

// Follow follows another user
func (c *APIClient) Follow(token, userID string) error {
	return c.do(http.MethodPost, "/profile/"+userID+"/follow", nil, token, http.StatusOK, nil)
}

// CreateIdea publishes a project idea
func (c *APIClient) CreateIdea(token, title string) (*Idea, error) {
	body := map[string]interface{}{
		"title":       title,
		"description": "Looking for collaborators on " + title,
		"techStacks":  []string{"go", "postgres"},
		"lookingFor":  []string{"frontend"},
	}

	var idea Idea
	if err := c.do(http.MethodPost, "/ideas", body, token, http.StatusCreated, &idea); err != nil {
		return nil, fmt.Errorf("create idea: %w", err)
	}
	return &idea, nil
}

// SendInterest registers interest in an idea
func (c *APIClient) SendInterest(token, ideaID string) error {
	return c.do(http.MethodPost, "/ideas/"+ideaID+"/interest", nil, token, http.StatusCreated, nil)
}

// do sends a request and decodes the response into out when it is non-nil
func (c *APIClient) do(method, path string, body interface{}, token string, wantStatus int, out interface{}) error {
	resp, err := c.send(method, path, body, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s failed (status %d): %s", method, path, resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *APIClient) send(method, path string, body interface{}, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}
