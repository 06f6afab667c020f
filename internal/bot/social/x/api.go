/*
   XPOSTbot - X (Twitter) scheduled posting and auto-reply bot
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package x

import (
	"Unbewohnte/XPOSTbot/internal/bot/social"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dghubble/oauth1"
)

const (
	apiURL    = "https://api.twitter.com/2"
	uploadURL = "https://upload.twitter.com/1.1/media/upload.json"
)

// Учетные данные X API. Подпись OAuth 1.0a выполняет библиотека dghubble/oauth1,
// bearer token используется для чтения через OAuth 2.0.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
	BearerToken       string
}

type Client struct {
	creds Credentials

	// Подписывающий клиент для публикации (OAuth 1.0a user context)
	userHTTP *http.Client
	// Клиент для чтения (bearer token)
	readHTTP *http.Client

	ownIDMutex sync.Mutex
	ownID      string
}

func NewClient(creds Credentials) *Client {
	client := &Client{creds: creds}

	if creds.APIKey != "" && creds.APISecret != "" &&
		creds.AccessToken != "" && creds.AccessTokenSecret != "" {
		config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
		token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
		client.userHTTP = config.Client(oauth1.NoContext, token)
		client.userHTTP.Timeout = 30 * time.Second
	}

	if creds.BearerToken != "" {
		client.readHTTP = &http.Client{Timeout: 30 * time.Second}
	}

	return client
}

func (c *Client) CanWrite() bool {
	return c.userHTTP != nil
}

func (c *Client) CanRead() bool {
	return c.readHTTP != nil || c.userHTTP != nil
}

// Выполняет запрос к API v2 и разбирает ответ в target
func (c *Client) callAPI(ctx context.Context, httpClient *http.Client, method, endpoint string, query url.Values, body any, target any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Клиент без подписи OAuth аутентифицируется bearer токеном
	if httpClient == c.readHTTP {
		req.Header.Set("Authorization", "Bearer "+c.creds.BearerToken)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &social.APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		switch {
		case payload.Detail != "":
			apiErr.Message = payload.Detail
		case payload.Title != "":
			apiErr.Message = payload.Title
		case len(payload.Errors) > 0:
			apiErr.Message = payload.Errors[0].Message
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}

	return apiErr
}

// Клиент для запросов на чтение: bearer token предпочтительнее
func (c *Client) readClient() *http.Client {
	if c.readHTTP != nil {
		return c.readHTTP
	}
	return c.userHTTP
}

func (c *Client) CreatePost(ctx context.Context, text string, mediaIDs []string, replyToPostID string) (string, error) {
	if c.userHTTP == nil {
		return "", social.ErrNotAuthenticated
	}

	request := map[string]any{
		"text": text,
	}
	if len(mediaIDs) > 0 {
		request["media"] = map[string]any{"media_ids": mediaIDs}
	}
	if replyToPostID != "" {
		request["reply"] = map[string]any{"in_reply_to_tweet_id": replyToPostID}
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	err := c.callAPI(ctx, c.userHTTP, "POST", "/tweets", nil, request, &result)
	if err != nil {
		return "", err
	}

	if result.Data.ID == "" {
		return "", &social.APIError{StatusCode: 0, Message: "empty response data"}
	}

	return result.Data.ID, nil
}

func (c *Client) DeletePost(ctx context.Context, postID string) (bool, error) {
	if c.userHTTP == nil {
		return false, social.ErrNotAuthenticated
	}

	var result struct {
		Data struct {
			Deleted bool `json:"deleted"`
		} `json:"data"`
	}
	err := c.callAPI(ctx, c.userHTTP, "DELETE", "/tweets/"+url.PathEscape(postID), nil, nil, &result)
	if err != nil {
		return false, err
	}

	return result.Data.Deleted, nil
}

// Загружает медиафайл через API v1.1 (multipart), возвращает media ID
func (c *Client) UploadMedia(ctx context.Context, path string) (string, error) {
	if c.userHTTP == nil {
		return "", social.ErrNotAuthenticated
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.userHTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeAPIError(resp)
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}

	if result.MediaIDString == "" {
		return "", &social.APIError{StatusCode: 0, Message: "empty media id in response"}
	}

	return result.MediaIDString, nil
}

// Возвращает ID аутентифицированного аккаунта, кэшируя его после первого запроса
func (c *Client) getOwnID(ctx context.Context) (string, error) {
	c.ownIDMutex.Lock()
	defer c.ownIDMutex.Unlock()

	if c.ownID != "" {
		return c.ownID, nil
	}

	var result struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	err := c.callAPI(ctx, c.readClient(), "GET", "/users/me", nil, nil, &result)
	if err != nil {
		return "", err
	}

	c.ownID = result.Data.ID
	return c.ownID, nil
}

func (c *Client) GetOwnPosts(ctx context.Context, maxResults int) ([]social.Post, error) {
	if !c.CanRead() {
		return nil, social.ErrNotAuthenticated
	}

	ownID, err := c.getOwnID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get own user id: %w", err)
	}

	query := url.Values{}
	query.Set("max_results", strconv.Itoa(maxResults))
	query.Set("tweet.fields", "created_at")

	var result struct {
		Data []social.Post `json:"data"`
	}
	err = c.callAPI(ctx, c.readClient(), "GET", "/users/"+ownID+"/tweets", query, nil, &result)
	if err != nil {
		return nil, err
	}

	return result.Data, nil
}

func (c *Client) GetMentions(ctx context.Context, maxResults int, sinceID string) ([]social.Mention, error) {
	if !c.CanRead() {
		return nil, social.ErrNotAuthenticated
	}

	ownID, err := c.getOwnID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get own user id: %w", err)
	}

	query := url.Values{}
	query.Set("max_results", strconv.Itoa(maxResults))
	query.Set("tweet.fields", "author_id")
	query.Set("expansions", "author_id")
	query.Set("user.fields", "username")
	if sinceID != "" {
		query.Set("since_id", sinceID)
	}

	var result struct {
		Data []struct {
			ID       string `json:"id"`
			Text     string `json:"text"`
			AuthorID string `json:"author_id"`
		} `json:"data"`
		Includes struct {
			Users []struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			} `json:"users"`
		} `json:"includes"`
	}
	err = c.callAPI(ctx, c.readClient(), "GET", "/users/"+ownID+"/mentions", query, nil, &result)
	if err != nil {
		return nil, err
	}

	// Сопоставляем авторов с их именами
	usernames := make(map[string]string, len(result.Includes.Users))
	for _, user := range result.Includes.Users {
		usernames[user.ID] = user.Username
	}

	var mentions []social.Mention
	for _, item := range result.Data {
		mentions = append(mentions, social.Mention{
			ID:             item.ID,
			Text:           item.Text,
			AuthorID:       item.AuthorID,
			AuthorUsername: usernames[item.AuthorID],
		})
	}

	return mentions, nil
}
