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

package social

import (
	"context"
	"errors"
	"fmt"
)

// Максимальная длина поста на платформе
const MaxPostLength = 280

// Клиент не авторизован для запрошенной операции
var ErrNotAuthenticated = errors.New("клиент не авторизован")

// Собственный пост аутентифицированного аккаунта
type Post struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// Упоминание аккаунта другим пользователем
type Mention struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	AuthorID       string `json:"author_id"`
	AuthorUsername string `json:"author_username"`
}

// APIClient - клиент социальной сети. Все сетевые вызовы проходят через него.
type APIClient interface {
	// Публикует пост, возвращает его ID
	CreatePost(ctx context.Context, text string, mediaIDs []string, replyToPostID string) (string, error)
	// Загружает файл, возвращает media ID для CreatePost
	UploadMedia(ctx context.Context, path string) (string, error)
	DeletePost(ctx context.Context, postID string) (bool, error)
	GetOwnPosts(ctx context.Context, maxResults int) ([]Post, error)
	// Возвращает упоминания новее sinceID, самые свежие первыми.
	// Пустой sinceID - последние maxResults упоминаний.
	GetMentions(ctx context.Context, maxResults int, sinceID string) ([]Mention, error)
	// Есть ли у клиента доступ на чтение (bearer token или пользовательский токен)
	CanRead() bool
	// Есть ли у клиента доступ на публикацию
	CanWrite() bool
}

// Ошибка, возвращенная API социальной сети
type APIError struct {
	StatusCode int    `json:"status"`
	Message    string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("X API error %d: %s", e.StatusCode, e.Message)
}

// Превышен ли лимит запросов к API
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// Обрезает текст до платформенного лимита: первые 277 символов плюс многоточие
func Clip(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxPostLength {
		return text
	}

	return string(runes[:MaxPostLength-3]) + "..."
}
