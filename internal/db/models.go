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

package db

// Статусы запланированного поста
const (
	StatusPending   = "pending"
	StatusPosted    = "posted"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Модель запланированного поста
type ScheduledPost struct {
	ID            string   `db:"id"`               // UUID, выдается при создании
	Content       string   `db:"content"`          // Текст поста
	ScheduledTime int64    `db:"scheduled_time"`   // Время публикации (unix timestamp)
	MediaFiles    []string `db:"media_files"`      // Пути к файлам (до 4 штук)
	ReplyToPostID string   `db:"reply_to_post_id"` // ID поста, на который отвечаем
	Status        string   `db:"status"`           // "pending", "posted", "failed", "cancelled"
	CreatedAt     int64    `db:"created_at"`       // Unix timestamp
	PostedAt      int64    `db:"posted_at"`        // Unix timestamp, 0 пока не опубликован
}

// Модель правила автоответа
type ReplyRule struct {
	ID        int64  `db:"id"`
	Keyword   string `db:"keyword"`  // Ключевое слово (без учета регистра)
	Response  string `db:"response"` // Шаблон ответа, {user} - автор упоминания
	Enabled   bool   `db:"enabled"`
	CreatedAt int64  `db:"created_at"`
}

// Запись об отправленном автоответе (защита от повторных ответов)
type ReplyRecord struct {
	OriginalPostID string `db:"original_post_id"`
	ReplyPostID    string `db:"reply_post_id"`
	RepliedAt      int64  `db:"replied_at"`
}
