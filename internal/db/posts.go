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

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Добавляет пост в очередь на публикацию. Время в прошлом допустимо -
// такой пост становится доступным для публикации сразу же.
func (db *DB) Enqueue(content string, scheduledTime time.Time, mediaFiles []string, replyToPostID string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	mediaJSON, err := json.Marshal(mediaFiles)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = db.Exec(`
		INSERT INTO scheduled_posts
		(id, content, scheduled_time, media_files, reply_to_post_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, content, scheduledTime.Unix(), string(mediaJSON), replyToPostID, StatusPending, time.Now().Unix())
	if err != nil {
		return "", err
	}

	return id, nil
}

// Возвращает посты, время публикации которых наступило.
// Сначала самые ранние, при равном времени - по ID.
func (db *DB) Due(now time.Time) ([]ScheduledPost, error) {
	rows, err := db.Query(`
		SELECT id, content, scheduled_time, media_files, reply_to_post_id, status, created_at, posted_at
		FROM scheduled_posts
		WHERE status = ? AND scheduled_time <= ?
		ORDER BY scheduled_time ASC, id ASC
	`, StatusPending, now.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

// Переводит пост в указанный статус. Повторный вызов ничего не меняет:
// из терминального статуса выхода нет, posted_at записывается один раз.
func (db *DB) Mark(id string, status string, postedAt int64) error {
	result, err := db.Exec(`
		UPDATE scheduled_posts
		SET status = ?, posted_at = ?
		WHERE id = ? AND status = ?
	`, status, postedAt, id, StatusPending)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		// Либо пост уже в терминальном статусе, либо его не существует
		var cnt int
		err = db.QueryRow(`SELECT COUNT(*) FROM scheduled_posts WHERE id = ?`, id).Scan(&cnt)
		if err != nil {
			return err
		}
		if cnt == 0 {
			return ErrNotFound
		}
	}

	return nil
}

// Отменяет запланированный пост. Возвращает false, если пост
// не существует или уже не в статусе "pending".
func (db *DB) Cancel(id string) (bool, error) {
	result, err := db.Exec(`
		UPDATE scheduled_posts
		SET status = ?
		WHERE id = ? AND status = ?
	`, StatusCancelled, id, StatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (db *DB) GetPost(id string) (*ScheduledPost, error) {
	row := db.QueryRow(`
		SELECT id, content, scheduled_time, media_files, reply_to_post_id, status, created_at, posted_at
		FROM scheduled_posts
		WHERE id = ?
	`, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return post, nil
}

func (db *DB) GetPostsByStatus(status string) ([]ScheduledPost, error) {
	rows, err := db.Query(`
		SELECT id, content, scheduled_time, media_files, reply_to_post_id, status, created_at, posted_at
		FROM scheduled_posts
		WHERE status = ?
		ORDER BY scheduled_time ASC, id ASC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*ScheduledPost, error) {
	var post ScheduledPost
	var mediaJSON string

	err := row.Scan(
		&post.ID,
		&post.Content,
		&post.ScheduledTime,
		&mediaJSON,
		&post.ReplyToPostID,
		&post.Status,
		&post.CreatedAt,
		&post.PostedAt,
	)
	if err != nil {
		return nil, err
	}

	if mediaJSON != "" {
		if err := json.Unmarshal([]byte(mediaJSON), &post.MediaFiles); err != nil {
			return nil, err
		}
	}

	return &post, nil
}

func scanPosts(rows *sql.Rows) ([]ScheduledPost, error) {
	var posts []ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	return posts, rows.Err()
}
