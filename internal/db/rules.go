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
	"strings"
	"time"
)

// Добавляет правило автоответа. Повторное добавление того же ключевого
// слова перезаписывает ответ (последняя запись выигрывает).
func (db *DB) AddRule(keyword string, response string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || strings.TrimSpace(response) == "" {
		return ErrEmptyContent
	}

	_, err := db.Exec(`
		INSERT INTO reply_rules (keyword, response, enabled, created_at)
		VALUES (?, ?, TRUE, ?)
		ON CONFLICT(keyword) DO UPDATE SET response = excluded.response, enabled = TRUE
	`, keyword, response, time.Now().Unix())
	return err
}

// Выключает правило по ключевому слову. Возвращает false, если такого правила нет.
func (db *DB) DisableRule(keyword string) (bool, error) {
	result, err := db.Exec(`
		UPDATE reply_rules
		SET enabled = FALSE
		WHERE keyword = ? AND enabled = TRUE
	`, keyword)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// Возвращает включенные правила в порядке их добавления.
func (db *DB) ActiveRules() ([]ReplyRule, error) {
	rows, err := db.Query(`
		SELECT id, keyword, response, enabled, created_at
		FROM reply_rules
		WHERE enabled = TRUE
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []ReplyRule
	for rows.Next() {
		var rule ReplyRule
		err := rows.Scan(
			&rule.ID,
			&rule.Keyword,
			&rule.Response,
			&rule.Enabled,
			&rule.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

func (db *DB) AlreadyReplied(originalPostID string) (bool, error) {
	var cnt int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM reply_records
		WHERE original_post_id = ?
	`, originalPostID).Scan(&cnt)
	if err != nil {
		return false, err
	}

	return cnt > 0, nil
}

// Запоминает отправленный автоответ. На один исходный пост -
// не более одной записи, повторная вставка игнорируется.
func (db *DB) RecordReply(originalPostID string, replyPostID string) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO reply_records (original_post_id, reply_post_id, replied_at)
		VALUES (?, ?, ?)
	`, originalPostID, replyPostID, time.Now().Unix())
	return err
}
