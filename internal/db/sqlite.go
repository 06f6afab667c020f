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
	"errors"

	_ "modernc.org/sqlite"
)

// Пустой текст поста
var ErrEmptyContent = errors.New("текст поста пуст")

// Запись с таким ID не найдена
var ErrNotFound = errors.New("запись не найдена")

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_journal=WAL&_timeout=5000&_fk=true")
	if err != nil {
		return nil, err
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS scheduled_posts (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		scheduled_time INTEGER NOT NULL,
		media_files TEXT DEFAULT '[]',
		reply_to_post_id TEXT DEFAULT '',
		status TEXT DEFAULT 'pending',
		created_at INTEGER NOT NULL,
		posted_at INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_scheduled_due ON scheduled_posts(status, scheduled_time);

	CREATE TABLE IF NOT EXISTS reply_rules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword TEXT NOT NULL UNIQUE,
		response TEXT NOT NULL,
		enabled BOOLEAN DEFAULT TRUE,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reply_records (
		original_post_id TEXT PRIMARY KEY,
		reply_post_id TEXT NOT NULL,
		replied_at INTEGER NOT NULL
	);
`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}
