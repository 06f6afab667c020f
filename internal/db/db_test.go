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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := NewDB(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func TestEnqueueEmptyContent(t *testing.T) {
	database := newTestDB(t)

	_, err := database.Enqueue("", time.Now(), nil, "")
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = database.Enqueue("   ", time.Now(), nil, "")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestEnqueueAndDue(t *testing.T) {
	database := newTestDB(t)

	now := time.Now()

	// Пост в будущем еще не готов к публикации
	futureID, err := database.Enqueue("позже", now.Add(time.Hour), nil, "")
	require.NoError(t, err)

	due, err := database.Due(now)
	require.NoError(t, err)
	assert.Empty(t, due)

	// Пост с временем в прошлом готов сразу
	pastID, err := database.Enqueue("раньше", now.Add(-time.Second), nil, "")
	require.NoError(t, err)

	due, err = database.Due(now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, pastID, due[0].ID)
	assert.Equal(t, "раньше", due[0].Content)
	assert.Equal(t, StatusPending, due[0].Status)

	// Граница: время публикации равно "сейчас"
	due, err = database.Due(now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, futureID, due[1].ID)
}

func TestDueOrdering(t *testing.T) {
	database := newTestDB(t)

	now := time.Now()

	late, err := database.Enqueue("третий", now.Add(-time.Minute), nil, "")
	require.NoError(t, err)
	early, err := database.Enqueue("первый", now.Add(-time.Hour), nil, "")
	require.NoError(t, err)

	due, err := database.Due(now)
	require.NoError(t, err)
	require.Len(t, due, 2)

	// Сначала самые ранние
	assert.Equal(t, early, due[0].ID)
	assert.Equal(t, late, due[1].ID)

	// При равном времени - по ID
	same := now.Add(-time.Minute)
	a, err := database.Enqueue("одновременный а", same, nil, "")
	require.NoError(t, err)
	b, err := database.Enqueue("одновременный б", same, nil, "")
	require.NoError(t, err)

	due, err = database.Due(now)
	require.NoError(t, err)
	require.Len(t, due, 4)

	first, second := due[1].ID, due[2].ID
	if a < b {
		assert.Equal(t, a, first)
		assert.Equal(t, b, second)
	} else {
		assert.Equal(t, b, first)
		assert.Equal(t, a, second)
	}
}

func TestDueMediaRoundTrip(t *testing.T) {
	database := newTestDB(t)

	now := time.Now()
	id, err := database.Enqueue("с картинками", now.Add(-time.Second), []string{"a.jpg", "b.png"}, "12345")
	require.NoError(t, err)

	due, err := database.Due(now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, id, due[0].ID)
	assert.Equal(t, []string{"a.jpg", "b.png"}, due[0].MediaFiles)
	assert.Equal(t, "12345", due[0].ReplyToPostID)
}

func TestCancel(t *testing.T) {
	database := newTestDB(t)

	now := time.Now()
	id, err := database.Enqueue("отменить", now.Add(-time.Second), nil, "")
	require.NoError(t, err)

	cancelled, err := database.Cancel(id)
	require.NoError(t, err)
	assert.True(t, cancelled)

	// Отмененный пост больше не в очереди
	due, err := database.Due(now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)

	post, err := database.GetPost(id)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, post.Status)

	// Повторная отмена и отмена несуществующего поста возвращают false
	cancelled, err = database.Cancel(id)
	require.NoError(t, err)
	assert.False(t, cancelled)

	cancelled, err = database.Cancel("нет такого")
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestCancelPostedNoop(t *testing.T) {
	database := newTestDB(t)

	id, err := database.Enqueue("опубликован", time.Now(), nil, "")
	require.NoError(t, err)
	require.NoError(t, database.Mark(id, StatusPosted, time.Now().Unix()))

	cancelled, err := database.Cancel(id)
	require.NoError(t, err)
	assert.False(t, cancelled)

	post, err := database.GetPost(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, post.Status)
}

func TestMarkIdempotent(t *testing.T) {
	database := newTestDB(t)

	id, err := database.Enqueue("пометить", time.Now(), nil, "")
	require.NoError(t, err)

	postedAt := time.Now().Unix()
	require.NoError(t, database.Mark(id, StatusPosted, postedAt))

	// Повторная пометка не перезаписывает posted_at
	require.NoError(t, database.Mark(id, StatusPosted, postedAt+100))

	post, err := database.GetPost(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, post.Status)
	assert.Equal(t, postedAt, post.PostedAt)

	// Из терминального статуса выхода нет
	require.NoError(t, database.Mark(id, StatusFailed, 0))
	post, err = database.GetPost(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, post.Status)
}

func TestMarkUnknown(t *testing.T) {
	database := newTestDB(t)

	err := database.Mark("нет такого", StatusPosted, time.Now().Unix())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPostUnknown(t *testing.T) {
	database := newTestDB(t)

	_, err := database.GetPost("нет такого")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRulesLastWriteWins(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, database.AddRule("помощь", "первый ответ"))
	require.NoError(t, database.AddRule("помощь", "второй ответ"))

	rules, err := database.ActiveRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "помощь", rules[0].Keyword)
	assert.Equal(t, "второй ответ", rules[0].Response)
}

func TestRulesEmpty(t *testing.T) {
	database := newTestDB(t)

	assert.ErrorIs(t, database.AddRule("", "ответ"), ErrEmptyContent)
	assert.ErrorIs(t, database.AddRule("слово", " "), ErrEmptyContent)
}

func TestRulesOrder(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, database.AddRule("первый", "а"))
	require.NoError(t, database.AddRule("второй", "б"))
	require.NoError(t, database.AddRule("третий", "в"))

	rules, err := database.ActiveRules()
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "первый", rules[0].Keyword)
	assert.Equal(t, "второй", rules[1].Keyword)
	assert.Equal(t, "третий", rules[2].Keyword)
}

func TestDisableRule(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, database.AddRule("помощь", "ответ"))

	disabled, err := database.DisableRule("помощь")
	require.NoError(t, err)
	assert.True(t, disabled)

	rules, err := database.ActiveRules()
	require.NoError(t, err)
	assert.Empty(t, rules)

	// Повторное выключение возвращает false
	disabled, err = database.DisableRule("помощь")
	require.NoError(t, err)
	assert.False(t, disabled)

	// Повторное добавление включает правило заново
	require.NoError(t, database.AddRule("помощь", "новый ответ"))
	rules, err = database.ActiveRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "новый ответ", rules[0].Response)
}

func TestReplyDedup(t *testing.T) {
	database := newTestDB(t)

	replied, err := database.AlreadyReplied("100")
	require.NoError(t, err)
	assert.False(t, replied)

	require.NoError(t, database.RecordReply("100", "200"))

	replied, err = database.AlreadyReplied("100")
	require.NoError(t, err)
	assert.True(t, replied)

	// Повторная запись игнорируется, первый ответ сохраняется
	require.NoError(t, database.RecordReply("100", "300"))

	var replyID string
	err = database.QueryRow(`SELECT reply_post_id FROM reply_records WHERE original_post_id = ?`, "100").Scan(&replyID)
	require.NoError(t, err)
	assert.Equal(t, "200", replyID)

	var cnt int
	err = database.QueryRow(`SELECT COUNT(*) FROM reply_records`).Scan(&cnt)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)
}
