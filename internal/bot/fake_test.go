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

package bot

import (
	"Unbewohnte/XPOSTbot/internal/bot/social"
	"Unbewohnte/XPOSTbot/internal/db"
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type createCall struct {
	Text     string
	MediaIDs []string
	ReplyTo  string
}

// Поддельный клиент X: записывает вызовы, отдает заранее
// подготовленные страницы упоминаний
type fakeClient struct {
	mu sync.Mutex

	canRead  bool
	canWrite bool

	nextID    int
	creates   []createCall
	createErr error

	uploads    []string
	uploadErrs map[string]error

	mentionPages [][]social.Mention
	sinceIDs     []string
	mentionsErr  error

	ownPosts []social.Post
	deleted  []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		canRead:    true,
		canWrite:   true,
		nextID:     100,
		uploadErrs: map[string]error{},
	}
}

func (f *fakeClient) CreatePost(_ context.Context, text string, mediaIDs []string, replyToPostID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return "", f.createErr
	}

	f.nextID++
	f.creates = append(f.creates, createCall{Text: text, MediaIDs: mediaIDs, ReplyTo: replyToPostID})
	return strconv.Itoa(f.nextID), nil
}

func (f *fakeClient) UploadMedia(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, failed := f.uploadErrs[path]; failed {
		return "", err
	}

	f.uploads = append(f.uploads, path)
	return "media-" + path, nil
}

func (f *fakeClient) DeletePost(_ context.Context, postID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, postID)
	return true, nil
}

func (f *fakeClient) GetOwnPosts(_ context.Context, _ int) ([]social.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.ownPosts, nil
}

func (f *fakeClient) GetMentions(_ context.Context, _ int, sinceID string) ([]social.Mention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mentionsErr != nil {
		return nil, f.mentionsErr
	}

	f.sinceIDs = append(f.sinceIDs, sinceID)

	if len(f.mentionPages) == 0 {
		return nil, nil
	}

	page := f.mentionPages[0]
	f.mentionPages = f.mentionPages[1:]
	return page, nil
}

func (f *fakeClient) CanRead() bool  { return f.canRead }
func (f *fakeClient) CanWrite() bool { return f.canWrite }

func (f *fakeClient) createCalls() []createCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	calls := make([]createCall, len(f.creates))
	copy(calls, f.creates)
	return calls
}

func newTestDatabase(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}
