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
	"sync"
	"time"

	"go.uber.org/zap"
)

// Максимум медиафайлов на один пост
const maxMediaFiles = 4

// Scheduler - фоновый цикл публикации запланированных постов.
// Раз в интервал забирает из базы посты, чье время наступило,
// и отправляет их через API.
type Scheduler struct {
	db       *db.DB
	client   social.APIClient
	log      *zap.Logger
	interval time.Duration

	mutex   sync.Mutex
	stop    chan struct{}
	running bool
}

func NewScheduler(database *db.DB, client social.APIClient, logger *zap.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		db:       database,
		client:   client,
		log:      logger,
		interval: interval,
	}
}

// Запускает цикл публикации. Повторный запуск ничего не делает.
func (s *Scheduler) Start() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		s.log.Warn("Планировщик уже запущен")
		return
	}

	s.running = true
	s.stop = make(chan struct{})
	go s.loop(s.stop)

	s.log.Info("Планировщик запущен", zap.Duration("interval", s.interval))
}

// Останавливает цикл. Начатая итерация завершается, новые не начинаются.
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	s.running = false
	close(s.stop)

	s.log.Info("Планировщик остановлен")
}

func (s *Scheduler) Running() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

func (s *Scheduler) loop(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.processDue(time.Now())
		}
	}
}

// Публикует все посты, чье время наступило. Ошибка одного поста
// не мешает публикации остальных; цикл не завершается из-за ошибок.
func (s *Scheduler) processDue(now time.Time) {
	due, err := s.db.Due(now)
	if err != nil {
		s.log.Error("Ошибка выборки постов из очереди", zap.Error(err))
		return
	}

	if len(due) == 0 {
		return
	}

	s.log.Info("Готовы к публикации", zap.Int("count", len(due)))

	for i := range due {
		s.submit(&due[i], now)
	}
}

func (s *Scheduler) submit(post *db.ScheduledPost, now time.Time) {
	ctx := context.Background()

	// Сперва загружаем медиафайлы: ошибка загрузки отменяет публикацию
	// только этого поста
	media := post.MediaFiles
	if len(media) > maxMediaFiles {
		media = media[:maxMediaFiles]
	}

	var mediaIDs []string
	for _, path := range media {
		mediaID, err := s.client.UploadMedia(ctx, path)
		if err != nil {
			s.log.Error("Ошибка загрузки медиафайла",
				zap.String("post_id", post.ID),
				zap.String("file", path),
				zap.Error(err),
			)
			s.markFailed(post.ID)
			return
		}
		mediaIDs = append(mediaIDs, mediaID)
	}

	remoteID, err := s.client.CreatePost(ctx, social.Clip(post.Content), mediaIDs, post.ReplyToPostID)
	if err != nil {
		if social.IsRateLimited(err) {
			s.log.Error("Превышен лимит запросов к API", zap.String("post_id", post.ID))
		} else {
			s.log.Error("Ошибка публикации поста",
				zap.String("post_id", post.ID),
				zap.Error(err),
			)
		}
		// Неудавшийся пост не публикуется повторно
		s.markFailed(post.ID)
		return
	}

	if err := s.db.Mark(post.ID, db.StatusPosted, now.Unix()); err != nil {
		s.log.Error("Не удалось обновить статус поста",
			zap.String("post_id", post.ID),
			zap.Error(err),
		)
		return
	}

	s.log.Info("Пост опубликован",
		zap.String("post_id", post.ID),
		zap.String("remote_id", remoteID),
	)
}

func (s *Scheduler) markFailed(id string) {
	if err := s.db.Mark(id, db.StatusFailed, 0); err != nil {
		s.log.Error("Не удалось пометить пост как неудавшийся",
			zap.String("post_id", id),
			zap.Error(err),
		)
	}
}
