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
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AutoReplier - фоновый цикл автоответов. Опрашивает упоминания аккаунта,
// сверяет их с правилами из базы и отвечает на первое совпавшее
// ключевое слово, не превышая часовой лимит ответов.
type AutoReplier struct {
	db           *db.DB
	client       social.APIClient
	log          *zap.Logger
	interval     time.Duration
	mentionBatch int
	limiter      *rateWindow

	mutex   sync.Mutex
	stop    chan struct{}
	running bool

	// ID последнего увиденного упоминания, двигается вперед при каждой выборке
	lastMentionID string
}

func NewAutoReplier(database *db.DB, client social.APIClient, logger *zap.Logger, interval time.Duration, mentionBatch int, maxRepliesPerHour int) *AutoReplier {
	return &AutoReplier{
		db:           database,
		client:       client,
		log:          logger,
		interval:     interval,
		mentionBatch: mentionBatch,
		limiter:      newRateWindow(maxRepliesPerHour),
	}
}

// Запускает цикл автоответов. Без доступа на чтение упоминаний
// запуск невозможен. Повторный запуск ничего не делает.
func (a *AutoReplier) Start() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.running {
		a.log.Warn("Монитор упоминаний уже запущен")
		return nil
	}

	if a.client == nil || !a.client.CanRead() {
		return social.ErrNotAuthenticated
	}

	a.running = true
	a.stop = make(chan struct{})
	go a.loop(a.stop)

	a.log.Info("Монитор упоминаний запущен", zap.Duration("interval", a.interval))
	return nil
}

func (a *AutoReplier) Stop() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if !a.running {
		return
	}

	a.running = false
	close(a.stop)

	a.log.Info("Монитор упоминаний остановлен")
}

func (a *AutoReplier) Running() bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.running
}

func (a *AutoReplier) loop(stop chan struct{}) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.checkMentions()
		}
	}
}

// Одна итерация монитора: выборка новых упоминаний и ответы на них.
// Любая ошибка лишь логируется, цикл продолжается на следующем интервале.
func (a *AutoReplier) checkMentions() {
	mentions, err := a.client.GetMentions(context.Background(), a.mentionBatch, a.lastMentionID)
	if err != nil {
		if social.IsRateLimited(err) {
			a.log.Error("Превышен лимит запросов к API, ждем следующего интервала")
		} else {
			a.log.Error("Ошибка получения упоминаний", zap.Error(err))
		}
		return
	}

	if len(mentions) == 0 {
		return
	}

	// Сдвигаем курсор до обработки: при сбое посреди итерации
	// та же страница не будет обработана заново
	a.lastMentionID = mentions[0].ID

	a.processMentions(mentions)
}

func (a *AutoReplier) processMentions(mentions []social.Mention) {
	rules, err := a.db.ActiveRules()
	if err != nil {
		a.log.Error("Ошибка чтения правил автоответа", zap.Error(err))
		return
	}

	if len(rules) == 0 {
		return
	}

	for _, mention := range mentions {
		replied, err := a.db.AlreadyReplied(mention.ID)
		if err != nil {
			a.log.Error("Ошибка проверки истории ответов",
				zap.String("mention_id", mention.ID),
				zap.Error(err),
			)
			continue
		}
		if replied {
			continue
		}

		mentionText := strings.ToLower(mention.Text)
		for _, rule := range rules {
			if !strings.Contains(mentionText, strings.ToLower(rule.Keyword)) {
				continue
			}

			if !a.limiter.allow() {
				// Лимит исчерпан - упоминание пропускается, очереди нет
				a.log.Warn("Часовой лимит автоответов исчерпан, пропускаем",
					zap.String("mention_id", mention.ID),
				)
				break
			}

			a.sendReply(mention, rule)
			break
		}
	}
}

func (a *AutoReplier) sendReply(mention social.Mention, rule db.ReplyRule) {
	response := renderResponse(rule.Response, mention)

	replyID, err := a.client.CreatePost(context.Background(), social.Clip(response), nil, mention.ID)
	if err != nil {
		a.log.Error("Ошибка отправки автоответа",
			zap.String("mention_id", mention.ID),
			zap.Error(err),
		)
		return
	}

	if err := a.db.RecordReply(mention.ID, replyID); err != nil {
		a.log.Error("Не удалось записать отправленный ответ",
			zap.String("mention_id", mention.ID),
			zap.Error(err),
		)
	}

	a.log.Info("Автоответ отправлен",
		zap.String("mention_id", mention.ID),
		zap.String("reply_id", replyID),
		zap.String("keyword", rule.Keyword),
	)
}

// Подставляет автора упоминания в шаблон ответа
func renderResponse(template string, mention social.Mention) string {
	author := ""
	if mention.AuthorUsername != "" {
		author = "@" + mention.AuthorUsername
	}

	return strings.TrimSpace(strings.ReplaceAll(template, "{user}", author))
}
