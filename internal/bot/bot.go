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
	"Unbewohnte/XPOSTbot/internal/bot/social/x"
	"Unbewohnte/XPOSTbot/internal/db"
	"context"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	"go.uber.org/zap"
)

type Bot struct {
	api       *telego.Bot
	conf      *Config
	log       *zap.Logger
	commands  []Command
	db        *db.DB
	client    social.APIClient
	scheduler *Scheduler
	autoreply *AutoReplier
}

func NewBot(config *Config, logger *zap.Logger) (*Bot, error) {
	api, err := telego.NewBot(config.Telegram.ApiToken)
	if err != nil {
		return nil, err
	}

	// Инициализируем клиент X
	client := x.NewClient(x.Credentials{
		APIKey:            config.X.APIKey,
		APISecret:         config.X.APISecret,
		AccessToken:       config.X.AccessToken,
		AccessTokenSecret: config.X.AccessTokenSecret,
		BearerToken:       config.X.BearerToken,
	})

	if !client.CanWrite() {
		logger.Warn("Учетные данные X неполны: публикация постов отключена")
	}

	return &Bot{
		api:    api,
		conf:   config,
		log:    logger,
		client: client,
	}, nil
}

func (bot *Bot) Init() {
	database, err := bot.conf.OpenDB()
	if err != nil {
		bot.log.Fatal("Не удалось открыть базу данных", zap.Error(err))
	}
	bot.db = database

	bot.scheduler = NewScheduler(
		bot.db,
		bot.client,
		bot.log,
		time.Duration(bot.conf.Scheduler.IntervalSeconds)*time.Second,
	)
	bot.autoreply = NewAutoReplier(
		bot.db,
		bot.client,
		bot.log,
		time.Duration(bot.conf.AutoReply.IntervalSeconds)*time.Second,
		bot.conf.AutoReply.MentionBatch,
		bot.conf.AutoReply.MaxRepliesPerHour,
	)

	bot.NewCommand(Command{
		Name:        "help",
		Description: "Напечатать вспомогательное сообщение",
		Group:       "Общее",
		Call:        bot.Help,
	})

	bot.NewCommand(Command{
		Name:        "about",
		Description: "Напечатать информацию о боте",
		Group:       "Общее",
		Call:        bot.About,
	})

	bot.NewCommand(Command{
		Name:        "togglepublic",
		Description: "Включить или выключить публичный/приватный доступ к боту",
		Group:       "Телеграм",
		Call:        bot.TogglePublicity,
	})

	bot.NewCommand(Command{
		Name:        "adduser",
		Description: "Добавить доступ к боту определенному пользователю по ID (напишите боту @userinfobot для получения своего ID)",
		Example:     "/adduser 5293210034",
		Group:       "Телеграм",
		Call:        bot.AddUser,
	})

	bot.NewCommand(Command{
		Name:        "rmuser",
		Description: "Убрать доступ к боту определенному пользователю по ID",
		Example:     "/rmuser 5293210034",
		Group:       "Телеграм",
		Call:        bot.RemoveUser,
	})

	bot.NewCommand(Command{
		Name:        "post",
		Description: "Опубликовать пост в X прямо сейчас",
		Example:     "/post Всем привет!",
		Group:       "Посты",
		Call:        bot.PostNow,
	})

	bot.NewCommand(Command{
		Name:        "schedule",
		Description: "Запланировать пост (дата | текст | медиафайлы через запятую, опционально)",
		Example:     "/schedule 2025-08-30 15:00 | Всем привет! | photo.jpg",
		Group:       "Посты",
		Call:        bot.SchedulePost,
	})

	bot.NewCommand(Command{
		Name:        "scheduled",
		Description: "Показать очередь запланированных постов",
		Group:       "Посты",
		Call:        bot.ListScheduled,
	})

	bot.NewCommand(Command{
		Name:        "cancel",
		Description: "Отменить запланированный пост по ID",
		Example:     "/cancel 550e8400-e29b-41d4-a716-446655440000",
		Group:       "Посты",
		Call:        bot.CancelScheduled,
	})

	bot.NewCommand(Command{
		Name:        "delete",
		Description: "Удалить опубликованный пост из X по его ID",
		Example:     "/delete 1234567890",
		Group:       "Посты",
		Call:        bot.DeletePost,
	})

	bot.NewCommand(Command{
		Name:        "posts",
		Description: "Показать последние посты аккаунта",
		Group:       "Посты",
		Call:        bot.ListOwnPosts,
	})

	bot.NewCommand(Command{
		Name:        "addrule",
		Description: "Добавить правило автоответа (ключевое слово | ответ, {user} - автор упоминания)",
		Example:     "/addrule помощь | {user}, напишите нам на support@example.com",
		Group:       "Автоответы",
		Call:        bot.AddRule,
	})

	bot.NewCommand(Command{
		Name:        "rmrule",
		Description: "Выключить правило автоответа по ключевому слову",
		Example:     "/rmrule помощь",
		Group:       "Автоответы",
		Call:        bot.RemoveRule,
	})

	bot.NewCommand(Command{
		Name:        "rules",
		Description: "Показать включенные правила автоответа",
		Group:       "Автоответы",
		Call:        bot.ListRules,
	})

	bot.NewCommand(Command{
		Name:        "startsched",
		Description: "Запустить публикацию запланированных постов",
		Group:       "Циклы",
		Call:        bot.StartScheduler,
	})

	bot.NewCommand(Command{
		Name:        "stopsched",
		Description: "Остановить публикацию запланированных постов",
		Group:       "Циклы",
		Call:        bot.StopScheduler,
	})

	bot.NewCommand(Command{
		Name:        "startreply",
		Description: "Запустить монитор упоминаний и автоответы",
		Group:       "Циклы",
		Call:        bot.StartAutoReply,
	})

	bot.NewCommand(Command{
		Name:        "stopreply",
		Description: "Остановить монитор упоминаний",
		Group:       "Циклы",
		Call:        bot.StopAutoReply,
	})

	bot.NewCommand(Command{
		Name:        "status",
		Description: "Показать состояние циклов и очереди",
		Group:       "Циклы",
		Call:        bot.Status,
	})
}

func (bot *Bot) Start() error {
	bot.Init()

	me, err := bot.api.GetMe(context.Background())
	if err != nil {
		return err
	}
	bot.log.Info("Бот авторизован", zap.String("username", me.Username))

	startTime := time.Now()

	updates, err := bot.api.UpdatesViaLongPolling(context.Background(), nil)
	if err != nil {
		return err
	}

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go func(message *telego.Message) {
			// Пропускаем сообщения, пришедшие до старта бота
			if time.Unix(message.Date, 0).Before(startTime) {
				return
			}

			// Проверка на возможность дальнейшего общения с данным пользователем
			if !bot.conf.Telegram.Public {
				var allowed bool = false
				if message.From != nil {
					for _, allowedID := range bot.conf.Telegram.AllowedUserIDs {
						if message.From.ID == allowedID {
							allowed = true
							break
						}
					}
				}

				if !allowed {
					// Не пропускаем дальше
					bot.answerBack(message, "Вам не разрешено пользоваться этим ботом!", true)

					if bot.conf.Debug && message.From != nil {
						bot.log.Debug("Не допустили к общению пользователя",
							zap.Int64("user_id", message.From.ID),
						)
					}

					return
				}
			}

			if message.From != nil {
				bot.log.Info("Сообщение",
					zap.String("from", message.From.Username),
					zap.String("text", message.Text),
				)
			}

			// Обработать команды
			message.Text = strings.TrimSpace(message.Text)
			commandWord, _, _ := strings.Cut(strings.ToLower(message.Text), " ")
			for _, command := range bot.commands {
				if commandWord == "/"+command.Name {
					go command.Call(message)
					return // Дальше не продолжаем
				}
			}

			// Неверно введенная команда
			bot.sendCommandSuggestions(message, strings.ToLower(message.Text))
		}(update.Message)
	}

	return nil
}
