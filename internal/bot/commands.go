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
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
)

type Command struct {
	Name        string
	Description string
	Example     string
	Group       string
	Call        func(*telego.Message)
}

func (bot *Bot) NewCommand(cmd Command) {
	bot.commands = append(bot.commands, cmd)
}

func (bot *Bot) CommandByName(name string) *Command {
	for i := range bot.commands {
		if bot.commands[i].Name == name {
			return &bot.commands[i]
		}
	}

	return nil
}

func constructCommandHelpMessage(command Command) string {
	commandHelp := ""
	commandHelp += fmt.Sprintf("\n*Команда:* \"/%s\"\n*Описание:* %s\n", command.Name, command.Description)
	if command.Example != "" {
		commandHelp += fmt.Sprintf("*Пример:* `%s`\n", command.Example)
	}

	return commandHelp
}

func (bot *Bot) Help(message *telego.Message) {
	parts := strings.Split(message.Text, " ")
	if len(parts) >= 2 {
		// Ответить лишь по конкретной команде
		command := bot.CommandByName(parts[1])
		if command != nil {
			bot.answerBack(message, constructCommandHelpMessage(*command), false)
			return
		}
	}

	var helpMessage string

	commandsByGroup := make(map[string][]Command)
	for _, command := range bot.commands {
		commandsByGroup[command.Group] = append(commandsByGroup[command.Group], command)
	}

	groups := []string{}
	for g := range commandsByGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, group := range groups {
		helpMessage += fmt.Sprintf("\n\n*[%s]*\n", group)
		for _, command := range commandsByGroup[group] {
			helpMessage += constructCommandHelpMessage(command)
		}
	}

	bot.answerBack(message, helpMessage, false)
}

func (bot *Bot) About(message *telego.Message) {
	bot.answerBack(message, `XPOSTbot - Телеграм бот для публикации постов в X (Twitter) по расписанию и автоматических ответов на упоминания по ключевым словам.

Source: https://github.com/Unbewohnte/XPOSTbot
Лицензия: GPLv3`, false)
}

func (bot *Bot) TogglePublicity(message *telego.Message) {
	if bot.conf.Telegram.Public {
		bot.conf.Telegram.Public = false
		bot.answerBack(message, "Доступ к боту теперь только у избранных.", false)
	} else {
		bot.conf.Telegram.Public = true
		bot.answerBack(message, "Доступ к боту теперь у всех.", false)
	}

	// Обновляем конфигурационный файл
	bot.conf.Update()
}

func (bot *Bot) AddUser(message *telego.Message) {
	parts := strings.Split(strings.TrimSpace(message.Text), " ")
	if len(parts) < 2 {
		bot.sendError(message, "ID пользователя не указан")
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		bot.sendError(message, "Неверный ID пользователя")
		return
	}

	for _, allowedID := range bot.conf.Telegram.AllowedUserIDs {
		if id == allowedID {
			bot.sendError(message, "Этот пользователь уже есть в списке разрешенных.")
			return
		}
	}

	bot.conf.Telegram.AllowedUserIDs = append(bot.conf.Telegram.AllowedUserIDs, id)

	// Сохраним в файл
	bot.conf.Update()

	bot.sendSuccess(message, "Пользователь успешно добавлен!")
}

func (bot *Bot) RemoveUser(message *telego.Message) {
	parts := strings.Split(strings.TrimSpace(message.Text), " ")
	if len(parts) < 2 {
		bot.sendError(message, "ID пользователя не указан")
		return
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		bot.sendError(message, "Неверный ID пользователя")
		return
	}

	tmp := bot.conf.Telegram.AllowedUserIDs
	bot.conf.Telegram.AllowedUserIDs = []int64{}
	for _, allowedID := range tmp {
		if allowedID == id {
			continue
		}

		bot.conf.Telegram.AllowedUserIDs = append(bot.conf.Telegram.AllowedUserIDs, allowedID)
	}

	bot.conf.Update()

	bot.sendSuccess(message, "Пользователь убран из списка разрешенных.")
}

// Опубликовать пост немедленно
func (bot *Bot) PostNow(message *telego.Message) {
	text := commandArgs(message.Text)
	if text == "" {
		bot.sendError(message, "Текст поста не указан")
		return
	}

	if !bot.client.CanWrite() {
		bot.sendError(message, "Публикация отключена: не заданы учетные данные X")
		return
	}

	postID, err := bot.client.CreatePost(context.Background(), social.Clip(text), nil, "")
	if err != nil {
		if social.IsRateLimited(err) {
			bot.sendError(message, "Превышен лимит запросов к X. Подождите и попробуйте снова.")
		} else {
			bot.sendError(message, "Не удалось опубликовать пост: "+err.Error())
		}
		return
	}

	bot.sendSuccess(message, fmt.Sprintf(
		"Пост опубликован!\nhttps://twitter.com/i/web/status/%s", postID,
	))
}

// Запланировать пост: дата | текст | медиафайлы (опционально)
func (bot *Bot) SchedulePost(message *telego.Message) {
	args := commandArgs(message.Text)
	parts := strings.Split(args, "|")
	if len(parts) < 2 {
		bot.sendError(message, "Неверный формат. Используйте: `/schedule ГГГГ-ММ-ДД ЧЧ:ММ | текст | файлы`")
		return
	}

	scheduledTime, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(parts[0]), time.Local)
	if err != nil {
		bot.sendError(message, "Неверная дата. Ожидается формат `ГГГГ-ММ-ДД ЧЧ:ММ`")
		return
	}

	content := strings.TrimSpace(parts[1])

	var mediaFiles []string
	if len(parts) >= 3 {
		for _, path := range strings.Split(parts[2], ",") {
			path = strings.TrimSpace(path)
			if path != "" {
				mediaFiles = append(mediaFiles, path)
			}
		}
		if len(mediaFiles) > maxMediaFiles {
			bot.sendError(message, fmt.Sprintf("Слишком много медиафайлов (максимум %d)", maxMediaFiles))
			return
		}
	}

	id, err := bot.db.Enqueue(content, scheduledTime, mediaFiles, "")
	if err != nil {
		if errors.Is(err, db.ErrEmptyContent) {
			bot.sendError(message, "Текст поста пуст")
		} else {
			bot.sendError(message, "Не удалось запланировать пост: "+err.Error())
		}
		return
	}

	bot.sendSuccess(message, fmt.Sprintf(
		"Пост запланирован на %s\nID: `%s`",
		scheduledTime.Format("02.01.2006 15:04"),
		id,
	))
}

func (bot *Bot) ListScheduled(message *telego.Message) {
	posts, err := bot.db.GetPostsByStatus(db.StatusPending)
	if err != nil {
		bot.sendError(message, "Не удалось получить очередь: "+err.Error())
		return
	}

	if len(posts) == 0 {
		bot.answerBack(message, "Очередь пуста.", false)
		return
	}

	var text string = "*Запланированные посты:*\n"
	for _, post := range posts {
		preview := []rune(post.Content)
		if len(preview) > 50 {
			preview = preview[:50]
		}

		text += fmt.Sprintf(
			"\n`%s`\n⏰ %s (%s)\n📝 %s\n",
			post.ID,
			time.Unix(post.ScheduledTime, 0).Format("02.01.2006 15:04"),
			formatTimeUntil(post.ScheduledTime),
			escapeMarkdown(string(preview)),
		)
	}

	bot.answerBack(message, text, false)
}

func (bot *Bot) CancelScheduled(message *telego.Message) {
	id := commandArgs(message.Text)
	if id == "" {
		bot.sendError(message, "ID поста не указан")
		return
	}

	cancelled, err := bot.db.Cancel(id)
	if err != nil {
		bot.sendError(message, "Не удалось отменить пост: "+err.Error())
		return
	}

	if !cancelled {
		bot.sendError(message, "Пост не найден или уже опубликован/отменен")
		return
	}

	bot.sendSuccess(message, "Пост отменен.")
}

func (bot *Bot) DeletePost(message *telego.Message) {
	id := commandArgs(message.Text)
	if id == "" {
		bot.sendError(message, "ID поста не указан")
		return
	}

	deleted, err := bot.client.DeletePost(context.Background(), id)
	if err != nil {
		bot.sendError(message, "Не удалось удалить пост: "+err.Error())
		return
	}

	if !deleted {
		bot.sendError(message, "X не подтвердил удаление поста")
		return
	}

	bot.sendSuccess(message, "Пост удален из X.")
}

func (bot *Bot) ListOwnPosts(message *telego.Message) {
	posts, err := bot.client.GetOwnPosts(context.Background(), 10)
	if err != nil {
		bot.sendError(message, "Не удалось получить посты: "+err.Error())
		return
	}

	if len(posts) == 0 {
		bot.answerBack(message, "Постов не найдено.", false)
		return
	}

	var text string = "*Последние посты:*\n"
	for _, post := range posts {
		text += fmt.Sprintf(
			"\n`%s`\n%s\nhttps://twitter.com/i/web/status/%s\n",
			post.ID,
			escapeMarkdown(post.Text),
			post.ID,
		)
	}

	bot.answerBack(message, text, false)
}

// Добавить правило автоответа: ключевое слово | ответ
func (bot *Bot) AddRule(message *telego.Message) {
	args := commandArgs(message.Text)
	parts := strings.SplitN(args, "|", 2)
	if len(parts) < 2 {
		bot.sendError(message, "Неверный формат. Используйте: `/addrule слово | ответ`")
		return
	}

	keyword := strings.TrimSpace(parts[0])
	response := strings.TrimSpace(parts[1])

	if err := bot.db.AddRule(keyword, response); err != nil {
		if errors.Is(err, db.ErrEmptyContent) {
			bot.sendError(message, "Ключевое слово и ответ не могут быть пустыми")
		} else {
			bot.sendError(message, "Не удалось добавить правило: "+err.Error())
		}
		return
	}

	bot.sendSuccess(message, fmt.Sprintf("Правило для слова \"%s\" добавлено.", keyword))
}

func (bot *Bot) RemoveRule(message *telego.Message) {
	keyword := commandArgs(message.Text)
	if keyword == "" {
		bot.sendError(message, "Ключевое слово не указано")
		return
	}

	disabled, err := bot.db.DisableRule(keyword)
	if err != nil {
		bot.sendError(message, "Не удалось выключить правило: "+err.Error())
		return
	}

	if !disabled {
		bot.sendError(message, "Правило с таким ключевым словом не найдено")
		return
	}

	bot.sendSuccess(message, "Правило выключено.")
}

func (bot *Bot) ListRules(message *telego.Message) {
	rules, err := bot.db.ActiveRules()
	if err != nil {
		bot.sendError(message, "Не удалось получить правила: "+err.Error())
		return
	}

	if len(rules) == 0 {
		bot.answerBack(message, "Правил автоответа нет.", false)
		return
	}

	var text string = "*Правила автоответа:*\n"
	for _, rule := range rules {
		text += fmt.Sprintf(
			"\n🔑 \"%s\" → %s\n",
			escapeMarkdown(rule.Keyword),
			escapeMarkdown(rule.Response),
		)
	}

	bot.answerBack(message, text, false)
}

func (bot *Bot) StartScheduler(message *telego.Message) {
	bot.scheduler.Start()
	bot.sendSuccess(message, "Публикация запланированных постов запущена.")
}

func (bot *Bot) StopScheduler(message *telego.Message) {
	bot.scheduler.Stop()
	bot.sendSuccess(message, "Публикация запланированных постов остановлена.")
}

func (bot *Bot) StartAutoReply(message *telego.Message) {
	if err := bot.autoreply.Start(); err != nil {
		if errors.Is(err, social.ErrNotAuthenticated) {
			bot.sendError(message, "Для автоответов нужен доступ на чтение (bearer token или токены пользователя)")
		} else {
			bot.sendError(message, "Не удалось запустить монитор: "+err.Error())
		}
		return
	}

	bot.sendSuccess(message, "Монитор упоминаний запущен.")
}

func (bot *Bot) StopAutoReply(message *telego.Message) {
	bot.autoreply.Stop()
	bot.sendSuccess(message, "Монитор упоминаний остановлен.")
}

func (bot *Bot) Status(message *telego.Message) {
	pending, err := bot.db.GetPostsByStatus(db.StatusPending)
	if err != nil {
		bot.sendError(message, "Не удалось получить состояние очереди: "+err.Error())
		return
	}

	text := fmt.Sprintf(
		"*Состояние бота:*\n\n"+
			"📅 Планировщик: %s\n"+
			"🤖 Монитор упоминаний: %s\n"+
			"📬 Постов в очереди: %d\n"+
			"✍️ Публикация: %s",
		runStatus(bot.scheduler.Running()),
		runStatus(bot.autoreply.Running()),
		len(pending),
		writeStatus(bot.client.CanWrite()),
	)

	bot.answerBack(message, text, false)
}

func runStatus(running bool) string {
	if running {
		return "работает"
	}
	return "остановлен"
}

func writeStatus(canWrite bool) string {
	if canWrite {
		return "доступна"
	}
	return "отключена (нет учетных данных)"
}

// Возвращает аргументы команды - текст после первого пробела
func commandArgs(text string) string {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) < 2 {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
