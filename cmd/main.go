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

package main

import (
	"Unbewohnte/XPOSTbot/internal/bot"
	"fmt"
	"os"

	"go.uber.org/zap"
)

const CONFIG_NAME string = "config.json"
const LOG_NAME string = "logs.txt"

// Пишем и в файл, и в стандартный вывод
func newLogger(debug bool) (*zap.Logger, error) {
	conf := zap.NewProductionConfig()
	conf.OutputPaths = []string{"stdout", LOG_NAME}
	conf.ErrorOutputPaths = []string{"stderr", LOG_NAME}
	if debug {
		conf.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return conf.Build()
}

func main() {
	conf, err := bot.ConfigFrom(CONFIG_NAME)
	if err != nil {
		fmt.Println("Не удалось открыть конфигурационный файл: " + err.Error() + ". Создаем новый...")
		conf = bot.DefaultConfig()
		if err = conf.Save(CONFIG_NAME); err != nil {
			fmt.Println("Не получилось создать новый конфигурационный файл: " + err.Error())
			os.Exit(1)
		}
		fmt.Println("Создан " + CONFIG_NAME + ". Заполните его и запустите бота заново.")
		os.Exit(0)
	}

	logger, err := newLogger(conf.Debug)
	if err != nil {
		fmt.Println("Не удалось создать логгер: " + err.Error())
		os.Exit(1)
	}
	defer logger.Sync()

	xbot, err := bot.NewBot(conf, logger)
	if err != nil {
		logger.Fatal("Не удалось создать бота", zap.Error(err))
	}

	if err := xbot.Start(); err != nil {
		logger.Fatal("Бот завершился с ошибкой", zap.Error(err))
	}
}
