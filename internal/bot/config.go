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
	"Unbewohnte/XPOSTbot/internal/db"
	"encoding/json"
	"errors"
	"io"
	"os"
)

var CONFIG_PATH string = ""

type TelegramConf struct {
	ApiToken       string  `json:"api_token"`
	Public         bool    `json:"is_public"`
	AllowedUserIDs []int64 `json:"allowed_user_ids"`
}

// Учетные данные X API. Каждое пустое поле добирается из переменной
// окружения с параллельным именем (X_API_KEY, X_API_SECRET, ...).
type XConf struct {
	APIKey            string `json:"api_key"`
	APISecret         string `json:"api_secret"`
	AccessToken       string `json:"access_token"`
	AccessTokenSecret string `json:"access_token_secret"`
	BearerToken       string `json:"bearer_token"`
}

func (x *XConf) FillFromEnv() {
	if x.APIKey == "" {
		x.APIKey = os.Getenv("X_API_KEY")
	}
	if x.APISecret == "" {
		x.APISecret = os.Getenv("X_API_SECRET")
	}
	if x.AccessToken == "" {
		x.AccessToken = os.Getenv("X_ACCESS_TOKEN")
	}
	if x.AccessTokenSecret == "" {
		x.AccessTokenSecret = os.Getenv("X_ACCESS_TOKEN_SECRET")
	}
	if x.BearerToken == "" {
		x.BearerToken = os.Getenv("X_BEARER_TOKEN")
	}
}

type DBConf struct {
	File string `json:"file"`
	db   *db.DB
}

type SchedulerConf struct {
	IntervalSeconds int `json:"interval_seconds"`
}

type AutoReplyConf struct {
	IntervalSeconds   int `json:"interval_seconds"`
	MaxRepliesPerHour int `json:"max_replies_per_hour"`
	MentionBatch      int `json:"mention_batch"`
}

type Config struct {
	Telegram  TelegramConf  `json:"telegram"`
	X         XConf         `json:"x"`
	DB        DBConf        `json:"database"`
	Scheduler SchedulerConf `json:"scheduler"`
	AutoReply AutoReplyConf `json:"autoreply"`
	Debug     bool          `json:"debug"`
}

func (c *Config) OpenDB() (*db.DB, error) {
	var err error
	c.DB.db, err = db.NewDB(c.DB.File)
	if err != nil {
		return nil, err
	}

	return c.DB.db, nil
}

func (c *Config) GetDB() *db.DB {
	return c.DB.db
}

func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConf{
			ApiToken: "tg_token",
			Public:   false,
		},
		X: XConf{
			APIKey:            "api_key",
			APISecret:         "api_secret",
			AccessToken:       "access_token",
			AccessTokenSecret: "access_token_secret",
			BearerToken:       "bearer_token",
		},
		DB: DBConf{
			File: "DB.sqlite3",
		},
		Scheduler: SchedulerConf{
			IntervalSeconds: 60,
		},
		AutoReply: AutoReplyConf{
			IntervalSeconds:   120,
			MaxRepliesPerHour: 10,
			MentionBatch:      10,
		},
		Debug: false,
	}
}

func (conf *Config) Save(filepath string) error {
	file, err := os.OpenFile(filepath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.ModePerm)
	if err != nil {
		return err
	}
	defer file.Close()

	jsonBytes, err := json.MarshalIndent(&conf, "", "\t")
	if err != nil {
		return err
	}

	_, err = file.Write(jsonBytes)

	// Запоминаем, куда сохранили
	CONFIG_PATH = filepath

	return err
}

func ConfigFrom(filepath string) (*Config, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var conf Config
	err = json.Unmarshal(contents, &conf)
	if err != nil {
		return nil, err
	}

	// Недостающие учетные данные X добираем из окружения
	conf.X.FillFromEnv()

	// Запоминаем, откуда взяли
	CONFIG_PATH = filepath

	return &conf, nil
}

// Обновляет конфигурационный файл
func (conf *Config) Update() error {
	if CONFIG_PATH == "" {
		return errors.New("неизвестен путь к конфигурационному файлу")
	}

	return conf.Save(CONFIG_PATH)
}
