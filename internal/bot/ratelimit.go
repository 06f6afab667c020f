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

import "time"

// Счетчик ответов в пределах часового окна. Используется только
// из цикла автоответов, поэтому без блокировок.
type rateWindow struct {
	max         int
	count       int
	windowStart time.Time
	now         func() time.Time
}

func newRateWindow(max int) *rateWindow {
	return &rateWindow{
		max:         max,
		windowStart: time.Now(),
		now:         time.Now,
	}
}

// Разрешает очередной ответ и занимает слот. Когда час истек,
// окно сбрасывается перед проверкой.
func (w *rateWindow) allow() bool {
	now := w.now()
	if now.Sub(w.windowStart) >= time.Hour {
		w.count = 0
		w.windowStart = now
	}

	if w.count >= w.max {
		return false
	}

	w.count++
	return true
}
