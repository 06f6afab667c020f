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

package social

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClipShortText(t *testing.T) {
	assert.Equal(t, "привет", Clip("привет"))

	exact := strings.Repeat("a", MaxPostLength)
	assert.Equal(t, exact, Clip(exact))
}

func TestClipLongText(t *testing.T) {
	long := strings.Repeat("a", 300)
	clipped := Clip(long)

	assert.Equal(t, strings.Repeat("a", 277)+"...", clipped)
	assert.Len(t, []rune(clipped), MaxPostLength)
}

func TestClipCountsRunes(t *testing.T) {
	// Кириллица: лимит считается в символах, не в байтах
	long := strings.Repeat("ы", 300)
	clipped := Clip(long)

	assert.Equal(t, strings.Repeat("ы", 277)+"...", clipped)
	assert.Len(t, []rune(clipped), MaxPostLength)
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&APIError{StatusCode: 429, Message: "Too Many Requests"}))
	assert.False(t, IsRateLimited(&APIError{StatusCode: 500, Message: "Internal Server Error"}))
	assert.False(t, IsRateLimited(ErrNotAuthenticated))
	assert.False(t, IsRateLimited(nil))

	// Обернутая ошибка тоже распознается
	wrapped := fmt.Errorf("request failed: %w", &APIError{StatusCode: 429, Message: "limit"})
	assert.True(t, IsRateLimited(wrapped))
}
