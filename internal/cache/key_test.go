package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	k1 := DeriveKey("a dragon who lost his fire", "Mina", "en")
	k2 := DeriveKey("a dragon who lost his fire", "Mina", "en")
	assert.Equal(t, k1, k2)
}

func TestDeriveKey_Length(t *testing.T) {
	key := DeriveKey("prompt", "name", "en")
	assert.Len(t, key, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", key)
}

func TestDeriveKey_WhitespaceAndCaseInsensitive(t *testing.T) {
	base := DeriveKey("a dragon who lost his fire", "Mina", "en")

	assert.Equal(t, base, DeriveKey("  A Dragon   who LOST his fire  ", "Mina", "en"),
		"внутренние пробелы и регистр промпта не должны менять ключ")
	assert.Equal(t, base, DeriveKey("a dragon who lost his fire", "  mina ", "en"),
		"регистр и пробелы вокруг имени не должны менять ключ")
	assert.Equal(t, base, DeriveKey("a dragon\twho\nlost his fire", "MINA", "en"),
		"табы и переводы строк эквивалентны пробелам")
}

func TestDeriveKey_DistinguishesInputs(t *testing.T) {
	base := DeriveKey("a dragon who lost his fire", "Mina", "en")

	assert.NotEqual(t, base, DeriveKey("a dragon who found his fire", "Mina", "en"))
	assert.NotEqual(t, base, DeriveKey("a dragon who lost his fire", "Luca", "en"))
	assert.NotEqual(t, base, DeriveKey("a dragon who lost his fire", "Mina", "fr"))
}

func TestDeriveKey_DelimiterPreventsCollisions(t *testing.T) {
	// Конкатенация без разделителя дала бы одинаковый ключ для этих пар.
	k1 := DeriveKey("ab", "c", "en")
	k2 := DeriveKey("a", "bc", "en")
	assert.NotEqual(t, k1, k2)
}
