package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dvloznov/bank-analyzer/internal/logger"
)

// UserSettings lists the symbols a user wants on the home page.
type UserSettings struct {
	UserCurrencies []string `json:"user_currencies"`
	UserStocks     []string `json:"user_stocks"`
}

// Load reads user_settings.json. A missing file yields empty settings;
// an unreadable or malformed one is an error.
func Load(ctx context.Context, path string) (UserSettings, error) {
	log := logger.FromContext(ctx)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("Settings file not found, using defaults")
		return UserSettings{UserCurrencies: []string{}, UserStocks: []string{}}, nil
	}
	if err != nil {
		return UserSettings{}, fmt.Errorf("settings.Load: read %q: %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return UserSettings{}, fmt.Errorf("settings.Load: %q: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Strs("currencies", s.UserCurrencies).
		Strs("stocks", s.UserStocks).
		Msg("Settings loaded")
	return s, nil
}

// Parse decodes settings JSON, normalizing symbols to trimmed upper case and
// dropping blanks and duplicates.
func Parse(data []byte) (UserSettings, error) {
	var s UserSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return UserSettings{}, fmt.Errorf("decode settings: %w", err)
	}
	s.UserCurrencies = normalizeSymbols(s.UserCurrencies)
	s.UserStocks = normalizeSymbols(s.UserStocks)
	return s, nil
}

func normalizeSymbols(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
