package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

//go:embed all:locales
var localeFS embed.FS

// Manager wraps a go-i18n bundle over the embedded locale files and caches
// a localizer per language.
type Manager struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	Logger          *zap.Logger
	localizers      map[string]*i18n.Localizer
	availableLangs  map[string]string // code -> display name
}

// NewManager loads every embedded locale and prepares localizers.
// defaultLang is the fallback language code (e.g. "en").
func NewManager(defaultLang string, logger *zap.Logger) (*Manager, error) {
	defaultLanguageTag, err := language.Parse(defaultLang)
	if err != nil {
		logger.Error("Failed to parse default language tag", zap.String("tag", defaultLang), zap.Error(err))
		return nil, fmt.Errorf("invalid default language tag '%s': %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(defaultLanguageTag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	m := &Manager{
		bundle:          bundle,
		defaultLanguage: defaultLanguageTag,
		Logger:          logger.Named("i18n"),
		localizers:      make(map[string]*i18n.Localizer),
		availableLangs:  make(map[string]string),
	}

	if err := m.LoadTranslations(); err != nil {
		return nil, err
	}

	for langCode := range m.availableLangs {
		m.localizers[langCode] = i18n.NewLocalizer(m.bundle, langCode)
	}
	if _, ok := m.localizers[defaultLang]; !ok {
		m.localizers[defaultLang] = i18n.NewLocalizer(m.bundle, defaultLang)
		if _, exists := m.availableLangs[defaultLang]; !exists {
			base, _ := defaultLanguageTag.Base()
			m.availableLangs[defaultLang] = base.String()
			m.Logger.Warn("Default language was not found in locale files, added manually.", zap.String("lang", defaultLang))
		}
	}

	m.Logger.Info("i18n Manager initialized",
		zap.String("default_language", defaultLang),
		zap.Int("loaded_languages", len(m.availableLangs)),
	)
	return m, nil
}

// LoadTranslations reads every locales/active.<code>.toml from the embedded FS.
func (m *Manager) LoadTranslations() error {
	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		m.Logger.Error("Failed to read embedded locales directory", zap.Error(err))
		return fmt.Errorf("failed to read embedded locales directory: %w", err)
	}

	loadedCount := 0
	m.availableLangs = make(map[string]string)
	for _, file := range files {
		fileName := file.Name()
		if file.IsDir() || filepath.Ext(fileName) != ".toml" {
			continue
		}
		if _, err := m.bundle.LoadMessageFileFS(localeFS, "locales/"+fileName); err != nil {
			m.Logger.Warn("Failed to load translation file", zap.String("file", fileName), zap.Error(err))
			continue
		}
		loadedCount++

		// Filenames look like active.en.toml; the language code is the
		// last part before the extension.
		baseName := strings.TrimSuffix(fileName, ".toml")
		parts := strings.Split(baseName, ".")
		langCode := parts[len(parts)-1]

		langDisplayName := langCode
		if tag, parseErr := language.Parse(langCode); parseErr == nil {
			base, _ := tag.Base()
			langDisplayName = base.String()
		} else {
			m.Logger.Warn("Failed to parse language code from filename", zap.String("file", fileName), zap.Error(parseErr))
		}
		m.availableLangs[langCode] = langDisplayName
		m.Logger.Debug("Registered available language", zap.String("code", langCode), zap.String("name", langDisplayName))
	}

	if loadedCount == 0 {
		m.Logger.Error("No *.toml translation files were loaded")
		return errors.New("no valid translation files loaded")
	}

	m.Logger.Info("Finished loading translations", zap.Int("loaded_count", loadedCount), zap.Any("available_languages", m.availableLangs))
	return nil
}

// T translates a message identified by key.
// args can contain:
// - An int: interpreted as PluralCount.
// - Key-value pairs (string, interface{}, ...): interpreted as TemplateData.
// - A pre-built map[string]interface{} of TemplateData.
func (m *Manager) T(lang *string, key string, args ...interface{}) string {
	langCode := m.defaultLanguage.String()
	if lang != nil && *lang != "" {
		langCode = *lang
	}

	localizer, ok := m.localizers[langCode]
	if !ok {
		m.Logger.Warn("No localizer found for language, using default", zap.String("requested_lang", langCode), zap.String("default_lang", m.defaultLanguage.String()))
		localizer = m.localizers[m.defaultLanguage.String()]
		if localizer == nil {
			m.Logger.Error("Default localizer is nil! Returning key.")
			return key
		}
	}

	localizeConfig := &i18n.LocalizeConfig{
		MessageID: key,
	}

	templateData := make(map[string]interface{})
	var pluralCount *int

	i := 0
	for i < len(args) {
		switch v := args[i].(type) {
		case int:
			if pluralCount == nil {
				count := v
				pluralCount = &count
			} else {
				m.Logger.Warn("Multiple int arguments provided to T, only the first is used as PluralCount", zap.String("key", key))
			}
			i++
		case string:
			if i+1 < len(args) {
				templateData[v] = args[i+1]
				i += 2
			} else {
				m.Logger.Warn("Odd number of arguments for TemplateData, skipping last string key", zap.String("key", key), zap.String("lastKey", v))
				i++
			}
		case map[string]interface{}:
			if len(templateData) == 0 {
				templateData = v
			} else {
				m.Logger.Warn("Multiple map arguments provided to T, only the first is used", zap.String("key", key))
			}
			i++
		default:
			m.Logger.Warn("Unsupported argument type in T", zap.String("key", key), zap.Any("type", fmt.Sprintf("%T", args[i])))
			i++
		}
	}

	if len(templateData) > 0 {
		localizeConfig.TemplateData = templateData
	}
	if pluralCount != nil {
		localizeConfig.PluralCount = pluralCount
	}

	localized, err := localizer.Localize(localizeConfig)
	if err != nil {
		if !errors.Is(err, &i18n.MessageNotFoundErr{}) {
			m.Logger.Error("Failed to localize message",
				zap.String("key", key),
				zap.String("lang", langCode),
				zap.Any("templateData", templateData),
				zap.Error(err),
			)
		}
		return key
	}

	return localized
}

// GetAvailableLanguages returns a copy of code -> display name.
func (m *Manager) GetAvailableLanguages() map[string]string {
	langs := make(map[string]string)
	for code, name := range m.availableLangs {
		langs[code] = name
	}
	return langs
}

// GetLanguageName returns the display name for a language code.
func (m *Manager) GetLanguageName(code string) (string, bool) {
	name, ok := m.availableLangs[code]
	return name, ok
}

func (m *Manager) GetDefaultLanguageTag() language.Tag {
	return m.defaultLanguage
}
