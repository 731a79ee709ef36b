package model

import "sort"

// SettingKey - известный ключ таблицы settings
type SettingKey string

const (
	SettingSiteTitle       SettingKey = "siteTitle"
	SettingHeroHeadline    SettingKey = "heroHeadline"
	SettingHeroSubheadline SettingKey = "heroSubheadline"
	SettingAboutText       SettingKey = "aboutText"
	SettingContactEmail    SettingKey = "contactEmail"
	SettingResumeURL       SettingKey = "resumeUrl"
	SettingGithubURL       SettingKey = "githubUrl"
	SettingLinkedinURL     SettingKey = "linkedinUrl"
	SettingShowMarketNews  SettingKey = "showMarketNews"
)

// settingDefaults - значение по умолчанию для каждого известного ключа.
// Новый ключ добавляется только сюда, маппинг подхватит его сам
var settingDefaults = map[SettingKey]string{
	SettingSiteTitle:       "Portfolio",
	SettingHeroHeadline:    "",
	SettingHeroSubheadline: "",
	SettingAboutText:       "",
	SettingContactEmail:    "",
	SettingResumeURL:       "",
	SettingGithubURL:       "",
	SettingLinkedinURL:     "",
	SettingShowMarketNews:  "true",
}

// Settings - настройки сайта: известный ключ -> строковое значение
type Settings map[SettingKey]string

// SettingRow - строка таблицы settings
type SettingRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// DefaultSettings возвращает настройки со значениями по умолчанию
func DefaultSettings() Settings {
	s := make(Settings, len(settingDefaults))
	for k, v := range settingDefaults {
		s[k] = v
	}
	return s
}

// IsKnownSetting сообщает, известен ли ключ
func IsKnownSetting(key string) bool {
	_, ok := settingDefaults[SettingKey(key)]
	return ok
}

// SettingKeys возвращает известные ключи в алфавитном порядке
func SettingKeys() []SettingKey {
	keys := make([]SettingKey, 0, len(settingDefaults))
	for k := range settingDefaults {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// SettingsFromRows накладывает строки таблицы на значения по умолчанию.
// Возвращает также список неизвестных ключей, которые были пропущены
func SettingsFromRows(rows []SettingRow) (Settings, []string) {
	s := DefaultSettings()
	var unknown []string
	for _, r := range rows {
		if !IsKnownSetting(r.Key) {
			unknown = append(unknown, r.Key)
			continue
		}
		s[SettingKey(r.Key)] = r.Value
	}
	return s, unknown
}
