package models

import "fmt"

// StoreKeyPrefix namespaces every key this site writes to the local store
const StoreKeyPrefix = "sspl_"

// SettingKey names an independently persisted appearance or configuration value
type SettingKey string

const (
	SettingLogo           SettingKey = "logo"
	SettingCTAText        SettingKey = "cta_text"
	SettingBannerTitle    SettingKey = "banner_title"
	SettingBannerSubtitle SettingKey = "banner_subtitle"
	SettingBannerBg       SettingKey = "banner_bg"
	SettingInfoBanner     SettingKey = "info_banner"
	SettingAdminEmail     SettingKey = "admin_email"
)

// SettingKeys lists every known setting
var SettingKeys = []SettingKey{
	SettingLogo,
	SettingCTAText,
	SettingBannerTitle,
	SettingBannerSubtitle,
	SettingBannerBg,
	SettingInfoBanner,
	SettingAdminEmail,
}

// SettingDefaults holds the value used when a setting was never saved
var SettingDefaults = map[SettingKey]string{
	SettingLogo:           "/static/logo.png",
	SettingCTAText:        "Je m'inscris",
	SettingBannerTitle:    "Prêt à relever le défi ?",
	SettingBannerSubtitle: "Rejoignez l'A.S. Saint-Paul Lille pour la nouvelle saison ! Inscrivez-vous dès maintenant et faites partie de notre équipe.",
	SettingBannerBg:       "",
	SettingInfoBanner:     "Bienvenue à l'A.S. Saint-Paul Lille ! Retrouvez ici les dernières actualités et les événements à venir.",
	SettingAdminEmail:     "admin@example.com",
}

// ParseSettingKey validates a setting name
func ParseSettingKey(value string) (SettingKey, error) {
	for _, key := range SettingKeys {
		if string(key) == value {
			return key, nil
		}
	}
	return "", fmt.Errorf("unknown setting %q", value)
}

// StoreKey returns the local store key holding the setting
func (k SettingKey) StoreKey() string {
	return StoreKeyPrefix + string(k)
}

// Appearance is the public subset of the settings
type Appearance struct {
	Logo             string `json:"logo"`
	CTAText          string `json:"ctaText"`
	BannerTitle      string `json:"bannerTitle"`
	BannerSubtitle   string `json:"bannerSubtitle"`
	BannerBackground string `json:"bannerBg"`
	InfoBanner       string `json:"infoBanner"`
}

// NewAppearance extracts the public settings
func NewAppearance(settings map[SettingKey]string) Appearance {
	return Appearance{
		Logo:             settings[SettingLogo],
		CTAText:          settings[SettingCTAText],
		BannerTitle:      settings[SettingBannerTitle],
		BannerSubtitle:   settings[SettingBannerSubtitle],
		BannerBackground: settings[SettingBannerBg],
		InfoBanner:       settings[SettingInfoBanner],
	}
}

// DefaultNews is shown until the first local save or network refresh
func DefaultNews() []NewsItem {
	return []NewsItem{
		{
			ID:      "welcome",
			Title:   "Bienvenue sur le nouveau site !",
			Content: "Retrouvez ici toutes les informations du club : actualités, calendrier et inscriptions.",
			Date:    "2024-09-01T09:00:00.000Z",
		},
	}
}

// DefaultEvents is shown until the first local save or network refresh
func DefaultEvents() []CalendarEvent {
	return []CalendarEvent{
		{
			ID:          "rentree",
			Title:       "Journée de rentrée sportive",
			Date:        "2024-09-14",
			Description: "Présentation des activités et inscriptions sur place.",
		},
	}
}
