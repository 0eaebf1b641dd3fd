package config

type TelegramSecretData struct {
	BotToken string `json:"botToken"`
}
