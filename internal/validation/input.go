package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength            = 3
	MaxUsernameLength            = 30
	MinDisplayNameLength         = 2
	MaxDisplayNameLength         = 100
	MinAuctionTitleLength        = 3
	MaxAuctionTitleLength        = 200
	MinAuctionDescriptionLength  = 10
	MaxAuctionDescriptionLength  = 5000
	MaxBioLength                 = 1000
	MaxLocationLength            = 100
	MaxSkillLength               = 50
	MaxSkillsCount               = 50
	MinBudget                    = 0.0
	MaxBudget                    = 100000000.0 // 100 миллионов
	MinHourlyRate                = 0.0
	MaxHourlyRate                = 100000.0
	MinMessageLength             = 1
	MaxMessageLength             = 5000
	MaxExternalLinkLength        = 500
	MinAuctionDurationHours      = 1
	MaxAuctionDurationHours      = 24 * 30
	MaxSecurityAnswerLength      = 200
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	if !strings.Contains(email, "@") {
		return fmt.Errorf("email должен содержать символ @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	username = strings.TrimSpace(username)

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	if len(username) > 0 && unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidateDisplayName проверяет отображаемое имя.
func ValidateDisplayName(displayName string) error {
	if displayName == "" {
		return fmt.Errorf("отображаемое имя обязательно")
	}

	displayName = strings.TrimSpace(displayName)

	if err := ValidateLength("отображаемое имя", displayName, MinDisplayNameLength, MaxDisplayNameLength); err != nil {
		return err
	}

	displayNameRegex := regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ0-9\s\-_.,!?()]+$`)
	if !displayNameRegex.MatchString(displayName) {
		return fmt.Errorf("отображаемое имя содержит недопустимые символы")
	}

	return nil
}

// ValidateAuctionTitle проверяет заголовок аукциона.
func ValidateAuctionTitle(title string) error {
	if title == "" {
		return fmt.Errorf("заголовок аукциона обязателен")
	}

	title = strings.TrimSpace(title)

	return ValidateLength("заголовок аукциона", title, MinAuctionTitleLength, MaxAuctionTitleLength)
}

// ValidateAuctionDescription проверяет описание аукциона.
func ValidateAuctionDescription(description string) error {
	if description == "" {
		return fmt.Errorf("описание аукциона обязательно")
	}

	description = strings.TrimSpace(description)

	return ValidateLength("описание аукциона", description, MinAuctionDescriptionLength, MaxAuctionDescriptionLength)
}

// ValidateBudget проверяет бюджет аукциона.
func ValidateBudget(budget float64) error {
	if budget <= MinBudget {
		return fmt.Errorf("бюджет должен быть положительным")
	}
	if budget > MaxBudget {
		return fmt.Errorf("бюджет не может превышать %.0f", MaxBudget)
	}
	return nil
}

// ValidateAuctionDuration проверяет длительность аукциона в часах.
func ValidateAuctionDuration(hours int) error {
	if hours < MinAuctionDurationHours {
		return fmt.Errorf("длительность аукциона должна быть не менее %d часа", MinAuctionDurationHours)
	}
	if hours > MaxAuctionDurationHours {
		return fmt.Errorf("длительность аукциона не может превышать %d часов", MaxAuctionDurationHours)
	}
	return nil
}

// ValidateBidAmount проверяет сумму ставки.
// Сумма намеренно не сравнивается с бюджетом аукциона: обратный аукцион
// допускает любые положительные предложения.
func ValidateBidAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("сумма ставки должна быть положительной")
	}
	if amount > MaxBudget {
		return fmt.Errorf("сумма ставки не может превышать %.0f", MaxBudget)
	}
	return nil
}

// ValidateHourlyRate проверяет почасовую ставку.
func ValidateHourlyRate(rate float64) error {
	if rate < MinHourlyRate {
		return fmt.Errorf("почасовая ставка не может быть отрицательной")
	}
	if rate > MaxHourlyRate {
		return fmt.Errorf("почасовая ставка не может превышать %.0f", MaxHourlyRate)
	}
	return nil
}

// ValidateSkills проверяет массив навыков.
func ValidateSkills(skills []string) error {
	if len(skills) > MaxSkillsCount {
		return fmt.Errorf("количество навыков не может превышать %d", MaxSkillsCount)
	}

	seen := make(map[string]bool)
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			return fmt.Errorf("навык не может быть пустым")
		}

		if utf8.RuneCountInString(skill) > MaxSkillLength {
			return fmt.Errorf("навык не может быть длиннее %d символов", MaxSkillLength)
		}

		skillLower := strings.ToLower(skill)
		if seen[skillLower] {
			return fmt.Errorf("навык '%s' указан дважды", skill)
		}
		seen[skillLower] = true
	}

	return nil
}

// ValidateLocation проверяет местоположение.
func ValidateLocation(location *string) error {
	if location != nil && *location != "" {
		loc := strings.TrimSpace(*location)
		if err := ValidateLength("местоположение", loc, 0, MaxLocationLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBio проверяет биографию.
func ValidateBio(bio *string) error {
	if bio != nil && *bio != "" {
		bioStr := strings.TrimSpace(*bio)
		if err := ValidateLength("биография", bioStr, 0, MaxBioLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateExternalLink проверяет внешнюю ссылку (портфолио, аватар, баннер).
func ValidateExternalLink(link *string) error {
	if link != nil && *link != "" {
		linkStr := strings.TrimSpace(*link)

		if err := ValidateLength("внешняя ссылка", linkStr, 0, MaxExternalLinkLength); err != nil {
			return err
		}

		parsedURL, err := url.Parse(linkStr)
		if err != nil {
			return fmt.Errorf("некорректный формат URL")
		}

		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("ссылка должна начинаться с http:// или https://")
		}

		if parsedURL.Host == "" {
			return fmt.Errorf("ссылка должна содержать доменное имя")
		}
	}
	return nil
}

// ValidateMessageContent проверяет содержимое сообщения чата.
func ValidateMessageContent(content string) error {
	if content == "" {
		return fmt.Errorf("сообщение не может быть пустым")
	}

	content = strings.TrimSpace(content)

	return ValidateLength("сообщение", content, MinMessageLength, MaxMessageLength)
}

// ValidateSecurityAnswer проверяет ответ на контрольный вопрос.
func ValidateSecurityAnswer(answer string) error {
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("ответ на контрольный вопрос обязателен")
	}

	return ValidateLength("ответ на контрольный вопрос", answer, 0, MaxSecurityAnswerLength)
}
