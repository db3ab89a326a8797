package useragent

import (
	"strings"
	"sync"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Parser классифицирует User-Agent кликов по партнерским ссылкам.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

var (
	globalParser *Parser
	once         sync.Once
)

// NewParser creates a parser backed by uap-go's bundled regex set.
func NewParser(log *zap.Logger) *Parser {
	return &Parser{
		parser: uaparser.NewFromSaved(),
		log:    log,
	}
}

// InitGlobalParser initializes the singleton used by the click tracker.
func InitGlobalParser(log *zap.Logger) {
	once.Do(func() {
		globalParser = NewParser(log)
	})
}

// DeviceType classifies a User-Agent into desktop/mobile/tablet/bot.
// Falls back to keyword matching when the global parser is not
// initialized (tests, early startup).
func DeviceType(userAgent string) string {
	if userAgent == "" {
		return "unknown"
	}
	if globalParser == nil {
		return keywordDeviceType(userAgent)
	}
	return globalParser.DeviceType(userAgent)
}

// DeviceType classifies a User-Agent using the uap-go definitions.
func (p *Parser) DeviceType(userAgent string) string {
	client := p.parser.Parse(userAgent)

	family := strings.ToLower(client.Device.Family)
	if strings.Contains(family, "spider") || strings.Contains(family, "bot") {
		return "bot"
	}

	switch strings.ToLower(client.Os.Family) {
	case "ios":
		if strings.Contains(strings.ToLower(userAgent), "ipad") {
			return "tablet"
		}
		return "mobile"
	case "android":
		// Android планшеты не содержат "Mobile" в User-Agent
		if !strings.Contains(userAgent, "Mobile") {
			return "tablet"
		}
		return "mobile"
	case "windows", "mac os x", "linux", "chrome os", "ubuntu":
		return "desktop"
	}

	return keywordDeviceType(userAgent)
}

// keywordDeviceType определяет тип устройства по ключевым словам
func keywordDeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)

	for _, keyword := range []string{"bot", "crawler", "spider", "curl", "wget"} {
		if strings.Contains(ua, keyword) {
			return "bot"
		}
	}
	for _, keyword := range []string{"tablet", "ipad", "kindle", "silk"} {
		if strings.Contains(ua, keyword) {
			return "tablet"
		}
	}
	for _, keyword := range []string{"mobile", "android", "iphone", "ipod", "opera mini"} {
		if strings.Contains(ua, keyword) {
			return "mobile"
		}
	}

	return "desktop"
}
