package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParser_DeviceType(t *testing.T) {
	parser := NewParser(zap.NewNop())

	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{
			"desktop chrome",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			"desktop",
		},
		{
			"iphone",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			"mobile",
		},
		{
			"ipad",
			"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			"tablet",
		},
		{
			"android phone",
			"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36",
			"mobile",
		},
		{
			"android tablet",
			"Mozilla/5.0 (Linux; Android 14; SM-X910) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			"tablet",
		},
		{
			"googlebot",
			"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			"bot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parser.DeviceType(tt.userAgent))
		})
	}
}

func TestDeviceType_KeywordFallback(t *testing.T) {
	assert.Equal(t, "unknown", DeviceType(""))
	assert.Equal(t, "bot", keywordDeviceType("curl/8.4.0"))
	assert.Equal(t, "tablet", keywordDeviceType("something Kindle something"))
	assert.Equal(t, "mobile", keywordDeviceType("Opera Mini browser"))
	assert.Equal(t, "desktop", keywordDeviceType("Some Unrecognized Agent"))
}
