package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAgent(t *testing.T) {
	assert.Equal(t, AgentCron, ParseAgent("cron"))
	assert.Equal(t, AgentCLI, ParseAgent(" CLI "))
	assert.Equal(t, AgentREST, ParseAgent("rest"))
	assert.Equal(t, AgentXMLRPC, ParseAgent("xmlrpc"))
	assert.Equal(t, AgentInteractive, ParseAgent(""))
	assert.Equal(t, AgentInteractive, ParseAgent("something-else"))
}

func TestClassifyAgent(t *testing.T) {
	const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	tests := []struct {
		name      string
		declared  string
		userAgent string
		want      Agent
	}{
		{name: "declared wins over user agent", declared: "cron", userAgent: chromeUA, want: AgentCron},
		{name: "browser is interactive", userAgent: chromeUA, want: AgentInteractive},
		{name: "curl is cli", userAgent: "curl/8.4.0", want: AgentCLI},
		{name: "wp-cli is cli", userAgent: "WP-CLI/2.9.0", want: AgentCLI},
		{name: "wget is cli", userAgent: "Wget/1.21", want: AgentCLI},
		{name: "empty user agent is rest", want: AgentREST},
		{name: "sdk client is rest", userAgent: "streamlog-go-sdk/1.2", want: AgentREST},
		{
			name:      "crawler is rest",
			userAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			want:      AgentREST,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyAgent(tt.declared, tt.userAgent))
		})
	}
}

func TestAgentContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, AgentInteractive, AgentKind(ctx))

	ctx = WithAgent(ctx, AgentCron)
	assert.Equal(t, AgentCron, AgentKind(ctx))
	assert.True(t, AgentKind(ctx).IsBackground())
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()

	_, ok := User(ctx)
	assert.False(t, ok)
	assert.Equal(t, int64(1), SiteID(ctx))
	assert.Equal(t, int64(1), BlogID(ctx))

	info := UserInfo{ID: 9, Login: "jsmith", Roles: []string{"editor", "author"}}
	ctx = WithUser(ctx, info)

	got, ok := User(ctx)
	assert.True(t, ok)
	assert.Equal(t, info, got)
	assert.Equal(t, info.ID, UserID(ctx))
	assert.Equal(t, "editor", got.FirstRole())

	assert.Empty(t, UserInfo{}.FirstRole())
}
