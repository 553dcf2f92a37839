package requestcontext

import (
	"context"
	"strings"

	"github.com/mssola/useragent"
)

// Agent classifies the principal that caused an event. The stream
// logger records it in author metadata and uses it to decide whether a
// background job event should be logged at all.
type Agent string

const (
	AgentInteractive Agent = "interactive"
	AgentCron        Agent = "cron"
	AgentCLI         Agent = "cli"
	AgentREST        Agent = "rest"
	AgentXMLRPC      Agent = "xmlrpc"
)

// IsBackground reports whether the agent is a scheduled/background job.
func (a Agent) IsBackground() bool { return a == AgentCron }

func (a Agent) String() string { return string(a) }

// ParseAgent maps a declared agent string to a known kind. Unknown or
// empty values fall back to interactive.
func ParseAgent(s string) Agent {
	switch Agent(strings.ToLower(strings.TrimSpace(s))) {
	case AgentCron:
		return AgentCron
	case AgentCLI:
		return AgentCLI
	case AgentREST:
		return AgentREST
	case AgentXMLRPC:
		return AgentXMLRPC
	default:
		return AgentInteractive
	}
}

// cliTokens are User-Agent fragments produced by command line tooling.
var cliTokens = []string{"wp-cli", "curl/", "wget/", "httpie"}

// ClassifyAgent infers the agent kind from transport hints. An explicit
// declaration (the X-Stream-Agent header, a CLI runner) wins; otherwise
// the User-Agent string is parsed. Non-browser agents without a
// recognizable CLI token are treated as REST callers, matching how
// machine-to-machine traffic reaches the ingest endpoint.
func ClassifyAgent(declared, userAgent string) Agent {
	if declared != "" {
		return ParseAgent(declared)
	}
	if userAgent == "" {
		return AgentREST
	}

	lower := strings.ToLower(userAgent)
	for _, token := range cliTokens {
		if strings.Contains(lower, token) {
			return AgentCLI
		}
	}

	ua := useragent.New(userAgent)
	if name, _ := ua.Browser(); name != "" && !ua.Bot() {
		return AgentInteractive
	}
	return AgentREST
}

// AgentKind retrieves the classified agent from the context, defaulting
// to interactive.
func AgentKind(ctx context.Context) Agent {
	if agent, ok := ctx.Value(agentKey{}).(Agent); ok {
		return agent
	}
	return AgentInteractive
}

// WithAgent injects a classified agent into the context.
func WithAgent(ctx context.Context, agent Agent) context.Context {
	return context.WithValue(ctx, agentKey{}, agent)
}
