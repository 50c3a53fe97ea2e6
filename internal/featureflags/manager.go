// Package featureflags evaluates the FEATURE_FLAGS setting.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

const (
	// InviteEmailReminders gates the reminder email task enqueued by RemindInvite.
	// With the flag off a remind only bumps the invite's counter.
	InviteEmailReminders = "invite_email_reminders"
	// InboxStream gates the websocket invalidation stream for the inbox.
	InboxStream = "inbox_stream"
)

// known flags are always reported by Evaluate, configured or not.
var known = []string{InviteEmailReminders, InboxStream}

type rule struct {
	value   string
	percent int
}

// Manager holds the parsed flag rules. A nil Manager disables everything.
type Manager struct {
	rules map[string]rule
}

// NewManager parses comma-separated name=value pairs such as
// "invite_email_reminders=on,inbox_stream=25%". Values are on/off
// (true/false, 1/0 also work) or a per-user rollout percentage. Pairs
// without a name or value are skipped; unknown values evaluate off.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		rules[name] = rule{value: value, percent: rollout(value)}
	}
	return &Manager{rules: rules}
}

func rollout(value string) int {
	switch value {
	case "on", "true", "1":
		return 100
	case "off", "false", "0":
		return 0
	}
	pct, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(pct)
	if err != nil {
		return 0
	}
	return min(max(n, 0), 100)
}

// Enabled reports whether name is on for userID. Partial rollouts put each
// user in a stable bucket per flag, and never include the anonymous user 0.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	switch {
	case !ok || r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < r.percent
}

// Raw returns the configured values after normalization.
func (m *Manager) Raw() map[string]string {
	out := map[string]string{}
	if m == nil {
		return out
	}
	for name, r := range m.rules {
		out[name] = r.value
	}
	return out
}

// Evaluate reports every configured flag and every flag the service
// consults, as seen by userID.
func (m *Manager) Evaluate(userID uint) map[string]bool {
	out := map[string]bool{}
	if m != nil {
		for name := range m.rules {
			out[name] = m.Enabled(name, userID)
		}
	}
	for _, name := range known {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
