package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_OnOff(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0,g=maybe")

	for _, name := range []string{"a", "c", "e", " A "} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "g", "missing"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_Rollout(t *testing.T) {
	m := NewManager("all=100%,none=0%,over=150%,canary=25%,junk=x%")

	assert.True(t, m.Enabled("all", 1))
	assert.True(t, m.Enabled("over", 1))
	assert.False(t, m.Enabled("none", 1))
	assert.False(t, m.Enabled("junk", 1))
	assert.False(t, m.Enabled("canary", 0), "anonymous users are never in a partial rollout")

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42))
	}

	in := 0
	for uid := uint(1); uid <= 1000; uid++ {
		if m.Enabled("canary", uid) {
			in++
		}
	}
	assert.InDelta(t, 250, in, 120)
}

func TestRawSkipsMalformedPairs(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=off,=on,w= ")
	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())
}

func TestEvaluate_ReportsConsultedFlags(t *testing.T) {
	got := NewManager("invite_email_reminders=off,beta=on").Evaluate(7)
	assert.Equal(t, map[string]bool{
		InviteEmailReminders: false,
		InboxStream:          false,
		"beta":               true,
	}, got)
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(InviteEmailReminders, 1))
	assert.Empty(t, m.Raw())
	assert.Equal(t, map[string]bool{InviteEmailReminders: false, InboxStream: false}, m.Evaluate(1))
}
