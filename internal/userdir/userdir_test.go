package userdir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswdHome(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{"regular user", "alice:x:1000:1000:Alice,,,:/home/alice:/bin/bash\n", "/home/alice"},
		{"system user", "daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin\n", ""},
		{"root home", "toor:x:1001:0::/root:/bin/sh\n", ""},
		{"short line", "alice:x:1000\n", ""},
		{"first regular wins", "svc:x:999:999::/var/svc:/bin/false\nbob:x:1002:1002::/home/bob:/bin/zsh\n", "/home/bob"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, passwdHome(tt.out))
		})
	}
}

func TestHomeIsNeverEmpty(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	t.Setenv("PKEXEC_UID", "")
	assert.NotEmpty(t, Home())
	assert.NotEmpty(t, Downloads())
}
