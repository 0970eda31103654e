// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sci-dl/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "proxy-user", "  alice  \n")
				writeFile(t, dir, "proxy-password", "s3cret;\n")
				return dir
			},
			want: map[string]string{
				"proxy-user":     "alice",
				"proxy-password": "s3cret;",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "proxy-user", "bob")
				writeFile(t, dir, "proxy-password", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"proxy-user": "bob",
			},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".proxy-password", "hidden")
				writeFile(t, dir, "proxy-password", "real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"proxy-password": "real",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadNotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file", "x")

	_, err := Load(filepath.Join(dir, "file"), zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading secrets directory")
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, "proxy-user", "alice")

	badPath := filepath.Join(dir, "proxy-password")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	var logBuf bytes.Buffer
	got, err := Load(dir, zerolog.New(&logBuf))
	require.NoError(t, err)
	assert.Equal(t, "alice", got["proxy-user"])
	_, hasBad := got["proxy-password"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
	assert.Contains(t, logBuf.String(), "could not read secret")
}

func TestApplyProxyCredentials(t *testing.T) {
	s := map[string]string{ProxyUserKey: "alice", ProxyPasswordKey: "pw"}

	cfg := types.ProxyConfig{}
	ApplyProxyCredentials(&cfg, s)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, "pw", cfg.Password)

	cfg = types.ProxyConfig{User: "carol"}
	ApplyProxyCredentials(&cfg, s)
	assert.Equal(t, "carol", cfg.User, "configured value wins")
	assert.Equal(t, "pw", cfg.Password)

	cfg = types.ProxyConfig{}
	ApplyProxyCredentials(&cfg, map[string]string{})
	assert.Empty(t, cfg.User)
	assert.Empty(t, cfg.Password)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
