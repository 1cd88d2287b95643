package globalconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecretsFile(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ConfigDirName)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SecretsFileName), []byte(content), 0600))
}

func TestParseEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	content := `# Scaleway credentials
SCW_SECRET_KEY="aaaa-bbbb"
QUOTED='single'
PLAIN=value
EQUALS=a=b=c

not-a-pair
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	vars, err := ParseEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"SCW_SECRET_KEY": "aaaa-bbbb",
		"QUOTED":         "single",
		"PLAIN":          "value",
		"EQUALS":         "a=b=c",
	}, vars)
}

func TestParseEnvFileMissing(t *testing.T) {
	_, err := ParseEnvFile(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
}

func TestResolveSecretKeyPrefersExplicit(t *testing.T) {
	testConfigHome(t)
	t.Setenv(SecretKeyEnv, "from-env")

	key, err := ResolveSecretKey("from-flag")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", key)
}

func TestResolveSecretKeyFromEnvironment(t *testing.T) {
	testConfigHome(t)
	t.Setenv(SecretKeyEnv, "from-env")

	key, err := ResolveSecretKey("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestResolveSecretKeyFromSecretsFile(t *testing.T) {
	home := testConfigHome(t)
	t.Setenv(SecretKeyEnv, "")
	writeSecretsFile(t, home, "SCW_SECRET_KEY=\"from-file\"\n")

	cfg := NewConfig()
	cfg.SecretKey = "from-config"
	require.NoError(t, cfg.Save())

	// secrets.env outranks the key stored in config.yaml.
	key, err := ResolveSecretKey("")
	require.NoError(t, err)
	assert.Equal(t, "from-file", key)
}

func TestResolveSecretKeyFromConfig(t *testing.T) {
	testConfigHome(t)
	t.Setenv(SecretKeyEnv, "")

	cfg := NewConfig()
	cfg.SecretKey = "from-config"
	require.NoError(t, cfg.Save())

	key, err := ResolveSecretKey("")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)
}

func TestResolveSecretKeyNowhere(t *testing.T) {
	testConfigHome(t)
	t.Setenv(SecretKeyEnv, "")

	_, err := ResolveSecretKey("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), SecretKeyEnv)
}
