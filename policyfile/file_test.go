package policyfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistio/persist/policy"
)

const sampleDoc = `
defaults:
  retries: 5
  minTimeout: 50ms
  maxTimeout: 2s
policies:
  gateway.fetch:
    retries: 3
    classifier: always
  batch.sync:
    retries: unlimited
    maxRetryTime: 30s
  slow.poll:
    maxTimeout: unlimited
    randomize: true
`

func TestLoadBytes_PoliciesInheritDefaults(t *testing.T) {
	p, err := LoadBytes([]byte(sampleDoc))
	require.NoError(t, err)

	ctx := context.Background()

	pol, err := p.Options(ctx, policy.Key{Namespace: "gateway", Name: "fetch"})
	require.NoError(t, err)
	assert.Equal(t, 3, pol.Retries)
	assert.Equal(t, 50*time.Millisecond, pol.MinTimeout)
	assert.Equal(t, 2*time.Second, pol.MaxTimeout)
	assert.Equal(t, "always", pol.Classifier)

	pol, err = p.Options(ctx, policy.Key{Namespace: "batch", Name: "sync"})
	require.NoError(t, err)
	assert.Equal(t, policy.UnlimitedRetries, pol.Retries)
	assert.Equal(t, 30*time.Second, pol.MaxRetryTime)

	pol, err = p.Options(ctx, policy.Key{Namespace: "slow", Name: "poll"})
	require.NoError(t, err)
	assert.Equal(t, policy.Unlimited, pol.MaxTimeout)
	assert.True(t, pol.Randomize)
}

func TestLoadBytes_UnknownKeyServesDefaults(t *testing.T) {
	p, err := LoadBytes([]byte(sampleDoc))
	require.NoError(t, err)

	pol, err := p.Options(context.Background(), policy.Key{Namespace: "no", Name: "such"})
	require.NoError(t, err)
	assert.Equal(t, 5, pol.Retries)
	assert.Equal(t, 50*time.Millisecond, pol.MinTimeout)
}

func TestLoadBytes_EmptyDocumentServesBuiltinDefaults(t *testing.T) {
	p, err := LoadBytes([]byte(""))
	require.NoError(t, err)

	pol, err := p.Options(context.Background(), policy.Key{Name: "anything"})
	require.NoError(t, err)
	assert.Equal(t, policy.Defaults(), pol)
}

func TestLoadBytes_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("PERSIST_RETRIES", "2")
	t.Setenv("PERSIST_MIN_TIMEOUT", "10ms")
	t.Setenv("PERSIST_MAX_RETRY_TIME", "unlimited")

	p, err := LoadBytes([]byte(sampleDoc))
	require.NoError(t, err)

	pol, err := p.Options(context.Background(), policy.Key{Name: "unknown"})
	require.NoError(t, err)
	assert.Equal(t, 2, pol.Retries)
	assert.Equal(t, 10*time.Millisecond, pol.MinTimeout)
	assert.Equal(t, policy.Unlimited, pol.MaxRetryTime)

	// Per-policy values still win over the env-adjusted defaults.
	pol, err = p.Options(context.Background(), policy.Key{Namespace: "gateway", Name: "fetch"})
	require.NoError(t, err)
	assert.Equal(t, 3, pol.Retries)
}

func TestLoadBytes_RetriesParseErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "non-number",
			doc:  "defaults:\n  retries: lots\n",
			want: "retries must be a number or unlimited",
		},
		{
			name: "nan string",
			doc:  "defaults:\n  retries: \"NaN\"\n",
			want: "retries must be a valid number or unlimited, got NaN",
		},
		{
			name: "nan float",
			doc:  "defaults:\n  retries: .nan\n",
			want: "retries must be a valid number or unlimited, got NaN",
		},
		{
			name: "negative",
			doc:  "defaults:\n  retries: -3\n",
			want: "retries must be a non-negative number",
		},
		{
			name: "fractional",
			doc:  "defaults:\n  retries: 2.5\n",
			want: "retries must be a number or unlimited",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tc.doc))
			require.Error(t, err)
			var verr *policy.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.want, verr.Msg)
		})
	}
}

func TestLoadBytes_ForeverRejected(t *testing.T) {
	_, err := LoadBytes([]byte("policies:\n  old.timer:\n    forever: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "old.timer")
	assert.Contains(t, err.Error(), "no longer supported")
}

func TestLoadBytes_InvalidYAML(t *testing.T) {
	_, err := LoadBytes([]byte("defaults: [unbalanced"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing policy document")
}

func TestLoadBytes_SchemaViolation(t *testing.T) {
	_, err := LoadBytes([]byte("defaults:\n  minTimeout: -5ms\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDocumentInvalid)
}

func TestLoad_FromFileAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  retries: 1\n"), 0o600))

	p, err := Load(path)
	require.NoError(t, err)

	pol, err := p.Options(context.Background(), policy.Key{Name: "op"})
	require.NoError(t, err)
	assert.Equal(t, 1, pol.Retries)

	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  retries: 7\n"), 0o600))
	p2, err := p.Reload()
	require.NoError(t, err)

	pol, err = p2.Options(context.Background(), policy.Key{Name: "op"})
	require.NoError(t, err)
	assert.Equal(t, 7, pol.Retries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestReload_BytesProvider(t *testing.T) {
	p, err := LoadBytes([]byte(sampleDoc))
	require.NoError(t, err)

	_, err = p.Reload()
	require.Error(t, err)
}

func TestParseRetries_Values(t *testing.T) {
	n, err := parseRetries("unlimited")
	require.NoError(t, err)
	assert.Equal(t, policy.UnlimitedRetries, n)

	n, err = parseRetries(" Unlimited ")
	require.NoError(t, err)
	assert.Equal(t, policy.UnlimitedRetries, n)

	n, err = parseRetries("4")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = parseRetries(4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = parseRetries(float64(4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = parseRetries(true)
	require.Error(t, err)
	var verr *policy.ValidationError
	assert.True(t, errors.As(err, &verr))
}
