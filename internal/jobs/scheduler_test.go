package jobs

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCronScheduler(t *testing.T) {
	f := newFixture(t)
	r := f.runner(okJob("sample-job"), okJob("other-job"))

	c, err := NewCronScheduler(context.Background(), r, f.st.Tenants(), map[string]string{
		"sample-job": "0 2 * * *",
		"other-job":  "30 2 * * *",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)
}

func TestNewCronScheduler_Rejections(t *testing.T) {
	f := newFixture(t)
	r := f.runner(okJob("sample-job"))

	_, err := NewCronScheduler(context.Background(), r, f.st.Tenants(), map[string]string{"missing-job": "0 2 * * *"}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnknownJob)

	_, err = NewCronScheduler(context.Background(), r, f.st.Tenants(), map[string]string{"sample-job": "every night"}, zerolog.Nop())
	assert.Error(t, err)
}
