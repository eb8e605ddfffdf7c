package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/guaranty/internal/idgen"
	"github.com/viant/guaranty/model/grant"
	"github.com/viant/guaranty/service/dao"
)

func TestStore(t *testing.T) {
	addr := os.Getenv("GUARANTY_REDIS_ADDR")
	if addr == "" {
		t.Skip("GUARANTY_REDIS_ADDR not set")
	}
	ctx := context.Background()
	srv, err := Connect(ctx, addr, "", 0, WithPrefix("guaranty:test:"+idgen.New()+":"), WithRetention(time.Minute))
	require.NoError(t, err)

	g := &grant.Grant{Digest: grant.Digest("token"), ActorID: "a1", PolicyID: "p1", IssuedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, srv.Save(ctx, g))

	loaded, err := srv.Load(ctx, g.Digest)
	require.NoError(t, err)
	assert.Equal(t, "a1", loaded.ActorID)

	listed, err := srv.List(ctx, dao.NewParameter(dao.ParamActorID, "a1"))
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, srv.Delete(ctx, g.Digest))
	_, err = srv.Load(ctx, g.Digest)
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
