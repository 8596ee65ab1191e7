package backup

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tradehub/internal/repository"
	memstore "github.com/prn-tf/tradehub/internal/repository/memory"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.input = in
	f.body = body
	return &s3.PutObjectOutput{ETag: aws.String(`"etag-1"`)}, nil
}

func TestExporter_Export(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewStore(zerolog.Nop())
	require.NoError(t, store.Put(ctx, repository.CollectionUsers, "u-1", repository.Document{"id": "u-1", "email": "a@example.com"}))
	require.NoError(t, store.Put(ctx, repository.CollectionUsers, "u-2", repository.Document{"id": "u-2", "email": "b@example.com"}))
	require.NoError(t, store.Put(ctx, repository.CollectionMarketData, "AAPL", repository.Document{"symbol": "AAPL", "price": 175.5}))

	putter := &fakePutter{}
	e := NewExporter(store, putter, "backups", "snapshots", zerolog.Nop())
	e.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	res, err := e.Export(ctx)
	require.NoError(t, err)
	require.Equal(t, "snapshots/20240301T093000Z.json", res.Key)
	require.Equal(t, "backups", aws.ToString(putter.input.Bucket))
	require.Equal(t, `"etag-1"`, res.ETag)
	require.Equal(t, 2, res.Documents[repository.CollectionUsers])
	require.Equal(t, 1, res.Documents[repository.CollectionMarketData])
	require.Equal(t, 0, res.Documents[repository.CollectionOrders])

	sha := sha256.Sum256(putter.body)
	md := md5.Sum(putter.body)
	require.Equal(t, hex.EncodeToString(sha[:]), res.SHA256)
	require.Equal(t, res.SHA256, putter.input.Metadata["sha256"])
	require.Equal(t, base64.StdEncoding.EncodeToString(md[:]), aws.ToString(putter.input.ContentMD5))
	require.Equal(t, int64(len(putter.body)), res.Size)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(putter.body, &snap))
	require.Len(t, snap.Collections[repository.CollectionUsers], 2)
	require.Equal(t, "u-1", snap.Collections[repository.CollectionUsers][0]["id"])
}

func TestExporter_UploadError(t *testing.T) {
	store := memstore.NewStore(zerolog.Nop())
	e := NewExporter(store, &fakePutter{err: errors.New("access denied")}, "backups", "", zerolog.Nop())

	_, err := e.Export(context.Background())
	require.ErrorContains(t, err, "access denied")
}
