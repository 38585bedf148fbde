package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Key)] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	data, ok := f.objects[aws.ToString(in.Key)]
	f.mu.Unlock()
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Store(t *testing.T) {
	fake := newFakeS3()
	s := newS3Store(fake, "bucket", "pacer/")
	exerciseStore(t, s)

	_, ok := fake.objects["pacer/fitness_goals.json"]
	assert.True(t, ok)
}

func TestS3StoreErrors(t *testing.T) {
	fake := newFakeS3()
	s := newS3Store(fake, "bucket", "")

	fake.putErr = errors.New("access denied")
	err := s.Save(context.Background(), "k", []sample{})
	assert.ErrorContains(t, err, "failed to upload k to S3")

	fake.getErr = errors.New("timeout")
	var out []sample
	found, err := s.Retrieve(context.Background(), "k", &out)
	assert.False(t, found)
	assert.ErrorContains(t, err, "timeout")
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(errors.New("api error NoSuchKey: gone")))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{}, zap.NewNop())
	assert.EqualError(t, err, "s3 bucket is required")
}

func TestS3ObjectKey(t *testing.T) {
	s := newS3Store(newFakeS3(), "b", "p/")
	require.Equal(t, "p/goal_progress.json", s.objectKey("goal_progress"))
}
