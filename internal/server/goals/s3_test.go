package goals

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/goalkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	getErr  error
	putErr  error
	lastPut *s3.PutObjectInput
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.lastPut = in
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_SaveLoad(t *testing.T) {
	fake := newFakeS3()
	s := newS3Store(fake, "goals", "users/")

	in := []Goal{{Name: "a", Deadline: "2024-01-01"}}
	require.NoError(t, s.Save(context.Background(), "alice.json", in))
	require.NotNil(t, fake.lastPut)
	assert.Equal(t, "users/alice.json", aws.ToString(fake.lastPut.Key))
	assert.Equal(t, "application/json", aws.ToString(fake.lastPut.ContentType))

	got, err := s.Load(context.Background(), "alice.json")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestS3Store_MissingObjectIsEmpty(t *testing.T) {
	s := newS3Store(newFakeS3(), "goals", "")
	got, err := s.Load(context.Background(), "nobody.json")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestS3Store_APIErrorNotFound(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = &smithy.GenericAPIError{Code: "NotFound", Message: "gone"}
	s := newS3Store(fake, "goals", "")

	got, err := s.Load(context.Background(), "x.json")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestS3Store_Failures(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = errors.New("connection refused")
	fake.putErr = errors.New("connection refused")
	s := newS3Store(fake, "goals", "")

	_, err := s.Load(context.Background(), "x.json")
	require.ErrorIs(t, err, common.ErrorStoreIO)
	require.ErrorIs(t, s.Save(context.Background(), "x.json", nil), common.ErrorStoreIO)
	_, err = s.Load(context.Background(), "../x.json")
	require.ErrorIs(t, err, ErrInvalidPathway)
}

func TestS3Store_Locate(t *testing.T) {
	s := newS3Store(newFakeS3(), "goals", "p/")
	assert.Equal(t, "s3://goals/p/alice.json", s.Locate("alice.json"))
}

func TestNewS3Store_UsesSeams(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	var gotOpts s3.Options
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		return aws.Config{Region: lo.Region}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&gotOpts)
		}
		return s3.New(s3.Options{Region: cfg.Region})
	}

	s, err := NewS3Store(context.Background(), S3Config{
		Region: "eu-west-1", AccessKey: "k", SecretKey: "s",
		BaseEndpoint: "http://minio:9000", Bucket: "goals",
	})
	require.NoError(t, err)
	assert.Equal(t, "goals", s.bucket)
	assert.Equal(t, "http://minio:9000", aws.ToString(gotOpts.BaseEndpoint))
	assert.True(t, gotOpts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = NewS3Store(context.Background(), S3Config{})
	require.Error(t, err)
}
